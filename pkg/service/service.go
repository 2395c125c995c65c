// Package service is the client of the document comparison service.
package service

import (
	"context"
	"encoding/json"
	"io"

	"github.com/sdejongh/doccompare/pkg/models"
)

// Service defines the comparison service endpoints used by the comparison engine
type Service interface {
	// ListDocuments returns the document entries of a file-number group
	ListDocuments(ctx context.Context, fileNo string) ([]models.DocumentEntry, error)

	// Compare requests the structural comparison of two documents
	Compare(ctx context.Context, firstFileID, secondFileID string) (*CompareResponse, error)

	// Download opens the binary payload at a download path (as built by preview.DownloadPath)
	Download(ctx context.Context, path string) (*Download, error)

	// DeleteDuplicate removes one duplicate document
	DeleteDuplicate(ctx context.Context, id string) error

	// DeleteDuplicatesOfOriginal removes every duplicate of an original group
	DeleteDuplicatesOfOriginal(ctx context.Context, groupID string) error
}

// Download is an open binary payload; the caller must close Body
type Download struct {
	Body        io.ReadCloser
	ContentType string
	// Size is the declared content length, -1 when unknown
	Size int64
}

// CompareResponse is the decoded "response" member of a successful comparison envelope
type CompareResponse struct {
	Identical            bool                     `json:"identical"`
	Message              string                   `json:"message"`
	SimilarityPercentage float64                  `json:"similarityPercentage"`
	Differences          []models.DifferenceEntry `json:"differences"`
	ComparisonResult     *ComparisonPayload       `json:"comparisonResult,omitempty"`
	DiffImagePath        string                   `json:"diffImagePath,omitempty"`
}

// ComparisonPayload is the raw per-side payload of a comparison
type ComparisonPayload struct {
	LeftFile  *FilePayload    `json:"leftFile,omitempty"`
	RightFile *FilePayload    `json:"rightFile,omitempty"`
	Summary   *models.Summary `json:"summary,omitempty"`
}

// FilePayload is a server file descriptor optionally carrying its content lines
type FilePayload struct {
	models.FileDescriptor
	Content []string `json:"content,omitempty"`
}

// UnmarshalJSON decodes the descriptor and the content separately, since the
// descriptor's own decoder would otherwise be promoted and drop the content
func (p *FilePayload) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &p.FileDescriptor); err != nil {
		return err
	}
	var body struct {
		Content []string `json:"content"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return err
	}
	p.Content = body.Content
	return nil
}

// envelope wraps every JSON response of the service
type envelope[T any] struct {
	Status   int    `json:"status"`
	Message  string `json:"message"`
	Response T      `json:"response"`
}

// successMessage is the envelope message of a successful call
const successMessage = "success"

func (e *envelope[T]) ok() bool {
	return e.Status == 200 && e.Message == successMessage
}

// compareRequest is the body of POST /documents/compare
type compareRequest struct {
	FirstFileID  string `json:"firstFileId"`
	SecondFileID string `json:"secondFileId"`
}
