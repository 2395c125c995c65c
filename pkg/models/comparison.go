package models

import (
	"fmt"
)

// DifferenceType classifies a line-level difference
type DifferenceType string

const (
	// DiffAdded is a line present only on the right side
	DiffAdded DifferenceType = "ADDED"
	// DiffDeleted is a line present only on the left side
	DiffDeleted DifferenceType = "DELETED"
	// DiffModified is a line present on both sides with different content
	DiffModified DifferenceType = "MODIFIED"
)

// NoLine marks the absence of a corresponding line on one side
const NoLine = -1

// DifferenceEntry is one server-computed line difference
type DifferenceEntry struct {
	Type            DifferenceType `json:"type"`
	LeftLineNumber  int            `json:"leftLineNumber"`
	RightLineNumber int            `json:"rightLineNumber"`
	LeftContent     *string        `json:"leftContent"`
	RightContent    *string        `json:"rightContent"`
}

// Summary counts the classified lines of a comparison
type Summary struct {
	AddedLines    int `json:"addedLines"`
	DeletedLines  int `json:"deletedLines"`
	ModifiedLines int `json:"modifiedLines"`
}

// Total returns the number of differing lines
func (s Summary) Total() int {
	return s.AddedLines + s.DeletedLines + s.ModifiedLines
}

// SummarizeDifferences derives a summary from the difference list
func SummarizeDifferences(diffs []DifferenceEntry) Summary {
	var s Summary
	for _, d := range diffs {
		switch d.Type {
		case DiffAdded:
			s.AddedLines++
		case DiffDeleted:
			s.DeletedLines++
		case DiffModified:
			s.ModifiedLines++
		}
	}
	return s
}

// RawComparison is the optional raw payload carrying both sides' content
type RawComparison struct {
	LeftContent  []string `json:"leftContent,omitempty"`
	RightContent []string `json:"rightContent,omitempty"`
	Summary      Summary  `json:"summary"`
}

// ComparisonResult is the unified result of one comparison call.
// It is built once by the orchestrator and must be treated as read-only.
type ComparisonResult struct {
	Identical            bool              `json:"identical"`
	SimilarityPercentage float64           `json:"similarityPercentage"`
	Message              string            `json:"message"`
	Differences          []DifferenceEntry `json:"differences"`
	LeftFile             FileDescriptor    `json:"leftFile"`
	RightFile            FileDescriptor    `json:"rightFile"`
	Raw                  *RawComparison    `json:"comparisonResult,omitempty"`
	DiffImagePath        string            `json:"diffImagePath,omitempty"`
}

// Summary returns the raw summary when present, else one derived from the differences
func (r *ComparisonResult) Summary() Summary {
	if r.Raw != nil && r.Raw.Summary.Total() > 0 {
		return r.Raw.Summary
	}
	return SummarizeDifferences(r.Differences)
}

// Content returns the line array of one side, or nil
func (r *ComparisonResult) Content(side Side) []string {
	if r.Raw == nil {
		return nil
	}
	if side == SideLeft {
		return r.Raw.LeftContent
	}
	return r.Raw.RightContent
}

// CheckLineRefs reports the first difference referencing a line outside its side's content.
// Sides without content are not checked.
func (r *ComparisonResult) CheckLineRefs() error {
	left := r.Content(SideLeft)
	right := r.Content(SideRight)
	for i, d := range r.Differences {
		if left != nil && d.LeftLineNumber != NoLine && (d.LeftLineNumber < 1 || d.LeftLineNumber > len(left)) {
			return fmt.Errorf("difference %d: left line %d out of range (1..%d)", i, d.LeftLineNumber, len(left))
		}
		if right != nil && d.RightLineNumber != NoLine && (d.RightLineNumber < 1 || d.RightLineNumber > len(right)) {
			return fmt.Errorf("difference %d: right line %d out of range (1..%d)", i, d.RightLineNumber, len(right))
		}
	}
	return nil
}

// Side names one half of a comparison
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// PreviewAsset is a renderable payload held in a blob store
type PreviewAsset struct {
	// URL is the ephemeral blob reference
	URL         string `json:"url"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

// StringPtr returns a pointer to s
func StringPtr(s string) *string {
	return &s
}
