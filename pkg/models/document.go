package models

import (
	"time"
)

// DocumentEntry is one versioned document belonging to a file group
type DocumentEntry struct {
	// DetailsID uniquely identifies the document version
	DetailsID string `json:"detailsId"`

	// FileName is the stored file name; DocName is the legacy display name
	FileName string `json:"fileName,omitempty"`
	DocName  string `json:"docName,omitempty"`

	Version   string `json:"version,omitempty"`
	FileType  string `json:"fileType,omitempty"`
	CreatedOn string `json:"createdOn,omitempty"`

	// Archive placement, used to build download paths
	Branch     string `json:"branch,omitempty"`
	Department string `json:"department,omitempty"`
	Year       string `json:"year,omitempty"`
	Category   string `json:"category,omitempty"`
}

// DisplayName returns the file name, falling back to the document name
func (e DocumentEntry) DisplayName() string {
	if e.FileName != "" {
		return e.FileName
	}
	return e.DocName
}

// Context returns the archive placement of the entry
func (e DocumentEntry) Context() ContextMetadata {
	year := e.Year
	if year == "" && e.CreatedOn != "" {
		year = yearOf(e.CreatedOn)
	}
	return ContextMetadata{
		Branch:     e.Branch,
		Department: e.Department,
		Year:       year,
		Category:   e.Category,
	}
}

// Descriptor converts the entry into a file descriptor
func (e DocumentEntry) Descriptor() FileDescriptor {
	return FileDescriptor{
		FileName:  e.DisplayName(),
		Version:   e.Version,
		FileType:  e.FileType,
		DetailsID: e.DetailsID,
	}
}

// yearOf extracts the year from a createdOn timestamp
func yearOf(createdOn string) string {
	layouts := []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, createdOn); err == nil {
			return t.Format("2006")
		}
	}
	return ""
}

// ContextMetadata locates a document inside the archive
type ContextMetadata struct {
	Branch     string
	Department string
	Year       string
	Category   string
}

// DocumentPool is one of the two independent selection slots
type DocumentPool struct {
	// GroupID is the chosen file number; empty when no group is chosen
	GroupID string

	// Entries are the documents of the group, in server order
	Entries []DocumentEntry
}

// Find returns the entry with the given details id
func (p DocumentPool) Find(detailsID string) (DocumentEntry, bool) {
	for _, entry := range p.Entries {
		if entry.DetailsID == detailsID {
			return entry, true
		}
	}
	return DocumentEntry{}, false
}

// FileDescriptor describes one side of a comparison
type FileDescriptor struct {
	FileName  string `json:"fileName"`
	Version   string `json:"version"`
	FileType  string `json:"fileType"`
	Path      string `json:"path,omitempty"`
	DetailsID string `json:"detailsId"`

	// HighlightedContent is optional server-rendered HTML markup
	HighlightedContent string `json:"highlightedContent,omitempty"`
}

// Merge overlays the non-empty fields of server onto d
func (d FileDescriptor) Merge(server FileDescriptor) FileDescriptor {
	merged := d
	if server.FileName != "" {
		merged.FileName = server.FileName
	}
	if server.Version != "" {
		merged.Version = server.Version
	}
	if server.FileType != "" {
		merged.FileType = server.FileType
	}
	if server.Path != "" {
		merged.Path = server.Path
	}
	if server.DetailsID != "" {
		merged.DetailsID = server.DetailsID
	}
	if server.HighlightedContent != "" {
		merged.HighlightedContent = server.HighlightedContent
	}
	return merged
}
