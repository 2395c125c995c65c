package output

import (
	"github.com/sdejongh/doccompare/pkg/compare"
	"github.com/sdejongh/doccompare/pkg/models"
	"github.com/sdejongh/doccompare/pkg/pixeldiff"
	"github.com/sdejongh/doccompare/pkg/render"
	"github.com/sdejongh/doccompare/pkg/viewer"
)

// ComparisonView is what a formatter shows of one comparison
type ComparisonView struct {
	Outcome *compare.Outcome
	Tab     viewer.Tab
	Tabs    []viewer.Tab
	// TextMode applies to the text diff tab
	TextMode render.Mode
	// Frame is the pixel diff of the visual tab, when computed
	Frame *pixeldiff.Frame
	// Overlay is set when the visual tab shows the overlay instead of the pixel diff
	Overlay bool
	Opacity float64
	// ImagePath is where the visual tab image was written, if anywhere
	ImagePath string
	// DownloadPaths are the fallback download paths of both sides
	DownloadPaths [2]string
}

// Formatter defines the interface for output formatting
// Implementations include human-readable and JSON formatters
type Formatter interface {
	// Documents lists the entries of a file group
	Documents(fileNo string, entries []models.DocumentEntry) error

	// Comparison shows one tab of a comparison
	Comparison(view ComparisonView) error

	// Message reports a plain status line
	Message(msg string) error

	// Error reports a failure
	Error(err error) error

	// Name returns the formatter name
	Name() string
}
