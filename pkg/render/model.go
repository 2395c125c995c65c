// Package render turns comparison results into difference lists and side-by-side
// text diffs, for terminals (lipgloss) and HTML pages.
package render

import (
	"html"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/sdejongh/doccompare/pkg/models"
)

// Texts shared by every flavor
const (
	NoContent        = "No content"
	NotAvailable     = "N/A"
	IdenticalMessage = "No differences found - the documents are identical"
	PreviewFailed    = "Unable to load preview"
)

// Class is the highlight class of a block or line
type Class string

const (
	ClassAdded    Class = "added"
	ClassDeleted  Class = "deleted"
	ClassModified Class = "modified"
	ClassNeutral  Class = "neutral"
)

// ClassOf maps a difference type to its highlight class
func ClassOf(t models.DifferenceType) Class {
	switch t {
	case models.DiffAdded:
		return ClassAdded
	case models.DiffDeleted:
		return ClassDeleted
	case models.DiffModified:
		return ClassModified
	default:
		return ClassNeutral
	}
}

// Mode selects what the text diff shows
type Mode string

const (
	// ModeFull shows both complete documents
	ModeFull Mode = "full"
	// ModeDifferences shows only the paired difference blocks
	ModeDifferences Mode = "differences"
)

// ParseMode parses a mode name, defaulting to ModeFull
func ParseMode(s string) Mode {
	if Mode(strings.ToLower(s)) == ModeDifferences {
		return ModeDifferences
	}
	return ModeFull
}

// Block is one paired Original / Modified entry of a difference list
type Block struct {
	Type  models.DifferenceType
	Class Class
	// Lines is the "left → right" line label
	Lines    string
	Original Cell
	Modified Cell
}

// Cell is one side of a block
type Cell struct {
	Text  string
	Empty bool
}

func cell(content *string) Cell {
	if content == nil {
		return Cell{Text: NoContent, Empty: true}
	}
	return Cell{Text: *content}
}

// LineLabel formats a line number pair, rendering models.NoLine as N/A
func LineLabel(left, right int) string {
	return lineNumber(left) + " → " + lineNumber(right)
}

func lineNumber(n int) string {
	if n == models.NoLine {
		return NotAvailable
	}
	return strconv.Itoa(n)
}

// Blocks converts the differences of a result into paired blocks
func Blocks(diffs []models.DifferenceEntry) []Block {
	blocks := make([]Block, 0, len(diffs))
	for _, d := range diffs {
		blocks = append(blocks, Block{
			Type:     d.Type,
			Class:    ClassOf(d.Type),
			Lines:    LineLabel(d.LeftLineNumber, d.RightLineNumber),
			Original: cell(d.LeftContent),
			Modified: cell(d.RightContent),
		})
	}
	return blocks
}

// ShowIdentical reports whether the dedicated identical state replaces the list
func ShowIdentical(result *models.ComparisonResult) bool {
	return result.Identical && len(result.Differences) == 0
}

// Line is one classified line of a full document
type Line struct {
	Number int
	Text   string
	Class  Class
}

// Document is one side of a full-document text diff
type Document struct {
	Side  models.Side
	Title string
	// Highlighted is the server markup; when set, Lines carry its text without classes
	Highlighted string
	Lines       []Line
}

// FullDocument builds one side of the text diff. Server-highlighted markup takes
// precedence over classification by line number; line references outside the
// content are ignored.
func FullDocument(result *models.ComparisonResult, side models.Side) Document {
	file := result.LeftFile
	if side == models.SideRight {
		file = result.RightFile
	}
	doc := Document{Side: side, Title: file.FileName}

	if file.HighlightedContent != "" {
		doc.Highlighted = file.HighlightedContent
		for i, text := range splitLines(StripMarkup(file.HighlightedContent)) {
			doc.Lines = append(doc.Lines, Line{Number: i + 1, Text: text, Class: ClassNeutral})
		}
		return doc
	}

	classes := lineClasses(result.Differences, side)
	for i, text := range result.Content(side) {
		n := i + 1
		class, ok := classes[n]
		if !ok {
			class = ClassNeutral
		}
		doc.Lines = append(doc.Lines, Line{Number: n, Text: text, Class: class})
	}
	return doc
}

// lineClasses maps each referenced 1-based line of a side to the class of the first
// difference referencing it
func lineClasses(diffs []models.DifferenceEntry, side models.Side) map[int]Class {
	classes := make(map[int]Class, len(diffs))
	for _, d := range diffs {
		n := d.LeftLineNumber
		if side == models.SideRight {
			n = d.RightLineNumber
		}
		if n == models.NoLine {
			continue
		}
		if _, seen := classes[n]; !seen {
			classes[n] = ClassOf(d.Type)
		}
	}
	return classes
}

var (
	stripPolicy    = bluemonday.StrictPolicy()
	sanitizePolicy = newSanitizePolicy()
	lineBreaks     = strings.NewReplacer("<br>", "\n", "<br/>", "\n", "<br />", "\n", "</div>", "</div>\n", "</p>", "</p>\n")
)

// newSanitizePolicy allows the span/div markup with classes that highlighters emit
func newSanitizePolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").OnElements("span", "div", "pre", "code", "del", "ins", "mark")
	return p
}

// StripMarkup returns the plain text of highlighted markup
func StripMarkup(markup string) string {
	return html.UnescapeString(stripPolicy.Sanitize(lineBreaks.Replace(markup)))
}

// SanitizeMarkup removes anything unsafe from highlighted markup
func SanitizeMarkup(markup string) string {
	return sanitizePolicy.Sanitize(markup)
}

func splitLines(s string) []string {
	s = strings.TrimRight(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// PreviewPane is one side of the preview tab
type PreviewPane struct {
	Side  models.Side
	File  models.FileDescriptor
	Asset *models.PreviewAsset
	Err   error
	// DownloadPath is offered when the preview failed
	DownloadPath string
}

// Available reports whether the pane has a preview
func (p PreviewPane) Available() bool {
	return p.Asset != nil && p.Err == nil
}
