package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/sdejongh/doccompare/pkg/models"
)

// DefaultWidth is used when the terminal width is unknown
const DefaultWidth = 100

// minColumnWidth keeps side-by-side columns readable on narrow terminals
const minColumnWidth = 20

// Terminal renders for a text terminal
type Terminal struct {
	width int
	color bool

	classStyles map[Class]lipgloss.Style
	header      lipgloss.Style
	muted       lipgloss.Style
}

// NewTerminal creates a terminal renderer. width <= 0 uses DefaultWidth.
func NewTerminal(width int, color bool) *Terminal {
	if width <= 0 {
		width = DefaultWidth
	}
	t := &Terminal{
		width:       width,
		color:       color,
		classStyles: make(map[Class]lipgloss.Style),
	}

	t.header = lipgloss.NewStyle()
	t.muted = lipgloss.NewStyle()
	for _, c := range []Class{ClassAdded, ClassDeleted, ClassModified, ClassNeutral} {
		t.classStyles[c] = lipgloss.NewStyle()
	}

	if color {
		t.header = t.header.Bold(true)
		t.muted = t.muted.Foreground(lipgloss.Color("245"))
		t.classStyles[ClassAdded] = t.classStyles[ClassAdded].Foreground(lipgloss.Color("2"))
		t.classStyles[ClassDeleted] = t.classStyles[ClassDeleted].Foreground(lipgloss.Color("1")).Strikethrough(true)
		t.classStyles[ClassModified] = t.classStyles[ClassModified].Foreground(lipgloss.Color("3"))
		t.classStyles[ClassNeutral] = t.classStyles[ClassNeutral].Foreground(lipgloss.Color("8"))
	}
	return t
}

// blockStyle colors a whole block; deleted blocks are not struck through
func (t *Terminal) blockStyle(c Class) lipgloss.Style {
	return t.classStyles[c].UnsetStrikethrough()
}

func (t *Terminal) columnWidth() int {
	w := (t.width - 3) / 2
	if w < minColumnWidth {
		w = minColumnWidth
	}
	return w
}

// DifferenceList writes the paired Original / Modified blocks of a result,
// or the identical state when there is nothing to list
func (t *Terminal) DifferenceList(w io.Writer, result *models.ComparisonResult) error {
	if ShowIdentical(result) {
		_, err := fmt.Fprintln(w, t.classStyles[ClassAdded].Render("✓ "+IdenticalMessage))
		return err
	}
	if len(result.Differences) == 0 {
		_, err := fmt.Fprintln(w, t.muted.Render("No line differences reported"))
		return err
	}

	col := lipgloss.NewStyle().Width(t.columnWidth())
	gap := strings.Repeat(" ", 3)

	for i, b := range Blocks(result.Differences) {
		if i > 0 {
			fmt.Fprintln(w)
		}
		style := t.blockStyle(b.Class)
		fmt.Fprintln(w, style.Render(fmt.Sprintf("[%s] Lines %s", b.Type, b.Lines)))

		left := col.Render(t.header.Render("Original") + "\n" + t.cellText(b.Original, style))
		right := col.Render(t.header.Render("Modified") + "\n" + t.cellText(b.Modified, style))
		if _, err := fmt.Fprintln(w, lipgloss.JoinHorizontal(lipgloss.Top, left, gap, right)); err != nil {
			return err
		}
	}
	return nil
}

func (t *Terminal) cellText(c Cell, style lipgloss.Style) string {
	if c.Empty {
		return t.muted.Italic(t.color).Render(c.Text)
	}
	return style.Render(c.Text)
}

// TextDiff writes the text diff tab in the requested mode
func (t *Terminal) TextDiff(w io.Writer, result *models.ComparisonResult, mode Mode) error {
	if mode == ModeDifferences {
		return t.DifferenceList(w, result)
	}

	left := t.document(FullDocument(result, models.SideLeft))
	right := t.document(FullDocument(result, models.SideRight))
	_, err := fmt.Fprintln(w, lipgloss.JoinHorizontal(lipgloss.Top, left, " │ ", right))
	return err
}

func (t *Terminal) document(doc Document) string {
	width := t.columnWidth()
	numWidth := len(fmt.Sprint(len(doc.Lines)))

	var b strings.Builder
	b.WriteString(t.header.Render(doc.Title))
	if len(doc.Lines) == 0 {
		b.WriteString("\n")
		b.WriteString(t.muted.Render(NoContent))
	}
	for _, line := range doc.Lines {
		b.WriteString("\n")
		prefix := fmt.Sprintf("%*d ", numWidth, line.Number)
		text := truncate(line.Text, width-len(prefix))
		b.WriteString(t.muted.Render(prefix))
		b.WriteString(t.classStyles[line.Class].Render(text))
	}
	return lipgloss.NewStyle().Width(width).Render(b.String())
}

// Preview writes the preview tab: metadata of both sides, and the fallback download
// path of any side whose preview failed
func (t *Terminal) Preview(w io.Writer, panes ...PreviewPane) error {
	for i, p := range panes {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, t.header.Render(fmt.Sprintf("%s: %s", strings.ToUpper(string(p.Side)), p.File.FileName)))
		if p.File.Version != "" {
			fmt.Fprintf(w, "  Version: %s\n", p.File.Version)
		}
		if p.File.FileType != "" {
			fmt.Fprintf(w, "  Type:    %s\n", p.File.FileType)
		}
		if p.Available() {
			fmt.Fprintf(w, "  Preview: %s (%s, %s)\n", p.Asset.URL, p.Asset.ContentType, humanize.IBytes(uint64(max(p.Asset.Size, 0))))
			continue
		}
		fmt.Fprintf(w, "  %s\n", t.classStyles[ClassDeleted].UnsetStrikethrough().Render(PreviewFailed))
		if p.DownloadPath != "" {
			fmt.Fprintf(w, "  Download: %s\n", p.DownloadPath)
		}
	}
	return nil
}

// truncate shortens s to n display cells
func truncate(s string, n int) string {
	if n <= 1 || lipgloss.Width(s) <= n {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > n {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}
