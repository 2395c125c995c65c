package output

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/sdejongh/doccompare/pkg/models"
	"github.com/sdejongh/doccompare/pkg/render"
	"github.com/sdejongh/doccompare/pkg/viewer"
)

// HumanFormatter formats output in human-readable format
type HumanFormatter struct {
	writer io.Writer
	term   *render.Terminal
	now    func() time.Time
}

// NewHumanFormatter creates a new human-readable formatter
func NewHumanFormatter(writer io.Writer, term *render.Terminal) *HumanFormatter {
	if writer == nil {
		writer = io.Discard
	}
	if term == nil {
		term = render.NewTerminal(TerminalWidth(writer), false)
	}
	return &HumanFormatter{writer: writer, term: term, now: time.Now}
}

// Documents lists a file group as a table
func (f *HumanFormatter) Documents(fileNo string, entries []models.DocumentEntry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintf(f.writer, "No documents found for file %s\n", fileNo)
		return err
	}

	fmt.Fprintf(f.writer, "File %s: %d documents\n\n", fileNo, len(entries))
	tw := tabwriter.NewWriter(f.writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tVERSION\tTYPE\tCREATED")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.DetailsID, e.DisplayName(), e.Version, e.FileType, f.created(e.CreatedOn))
	}
	return tw.Flush()
}

// created formats a createdOn value relative to now when it parses
func (f *HumanFormatter) created(createdOn string) string {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, createdOn); err == nil {
			return humanize.RelTime(t, f.now(), "ago", "from now")
		}
	}
	return createdOn
}

// Comparison prints the comparison header and the selected tab
func (f *HumanFormatter) Comparison(view ComparisonView) error {
	outcome := view.Outcome
	result := outcome.Result
	summary := result.Summary()

	fmt.Fprintf(f.writer, "Comparing %s (v%s) with %s (v%s)\n",
		result.LeftFile.FileName, orDash(result.LeftFile.Version),
		result.RightFile.FileName, orDash(result.RightFile.Version))
	fmt.Fprintf(f.writer, "  Similarity: %.2f%%\n", result.SimilarityPercentage)
	fmt.Fprintf(f.writer, "  Changes:    %s added, %s deleted, %s modified\n",
		humanize.Comma(int64(summary.AddedLines)),
		humanize.Comma(int64(summary.DeletedLines)),
		humanize.Comma(int64(summary.ModifiedLines)))
	if result.Message != "" {
		fmt.Fprintf(f.writer, "  Message:    %s\n", result.Message)
	}
	if result.DiffImagePath != "" {
		fmt.Fprintf(f.writer, "  Diff image: %s\n", result.DiffImagePath)
	}
	fmt.Fprintf(f.writer, "  Tabs:       %s\n", joinTabs(view.Tabs, view.Tab))
	fmt.Fprintln(f.writer)

	switch view.Tab {
	case viewer.TabDifferences:
		return f.term.DifferenceList(f.writer, result)

	case viewer.TabTextDiff:
		return f.term.TextDiff(f.writer, result, view.TextMode)

	case viewer.TabVisualDiff:
		return f.visual(view)

	default:
		left, leftErr := outcome.Preview(models.SideLeft)
		right, rightErr := outcome.Preview(models.SideRight)
		return f.term.Preview(f.writer,
			render.PreviewPane{Side: models.SideLeft, File: result.LeftFile, Asset: left, Err: leftErr, DownloadPath: view.DownloadPaths[0]},
			render.PreviewPane{Side: models.SideRight, File: result.RightFile, Asset: right, Err: rightErr, DownloadPath: view.DownloadPaths[1]},
		)
	}
}

func (f *HumanFormatter) visual(view ComparisonView) error {
	if view.Overlay {
		fmt.Fprintf(f.writer, "Overlay (opacity %.2f)\n", view.Opacity)
		if view.ImagePath != "" {
			fmt.Fprintf(f.writer, "Written to %s\n", view.ImagePath)
		}
		return nil
	}

	frame := view.Frame
	if frame == nil {
		_, err := fmt.Fprintln(f.writer, "Visual comparison was not computed")
		return err
	}
	if !frame.OK() {
		_, err := fmt.Fprintln(f.writer, frame.Caption)
		return err
	}

	fmt.Fprintf(f.writer, "Visual diff (threshold %.0f): %dx%d, %s of %s pixels differ (%.2f%%)\n",
		frame.Threshold, frame.Stats.Width, frame.Stats.Height,
		humanize.Comma(int64(frame.Stats.Different)),
		humanize.Comma(int64(frame.Stats.Pixels())),
		frame.Stats.Ratio()*100)
	if view.ImagePath != "" {
		fmt.Fprintf(f.writer, "Written to %s\n", view.ImagePath)
	}
	return nil
}

// Message prints a status line
func (f *HumanFormatter) Message(msg string) error {
	_, err := fmt.Fprintln(f.writer, msg)
	return err
}

// Error reports an error
func (f *HumanFormatter) Error(err error) error {
	_, werr := fmt.Fprintf(f.writer, "Error: %s\n", errorText(err))
	return werr
}

// Name returns the formatter name
func (f *HumanFormatter) Name() string {
	return "human"
}

func joinTabs(tabs []viewer.Tab, active viewer.Tab) string {
	names := make([]string, len(tabs))
	for i, t := range tabs {
		names[i] = string(t)
		if t == active {
			names[i] = "[" + names[i] + "]"
		}
	}
	return strings.Join(names, " ")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
