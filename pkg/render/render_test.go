package render

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdejongh/doccompare/pkg/models"
)

func sampleResult() *models.ComparisonResult {
	return &models.ComparisonResult{
		SimilarityPercentage: 72.5,
		Differences: []models.DifferenceEntry{
			{Type: models.DiffModified, LeftLineNumber: 2, RightLineNumber: 2, LeftContent: models.StringPtr("beta"), RightContent: models.StringPtr("BETA")},
			{Type: models.DiffDeleted, LeftLineNumber: 3, RightLineNumber: models.NoLine, LeftContent: models.StringPtr("gamma")},
			{Type: models.DiffAdded, LeftLineNumber: models.NoLine, RightLineNumber: 4, RightContent: models.StringPtr("delta")},
			{Type: "MOVED", LeftLineNumber: 9, RightLineNumber: 9},
		},
		LeftFile:  models.FileDescriptor{FileName: "v1.txt"},
		RightFile: models.FileDescriptor{FileName: "v2.txt"},
		Raw: &models.RawComparison{
			LeftContent:  []string{"alpha", "beta", "gamma"},
			RightContent: []string{"alpha", "BETA", "epsilon", "delta"},
		},
	}
}

func TestBlocks(t *testing.T) {
	blocks := Blocks(sampleResult().Differences)
	require.Len(t, blocks, 4)

	assert.Equal(t, ClassModified, blocks[0].Class)
	assert.Equal(t, "2 → 2", blocks[0].Lines)
	assert.Equal(t, Cell{Text: "beta"}, blocks[0].Original)

	assert.Equal(t, ClassDeleted, blocks[1].Class)
	assert.Equal(t, "3 → N/A", blocks[1].Lines)
	assert.Equal(t, Cell{Text: NoContent, Empty: true}, blocks[1].Modified)

	assert.Equal(t, ClassAdded, blocks[2].Class)
	assert.Equal(t, "N/A → 4", blocks[2].Lines)
	assert.True(t, blocks[2].Original.Empty)

	assert.Equal(t, ClassNeutral, blocks[3].Class)
}

func TestShowIdentical(t *testing.T) {
	assert.True(t, ShowIdentical(&models.ComparisonResult{Identical: true}))
	assert.False(t, ShowIdentical(&models.ComparisonResult{}))
	assert.False(t, ShowIdentical(&models.ComparisonResult{
		Identical:   true,
		Differences: []models.DifferenceEntry{{Type: models.DiffAdded}},
	}))
}

func TestFullDocument_ClassifiesByLineNumber(t *testing.T) {
	result := sampleResult()

	left := FullDocument(result, models.SideLeft)
	assert.Equal(t, "v1.txt", left.Title)
	require.Len(t, left.Lines, 3)
	assert.Equal(t, []Class{ClassNeutral, ClassModified, ClassDeleted}, classes(left.Lines))

	right := FullDocument(result, models.SideRight)
	require.Len(t, right.Lines, 4)
	assert.Equal(t, []Class{ClassNeutral, ClassModified, ClassNeutral, ClassAdded}, classes(right.Lines))
	assert.Equal(t, 4, right.Lines[3].Number)
}

func TestFullDocument_HighlightedTakesPrecedence(t *testing.T) {
	result := sampleResult()
	result.LeftFile.HighlightedContent = `<div><span class="del">alpha</span></div><div>b &amp; c</div>`

	doc := FullDocument(result, models.SideLeft)
	assert.NotEmpty(t, doc.Highlighted)
	require.Len(t, doc.Lines, 2)
	assert.Equal(t, "alpha", doc.Lines[0].Text)
	assert.Equal(t, "b & c", doc.Lines[1].Text)
	assert.Equal(t, ClassNeutral, doc.Lines[0].Class)
}

func TestFullDocument_NoContent(t *testing.T) {
	doc := FullDocument(&models.ComparisonResult{}, models.SideRight)
	assert.Empty(t, doc.Lines)
}

func TestSanitizeMarkup(t *testing.T) {
	out := SanitizeMarkup(`<span class="add">ok</span><script>alert(1)</script>`)
	assert.Contains(t, out, `<span class="add">ok</span>`)
	assert.NotContains(t, out, "script")
}

func TestParseMode(t *testing.T) {
	assert.Equal(t, ModeDifferences, ParseMode("differences"))
	assert.Equal(t, ModeDifferences, ParseMode("DIFFERENCES"))
	assert.Equal(t, ModeFull, ParseMode("full"))
	assert.Equal(t, ModeFull, ParseMode(""))
}

func TestTerminal_DifferenceList(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTerminal(100, false).DifferenceList(&buf, sampleResult()))

	out := buf.String()
	assert.Contains(t, out, "[MODIFIED] Lines 2 → 2")
	assert.Contains(t, out, "[DELETED] Lines 3 → N/A")
	assert.Contains(t, out, "[ADDED] Lines N/A → 4")
	assert.Contains(t, out, "Original")
	assert.Contains(t, out, "Modified")
	assert.Contains(t, out, "gamma")
	assert.Contains(t, out, NoContent)
	assert.NotContains(t, out, "\x1b[", "no escape codes without color")
}

func TestTerminal_Identical(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTerminal(80, false).DifferenceList(&buf, &models.ComparisonResult{Identical: true}))
	assert.Contains(t, buf.String(), IdenticalMessage)
}

func TestTerminal_TextDiffFull(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTerminal(100, false).TextDiff(&buf, sampleResult(), ModeFull))

	out := buf.String()
	assert.Contains(t, out, "v1.txt")
	assert.Contains(t, out, "v2.txt")
	assert.Contains(t, out, "epsilon")
	assert.Contains(t, out, "│")
}

func TestTerminal_TextDiffDifferences(t *testing.T) {
	var full, diffs bytes.Buffer
	term := NewTerminal(100, false)
	require.NoError(t, term.TextDiff(&diffs, sampleResult(), ModeDifferences))
	require.NoError(t, term.DifferenceList(&full, sampleResult()))
	assert.Equal(t, full.String(), diffs.String())
}

func TestTerminal_Preview(t *testing.T) {
	var buf bytes.Buffer
	err := NewTerminal(80, false).Preview(&buf,
		PreviewPane{
			Side:  models.SideLeft,
			File:  models.FileDescriptor{FileName: "a.png", Version: "1"},
			Asset: &models.PreviewAsset{URL: "blob:1", ContentType: "image/png", Size: 2048},
		},
		PreviewPane{
			Side:         models.SideRight,
			File:         models.FileDescriptor{FileName: "b.png"},
			Err:          errors.New("boom"),
			DownloadPath: "/documents/download/x",
		},
	)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "LEFT: a.png")
	assert.Contains(t, out, "2.0 KiB")
	assert.Contains(t, out, PreviewFailed)
	assert.Contains(t, out, "Download: /documents/download/x")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefghij", 5))
}

func TestHTML_Page(t *testing.T) {
	result := sampleResult()
	result.RightFile.HighlightedContent = `<span class="ins">delta</span><img src=x onerror=alert(1)>`

	var buf bytes.Buffer
	require.NoError(t, NewHTML().Page(&buf, result, ModeFull))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, "72.50%")
	assert.Contains(t, out, `class="line deleted"`)
	assert.Contains(t, out, `<span class="ins">delta</span>`)
	assert.NotContains(t, out, "onerror")
}

func TestHTML_DifferencesMode(t *testing.T) {
	result := sampleResult()
	result.Differences[0].LeftContent = models.StringPtr("<b>x</b>")

	var buf bytes.Buffer
	require.NoError(t, NewHTML().Page(&buf, result, ModeDifferences))

	out := buf.String()
	assert.Contains(t, out, `class="block modified"`)
	assert.Contains(t, out, "&lt;b&gt;x&lt;/b&gt;")
	assert.Contains(t, out, `class="empty"`)
	assert.NotContains(t, out, `class="docs"`)
}

func TestHTML_Identical(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewHTML().DifferenceList(&buf, &models.ComparisonResult{Identical: true}))
	assert.Contains(t, buf.String(), IdenticalMessage)
}

func classes(lines []Line) []Class {
	out := make([]Class, len(lines))
	for i, l := range lines {
		out[i] = l.Class
	}
	return out
}
