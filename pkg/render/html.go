package render

import (
	"fmt"
	"html/template"
	"io"

	"github.com/sdejongh/doccompare/pkg/models"
)

// HTML renders self-contained HTML fragments and pages
type HTML struct {
	tmpl *template.Template
}

// NewHTML parses the HTML templates
func NewHTML() *HTML {
	return &HTML{tmpl: template.Must(template.New("render").Funcs(template.FuncMap{
		"safe": func(s string) template.HTML { return template.HTML(SanitizeMarkup(s)) },
	}).Parse(htmlTemplates))}
}

type htmlDocument struct {
	Document
	HasMarkup bool
}

type htmlPage struct {
	Title         string
	Result        *models.ComparisonResult
	Summary       models.Summary
	Identical     bool
	Message       string
	Blocks        []Block
	Mode          Mode
	Left, Right   htmlDocument
	ShowDocuments bool
}

// Page writes a complete HTML report of a comparison
func (h *HTML) Page(w io.Writer, result *models.ComparisonResult, mode Mode) error {
	left := FullDocument(result, models.SideLeft)
	right := FullDocument(result, models.SideRight)
	page := htmlPage{
		Title:         fmt.Sprintf("%s ↔ %s", result.LeftFile.FileName, result.RightFile.FileName),
		Result:        result,
		Summary:       result.Summary(),
		Identical:     ShowIdentical(result),
		Message:       IdenticalMessage,
		Blocks:        Blocks(result.Differences),
		Mode:          mode,
		Left:          htmlDocument{Document: left, HasMarkup: left.Highlighted != ""},
		Right:         htmlDocument{Document: right, HasMarkup: right.Highlighted != ""},
		ShowDocuments: mode == ModeFull,
	}
	return h.tmpl.ExecuteTemplate(w, "page", page)
}

// DifferenceList writes only the difference list fragment
func (h *HTML) DifferenceList(w io.Writer, result *models.ComparisonResult) error {
	return h.tmpl.ExecuteTemplate(w, "differences", htmlPage{
		Identical: ShowIdentical(result),
		Message:   IdenticalMessage,
		Blocks:    Blocks(result.Differences),
	})
}

const htmlTemplates = `
{{define "page"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; margin: 1.5rem; }
.meta td { padding: 0 1rem 0 0; }
.block { border-left: 4px solid #9ca3af; margin: .75rem 0; padding: .25rem .75rem; }
.block.added { border-color: #16a34a; background: #f0fdf4; }
.block.deleted { border-color: #dc2626; background: #fef2f2; }
.block.modified { border-color: #ca8a04; background: #fefce8; }
.cells { display: flex; gap: 1rem; }
.cells > div { flex: 1; }
.empty { color: #9ca3af; font-style: italic; }
.docs { display: flex; gap: 1rem; }
.docs > section { flex: 1; overflow-x: auto; }
.line { font-family: monospace; white-space: pre; }
.line.added { background: #dcfce7; color: #166534; }
.line.deleted { background: #fee2e2; color: #991b1b; text-decoration: line-through; }
.line.modified { background: #fef3c7; color: #92400e; }
.identical { color: #16a34a; font-weight: bold; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<table class="meta">
<tr><td>Similarity</td><td>{{printf "%.2f" .Result.SimilarityPercentage}}%</td></tr>
<tr><td>Added</td><td>{{.Summary.AddedLines}}</td></tr>
<tr><td>Deleted</td><td>{{.Summary.DeletedLines}}</td></tr>
<tr><td>Modified</td><td>{{.Summary.ModifiedLines}}</td></tr>
{{with .Result.Message}}<tr><td>Message</td><td>{{.}}</td></tr>{{end}}
</table>
{{if .ShowDocuments}}<div class="docs">
{{template "document" .Left}}
{{template "document" .Right}}
</div>{{else}}{{template "differences" .}}{{end}}
</body>
</html>
{{end}}

{{define "differences"}}<div class="differences">
{{if .Identical}}<p class="identical">{{.Message}}</p>{{else}}{{range .Blocks}}
<div class="block {{.Class}}">
<div class="lines">{{.Type}} · Lines {{.Lines}}</div>
<div class="cells">
<div><strong>Original</strong><pre{{if .Original.Empty}} class="empty"{{end}}>{{.Original.Text}}</pre></div>
<div><strong>Modified</strong><pre{{if .Modified.Empty}} class="empty"{{end}}>{{.Modified.Text}}</pre></div>
</div>
</div>{{end}}{{end}}
</div>
{{end}}

{{define "document"}}<section class="document {{.Side}}">
<h2>{{.Title}}</h2>
{{if .HasMarkup}}<div class="highlighted">{{safe .Highlighted}}</div>
{{else}}{{range .Lines}}<div class="line {{.Class}}" data-line="{{.Number}}">{{.Text}}</div>
{{else}}<p class="empty">` + NoContent + `</p>
{{end}}{{end}}</section>
{{end}}
`
