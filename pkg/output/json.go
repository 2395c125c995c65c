package output

import (
	"encoding/json"
	"io"
	"time"

	"github.com/sdejongh/doccompare/pkg/models"
	"github.com/sdejongh/doccompare/pkg/pixeldiff"
	"github.com/sdejongh/doccompare/pkg/viewer"
)

// JSONFormatter formats output as JSON for automation and scripting
type JSONFormatter struct {
	writer io.Writer
	now    func() time.Time
}

// JSONEvent represents a single document in the JSON output stream
type JSONEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"`
	Data      any       `json:"data,omitempty"`
}

// JSONDocumentsData is the data of a documents event
type JSONDocumentsData struct {
	FileNo    string                 `json:"fileNo"`
	Count     int                    `json:"count"`
	Documents []models.DocumentEntry `json:"documents"`
}

// JSONPreviewData describes the preview of one side
type JSONPreviewData struct {
	Available    bool                 `json:"available"`
	Asset        *models.PreviewAsset `json:"asset,omitempty"`
	Error        string               `json:"error,omitempty"`
	DownloadPath string               `json:"downloadPath,omitempty"`
}

// JSONVisualData describes a pixel diff
type JSONVisualData struct {
	Threshold float64         `json:"threshold"`
	Stats     pixeldiff.Stats `json:"stats"`
	Ratio     float64         `json:"ratio"`
	Caption   string          `json:"caption,omitempty"`
	ImagePath string          `json:"imagePath,omitempty"`
}

// JSONOverlayData describes an overlay composition
type JSONOverlayData struct {
	Opacity   float64 `json:"opacity"`
	ImagePath string  `json:"imagePath,omitempty"`
}

// JSONComparisonData is the data of a comparison event
type JSONComparisonData struct {
	ID           string                   `json:"id"`
	Tab          viewer.Tab               `json:"tab"`
	Tabs         []viewer.Tab             `json:"tabs"`
	Media        models.MediaPair         `json:"media"`
	Summary      models.Summary           `json:"summary"`
	Result       *models.ComparisonResult `json:"result"`
	LeftPreview  JSONPreviewData          `json:"leftPreview"`
	RightPreview JSONPreviewData          `json:"rightPreview"`
	Visual       *JSONVisualData          `json:"visual,omitempty"`
	Overlay      *JSONOverlayData         `json:"overlay,omitempty"`
	DurationMs   int64                    `json:"durationMs"`
}

// JSONErrorData is the data of an error event
type JSONErrorData struct {
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(writer io.Writer) *JSONFormatter {
	if writer == nil {
		writer = io.Discard
	}
	return &JSONFormatter{writer: writer, now: time.Now}
}

// Documents emits a documents event
func (f *JSONFormatter) Documents(fileNo string, entries []models.DocumentEntry) error {
	if entries == nil {
		entries = []models.DocumentEntry{}
	}
	return f.emit("documents", JSONDocumentsData{FileNo: fileNo, Count: len(entries), Documents: entries})
}

// Comparison emits a comparison event
func (f *JSONFormatter) Comparison(view ComparisonView) error {
	o := view.Outcome
	data := JSONComparisonData{
		ID:           o.ID,
		Tab:          view.Tab,
		Tabs:         view.Tabs,
		Media:        o.Media,
		Summary:      o.Result.Summary(),
		Result:       o.Result,
		LeftPreview:  previewData(o.LeftPreview, o.LeftPreviewErr, view.DownloadPaths[0]),
		RightPreview: previewData(o.RightPreview, o.RightPreviewErr, view.DownloadPaths[1]),
		DurationMs:   o.Duration.Milliseconds(),
	}
	if view.Frame != nil {
		data.Visual = &JSONVisualData{
			Threshold: view.Frame.Threshold,
			Stats:     view.Frame.Stats,
			Ratio:     view.Frame.Stats.Ratio(),
			Caption:   view.Frame.Caption,
			ImagePath: view.ImagePath,
		}
	}
	if view.Overlay {
		data.Overlay = &JSONOverlayData{Opacity: view.Opacity, ImagePath: view.ImagePath}
	}
	return f.emit("comparison", data)
}

func previewData(asset *models.PreviewAsset, err error, downloadPath string) JSONPreviewData {
	if asset != nil && err == nil {
		return JSONPreviewData{Available: true, Asset: asset}
	}
	d := JSONPreviewData{DownloadPath: downloadPath}
	if err != nil {
		d.Error = err.Error()
	}
	return d
}

// Message emits a message event
func (f *JSONFormatter) Message(msg string) error {
	return f.emit("message", map[string]string{"message": msg})
}

// Error emits an error event
func (f *JSONFormatter) Error(err error) error {
	return f.emit("error", JSONErrorData{Message: errorText(err), Detail: err.Error()})
}

// Name returns the formatter name
func (f *JSONFormatter) Name() string {
	return "json"
}

func (f *JSONFormatter) emit(eventType string, data any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(JSONEvent{
		Timestamp: f.now(),
		Type:      eventType,
		Data:      data,
	})
}
