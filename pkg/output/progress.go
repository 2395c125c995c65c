package output

import (
	"fmt"
	"io"

	"github.com/cheggaaa/pb/v3"
	"github.com/dustin/go-humanize"
)

// downloadTemplate shows name, bar, bytes and speed
const downloadTemplate pb.ProgressBarTemplate = `{{string . "name"}} {{bar . "[" "=" ">" " " "]"}} {{counters . }} {{speed . }}`

// DownloadProgress draws a progress bar while a payload is copied
type DownloadProgress struct {
	bar    *pb.ProgressBar
	writer io.Writer
	name   string
}

// NewDownloadProgress creates a progress bar for a payload of total bytes (-1 when unknown).
// When w is not a terminal no bar is drawn.
func NewDownloadProgress(w io.Writer, name string, total int64) *DownloadProgress {
	p := &DownloadProgress{writer: w, name: name}
	if !IsTerminal(w) {
		return p
	}

	bar := downloadTemplate.New(0)
	bar.Set(pb.Bytes, true).
		Set(pb.SIBytesPrefix, true).
		Set("name", name).
		SetWriter(w).
		SetWidth(TerminalWidth(w))
	if total > 0 {
		bar.SetTotal(total)
	}
	p.bar = bar.Start()
	return p
}

// Wrap returns a reader that advances the bar
func (p *DownloadProgress) Wrap(r io.Reader) io.Reader {
	if p.bar == nil {
		return r
	}
	return p.bar.NewProxyReader(r)
}

// Finish stops the bar and prints the final size
func (p *DownloadProgress) Finish(written int64) {
	if p.bar != nil {
		p.bar.Finish()
	}
	if p.writer != nil {
		fmt.Fprintf(p.writer, "Downloaded %s (%s)\n", p.name, humanize.IBytes(uint64(max(written, 0))))
	}
}
