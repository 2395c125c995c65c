package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdejongh/doccompare/pkg/config"
	"github.com/sdejongh/doccompare/pkg/logging"
	"github.com/sdejongh/doccompare/pkg/models"
	"github.com/sdejongh/doccompare/pkg/output"
	"github.com/sdejongh/doccompare/pkg/viewer"
)

const testToken = "cli-token"

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// newFakeService serves one group with two text and two image versions
func newFakeService(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("GET /documents", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+testToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		entries := []models.DocumentEntry{
			{DetailsID: "1", FileName: "notes.txt", Version: "1", FileType: "txt", Branch: "HQ", Department: "Legal", Year: "2024", Category: "Memo"},
			{DetailsID: "2", FileName: "notes.txt", Version: "2", FileType: "txt", Branch: "HQ", Department: "Legal", Year: "2024", Category: "Memo"},
			{DetailsID: "3", FileName: "plan.png", Version: "1", FileType: "png", Branch: "HQ", Department: "Legal", Year: "2024", Category: "Memo"},
			{DetailsID: "4", FileName: "plan.png", Version: "2", FileType: "png", Branch: "HQ", Department: "Legal", Year: "2024", Category: "Memo"},
		}
		writeJSON(t, w, map[string]any{"status": 200, "message": "success", "response": entries})
	})

	mux.HandleFunc("POST /documents/compare", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			FirstFileID  string `json:"firstFileId"`
			SecondFileID string `json:"secondFileId"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		resp := map[string]any{
			"identical":            false,
			"similarityPercentage": 66.7,
			"differences": []models.DifferenceEntry{
				{Type: models.DiffModified, LeftLineNumber: 2, RightLineNumber: 2, LeftContent: models.StringPtr("beta"), RightContent: models.StringPtr("BETA")},
			},
		}
		if req.FirstFileID == req.SecondFileID {
			resp = map[string]any{"identical": true, "similarityPercentage": 100, "differences": []any{}}
		}
		writeJSON(t, w, map[string]any{"status": 200, "message": "success", "response": resp})
	})

	mux.HandleFunc("GET /documents/download/", func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/documents/download/"), "/")
		require.Len(t, parts, 6)
		version, name := parts[4], parts[5]
		if strings.HasSuffix(name, ".png") {
			c := color.RGBA{200, 200, 200, 255}
			if version == "2" {
				c = color.RGBA{20, 20, 20, 255}
			}
			w.Header().Set("Content-Type", "image/png")
			require.NoError(t, png.Encode(w, solid(4, 4, c)))
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprintf(w, "alpha\nbeta v%s\n", version)
	})

	mux.HandleFunc("DELETE /documents/duplicates/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{"status": 200, "message": "success"})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

// execute runs the command tree against an isolated config file
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv(config.DefaultTokenEnv, "")

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("output:\n  color: false\n"), 0600))

	var out bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// events decodes a stream of indented JSON events
func events(t *testing.T, s string) []output.JSONEvent {
	t.Helper()
	var all []output.JSONEvent
	dec := json.NewDecoder(strings.NewReader(s))
	for {
		var ev output.JSONEvent
		err := dec.Decode(&ev)
		if errors.Is(err, io.EOF) {
			return all
		}
		require.NoError(t, err)
		all = append(all, ev)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"differences", ErrDifferences, ExitDifferences},
		{"auth", fmt.Errorf("list: %w", models.ErrUnauthenticated), ExitAuth},
		{"reported auth", &reportedError{err: models.ErrUnauthenticated}, ExitAuth},
		{"other", errors.New("boom"), ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestIsReported(t *testing.T) {
	assert.True(t, IsReported(&reportedError{err: errors.New("x")}))
	assert.True(t, IsReported(ErrDifferences))
	assert.False(t, IsReported(errors.New("x")))
	assert.False(t, IsReported(nil))
}

func TestApplyFlagsToConfig(t *testing.T) {
	t.Cleanup(func() { globalFlags = GlobalFlags{} })

	globalFlags = GlobalFlags{
		BaseURL:   "https://dms.example.com/api",
		Token:     "t",
		Bandwidth: "2MiB",
		Output:    "json",
		NoColor:   true,
		LogFile:   "/tmp/doccompare.log",
		Verbose:   true,
	}
	cfg := config.Default()
	require.NoError(t, applyFlagsToConfig(cfg))

	assert.Equal(t, "https://dms.example.com/api", cfg.Service.BaseURL)
	assert.Equal(t, "t", cfg.ResolveToken())
	assert.Equal(t, int64(2<<20), cfg.Preview.BandwidthLimit)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.False(t, cfg.Output.Color)
	assert.True(t, cfg.Logging.Enabled)
	assert.Equal(t, "debug", cfg.Logging.Level)

	globalFlags = GlobalFlags{Bandwidth: "fast"}
	assert.Error(t, applyFlagsToConfig(config.Default()))
}

func TestCreateLogger(t *testing.T) {
	logger, err := createLogger(config.LoggingConfig{Enabled: false, File: "x.log"})
	require.NoError(t, err)
	assert.IsType(t, &logging.NullLogger{}, logger)

	path := filepath.Join(t.TempDir(), "logs", "doccompare.log")
	logger, err = createLogger(config.LoggingConfig{Enabled: true, File: path, Format: "text", Level: "info"})
	require.NoError(t, err)
	logger.Info(context.Background(), "hello", nil)
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
}

func TestDocumentsList(t *testing.T) {
	srv := newFakeService(t)

	out, err := execute(t, "--url", srv.URL, "--token", testToken, "-o", "json", "documents", "list", "F1")
	require.NoError(t, err)

	evs := events(t, out)
	require.Len(t, evs, 1)
	assert.Equal(t, "documents", evs[0].Type)
	assert.Contains(t, out, `"count": 4`)
}

func TestDocumentsList_Auth(t *testing.T) {
	srv := newFakeService(t)

	_, err := execute(t, "--url", srv.URL, "--token", "wrong", "documents", "list", "F1")
	require.Error(t, err)
	assert.True(t, IsReported(err))
	assert.Equal(t, ExitAuth, ExitCode(err))
}

func TestNoToken(t *testing.T) {
	srv := newFakeService(t)

	_, err := execute(t, "--url", srv.URL, "documents", "list", "F1")
	require.ErrorIs(t, err, models.ErrUnauthenticated)
	assert.Equal(t, ExitAuth, ExitCode(err))
}

func TestCompare_TextDiff(t *testing.T) {
	srv := newFakeService(t)
	report := filepath.Join(t.TempDir(), "report.json")

	out, err := execute(t, "--url", srv.URL, "--token", testToken, "-o", "json",
		"compare", "--first-group", "F1", "--first", "1", "--first", "2",
		"--tab", "textDiff", "--diff-report", report, "--diff-format", "json")
	require.ErrorIs(t, err, ErrDifferences)
	assert.Equal(t, ExitDifferences, ExitCode(err))

	var event struct {
		Type string                    `json:"type"`
		Data output.JSONComparisonData `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &event))
	assert.Equal(t, "comparison", event.Type)
	assert.Equal(t, viewer.TabTextDiff, event.Data.Tab)
	assert.Equal(t, []viewer.Tab{viewer.TabPreview, viewer.TabDifferences, viewer.TabTextDiff}, event.Data.Tabs)
	assert.Equal(t, models.Summary{ModifiedLines: 1}, event.Data.Summary)
	assert.True(t, event.Data.LeftPreview.Available)
	assert.True(t, event.Data.RightPreview.Available)

	data, err := os.ReadFile(report)
	require.NoError(t, err)
	assert.Contains(t, string(data), "BETA")
}

func TestCompare_Identical(t *testing.T) {
	srv := newFakeService(t)

	out, err := execute(t, "--url", srv.URL, "--token", testToken,
		"compare", "--first-group", "F1", "--first", "1", "--second", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "identical")
}

func TestCompare_VisualDiff(t *testing.T) {
	srv := newFakeService(t)
	dir := t.TempDir()

	out, err := execute(t, "--url", srv.URL, "--token", testToken,
		"compare", "--first-group", "F1", "--first", "3", "--second", "4",
		"--tab", "visualDiff", "--image-out", dir+string(filepath.Separator))
	require.ErrorIs(t, err, ErrDifferences)
	assert.Contains(t, out, "16 of 16 pixels differ")

	f, err := os.Open(filepath.Join(dir, "visual-diff.png"))
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 4), img.Bounds())
}

func TestCompare_Overlay(t *testing.T) {
	srv := newFakeService(t)
	path := filepath.Join(t.TempDir(), "o.png")

	out, err := execute(t, "--url", srv.URL, "--token", testToken, "-o", "json",
		"compare", "--first-group", "F1", "--first", "3", "--first", "4",
		"--tab", "visualDiff", "--overlay", "--opacity", "0.25", "--image-out", path)
	require.ErrorIs(t, err, ErrDifferences)

	var event struct {
		Data output.JSONComparisonData `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &event))
	require.NotNil(t, event.Data.Overlay)
	assert.InDelta(t, 0.25, event.Data.Overlay.Opacity, 1e-9)
	assert.Equal(t, path, event.Data.Overlay.ImagePath)
	assert.FileExists(t, path)
}

func TestCompare_TabUnavailable(t *testing.T) {
	srv := newFakeService(t)

	_, err := execute(t, "--url", srv.URL, "--token", testToken,
		"compare", "--first-group", "F1", "--first", "1", "--first", "2", "--tab", "visualDiff")
	require.ErrorIs(t, err, models.ErrTabUnavailable)
	assert.Equal(t, ExitFailure, ExitCode(err))
}

func TestCompare_SelectionErrors(t *testing.T) {
	srv := newFakeService(t)

	t.Run("TooMany", func(t *testing.T) {
		out, err := execute(t, "--url", srv.URL, "--token", testToken, "-o", "json",
			"compare", "--first-group", "F1", "--first", "1", "--first", "2", "--second", "3")
		require.ErrorIs(t, err, models.ErrSelectionLimit)
		assert.True(t, IsReported(err))

		evs := events(t, out)
		require.Len(t, evs, 1)
		assert.Equal(t, "error", evs[0].Type)
		assert.Contains(t, out, "You can only select 2 documents in total")
	})

	t.Run("OnlyOne", func(t *testing.T) {
		_, err := execute(t, "--url", srv.URL, "--token", testToken,
			"compare", "--first-group", "F1", "--first", "1")
		require.ErrorIs(t, err, models.ErrSelectExactlyTwo)
	})

	t.Run("UnknownTab", func(t *testing.T) {
		_, err := execute(t, "--url", srv.URL, "--token", testToken,
			"compare", "--first-group", "F1", "--tab", "nope")
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown tab "nope"`)
	})
}

func TestDownload(t *testing.T) {
	srv := newFakeService(t)
	dir := t.TempDir()

	_, err := execute(t, "--url", srv.URL, "--token", testToken, "-q",
		"download", "--group", "F1", "--id", "2", "--out", dir)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, "alpha\nbeta v2\n", string(data))
}

func TestDownload_UnknownID(t *testing.T) {
	srv := newFakeService(t)

	_, err := execute(t, "--url", srv.URL, "--token", testToken,
		"download", "--group", "F1", "--id", "99", "--out", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "document 99 not found")
}

func TestDuplicates(t *testing.T) {
	srv := newFakeService(t)

	out, err := execute(t, "--url", srv.URL, "--token", testToken, "duplicates", "delete", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "Duplicate deleted: 7")

	out, err = execute(t, "--url", srv.URL, "--token", testToken, "duplicates", "delete-original", "G1")
	require.NoError(t, err)
	assert.Contains(t, out, "Duplicates of original deleted: G1")
}

func writePNGFile(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

func TestPixelDiff(t *testing.T) {
	dir := t.TempDir()
	left := filepath.Join(dir, "left.png")
	right := filepath.Join(dir, "right.png")
	writePNGFile(t, left, solid(3, 3, color.RGBA{255, 255, 255, 255}))
	writePNGFile(t, right, solid(3, 3, color.RGBA{255, 255, 255, 255}))

	out, err := execute(t, "pixeldiff", left, right, "--out", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "0 of 9 pixels differ")
	assert.FileExists(t, filepath.Join(dir, "pixeldiff.png"))

	writePNGFile(t, right, solid(3, 3, color.RGBA{0, 0, 0, 255}))
	_, err = execute(t, "pixeldiff", left, right, "--out", filepath.Join(dir, "d.png"), "--threshold", "50")
	require.ErrorIs(t, err, ErrDifferences)
	assert.FileExists(t, filepath.Join(dir, "d.png"))
}

func TestPixelDiff_MissingFile(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "pixeldiff", filepath.Join(dir, "a.png"), filepath.Join(dir, "b.png"), "--out", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, ExitCode(err))
}

func TestOverlay(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "base.png")
	top := filepath.Join(dir, "top.png")
	writePNGFile(t, base, solid(4, 2, color.RGBA{0, 0, 0, 255}))
	writePNGFile(t, top, solid(2, 2, color.RGBA{255, 255, 255, 255}))

	out, err := execute(t, "overlay", base, top, "--opacity", "1", "--out", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Overlay at opacity 1.00")

	f, err := os.Open(filepath.Join(dir, "overlay.png"))
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 2), img.Bounds())
	r, _, _, _ := img.At(0, 0).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	r, _, _, _ = img.At(3, 0).RGBA()
	assert.Equal(t, uint32(0), r)
}

func TestConfigShowRedactsToken(t *testing.T) {
	out, err := execute(t, "--token", "very-secret", "--url", "https://dms.example.com", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "base_url: https://dms.example.com")
	assert.NotContains(t, out, "very-secret")
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	var out bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetArgs([]string{"--config", path, "config", "init"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), path)

	cfg, err := config.LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default().Diff, cfg.Diff)

	root = NewRootCommand()
	root.SetOut(io.Discard)
	root.SetArgs([]string{"--config", path, "config", "init"})
	assert.Error(t, root.Execute())
}
