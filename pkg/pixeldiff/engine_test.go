package pixeldiff

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdejongh/doccompare/pkg/storage"
)

// gatedLoader serves fixed images, blocking refs listed in gates until their channel closes
type gatedLoader struct {
	images map[string]image.Image
	gates  map[string]chan struct{}
}

func (l *gatedLoader) Load(ctx context.Context, ref string) (image.Image, error) {
	if gate, ok := l.gates[ref]; ok {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	img, ok := l.images[ref]
	if !ok {
		return nil, errors.New("not found")
	}
	return img, nil
}

type recorder struct {
	mu     sync.Mutex
	frames []Frame
}

func (r *recorder) paint(f Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, f)
}

func (r *recorder) all() []Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Frame(nil), r.frames...)
}

func TestRender(t *testing.T) {
	loader := &gatedLoader{images: map[string]image.Image{
		"a": solid(4, 4, red),
		"b": solid(6, 3, color.RGBA{B: 255, A: 255}),
	}}

	frame := Render(context.Background(), loader, Request{LeftURL: "a", RightURL: "b", Threshold: 30})
	require.True(t, frame.OK())
	assert.Equal(t, 4, frame.Stats.Width)
	assert.Equal(t, 3, frame.Stats.Height)
	assert.Equal(t, 12, frame.Stats.Different)
	assert.Empty(t, frame.Caption)
}

func TestRender_Failures(t *testing.T) {
	loader := &gatedLoader{images: map[string]image.Image{
		"a":     solid(4, 4, red),
		"empty": image.NewRGBA(image.Rect(0, 0, 0, 0)),
	}}

	frame := Render(context.Background(), loader, Request{LeftURL: "a", RightURL: "missing"})
	assert.False(t, frame.OK())
	assert.Equal(t, CaptionLoadFailed, frame.Caption)

	frame = Render(context.Background(), loader, Request{LeftURL: "a", RightURL: "empty"})
	assert.False(t, frame.OK())
	assert.Equal(t, CaptionNoOverlap, frame.Caption)
}

func TestEngine_SupersededComputationIsDiscarded(t *testing.T) {
	gate := make(chan struct{})
	loader := &gatedLoader{
		images: map[string]image.Image{
			"slow": solid(2, 2, red),
			"a":    solid(2, 2, red),
			"b":    solid(2, 2, red),
		},
		gates: map[string]chan struct{}{"slow": gate},
	}
	rec := &recorder{}
	e := NewEngine(loader, rec.paint, nil)

	first := e.Submit(context.Background(), Request{LeftURL: "slow", RightURL: "b", Threshold: 30})
	second := e.Submit(context.Background(), Request{LeftURL: "a", RightURL: "b", Threshold: 30})
	close(gate)
	e.Wait()

	frames := rec.all()
	require.Len(t, frames, 1)
	assert.Equal(t, second, frames[0].Generation)
	assert.NotEqual(t, first, frames[0].Generation)
	assert.Equal(t, "a", frames[0].LeftURL)
}

func TestEngine_StaleResultFinishingLateIsDiscarded(t *testing.T) {
	gate := make(chan struct{})
	loader := &gatedLoader{
		images: map[string]image.Image{"a": solid(2, 2, red), "b": solid(2, 2, red)},
		gates:  map[string]chan struct{}{"a": gate},
	}
	rec := &recorder{}
	e := NewEngine(loader, rec.paint, nil)

	e.Submit(context.Background(), Request{LeftURL: "a", RightURL: "b", Threshold: 30})
	e.SetThreshold(context.Background(), 60)
	close(gate)
	e.Wait()

	frames := rec.all()
	require.Len(t, frames, 1)
	assert.Equal(t, 60.0, frames[0].Threshold)
}

func TestEngine_NormalizesThreshold(t *testing.T) {
	loader := &gatedLoader{images: map[string]image.Image{"a": solid(1, 1, red), "b": solid(1, 1, red)}}
	rec := &recorder{}
	e := NewEngine(loader, rec.paint, nil)

	e.Submit(context.Background(), Request{LeftURL: "a", RightURL: "b", Threshold: 1000})
	e.Wait()

	req, gen := e.Current()
	assert.Equal(t, float64(MaxThreshold), req.Threshold)
	assert.Equal(t, uint64(1), gen)
	require.Len(t, rec.all(), 1)
}

func TestEngine_PaintsFailureCaption(t *testing.T) {
	rec := &recorder{}
	e := NewEngine(&gatedLoader{}, rec.paint, nil)

	e.Submit(context.Background(), Request{LeftURL: "x", RightURL: "y"})
	e.Wait()

	frames := rec.all()
	require.Len(t, frames, 1)
	assert.False(t, frames[0].OK())
	assert.Equal(t, CaptionLoadFailed, frames[0].Caption)
}

func TestEngine_Stop(t *testing.T) {
	gate := make(chan struct{})
	loader := &gatedLoader{
		images: map[string]image.Image{"a": solid(1, 1, red), "b": solid(1, 1, red)},
		gates:  map[string]chan struct{}{"a": gate},
	}
	rec := &recorder{}
	e := NewEngine(loader, rec.paint, nil)

	e.Submit(context.Background(), Request{LeftURL: "a", RightURL: "b"})

	done := make(chan struct{})
	go func() {
		e.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not cancel the pending load")
	}
	close(gate)
	assert.Empty(t, rec.all())
}

func TestBlobLoader(t *testing.T) {
	store := storage.NewMemory()
	defer store.Close()

	var buf bytes.Buffer
	require.NoError(t, EncodePNG(&buf, solid(3, 2, red)))
	info, err := store.Put(context.Background(), "image/png", &buf)
	require.NoError(t, err)

	img, err := BlobLoader{Store: store}.Load(context.Background(), info.URL)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 3, 2), img.Bounds())

	require.NoError(t, store.Release(info.URL))
	_, err = BlobLoader{Store: store}.Load(context.Background(), info.URL)
	assert.Error(t, err)
}

func TestDecode_Invalid(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte("not an image")))
	assert.Error(t, err)
}
