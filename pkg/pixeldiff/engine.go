package pixeldiff

import (
	"context"
	"errors"
	"image"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/sdejongh/doccompare/pkg/logging"
	"github.com/sdejongh/doccompare/pkg/models"
)

// Request is one pixel diff input
type Request struct {
	LeftURL   string
	RightURL  string
	Threshold float64
}

// Frame is a painted diff. On failure Image is nil and Caption explains why.
type Frame struct {
	Request
	Generation uint64
	Image      *image.RGBA
	Stats      Stats
	Caption    string
}

// OK reports whether the frame holds a diff image
func (f Frame) OK() bool {
	return f.Image != nil
}

// Captions shown instead of a diff
const (
	CaptionLoadFailed = "Unable to load one of the images for visual comparison"
	CaptionNoOverlap  = "The images have no overlapping area to compare"
)

// Render loads both images concurrently and computes their diff. It never fails:
// problems are reported through the frame caption.
func Render(ctx context.Context, loader Loader, req Request) Frame {
	frame := Frame{Request: req}

	var left, right image.Image
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		left, err = loader.Load(gctx, req.LeftURL)
		return err
	})
	g.Go(func() (err error) {
		right, err = loader.Load(gctx, req.RightURL)
		return err
	})
	if err := g.Wait(); err != nil {
		frame.Caption = CaptionLoadFailed
		return frame
	}

	img, stats, err := Compute(left, right, req.Threshold)
	if err != nil {
		if errors.Is(err, models.ErrNoOverlap) {
			frame.Caption = CaptionNoOverlap
		} else {
			frame.Caption = CaptionLoadFailed
		}
		return frame
	}

	frame.Image = img
	frame.Stats = stats
	return frame
}

// PaintFunc receives the frames of current requests. It must not call back into the engine.
type PaintFunc func(Frame)

// Engine recomputes the diff whenever its input changes. A new request supersedes
// any computation still in flight; superseded computations are never painted.
type Engine struct {
	loader Loader
	paint  PaintFunc
	logger logging.Logger

	mu      sync.Mutex
	gen     uint64
	current Request
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewEngine creates an engine painting through paint
func NewEngine(loader Loader, paint PaintFunc, logger logging.Logger) *Engine {
	return &Engine{
		loader: loader,
		paint:  paint,
		logger: logging.OrNull(logger),
	}
}

// Submit starts a computation for req and returns its generation.
// The threshold is normalized to the supported range.
func (e *Engine) Submit(ctx context.Context, req Request) uint64 {
	req.Threshold = NormalizeThreshold(req.Threshold)

	e.mu.Lock()
	if e.cancel != nil {
		e.cancel()
	}
	e.gen++
	gen := e.gen
	e.current = req
	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.mu.Unlock()

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer cancel()
		e.run(runCtx, gen, req)
	}()
	return gen
}

// SetThreshold resubmits the current images with a new threshold
func (e *Engine) SetThreshold(ctx context.Context, threshold float64) uint64 {
	e.mu.Lock()
	req := e.current
	e.mu.Unlock()
	req.Threshold = threshold
	return e.Submit(ctx, req)
}

// Current returns the latest request and its generation
func (e *Engine) Current() (Request, uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current, e.gen
}

// Wait blocks until every submitted computation has finished or been discarded
func (e *Engine) Wait() {
	e.wg.Wait()
}

// Stop cancels the computation in flight; nothing is painted afterwards
func (e *Engine) Stop() {
	e.mu.Lock()
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.gen++
	e.mu.Unlock()
	e.wg.Wait()
}

func (e *Engine) run(ctx context.Context, gen uint64, req Request) {
	frame := Render(ctx, e.loader, req)
	frame.Generation = gen

	e.mu.Lock()
	defer e.mu.Unlock()

	if gen != e.gen || ctx.Err() != nil {
		e.logger.Debug(ctx, "Discarding superseded pixel diff", logging.Fields{"generation": gen, "current": e.gen})
		return
	}
	if !frame.OK() {
		e.logger.Warn(ctx, "Pixel diff unavailable", logging.Fields{"caption": frame.Caption, "left": req.LeftURL, "right": req.RightURL})
	}
	e.paint(frame)
}
