// Package compare runs a comparison of two selected documents: it resolves the pair,
// calls the comparison service, fetches both previews and assembles the result.
package compare

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/sdejongh/doccompare/pkg/logging"
	"github.com/sdejongh/doccompare/pkg/models"
	"github.com/sdejongh/doccompare/pkg/selection"
	"github.com/sdejongh/doccompare/pkg/service"
)

// PreviewSource materializes and releases previews
type PreviewSource interface {
	Fetch(ctx context.Context, desc models.FileDescriptor, meta models.ContextMetadata) (*models.PreviewAsset, error)
	Release(asset *models.PreviewAsset) error
}

// Outcome is a successful comparison together with its previews.
// The previews are owned by the holder of the outcome.
type Outcome struct {
	// ID identifies the comparison session in logs
	ID     string
	Result *models.ComparisonResult

	LeftPreview     *models.PreviewAsset
	RightPreview    *models.PreviewAsset
	LeftPreviewErr  error
	RightPreviewErr error

	// Media is the classification of both sides
	Media models.MediaPair

	Duration time.Duration
}

// Preview returns the preview of one side and its fetch error
func (o *Outcome) Preview(side models.Side) (*models.PreviewAsset, error) {
	if side == models.SideLeft {
		return o.LeftPreview, o.LeftPreviewErr
	}
	return o.RightPreview, o.RightPreviewErr
}

// Orchestrator coordinates one comparison at a time per call
type Orchestrator struct {
	svc      service.Service
	previews PreviewSource
	logger   logging.Logger
}

// NewOrchestrator creates an orchestrator; a nil logger discards output
func NewOrchestrator(svc service.Service, previews PreviewSource, logger logging.Logger) *Orchestrator {
	return &Orchestrator{
		svc:      svc,
		previews: previews,
		logger:   logging.OrNull(logger),
	}
}

// Compare compares the two documents of a selection snapshot.
// Without exactly two selected documents it fails with models.ErrSelectExactlyTwo before
// any network call. A service failure yields no outcome. Preview failures are recorded
// per side and never fail the comparison.
func (o *Orchestrator) Compare(ctx context.Context, snap selection.Snapshot) (*Outcome, error) {
	firstID, secondID, err := snap.Pair()
	if err != nil {
		return nil, err
	}

	started := time.Now()
	id := uuid.NewString()
	logger := o.logger.WithFields(logging.Fields{"comparison_id": id})
	logger.Info(ctx, "Comparison started", logging.Fields{"first": firstID, "second": secondID})

	resp, err := o.svc.Compare(ctx, firstID, secondID)
	if err != nil {
		logger.Error(ctx, "Comparison failed", err, nil)
		return nil, fmt.Errorf("compare %s and %s: %w", firstID, secondID, err)
	}

	leftEntry, _ := snap.Lookup(firstID)
	rightEntry, _ := snap.Lookup(secondID)
	if leftEntry.DetailsID == "" {
		leftEntry.DetailsID = firstID
	}
	if rightEntry.DetailsID == "" {
		rightEntry.DetailsID = secondID
	}

	result := assemble(resp, leftEntry, rightEntry)
	if err := result.CheckLineRefs(); err != nil {
		logger.Warn(ctx, "Comparison references missing lines", logging.Fields{"error": err.Error()})
	}

	outcome := &Outcome{ID: id, Result: result}

	// Each fetch records its own failure so that one side never cancels the other.
	var g errgroup.Group
	g.Go(func() error {
		outcome.LeftPreview, outcome.LeftPreviewErr = o.previews.Fetch(ctx, result.LeftFile, leftEntry.Context())
		return nil
	})
	g.Go(func() error {
		outcome.RightPreview, outcome.RightPreviewErr = o.previews.Fetch(ctx, result.RightFile, rightEntry.Context())
		return nil
	})
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		o.previews.Release(outcome.LeftPreview)
		o.previews.Release(outcome.RightPreview)
		return nil, err
	}

	for side, perr := range map[models.Side]error{models.SideLeft: outcome.LeftPreviewErr, models.SideRight: outcome.RightPreviewErr} {
		if perr != nil {
			logger.Warn(ctx, "Preview unavailable", logging.Fields{"side": string(side), "error": perr.Error()})
		}
	}

	outcome.Media = models.ClassifyPair(result, contentType(outcome.LeftPreview), contentType(outcome.RightPreview))
	outcome.Duration = time.Since(started)

	logger.Info(ctx, "Comparison finished", logging.Fields{
		"identical":   result.Identical,
		"similarity":  result.SimilarityPercentage,
		"differences": len(result.Differences),
		"media_left":  string(outcome.Media.Left),
		"media_right": string(outcome.Media.Right),
		"duration_ms": outcome.Duration.Milliseconds(),
	})

	return outcome, nil
}

// Release frees both previews of an outcome
func (o *Orchestrator) Release(outcome *Outcome) {
	if outcome == nil {
		return
	}
	o.previews.Release(outcome.LeftPreview)
	o.previews.Release(outcome.RightPreview)
}

// assemble builds the immutable result. Server file metadata takes precedence
// field by field over the locally cached entries.
func assemble(resp *service.CompareResponse, left, right models.DocumentEntry) *models.ComparisonResult {
	result := &models.ComparisonResult{
		Identical:            resp.Identical,
		SimilarityPercentage: resp.SimilarityPercentage,
		Message:              resp.Message,
		Differences:          append([]models.DifferenceEntry(nil), resp.Differences...),
		LeftFile:             left.Descriptor(),
		RightFile:            right.Descriptor(),
		DiffImagePath:        resp.DiffImagePath,
	}

	payload := resp.ComparisonResult
	if payload == nil {
		return result
	}

	raw := &models.RawComparison{}
	if payload.LeftFile != nil {
		result.LeftFile = result.LeftFile.Merge(payload.LeftFile.FileDescriptor)
		raw.LeftContent = append([]string(nil), payload.LeftFile.Content...)
	}
	if payload.RightFile != nil {
		result.RightFile = result.RightFile.Merge(payload.RightFile.FileDescriptor)
		raw.RightContent = append([]string(nil), payload.RightFile.Content...)
	}
	if payload.Summary != nil {
		raw.Summary = *payload.Summary
	} else {
		raw.Summary = models.SummarizeDifferences(result.Differences)
	}
	result.Raw = raw

	return result
}

func contentType(asset *models.PreviewAsset) string {
	if asset == nil {
		return ""
	}
	return asset.ContentType
}
