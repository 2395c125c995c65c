// Package viewer holds the state of the comparison view: which tab is shown,
// which tabs apply to the compared media, and who owns which preview blob.
package viewer

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/sdejongh/doccompare/pkg/compare"
	"github.com/sdejongh/doccompare/pkg/logging"
	"github.com/sdejongh/doccompare/pkg/models"
	"github.com/sdejongh/doccompare/pkg/overlay"
	"github.com/sdejongh/doccompare/pkg/pixeldiff"
	"github.com/sdejongh/doccompare/pkg/render"
)

// Tab is one view of a comparison
type Tab string

const (
	TabPreview     Tab = "preview"
	TabDifferences Tab = "differences"
	TabVisualDiff  Tab = "visualDiff"
	TabTextDiff    Tab = "textDiff"
)

// ParseTab parses a tab name
func ParseTab(s string) (Tab, error) {
	for _, t := range []Tab{TabPreview, TabDifferences, TabVisualDiff, TabTextDiff} {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown tab %q", s)
}

// AvailableTabs returns the tabs that apply to a media pair, in display order
func AvailableTabs(media models.MediaPair) []Tab {
	tabs := []Tab{TabPreview, TabDifferences}
	if media.BothImages() {
		tabs = append(tabs, TabVisualDiff)
	}
	if media.BothText() {
		tabs = append(tabs, TabTextDiff)
	}
	return tabs
}

// Releaser frees preview blobs
type Releaser interface {
	Release(asset *models.PreviewAsset) error
}

// Settings are the per-session controls of the visual and text tabs
type Settings struct {
	Threshold float64
	Opacity   float64
	TextMode  render.Mode
}

// DefaultSettings returns the controls of a freshly opened view
func DefaultSettings() Settings {
	return Settings{
		Threshold: pixeldiff.DefaultThreshold,
		Opacity:   overlay.DefaultOpacity,
		TextMode:  render.ModeFull,
	}
}

// Modal is the comparison view state machine: closed, or open on one tab.
// The modal owns the previews of the outcome it shows; each tab owns the
// assets adopted while it is active.
type Modal struct {
	mu       sync.Mutex
	releaser Releaser
	logger   logging.Logger
	defaults Settings

	open     bool
	outcome  *compare.Outcome
	tab      Tab
	tabs     []Tab
	settings Settings
	owned    map[Tab][]*models.PreviewAsset
}

// NewModal creates a closed modal
func NewModal(releaser Releaser, defaults Settings, logger logging.Logger) *Modal {
	return &Modal{
		releaser: releaser,
		logger:   logging.OrNull(logger),
		defaults: normalize(defaults),
	}
}

// Open shows a comparison outcome on the preview tab.
// An outcome already shown is closed first.
func (m *Modal) Open(outcome *compare.Outcome) error {
	if outcome == nil || outcome.Result == nil {
		return fmt.Errorf("open comparison view: no outcome")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.open {
		m.closeLocked()
	}
	m.open = true
	m.outcome = outcome
	m.tab = TabPreview
	m.tabs = AvailableTabs(outcome.Media)
	m.settings = m.defaults
	m.owned = make(map[Tab][]*models.PreviewAsset)

	m.logger.Debug(context.Background(), "Comparison view opened", logging.Fields{
		"comparison_id": outcome.ID,
		"tabs":          m.tabs,
	})
	return nil
}

// IsOpen reports whether the modal is open
func (m *Modal) IsOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open
}

// Outcome returns the outcome shown, or nil when closed
func (m *Modal) Outcome() *compare.Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.outcome
}

// Tab returns the active tab, or "" when closed
func (m *Modal) Tab() Tab {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tab
}

// Tabs returns the tabs offered for the shown outcome
func (m *Modal) Tabs() []Tab {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.tabs)
}

// SetTab switches tabs. Leaving a tab releases the assets derived for it, such
// as rendered pixel diffs and overlays. The outcome previews are shared by the
// preview and visual tabs and stay alive until Close, so switching back never
// refetches them.
func (m *Modal) SetTab(tab Tab) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.open {
		return models.ErrModalClosed
	}
	if !slices.Contains(m.tabs, tab) {
		return fmt.Errorf("%s: %w", tab, models.ErrTabUnavailable)
	}
	if tab == m.tab {
		return nil
	}

	m.releaseTabLocked(m.tab)
	m.logger.Debug(context.Background(), "Comparison tab changed", logging.Fields{"from": string(m.tab), "to": string(tab)})
	m.tab = tab
	return nil
}

// Adopt hands an asset derived for the active tab to the modal; it is released when
// the tab is left or the modal closes
func (m *Modal) Adopt(asset *models.PreviewAsset) error {
	if asset == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.open {
		m.release(asset)
		return models.ErrModalClosed
	}
	m.owned[m.tab] = append(m.owned[m.tab], asset)
	return nil
}

// adoptFor attaches an asset to the tab it was derived for. The asset is released
// at once when that tab, or the outcome it was derived from, is no longer shown.
func (m *Modal) adoptFor(outcome *compare.Outcome, tab Tab, asset *models.PreviewAsset) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.open || m.outcome != outcome {
		m.release(asset)
		return models.ErrModalClosed
	}
	if m.tab != tab {
		m.release(asset)
		return fmt.Errorf("%s was left while rendering: %w", tab, models.ErrTabUnavailable)
	}
	m.owned[tab] = append(m.owned[tab], asset)
	return nil
}

// Owned returns the assets owned by a tab
func (m *Modal) Owned(tab Tab) []*models.PreviewAsset {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.owned[tab])
}

// Settings returns the current controls
func (m *Modal) Settings() Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings
}

// SetThreshold changes the pixel diff sensitivity and returns the normalized value
func (m *Modal) SetThreshold(t float64) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings.Threshold = pixeldiff.NormalizeThreshold(t)
	return m.settings.Threshold
}

// SetOpacity changes the overlay opacity and returns the normalized value
func (m *Modal) SetOpacity(o float64) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings.Opacity = overlay.NormalizeOpacity(o)
	return m.settings.Opacity
}

// SetTextMode switches the text diff mode
func (m *Modal) SetTextMode(mode render.Mode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings.TextMode = mode
}

// Close releases every asset and returns to the closed state. Closing twice is a no-op.
func (m *Modal) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.open {
		m.closeLocked()
	}
}

func (m *Modal) closeLocked() {
	for tab := range m.owned {
		m.releaseTabLocked(tab)
	}
	m.release(m.outcome.LeftPreview)
	m.release(m.outcome.RightPreview)

	m.logger.Debug(context.Background(), "Comparison view closed", logging.Fields{"comparison_id": m.outcome.ID})

	m.open = false
	m.outcome = nil
	m.tab = ""
	m.tabs = nil
	m.owned = nil
}

func (m *Modal) releaseTabLocked(tab Tab) {
	for _, asset := range m.owned[tab] {
		m.release(asset)
	}
	delete(m.owned, tab)
}

func (m *Modal) release(asset *models.PreviewAsset) {
	if asset == nil {
		return
	}
	if err := m.releaser.Release(asset); err != nil {
		m.logger.Warn(context.Background(), "Failed to release preview", logging.Fields{"url": asset.URL, "error": err.Error()})
	}
}

func normalize(s Settings) Settings {
	if s == (Settings{}) {
		return DefaultSettings()
	}
	if s.Threshold == 0 {
		s.Threshold = pixeldiff.DefaultThreshold
	}
	if s.TextMode == "" {
		s.TextMode = render.ModeFull
	}
	s.Threshold = pixeldiff.NormalizeThreshold(s.Threshold)
	s.Opacity = overlay.NormalizeOpacity(s.Opacity)
	return s
}
