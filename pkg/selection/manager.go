// Package selection tracks the documents chosen from the two comparison pools
// and enforces that no more than two are selected in total.
package selection

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/sdejongh/doccompare/pkg/models"
)

// Pool identifies one of the two selection slots
type Pool int

const (
	First Pool = iota
	Second
)

// String returns the pool name
func (p Pool) String() string {
	if p == First {
		return "first"
	}
	return "second"
}

// MaxSelected is the combined cap across both pools
const MaxSelected = 2

// maxPerPool is the per-pool cap; the combined cap is always reached first
const maxPerPool = 2

// DefaultWarningTTL is how long a warning stays visible
const DefaultWarningTTL = 5 * time.Second

type poolState struct {
	pool     models.DocumentPool
	selected []string // insertion order
}

// Warning is a transient selection banner
type Warning struct {
	Message string
	At      time.Time
}

// Manager owns the selection state. It is safe for concurrent use.
type Manager struct {
	mu      sync.Mutex
	pools   [2]poolState
	warning Warning
	ttl     time.Duration
	now     func() time.Time
}

// Option configures a Manager
type Option func(*Manager)

// WithWarningTTL sets how long warnings stay visible
func WithWarningTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithClock replaces the time source
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates an empty selection manager
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		ttl: DefaultWarningTTL,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetGroup chooses the file group of a pool and replaces its entries.
// The pool's selection is always cleared.
func (m *Manager) SetGroup(pool Pool, groupID string, entries []models.DocumentEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pools[pool] = poolState{
		pool: models.DocumentPool{
			GroupID: groupID,
			Entries: slices.Clone(entries),
		},
	}
}

// ClearGroup clears a pool's group, entries and selection
func (m *Manager) ClearGroup(pool Pool) {
	m.SetGroup(pool, "", nil)
}

// Toggle selects or deselects a document in a pool.
// Deselecting is always allowed. A rejected selection leaves the state unchanged,
// records a warning and returns a *models.SelectionError.
func (m *Manager) Toggle(pool Pool, detailsID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	state := &m.pools[pool]
	if i := slices.Index(state.selected, detailsID); i >= 0 {
		state.selected = slices.Delete(state.selected, i, i+1)
		m.warning = Warning{}
		return nil
	}

	if m.totalLocked() >= MaxSelected {
		return m.reject(&models.SelectionError{
			Message: fmt.Sprintf("You can only select %d documents in total", MaxSelected),
			Err:     models.ErrSelectionLimit,
		})
	}

	if len(state.selected) >= maxPerPool {
		return m.reject(&models.SelectionError{
			Pool:    pool.String(),
			Message: fmt.Sprintf("You can only select up to %d documents from the %s pool", maxPerPool, pool),
			Err:     models.ErrSelectionLimit,
		})
	}

	state.selected = append(state.selected, detailsID)
	m.warning = Warning{}
	return nil
}

func (m *Manager) reject(err *models.SelectionError) error {
	m.warning = Warning{Message: err.Message, At: m.now()}
	return err
}

// IsSelected reports whether a document is selected in a pool
func (m *Manager) IsSelected(pool Pool, detailsID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Contains(m.pools[pool].selected, detailsID)
}

// CanSelect reports whether a document may be toggled on; selected documents can always be toggled off
func (m *Manager) CanSelect(pool Pool, detailsID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if slices.Contains(m.pools[pool].selected, detailsID) {
		return true
	}
	return m.totalLocked() < MaxSelected
}

// Selected returns the selected ids of a pool in insertion order
func (m *Manager) Selected(pool Pool) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.pools[pool].selected)
}

// Total returns the number of selected documents across both pools
func (m *Manager) Total() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totalLocked()
}

func (m *Manager) totalLocked() int {
	return len(m.pools[First].selected) + len(m.pools[Second].selected)
}

// Pool returns a copy of a pool's group and entries
func (m *Manager) Pool(pool Pool) models.DocumentPool {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.pools[pool].pool
	p.Entries = slices.Clone(p.Entries)
	return p
}

// Warning returns the current warning message, or "" when none is active or it has expired
func (m *Manager) Warning() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.warning.Message == "" {
		return ""
	}
	if m.now().Sub(m.warning.At) >= m.ttl {
		m.warning = Warning{}
		return ""
	}
	return m.warning.Message
}

// DismissWarning clears the warning immediately
func (m *Manager) DismissWarning() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warning = Warning{}
}

// Snapshot returns an immutable copy of the selection for the orchestrator
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	var s Snapshot
	for i := range m.pools {
		s.Pools[i] = models.DocumentPool{
			GroupID: m.pools[i].pool.GroupID,
			Entries: slices.Clone(m.pools[i].pool.Entries),
		}
		s.Selected[i] = slices.Clone(m.pools[i].selected)
	}
	return s
}
