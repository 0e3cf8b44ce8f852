package filter

import (
	"net/url"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/edu-resource-portal/internal/models"
)

// Listener receives a snapshot after every selection mutation.
type Listener func(models.FilterSelection)

// Manager holds the current filter selection and notifies listeners
// synchronously, in registration order, after every mutation. The encoded
// query string is kept in lockstep so callers can mirror it into links.
type Manager struct {
	mu        sync.Mutex
	selection models.FilterSelection
	listeners []Listener
	logger    *zap.Logger
}

// NewManager starts from the default selection.
func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{selection: models.DefaultSelection(), logger: logger}
}

// InitFromQuery seeds the selection from URL query values (startup path).
func (m *Manager) InitFromQuery(values url.Values) {
	m.mu.Lock()
	m.selection = DecodeSelection(values)
	snapshot := m.selection
	listeners := append([]Listener(nil), m.listeners...)
	m.mu.Unlock()
	m.notify(listeners, snapshot)
}

// Subscribe registers a listener. Listeners run synchronously on the mutating
// goroutine; keep them short.
func (m *Manager) Subscribe(l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

// Selection returns the current snapshot.
func (m *Manager) Selection() models.FilterSelection {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selection
}

// QueryString returns the selection encoded for the address bar, with
// default-valued axes omitted.
func (m *Manager) QueryString() string {
	m.mu.Lock()
	sel := m.selection
	m.mu.Unlock()
	return EncodeSelection(sel).Encode()
}

// SetAxis mutates one equality axis or the sort key.
func (m *Manager) SetAxis(axis, value string) {
	m.mutate(func(sel *models.FilterSelection) {
		applyAxis(sel, axis, value)
	})
}

// SetMany applies several axis mutations in one notification.
func (m *Manager) SetMany(axes map[string]string) {
	m.mutate(func(sel *models.FilterSelection) {
		for axis, value := range axes {
			applyAxis(sel, axis, value)
		}
	})
}

// ToggleTag adds the tag to the required set, or removes it when present.
func (m *Manager) ToggleTag(tag string) {
	m.mutate(func(sel *models.FilterSelection) {
		for i, existing := range sel.Tags {
			if existing == tag {
				sel.Tags = append(sel.Tags[:i], sel.Tags[i+1:]...)
				return
			}
		}
		sel.Tags = append(sel.Tags, tag)
	})
}

// Reset returns every axis to its default.
func (m *Manager) Reset() {
	m.mutate(func(sel *models.FilterSelection) {
		*sel = models.DefaultSelection()
	})
}

func (m *Manager) mutate(fn func(*models.FilterSelection)) {
	m.mu.Lock()
	fn(&m.selection)
	snapshot := m.selection
	snapshot.Tags = append([]string(nil), m.selection.Tags...)
	listeners := append([]Listener(nil), m.listeners...)
	m.mu.Unlock()
	m.notify(listeners, snapshot)
}

func (m *Manager) notify(listeners []Listener, snapshot models.FilterSelection) {
	for _, l := range listeners {
		l(snapshot)
	}
}

func applyAxis(sel *models.FilterSelection, axis, value string) {
	switch axis {
	case paramCategory:
		sel.Category = value
	case paramGrade:
		sel.Grade = value
	case paramYear:
		sel.Year = value
	case paramSubject:
		sel.Subject = value
	case paramSort:
		key := models.SortKey(value)
		if key.Valid() {
			sel.Sort = key
		}
	}
}
