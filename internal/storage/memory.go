package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"stockwatch/internal/alert"
)

// MemoryStore is an in-process implementation of the store interfaces with
// the same optimistic-concurrency semantics as the Postgres store. It backs
// tests and dry-run scans; it is not meant for production persistence.
type MemoryStore struct {
	mu            sync.Mutex
	alerts        map[uuid.UUID]alert.Alert
	triggers      []TriggerRecord
	notifications []NotificationRecord
	nextTriggerID int64
	nextNotifID   int64
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{alerts: make(map[uuid.UUID]alert.Alert)}
}

// PutAlert inserts or replaces an alert.
func (m *MemoryStore) PutAlert(a alert.Alert) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts[a.ID] = a
}

// GetAlert fetches one alert by id.
func (m *MemoryStore) GetAlert(_ context.Context, id uuid.UUID) (alert.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.alerts[id]
	if !ok {
		return alert.Alert{}, ErrAlertNotFound
	}
	return a, nil
}

// ListCandidates mirrors the Postgres candidate filter: active, armed,
// unexpired, capped, in creation order.
func (m *MemoryStore) ListCandidates(_ context.Context, symbol string, now time.Time, limit int) ([]alert.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	candidates := make([]alert.Alert, 0)
	for _, a := range m.alerts {
		if a.Symbol != symbol || !a.IsActive || a.Status != alert.StatusActive {
			continue
		}
		if a.Expired(now) {
			continue
		}
		candidates = append(candidates, a)
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
	})
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

// ListActiveSymbols returns distinct symbols with scannable alerts.
func (m *MemoryStore) ListActiveSymbols(_ context.Context, now time.Time) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[string]struct{})
	for _, a := range m.alerts {
		if !a.IsActive || a.Status != alert.StatusActive || a.Expired(now) {
			continue
		}
		seen[a.Symbol] = struct{}{}
	}
	symbols := make([]string, 0, len(seen))
	for symbol := range seen {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols, nil
}

// CommitAlert applies a conditional write guarded by the expected version.
func (m *MemoryStore) CommitAlert(_ context.Context, a alert.Alert, expectedVersion int64) (alert.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.alerts[a.ID]
	if !ok || current.Version != expectedVersion {
		return alert.Alert{}, alert.ErrConcurrentModification
	}

	a.Version = expectedVersion + 1
	m.alerts[a.ID] = a
	return a, nil
}

// InsertTrigger appends a trigger audit record.
func (m *MemoryStore) InsertTrigger(_ context.Context, rec TriggerRecord) (TriggerRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextTriggerID++
	rec.ID = m.nextTriggerID
	rec.CreatedAt = time.Now().UTC()
	m.triggers = append(m.triggers, rec)
	return rec, nil
}

// ListRecentTriggers lists the newest trigger records first.
func (m *MemoryStore) ListRecentTriggers(_ context.Context, limit int) ([]TriggerRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]TriggerRecord, len(m.triggers))
	copy(out, m.triggers)
	sort.Slice(out, func(i, j int) bool { return out[i].TriggeredAt.After(out[j].TriggeredAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ListTriggersBetween lists trigger records within a window.
func (m *MemoryStore) ListTriggersBetween(_ context.Context, from, to time.Time) ([]TriggerRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]TriggerRecord, 0)
	for _, rec := range m.triggers {
		if !rec.TriggeredAt.Before(from) && rec.TriggeredAt.Before(to) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TriggeredAt.Before(out[j].TriggeredAt) })
	return out, nil
}

// DeleteTriggersBefore removes old trigger records.
func (m *MemoryStore) DeleteTriggersBefore(_ context.Context, olderThan time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.triggers[:0]
	for _, rec := range m.triggers {
		if !rec.TriggeredAt.Before(olderThan) {
			kept = append(kept, rec)
		}
	}
	m.triggers = kept
	return nil
}

// InsertNotification appends an in-app notification record.
func (m *MemoryStore) InsertNotification(_ context.Context, rec NotificationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextNotifID++
	rec.ID = m.nextNotifID
	rec.CreatedAt = time.Now().UTC()
	m.notifications = append(m.notifications, rec)
	return nil
}

// Notifications returns a copy of the stored in-app notifications.
func (m *MemoryStore) Notifications() []NotificationRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]NotificationRecord, len(m.notifications))
	copy(out, m.notifications)
	return out
}

var (
	_ CandidateStore    = (*MemoryStore)(nil)
	_ AlertCommitter    = (*MemoryStore)(nil)
	_ TriggerStore      = (*MemoryStore)(nil)
	_ NotificationStore = (*MemoryStore)(nil)
)
