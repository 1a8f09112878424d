// Package savings implements the savings tracker store: an in-memory
// collection of savings events written through to persistent storage on
// every mutation.
package savings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/tidwall/gjson"

	"github.com/medfin/platform/internal/app/domain/savings"
	"github.com/medfin/platform/internal/app/metrics"
	"github.com/medfin/platform/internal/app/storage"
	"github.com/medfin/platform/pkg/logger"
)

const (
	storageKey    = "medfin_savings_history"
	exportVersion = "1.0"
	storeName     = "savings"
)

// ErrInvalidImport marks import payloads that fail shape validation. The
// in-memory collection is left untouched when it is returned.
var ErrInvalidImport = errors.New("invalid savings data")

// Snapshot is the transportable export form of the collection.
type Snapshot struct {
	Savings    []savings.Event `json:"savings"`
	ExportDate time.Time       `json:"exportDate"`
	Version    string          `json:"version"`
}

// Service owns the savings event collection. Reads and mutations are
// synchronous; persistence failures degrade to in-memory-only operation
// rather than surfacing to the caller.
type Service struct {
	mu     sync.RWMutex
	kv     storage.KV
	log    *logger.Logger
	events []savings.Event
	now    func() time.Time
}

// New loads the persisted collection and returns a ready store. Absent or
// corrupt storage yields an empty collection; New never fails.
func New(kv storage.KV, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("savings-store")
	}
	if kv == nil {
		kv = storage.NewMemory()
	}
	s := &Service{kv: kv, log: log, now: time.Now}
	s.load()
	return s
}

func (s *Service) load() {
	data, err := s.kv.Load(context.Background(), storageKey)
	if errors.Is(err, storage.ErrNotFound) {
		return
	}
	if err != nil {
		s.log.WithError(err).Warn("loading savings failed; starting empty")
		return
	}
	var events []savings.Event
	if err := json.Unmarshal(data, &events); err != nil {
		s.log.WithError(err).Warn("persisted savings corrupt; starting empty")
		return
	}
	s.events = events
}

// persistLocked writes the collection through to storage. Failures are
// logged and swallowed so the store keeps working in memory.
func (s *Service) persistLocked() {
	data, err := json.Marshal(s.eventsOrEmptyLocked())
	if err != nil {
		s.log.WithError(err).Error("encode savings for persistence")
		return
	}
	if err := s.kv.Save(context.Background(), storageKey, data); err != nil {
		s.log.WithError(err).Error("persist savings; continuing in memory only")
	}
}

func (s *Service) eventsOrEmptyLocked() []savings.Event {
	if s.events == nil {
		return []savings.Event{}
	}
	return s.events
}

// AddParams are the caller-supplied fields of a new event; ID and Date are
// stamped by the store.
type AddParams struct {
	Category    savings.Category `json:"category"`
	Description string           `json:"description"`
	AmountSaved float64          `json:"amountSaved"`
	MemberID    string           `json:"memberId,omitempty"`
}

// Add validates and appends a new event, generating a unique time-derived ID.
func (s *Service) Add(p AddParams) (savings.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	event := savings.Event{
		ID:          s.newIDLocked(),
		Date:        s.now().UTC(),
		Category:    p.Category,
		Description: p.Description,
		AmountSaved: p.AmountSaved,
		MemberID:    p.MemberID,
	}
	if err := event.Validate(); err != nil {
		return savings.Event{}, err
	}

	s.events = append(s.events, event)
	s.persistLocked()
	metrics.RecordStoreMutation(storeName, "add")

	s.log.WithField("event_id", event.ID).
		WithField("category", event.Category).
		Info("savings event recorded")
	return event, nil
}

func (s *Service) newIDLocked() string {
	for {
		id := strconv.FormatInt(s.now().UnixMilli(), 10) + "-" + strconv.Itoa(rand.Intn(10000))
		if s.indexOfLocked(id) < 0 {
			return id
		}
	}
}

func (s *Service) indexOfLocked(id string) int {
	for i, e := range s.events {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// UpdateParams carries the partial fields of an update; nil fields are left
// unchanged.
type UpdateParams struct {
	Category    *savings.Category `json:"category,omitempty"`
	Description *string           `json:"description,omitempty"`
	AmountSaved *float64          `json:"amountSaved,omitempty"`
	MemberID    *string           `json:"memberId,omitempty"`
}

// Update merges the partial fields into the matching event. A missing ID is
// a no-op, reported through found.
func (s *Service) Update(id string, p UpdateParams) (event savings.Event, found bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOfLocked(id)
	if i < 0 {
		return savings.Event{}, false, nil
	}

	updated := s.events[i]
	if p.Category != nil {
		updated.Category = *p.Category
	}
	if p.Description != nil {
		updated.Description = *p.Description
	}
	if p.AmountSaved != nil {
		updated.AmountSaved = *p.AmountSaved
	}
	if p.MemberID != nil {
		updated.MemberID = *p.MemberID
	}
	if err := updated.Validate(); err != nil {
		return savings.Event{}, true, err
	}

	s.events[i] = updated
	s.persistLocked()
	metrics.RecordStoreMutation(storeName, "update")
	return updated, true, nil
}

// Remove deletes the matching event. A missing ID is a no-op.
func (s *Service) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOfLocked(id)
	if i < 0 {
		return false
	}
	s.events = append(s.events[:i], s.events[i+1:]...)
	s.persistLocked()
	metrics.RecordStoreMutation(storeName, "remove")
	return true
}

// Clear empties the collection and persists the empty state.
func (s *Service) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = nil
	s.persistLocked()
	metrics.RecordStoreMutation(storeName, "clear")
}

// List returns a copy of the collection in insertion order.
func (s *Service) List() []savings.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]savings.Event, len(s.events))
	copy(out, s.events)
	return out
}

// Summary computes aggregate totals over the current collection.
func (s *Service) Summary() savings.Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return savings.Summarize(s.events)
}

// Export serializes the collection with a schema version and timestamp.
func (s *Service) Export() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Savings:    s.eventsOrEmptyLocked(),
		ExportDate: s.now().UTC(),
		Version:    exportVersion,
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode savings export: %w", err)
	}
	return data, nil
}

// Import validates and replaces the whole collection. Any validation failure
// returns ErrInvalidImport and leaves the current state unmodified; partial
// imports never happen.
func (s *Service) Import(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("%w: not valid JSON", ErrInvalidImport)
	}
	field := gjson.GetBytes(data, "savings")
	if !field.Exists() || !field.IsArray() {
		return fmt.Errorf("%w: missing savings array", ErrInvalidImport)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}
	seen := make(map[string]bool, len(snap.Savings))
	for i, event := range snap.Savings {
		if event.ID == "" {
			return fmt.Errorf("%w: event %d has no id", ErrInvalidImport, i)
		}
		if seen[event.ID] {
			return fmt.Errorf("%w: duplicate event id %s", ErrInvalidImport, event.ID)
		}
		seen[event.ID] = true
		if err := event.Validate(); err != nil {
			return fmt.Errorf("%w: event %d: %v", ErrInvalidImport, i, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = snap.Savings
	s.persistLocked()
	metrics.RecordStoreMutation(storeName, "import")

	s.log.WithField("count", len(snap.Savings)).Info("savings collection imported")
	return nil
}
