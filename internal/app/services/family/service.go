// Package family implements the family coverage store: household members and
// their policy assignments, written through to persistent storage on every
// mutation, plus the pending-action view derived from them.
package family

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

	"github.com/medfin/platform/internal/app/domain/family"
	"github.com/medfin/platform/internal/app/domain/insurance"
	"github.com/medfin/platform/internal/app/metrics"
	"github.com/medfin/platform/internal/app/storage"
	"github.com/medfin/platform/pkg/logger"
)

const (
	storageKey    = "medfin_family_members"
	exportVersion = "1.0"
	storeName     = "family"
)

// ErrInvalidImport marks import payloads that fail shape validation. The
// in-memory collection is left untouched when it is returned.
var ErrInvalidImport = errors.New("invalid family data")

// Snapshot is the transportable export form of the collection.
type Snapshot struct {
	Family     []family.Member `json:"family"`
	ExportDate time.Time       `json:"exportDate"`
	Version    string          `json:"version"`
}

// Service owns the family member collection. Persistence failures degrade to
// in-memory-only operation rather than surfacing to the caller.
type Service struct {
	mu      sync.RWMutex
	kv      storage.KV
	log     *logger.Logger
	members []family.Member
	now     func() time.Time
}

// New loads the persisted collection and returns a ready store. Absent or
// corrupt storage yields an empty collection; New never fails.
func New(kv storage.KV, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("family-store")
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
		s.log.WithError(err).Warn("loading family failed; starting empty")
		return
	}
	var members []family.Member
	if err := json.Unmarshal(data, &members); err != nil {
		s.log.WithError(err).Warn("persisted family corrupt; starting empty")
		return
	}
	s.members = members
}

func (s *Service) persistLocked() {
	data, err := json.Marshal(s.membersOrEmptyLocked())
	if err != nil {
		s.log.WithError(err).Error("encode family for persistence")
		return
	}
	if err := s.kv.Save(context.Background(), storageKey, data); err != nil {
		s.log.WithError(err).Error("persist family; continuing in memory only")
	}
}

func (s *Service) membersOrEmptyLocked() []family.Member {
	if s.members == nil {
		return []family.Member{}
	}
	return s.members
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
	for i, m := range s.members {
		if m.ID == id {
			return i
		}
	}
	return -1
}

// AddParams are the caller-supplied fields of a new member; the ID is
// stamped by the store and the policy list starts empty.
type AddParams struct {
	Name         string              `json:"name"`
	Relationship family.Relationship `json:"relationship"`
	DateOfBirth  *time.Time          `json:"dateOfBirth,omitempty"`
}

// Add validates and appends a new member with a unique time-derived ID.
func (s *Service) Add(p AddParams) (family.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	member := family.Member{
		ID:           s.newIDLocked(),
		Name:         p.Name,
		Relationship: p.Relationship,
		DateOfBirth:  p.DateOfBirth,
		Policies:     []family.PolicyAssignment{},
	}
	if err := member.Validate(); err != nil {
		return family.Member{}, err
	}

	s.members = append(s.members, member)
	s.persistLocked()
	metrics.RecordStoreMutation(storeName, "add")

	s.log.WithField("member_id", member.ID).
		WithField("relationship", member.Relationship).
		Info("family member added")
	return member.Clone(), nil
}

// UpdateParams carries the partial fields of an update; nil fields are left
// unchanged.
type UpdateParams struct {
	Name         *string              `json:"name,omitempty"`
	Relationship *family.Relationship `json:"relationship,omitempty"`
	DateOfBirth  *time.Time           `json:"dateOfBirth,omitempty"`
}

// Update merges the partial fields into the matching member. A missing ID is
// a no-op, reported through found.
func (s *Service) Update(id string, p UpdateParams) (member family.Member, found bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOfLocked(id)
	if i < 0 {
		return family.Member{}, false, nil
	}

	updated := s.members[i].Clone()
	if p.Name != nil {
		updated.Name = *p.Name
	}
	if p.Relationship != nil {
		updated.Relationship = *p.Relationship
	}
	if p.DateOfBirth != nil {
		dob := *p.DateOfBirth
		updated.DateOfBirth = &dob
	}
	if err := updated.Validate(); err != nil {
		return family.Member{}, true, err
	}

	s.members[i] = updated
	s.persistLocked()
	metrics.RecordStoreMutation(storeName, "update")
	return updated.Clone(), true, nil
}

// Remove deletes the matching member and, with it, all embedded policy
// assignments. A missing ID is a no-op.
func (s *Service) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOfLocked(id)
	if i < 0 {
		return false
	}
	s.members = append(s.members[:i], s.members[i+1:]...)
	s.persistLocked()
	metrics.RecordStoreMutation(storeName, "remove")
	return true
}

// Clear empties the collection and persists the empty state.
func (s *Service) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.members = nil
	s.persistLocked()
	metrics.RecordStoreMutation(storeName, "clear")
}

// Get returns a copy of the matching member.
func (s *Service) Get(id string) (family.Member, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOfLocked(id)
	if i < 0 {
		return family.Member{}, false
	}
	return s.members[i].Clone(), true
}

// List returns a copy of the collection in insertion order.
func (s *Service) List() []family.Member {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]family.Member, 0, len(s.members))
	for _, m := range s.members {
		out = append(out, m.Clone())
	}
	return out
}

// AssignPolicy attaches a policy to the member, replacing any existing
// assignment with the same policy ID.
func (s *Service) AssignPolicy(memberID string, policyID string, policy insurance.Policy, memberType family.MemberType) (family.Member, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOfLocked(memberID)
	if i < 0 {
		return family.Member{}, false, nil
	}

	assignment := family.PolicyAssignment{
		PolicyID:   policyID,
		Policy:     policy,
		MemberType: memberType,
	}
	if err := assignment.Validate(); err != nil {
		return family.Member{}, true, err
	}

	member := s.members[i].Clone()
	replaced := false
	for j, existing := range member.Policies {
		if existing.PolicyID == policyID {
			member.Policies[j] = assignment
			replaced = true
			break
		}
	}
	if !replaced {
		member.Policies = append(member.Policies, assignment)
	}

	s.members[i] = member
	s.persistLocked()
	metrics.RecordStoreMutation(storeName, "assign_policy")
	return member.Clone(), true, nil
}

// UpdatePolicyProgress sets the deductible and out-of-pocket amounts met on
// an assignment. Negative values are rejected; a missing member or policy is
// a no-op.
func (s *Service) UpdatePolicyProgress(memberID, policyID string, deductibleMet, outOfPocketMet float64) (family.Member, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOfLocked(memberID)
	if i < 0 {
		return family.Member{}, false, nil
	}

	member := s.members[i].Clone()
	for j, assignment := range member.Policies {
		if assignment.PolicyID != policyID {
			continue
		}
		assignment.DeductibleMet = deductibleMet
		assignment.OutOfPocketMet = outOfPocketMet
		if err := assignment.Validate(); err != nil {
			return family.Member{}, true, err
		}
		member.Policies[j] = assignment

		s.members[i] = member
		s.persistLocked()
		metrics.RecordStoreMutation(storeName, "update_policy")
		return member.Clone(), true, nil
	}
	return family.Member{}, false, nil
}

// RemovePolicy detaches a policy assignment from the member.
func (s *Service) RemovePolicy(memberID, policyID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOfLocked(memberID)
	if i < 0 {
		return false
	}

	member := s.members[i].Clone()
	for j, assignment := range member.Policies {
		if assignment.PolicyID == policyID {
			member.Policies = append(member.Policies[:j], member.Policies[j+1:]...)
			s.members[i] = member
			s.persistLocked()
			metrics.RecordStoreMutation(storeName, "remove_policy")
			return true
		}
	}
	return false
}

// PendingActions evaluates the reminder rules over the current collection.
func (s *Service) PendingActions(now time.Time) []family.PendingAction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return family.PendingActions(s.members, now)
}

// Export serializes the collection with a schema version and timestamp.
func (s *Service) Export() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Family:     s.membersOrEmptyLocked(),
		ExportDate: s.now().UTC(),
		Version:    exportVersion,
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode family export: %w", err)
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
	field := gjson.GetBytes(data, "family")
	if !field.Exists() || !field.IsArray() {
		return fmt.Errorf("%w: missing family array", ErrInvalidImport)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}
	seen := make(map[string]bool, len(snap.Family))
	for i, member := range snap.Family {
		if member.ID == "" {
			return fmt.Errorf("%w: member %d has no id", ErrInvalidImport, i)
		}
		if seen[member.ID] {
			return fmt.Errorf("%w: duplicate member id %s", ErrInvalidImport, member.ID)
		}
		seen[member.ID] = true
		if err := member.Validate(); err != nil {
			return fmt.Errorf("%w: member %d: %v", ErrInvalidImport, i, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.members = snap.Family
	s.persistLocked()
	metrics.RecordStoreMutation(storeName, "import")

	s.log.WithField("count", len(snap.Family)).Info("family collection imported")
	return nil
}
