// Package family defines household members, the insurance policies assigned
// to them, and the pending-action rules derived from those assignments.
package family

import (
	"fmt"
	"time"

	"github.com/medfin/platform/internal/app/domain/insurance"
)

// Relationship of a member to the account holder.
type Relationship string

const (
	RelationshipSelf   Relationship = "self"
	RelationshipSpouse Relationship = "spouse"
	RelationshipChild  Relationship = "child"
	RelationshipParent Relationship = "parent"
	RelationshipOther  Relationship = "other"
)

// Valid reports whether the relationship is one of the enumerated set.
func (r Relationship) Valid() bool {
	switch r {
	case RelationshipSelf, RelationshipSpouse, RelationshipChild,
		RelationshipParent, RelationshipOther:
		return true
	}
	return false
}

// MemberType describes how a member is covered under a policy.
type MemberType string

const (
	MemberTypePrimary   MemberType = "primary"
	MemberTypeDependent MemberType = "dependent"
)

// Valid reports whether the member type is one of the enumerated set.
func (m MemberType) Valid() bool {
	return m == MemberTypePrimary || m == MemberTypeDependent
}

// PolicyAssignment links a member to a policy and tracks their progress
// against its annual limits. Assignments are embedded in the member record:
// deleting the member deletes its assignments.
type PolicyAssignment struct {
	PolicyID       string           `json:"policyId"`
	Policy         insurance.Policy `json:"policyData"`
	MemberType     MemberType       `json:"memberType"`
	DeductibleMet  float64          `json:"deductibleMet"`
	OutOfPocketMet float64          `json:"outOfPocketMet"`
}

// Validate checks the invariants enforced at every mutation boundary.
func (p PolicyAssignment) Validate() error {
	if p.PolicyID == "" {
		return fmt.Errorf("policyId is required")
	}
	if !p.MemberType.Valid() {
		return fmt.Errorf("invalid memberType %q", p.MemberType)
	}
	if p.DeductibleMet < 0 {
		return fmt.Errorf("deductibleMet must be non-negative, got %v", p.DeductibleMet)
	}
	if p.OutOfPocketMet < 0 {
		return fmt.Errorf("outOfPocketMet must be non-negative, got %v", p.OutOfPocketMet)
	}
	return nil
}

// Member is one person in the household.
type Member struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Relationship Relationship       `json:"relationship"`
	DateOfBirth  *time.Time         `json:"dateOfBirth,omitempty"`
	Policies     []PolicyAssignment `json:"policies"`
}

// Validate checks the member and all embedded assignments.
func (m Member) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("name is required")
	}
	if !m.Relationship.Valid() {
		return fmt.Errorf("invalid relationship %q", m.Relationship)
	}
	for i, p := range m.Policies {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("policy %d: %w", i, err)
		}
	}
	return nil
}

// Clone returns a deep copy so callers cannot mutate stored state.
func (m Member) Clone() Member {
	out := m
	if m.DateOfBirth != nil {
		dob := *m.DateOfBirth
		out.DateOfBirth = &dob
	}
	if m.Policies != nil {
		out.Policies = make([]PolicyAssignment, len(m.Policies))
		copy(out.Policies, m.Policies)
	}
	return out
}
