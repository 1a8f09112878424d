package family

import (
	"sort"
	"time"
)

// Priority orders pending actions for display, high first.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

func (p Priority) rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

// Action types produced by the pending-action rules.
const (
	ActionDeductibleAlmostMet = "deductible_almost_met"
	ActionDeductibleMet       = "deductible_met"
	ActionOutOfPocketNearMax  = "out_of_pocket_near_max"
	ActionOutOfPocketMaxed    = "out_of_pocket_maxed"
	ActionRenewalImminent     = "renewal_imminent"
	ActionRenewalUpcoming     = "renewal_upcoming"
)

// PendingAction is a suggested follow-up derived from a member's policy
// assignment.
type PendingAction struct {
	MemberID   string   `json:"memberId"`
	MemberName string   `json:"memberName"`
	PolicyID   string   `json:"policyId"`
	Type       string   `json:"type"`
	Priority   Priority `json:"priority"`
	Message    string   `json:"message"`
}

// Renewal windows for the reminder rules.
const (
	renewalImminentWindow = 30 * 24 * time.Hour
	renewalUpcomingWindow = 60 * 24 * time.Hour
)

// PendingActions evaluates the deterministic rule set over every member's
// assignments. The result is sorted by priority (high > medium > low), then
// by member ID, policy ID and action type so the ordering is stable.
//
// Rules:
//   - deductible progress in [80%,100%) -> medium
//   - deductible progress >= 100%       -> low (planned care is cheapest now)
//   - out-of-pocket progress in [90%,100%) -> high
//   - out-of-pocket progress >= 100%       -> low
//   - renewal within 30 days -> high, within 60 days -> medium
func PendingActions(members []Member, now time.Time) []PendingAction {
	var actions []PendingAction
	for _, m := range members {
		for _, p := range m.Policies {
			actions = append(actions, assignmentActions(m, p, now)...)
		}
	}
	sort.Slice(actions, func(i, j int) bool {
		a, b := actions[i], actions[j]
		if a.Priority.rank() != b.Priority.rank() {
			return a.Priority.rank() < b.Priority.rank()
		}
		if a.MemberID != b.MemberID {
			return a.MemberID < b.MemberID
		}
		if a.PolicyID != b.PolicyID {
			return a.PolicyID < b.PolicyID
		}
		return a.Type < b.Type
	})
	return actions
}

func assignmentActions(m Member, p PolicyAssignment, now time.Time) []PendingAction {
	var out []PendingAction

	emit := func(typ string, prio Priority, msg string) {
		out = append(out, PendingAction{
			MemberID:   m.ID,
			MemberName: m.Name,
			PolicyID:   p.PolicyID,
			Type:       typ,
			Priority:   prio,
			Message:    msg,
		})
	}

	if d := p.Policy.AnnualDeductibleIndividual; d > 0 {
		progress := p.DeductibleMet / d
		switch {
		case progress >= 1.0:
			emit(ActionDeductibleMet, PriorityLow,
				m.Name+" has met their deductible; planned care costs less for the rest of the plan year")
		case progress >= 0.8:
			emit(ActionDeductibleAlmostMet, PriorityMedium,
				m.Name+" is close to meeting their deductible; consider timing of upcoming care")
		}
	}

	if max := p.Policy.AnnualOutOfPocketMax; max > 0 {
		progress := p.OutOfPocketMet / max
		switch {
		case progress >= 1.0:
			emit(ActionOutOfPocketMaxed, PriorityLow,
				m.Name+" has reached the out-of-pocket maximum; covered services should now be fully paid")
		case progress >= 0.9:
			emit(ActionOutOfPocketNearMax, PriorityHigh,
				m.Name+" is approaching the out-of-pocket maximum; verify recent claims before paying new bills")
		}
	}

	if r := p.Policy.RenewalDate; !r.IsZero() && r.After(now) {
		until := r.Sub(now)
		switch {
		case until <= renewalImminentWindow:
			emit(ActionRenewalImminent, PriorityHigh,
				m.Name+"'s plan renews within 30 days; review coverage and open claims")
		case until <= renewalUpcomingWindow:
			emit(ActionRenewalUpcoming, PriorityMedium,
				m.Name+"'s plan renews within 60 days; compare plan options now")
		}
	}

	return out
}
