// Package savings defines savings events recorded when a user avoids or
// recovers a medical cost, plus the aggregate views derived from them.
package savings

import (
	"fmt"
	"time"
)

// Category classifies how a saving was achieved.
type Category string

const (
	CategoryBillingError    Category = "billing_error"
	CategoryAppealWon       Category = "appeal_won"
	CategoryNetworkSavings  Category = "network_savings"
	CategoryRxSavings       Category = "rx_savings"
	CategoryDenialPrevented Category = "denial_prevented"
)

// Categories returns every valid category in display order.
func Categories() []Category {
	return []Category{
		CategoryBillingError,
		CategoryAppealWon,
		CategoryNetworkSavings,
		CategoryRxSavings,
		CategoryDenialPrevented,
	}
}

// Valid reports whether the category is one of the enumerated set.
func (c Category) Valid() bool {
	switch c {
	case CategoryBillingError, CategoryAppealWon, CategoryNetworkSavings,
		CategoryRxSavings, CategoryDenialPrevented:
		return true
	}
	return false
}

// Event records a single saving. Events are immutable once created except
// via explicit update, and are owned exclusively by the savings store.
type Event struct {
	ID          string    `json:"id"`
	Date        time.Time `json:"date"`
	Category    Category  `json:"category"`
	Description string    `json:"description"`
	AmountSaved float64   `json:"amountSaved"`
	MemberID    string    `json:"memberId,omitempty"`
}

// Validate checks the invariants enforced at every mutation boundary.
func (e Event) Validate() error {
	if !e.Category.Valid() {
		return fmt.Errorf("invalid savings category %q", e.Category)
	}
	if e.AmountSaved < 0 {
		return fmt.Errorf("amountSaved must be non-negative, got %v", e.AmountSaved)
	}
	return nil
}

// Summary aggregates a collection of events.
type Summary struct {
	Total      float64 `json:"totalSaved"`
	EventCount int     `json:"eventCount"`

	ByCategory map[Category]float64 `json:"savingsByCategory"`
	ByMember   map[string]float64   `json:"savingsByMember,omitempty"`
}

// Summarize computes aggregate totals over the given events. Every valid
// category appears in ByCategory even when its sum is zero.
func Summarize(events []Event) Summary {
	s := Summary{
		ByCategory: make(map[Category]float64, 5),
		ByMember:   make(map[string]float64),
	}
	for _, c := range Categories() {
		s.ByCategory[c] = 0
	}
	for _, e := range events {
		s.Total += e.AmountSaved
		s.EventCount++
		s.ByCategory[e.Category] += e.AmountSaved
		if e.MemberID != "" {
			s.ByMember[e.MemberID] += e.AmountSaved
		}
	}
	return s
}
