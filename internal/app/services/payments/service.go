// Package payments exposes the repayment-plan generator.
package payments

import (
	"github.com/medfin/platform/internal/app/domain/payments"
	"github.com/medfin/platform/pkg/logger"
)

// Service generates and ranks repayment options.
type Service struct {
	log *logger.Logger
}

// New builds the planner.
func New(log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("payments")
	}
	return &Service{log: log}
}

// Plans returns every option the profile qualifies for, best first.
func (s *Service) Plans(p payments.Profile) []payments.Plan {
	plans := payments.GeneratePlans(p)
	s.log.WithField("debt", p.TotalDebt).
		WithField("options", len(plans)).
		Debug("generated repayment plans")
	return plans
}

// Recommend returns the best-scoring option for the profile.
func (s *Service) Recommend(p payments.Profile) payments.Plan {
	return payments.RecommendPlan(p)
}
