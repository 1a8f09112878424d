// Package navigation exposes the debt-relief planner.
package navigation

import (
	"github.com/medfin/platform/internal/app/domain/navigation"
	"github.com/medfin/platform/pkg/logger"
)

// Request carries the household's bills, coverage position and finances.
type Request struct {
	Bills         []navigation.Bill   `json:"bills"`
	Coverage      navigation.Coverage `json:"insurance"`
	MonthlyIncome float64             `json:"monthlyIncome"`
	HouseholdSize int                 `json:"householdSize"`
}

// Service builds relief plans and situation assessments.
type Service struct {
	log *logger.Logger
}

// New builds the planner.
func New(log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("navigation")
	}
	return &Service{log: log}
}

// Plan assembles the full relief plan for the household.
func (s *Service) Plan(req Request) navigation.Plan {
	plan := navigation.BuildPlan(req.Bills, req.Coverage, req.MonthlyIncome, req.HouseholdSize)
	s.log.WithField("risk", plan.RiskLevel).
		WithField("debt", plan.TotalMedicalDebt).
		Debug("built relief plan")
	return plan
}

// Analyze grades the situation without a full action plan.
func (s *Service) Analyze(req Request) navigation.Situation {
	return navigation.Analyze(req.Bills, req.Coverage, req.MonthlyIncome, req.HouseholdSize)
}
