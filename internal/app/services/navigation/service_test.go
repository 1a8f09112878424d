package navigation

import (
	"testing"

	"github.com/medfin/platform/internal/app/domain/navigation"
	"github.com/medfin/platform/pkg/logger"
)

func testRequest() Request {
	return Request{
		Bills: []navigation.Bill{
			{ProviderName: "Hospital ABC", TotalAmount: 5000, PatientResponsibility: 2000, InsurancePaid: 2500},
			{ProviderName: "Clinic XYZ", TotalAmount: 1000, PatientResponsibility: 500, InsurancePaid: 400},
		},
		Coverage: navigation.Coverage{
			Type:                 "private",
			AnnualDeductible:     2000,
			DeductibleMet:        500,
			AnnualOutOfPocketMax: 6000,
			OutOfPocketMet:       1200,
		},
		MonthlyIncome: 5000,
		HouseholdSize: 1,
	}
}

func TestPlanCoversTheWholeHousehold(t *testing.T) {
	s := New(logger.Nop())
	plan := s.Plan(testRequest())

	if plan.TotalMedicalDebt != 2500 {
		t.Errorf("debt = %.2f, want 2500", plan.TotalMedicalDebt)
	}
	if plan.RiskLevel != navigation.RiskLow {
		t.Errorf("risk = %s, want low", plan.RiskLevel)
	}
	if len(plan.ActionPlan) == 0 {
		t.Error("empty action plan")
	}
	if plan.Summary == "" || plan.RecommendedTimeline == "" {
		t.Errorf("plan = %+v", plan)
	}
}

func TestAnalyzeEchoesInputs(t *testing.T) {
	s := New(nil)
	situation := s.Analyze(testRequest())

	if situation.MonthlyIncome != 5000 || situation.HouseholdSize != 1 {
		t.Errorf("situation = %+v", situation)
	}
	if len(situation.Recommendations) == 0 || len(situation.NextSteps) == 0 {
		t.Errorf("situation = %+v", situation)
	}
}
