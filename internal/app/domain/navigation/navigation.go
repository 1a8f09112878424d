// Package navigation turns a household's outstanding bills and coverage
// position into a prioritized debt-relief plan: a risk and hardship grading,
// the coverage gaps working against them, and an ordered list of actions
// with estimated savings.
package navigation

import (
	"fmt"
	"math"
)

// RiskLevel grades medical debt against annual income.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// HardshipLevel grades household income against the federal poverty level.
type HardshipLevel string

const (
	HardshipNone     HardshipLevel = "none"
	HardshipMild     HardshipLevel = "mild"
	HardshipModerate HardshipLevel = "moderate"
	HardshipSevere   HardshipLevel = "severe"
)

// Bill is one outstanding medical bill as the patient sees it.
type Bill struct {
	ProviderName          string   `json:"providerName"`
	TotalAmount           float64  `json:"totalAmount"`
	PatientResponsibility float64  `json:"patientResponsibility"`
	InsurancePaid         float64  `json:"insurancePaid"`
	InsuranceAdjustments  float64  `json:"insuranceAdjustments"`
	ServiceCodes          []string `json:"serviceCodes,omitempty"`
	Description           string   `json:"description,omitempty"`
	IsItemized            bool     `json:"isItemized"`
}

// Coverage is the household's position against their plan's annual limits.
// Type distinguishes an uninsured household from one whose bills simply show
// no insurance activity.
type Coverage struct {
	Type                 string  `json:"insuranceType"`
	AnnualDeductible     float64 `json:"annualDeductible"`
	DeductibleMet        float64 `json:"deductibleMet"`
	AnnualOutOfPocketMax float64 `json:"annualOutOfPocketMax"`
	OutOfPocketMet       float64 `json:"outOfPocketMet"`
}

// CoverageGap flags a way the current coverage position costs the household
// money.
type CoverageGap struct {
	Type           string `json:"gapType"`
	Description    string `json:"description"`
	Impact         string `json:"impact"`
	Recommendation string `json:"recommendation"`
}

// ActionItem is one step of the relief plan, ordered by priority.
type ActionItem struct {
	Priority         int     `json:"priority"`
	Action           string  `json:"action"`
	Category         string  `json:"category"`
	EstimatedSavings float64 `json:"estimatedSavings"`
	Timeframe        string  `json:"estimatedTimeframe"`
	Description      string  `json:"description"`
}

// Plan is the full relief plan for a household.
type Plan struct {
	RiskLevel             RiskLevel     `json:"riskLevel"`
	HardshipLevel         HardshipLevel `json:"hardshipLevel"`
	TotalMedicalDebt      float64       `json:"totalMedicalDebt"`
	DebtToIncomeRatio     float64       `json:"debtToIncomeRatio"`
	CoverageGaps          []CoverageGap `json:"coverageGaps"`
	ActionPlan            []ActionItem  `json:"actionPlan"`
	EstimatedTotalSavings float64       `json:"estimatedTotalSavings"`
	RecommendedTimeline   string        `json:"recommendedTimeline"`
	Summary               string        `json:"summary"`
}

// Situation is the lighter-weight assessment without a full action plan.
type Situation struct {
	RiskLevel         RiskLevel     `json:"riskLevel"`
	HardshipLevel     HardshipLevel `json:"hardshipLevel"`
	TotalMedicalDebt  float64       `json:"totalMedicalDebt"`
	DebtToIncomeRatio float64       `json:"debtToIncomeRatio"`
	MonthlyIncome     float64       `json:"monthlyIncome"`
	HouseholdSize     int           `json:"householdSize"`
	Recommendations   []string      `json:"recommendations"`
	NextSteps         []string      `json:"nextSteps"`
}

// Debt-to-income thresholds for the risk grades.
const (
	riskMediumRatio   = 0.15
	riskHighRatio     = 0.30
	riskCriticalRatio = 0.50
)

// Income-to-poverty-level multiples for the hardship grades.
const (
	hardshipSevereRatio   = 1.5
	hardshipModerateRatio = 2.5
	hardshipMildRatio     = 4.0
)

// TotalDebt sums what the patient still owes across bills.
func TotalDebt(bills []Bill) float64 {
	var total float64
	for _, b := range bills {
		total += b.PatientResponsibility
	}
	return total
}

// DebtToIncomeRatio relates debt to annual income, rounded to four places.
// Zero income pins the ratio at 1.0.
func DebtToIncomeRatio(debt, monthlyIncome float64) float64 {
	if monthlyIncome == 0 {
		return 1.0
	}
	return math.Round(debt/(monthlyIncome*12)*10000) / 10000
}

// AssessRisk grades a debt-to-income ratio.
func AssessRisk(debtToIncome float64) RiskLevel {
	switch {
	case debtToIncome >= riskCriticalRatio:
		return RiskCritical
	case debtToIncome >= riskHighRatio:
		return RiskHigh
	case debtToIncome >= riskMediumRatio:
		return RiskMedium
	default:
		return RiskLow
	}
}

// AssessHardship grades household income against the federal poverty level.
func AssessHardship(monthlyIncome float64, householdSize int) HardshipLevel {
	fpl := FederalPovertyLevel(householdSize)
	ratio := 0.0
	if fpl > 0 {
		ratio = monthlyIncome * 12 / fpl
	}
	switch {
	case ratio <= hardshipSevereRatio:
		return HardshipSevere
	case ratio <= hardshipModerateRatio:
		return HardshipModerate
	case ratio <= hardshipMildRatio:
		return HardshipMild
	default:
		return HardshipNone
	}
}

// FederalPovertyLevel returns the 2024 guideline for the household size,
// extrapolating past eight members.
func FederalPovertyLevel(householdSize int) float64 {
	fpl := map[int]float64{
		1: 15180,
		2: 20440,
		3: 25700,
		4: 30960,
		5: 36220,
		6: 41480,
		7: 46740,
		8: 52000,
	}
	if v, ok := fpl[householdSize]; ok {
		return v
	}
	return 52000 + float64(householdSize-8)*5260
}

// IdentifyGaps flags coverage positions that are costing the household:
// an unmet deductible, an almost-reached out-of-pocket maximum worth
// exploiting, and bills that insurance never touched.
func IdentifyGaps(cov Coverage, bills []Bill) []CoverageGap {
	var gaps []CoverageGap

	remainingDeductible := cov.AnnualDeductible - cov.DeductibleMet
	if remainingDeductible > 0 {
		gaps = append(gaps, CoverageGap{
			Type:           "deductible_not_met",
			Description:    fmt.Sprintf("Deductible not met: $%.2f remaining", remainingDeductible),
			Impact:         "Full charges apply until deductible is met",
			Recommendation: "Consider deferring non-urgent care until deductible is met or explore payment assistance",
		})
	}

	remainingOOP := cov.AnnualOutOfPocketMax - cov.OutOfPocketMet
	if remainingOOP > 0 && cov.OutOfPocketMet > 0 {
		progress := cov.OutOfPocketMet / cov.AnnualOutOfPocketMax * 100
		if progress > 80 {
			gaps = append(gaps, CoverageGap{
				Type:           "near_out_of_pocket_max",
				Description:    fmt.Sprintf("Out-of-pocket max nearly reached: $%.2f remaining", remainingOOP),
				Impact:         "Most services will be covered after reaching max",
				Recommendation: "Schedule necessary procedures now to maximize coverage",
			})
		}
	}

	untouched := 0
	for _, b := range bills {
		if b.InsurancePaid == 0 && b.InsuranceAdjustments == 0 {
			untouched++
		}
	}
	if untouched > 0 && cov.Type != "uninsured" {
		gaps = append(gaps, CoverageGap{
			Type:           "potential_uncovered_charges",
			Description:    fmt.Sprintf("%d bill(s) with no insurance payment recorded", untouched),
			Impact:         "May indicate out-of-network services or coverage issues",
			Recommendation: "Review bills for out-of-network charges and verify coverage",
		})
	}

	return gaps
}

// BuildPlan assembles the full relief plan for a household.
func BuildPlan(bills []Bill, cov Coverage, monthlyIncome float64, householdSize int) Plan {
	totalDebt := TotalDebt(bills)
	ratio := DebtToIncomeRatio(totalDebt, monthlyIncome)
	risk := AssessRisk(ratio)
	hardship := AssessHardship(monthlyIncome, householdSize)
	gaps := IdentifyGaps(cov, bills)
	actions := actionPlan(risk, hardship, totalDebt)

	var savings float64
	for _, a := range actions {
		savings += a.EstimatedSavings
	}

	return Plan{
		RiskLevel:             risk,
		HardshipLevel:         hardship,
		TotalMedicalDebt:      totalDebt,
		DebtToIncomeRatio:     ratio,
		CoverageGaps:          gaps,
		ActionPlan:            actions,
		EstimatedTotalSavings: savings,
		RecommendedTimeline:   timeline(risk),
		Summary:               summary(risk, hardship, totalDebt, savings),
	}
}

// Analyze produces the assessment without the full action plan, with
// immediate recommendations instead.
func Analyze(bills []Bill, cov Coverage, monthlyIncome float64, householdSize int) Situation {
	totalDebt := TotalDebt(bills)
	ratio := DebtToIncomeRatio(totalDebt, monthlyIncome)
	risk := AssessRisk(ratio)
	hardship := AssessHardship(monthlyIncome, householdSize)

	return Situation{
		RiskLevel:         risk,
		HardshipLevel:     hardship,
		TotalMedicalDebt:  totalDebt,
		DebtToIncomeRatio: ratio,
		MonthlyIncome:     monthlyIncome,
		HouseholdSize:     householdSize,
		Recommendations:   recommendations(risk, hardship),
		NextSteps:         nextSteps(risk),
	}
}

// actionPlan orders the relief steps. Savings estimates are fractions of the
// total debt; assistance-related savings only count when hardship applies.
func actionPlan(risk RiskLevel, hardship HardshipLevel, totalDebt float64) []ActionItem {
	var actions []ActionItem
	priority := 1

	add := func(a ActionItem) {
		a.Priority = priority
		actions = append(actions, a)
		priority++
	}

	add(ActionItem{
		Action:           "Request itemized bills for all charges",
		Category:         "bill_review",
		EstimatedSavings: totalDebt * 0.05,
		Timeframe:        "1-2 weeks",
		Description:      "Itemized bills reveal errors and overcharges that can be disputed",
	})

	charitySavings := 0.0
	if hardship != HardshipNone {
		charitySavings = totalDebt * 0.40
	}
	add(ActionItem{
		Action:           "Apply for hospital charity care or financial assistance",
		Category:         "assistance",
		EstimatedSavings: charitySavings,
		Timeframe:        "2-4 weeks",
		Description:      "Hospitals are required to offer financial assistance programs",
	})

	add(ActionItem{
		Action:           "Review insurance coverage for all bills",
		Category:         "insurance",
		EstimatedSavings: totalDebt * 0.15,
		Timeframe:        "2-3 weeks",
		Description:      "Check for out-of-network charges and coverage denials that can be appealed",
	})

	add(ActionItem{
		Action:           "Negotiate payment plan with providers",
		Category:         "payment_planning",
		EstimatedSavings: totalDebt * 0.10,
		Timeframe:        "1-2 weeks",
		Description:      "Many providers offer interest-free payment plans with flexible terms",
	})

	if risk == RiskHigh || risk == RiskCritical {
		add(ActionItem{
			Action:           "Consult with medical billing advocate",
			Category:         "professional_help",
			EstimatedSavings: totalDebt * 0.20,
			Timeframe:        "2-4 weeks",
			Description:      "Professional advocates can negotiate significant reductions",
		})
	}

	governmentSavings := 0.0
	if hardship == HardshipSevere {
		governmentSavings = totalDebt * 0.25
	}
	add(ActionItem{
		Action:           "Explore government assistance programs",
		Category:         "assistance",
		EstimatedSavings: governmentSavings,
		Timeframe:        "4-8 weeks",
		Description:      "Medicaid, CHIP, and other programs may cover past medical expenses",
	})

	return actions
}

func timeline(risk RiskLevel) string {
	switch risk {
	case RiskCritical:
		return "Immediate action required within 30 days"
	case RiskHigh:
		return "High-priority actions within 60 days, remainder within 90 days"
	case RiskMedium:
		return "Complete within 3-6 months"
	default:
		return "Complete within 6-12 months"
	}
}

func summary(risk RiskLevel, hardship HardshipLevel, totalDebt, savings float64) string {
	verbs := map[RiskLevel]string{
		RiskLow:      "manageable",
		RiskMedium:   "requires attention",
		RiskHigh:     "serious concern",
		RiskCritical: "urgent action needed",
	}
	return fmt.Sprintf(
		"Your medical debt situation is %s with a total of $%.2f in debt. "+
			"Based on your hardship level (%s), you may be eligible for assistance programs "+
			"that could save an estimated $%.2f. Follow the action plan to reduce your "+
			"financial burden systematically.",
		verbs[risk], totalDebt, hardship, savings,
	)
}

func recommendations(risk RiskLevel, hardship HardshipLevel) []string {
	var recs []string
	if risk == RiskHigh || risk == RiskCritical {
		recs = append(recs,
			"Contact providers immediately to pause collection efforts",
			"Apply for hospital financial assistance programs",
		)
	}
	if hardship == HardshipModerate || hardship == HardshipSevere {
		recs = append(recs,
			"You likely qualify for charity care programs",
			"Consider Medicaid enrollment if eligible",
		)
	}
	return append(recs, "Request itemized bills for all charges")
}

func nextSteps(risk RiskLevel) []string {
	switch risk {
	case RiskCritical:
		return []string{
			"1. Contact hospital billing department immediately",
			"2. Request charity care application",
			"3. Provide income documentation",
			"4. Review all bills for errors",
			"5. Negotiate payment terms",
		}
	case RiskHigh:
		return []string{
			"1. Gather all medical bills",
			"2. Request itemized statements",
			"3. Apply for financial assistance",
			"4. Review insurance coverage",
			"5. Set up payment plans",
		}
	default:
		return []string{
			"1. Review your current medical expenses",
			"2. Check insurance benefits",
			"3. Look for savings opportunities",
			"4. Plan for future healthcare costs",
		}
	}
}
