// Package payments generates repayment options for an outstanding medical
// balance and scores them against the household's finances. The rules mirror
// how providers, card issuers and lenders actually qualify applicants.
package payments

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Profile describes the household applying for a plan. A zero CreditScore
// means the score is unknown; credit-gated options stay available but rate
// adjustments do not apply.
type Profile struct {
	TotalDebt         float64 `json:"totalDebt"`
	MonthlyIncome     float64 `json:"monthlyIncome"`
	CreditScore       int     `json:"creditScore,omitempty"`
	DebtToIncomeRatio float64 `json:"debtToIncomeRatio,omitempty"`
	Hardship          bool    `json:"hardship,omitempty"`
}

// Plan is one repayment option. InterestRate is an annual percentage.
type Plan struct {
	Type           string   `json:"planType"`
	MonthlyPayment float64  `json:"monthlyPayment"`
	TotalRepayment float64  `json:"totalRepayment"`
	TermMonths     int      `json:"termMonths"`
	InterestRate   float64  `json:"interestRate"`
	TotalInterest  float64  `json:"totalInterest"`
	Pros           []string `json:"pros"`
	Cons           []string `json:"cons"`
	Eligibility    []string `json:"eligibilityCriteria"`
	Score          float64  `json:"recommendationScore"`
}

// Affordability caps: a plan is only offered when its monthly payment stays
// under this share of monthly income.
const (
	providerPaymentCap   = 0.20
	personalLoanCap      = 0.15
	homeEquityCap        = 0.25
	hardshipPaymentCap   = 0.10
	hardshipDiscount     = 0.10
	hardshipPlanDiscount = 0.30
)

// GeneratePlans builds every option the profile qualifies for, scored and
// sorted best first. Ties keep generation order.
func GeneratePlans(p Profile) []Plan {
	var plans []Plan
	plans = append(plans, providerPlans(p)...)
	plans = append(plans, medicalCreditCardPlans(p)...)
	plans = append(plans, personalLoanPlans(p)...)
	plans = append(plans, homeEquityPlans(p)...)
	if p.Hardship {
		plans = append(plans, hardshipPlans(p)...)
	}

	for i := range plans {
		plans[i].Score = score(plans[i], p)
	}
	sort.SliceStable(plans, func(i, j int) bool {
		return plans[i].Score > plans[j].Score
	})
	return plans
}

// RecommendPlan returns the best-scoring option, or an empty custom plan
// when nothing qualifies.
func RecommendPlan(p Profile) Plan {
	plans := GeneratePlans(p)
	if len(plans) > 0 {
		return plans[0]
	}
	return Plan{
		Type:        "custom",
		Pros:        []string{},
		Cons:        []string{},
		Eligibility: []string{},
	}
}

// providerPlans offers interest-free installments negotiated directly with
// the billing department. Hardship earns a 10% principal reduction.
func providerPlans(p Profile) []Plan {
	var plans []Plan
	for _, term := range []int{6, 12, 18, 24, 36} {
		monthly := p.TotalDebt / float64(term)
		if monthly > p.MonthlyIncome*providerPaymentCap {
			continue
		}
		repayment := p.TotalDebt
		if p.Hardship {
			repayment = p.TotalDebt * (1 - hardshipDiscount)
			monthly = repayment / float64(term)
		}
		plans = append(plans, Plan{
			Type:           fmt.Sprintf("Provider Payment Plan (%d months)", term),
			MonthlyPayment: round2(monthly),
			TotalRepayment: round2(repayment),
			TermMonths:     term,
			Pros: []string{
				"No interest charges",
				"No credit check required",
				"Flexible terms negotiated directly with provider",
				"Payments reported to credit bureaus",
			},
			Cons: []string{
				"May require down payment",
				"Limited to specific providers",
				"Late fees may apply",
				"Terms vary by provider",
			},
			Eligibility: []string{
				"Contact provider billing department",
				"Demonstrate ability to pay",
				"Agree to automatic payments (may offer discount)",
			},
		})
	}
	return plans
}

// medicalCreditCardPlans offers 0% promotional financing. Skipped when a
// known credit score falls below 640.
func medicalCreditCardPlans(p Profile) []Plan {
	if p.CreditScore > 0 && p.CreditScore < 640 {
		return nil
	}
	const promotionalMonths = 12

	var plans []Plan
	for _, term := range []int{promotionalMonths, 24} {
		plans = append(plans, Plan{
			Type:           fmt.Sprintf("Medical Credit Card - 0%% APR (%d months)", term),
			MonthlyPayment: round2(p.TotalDebt / float64(term)),
			TotalRepayment: round2(p.TotalDebt),
			TermMonths:     term,
			Pros: []string{
				fmt.Sprintf("0%% APR for first %d months", promotionalMonths),
				"Can be used at multiple providers",
				"May offer welcome bonuses",
				"Fast application process",
			},
			Cons: []string{
				fmt.Sprintf("Interest charges apply after %d months if not paid", promotionalMonths),
				"Deferred interest on full balance if not paid in full",
				"Requires good credit",
				"Limited network of participating providers",
			},
			Eligibility: []string{
				"Credit score 640+ recommended",
				"Application through participating provider or issuer",
				"Proof of income may be required",
			},
		})
	}
	return plans
}

// personalLoanPlans offers fixed-rate consolidation loans. Skipped below a
// 600 credit score or above a 43% debt-to-income ratio.
func personalLoanPlans(p Profile) []Plan {
	if p.CreditScore > 0 && p.CreditScore < 600 {
		return nil
	}
	if p.DebtToIncomeRatio > 0.43 {
		return nil
	}

	rate := 0.08
	switch {
	case p.CreditScore >= 740:
		rate = 0.05
	case p.CreditScore >= 670:
		rate = 0.07
	case p.CreditScore >= 600:
		rate = 0.12
	}

	var plans []Plan
	for _, term := range []int{24, 36, 48, 60} {
		monthly := monthlyPayment(p.TotalDebt, rate, term)
		if monthly > p.MonthlyIncome*personalLoanCap {
			continue
		}
		interest := totalInterest(p.TotalDebt, rate, term)
		plans = append(plans, Plan{
			Type:           fmt.Sprintf("Personal Loan (%d months)", term),
			MonthlyPayment: round2(monthly),
			TotalRepayment: round2(p.TotalDebt + interest),
			TermMonths:     term,
			InterestRate:   round2(rate * 100),
			TotalInterest:  round2(interest),
			Pros: []string{
				"Fixed interest rate and monthly payment",
				"Consolidates multiple bills into single payment",
				"Lump-sum payment can provide leverage for discounts",
				"Can improve credit mix if managed responsibly",
			},
			Cons: []string{
				fmt.Sprintf("Interest charges apply (%.1f%% APR)", rate*100),
				"Requires good credit for best rates",
				"Origination fees may apply",
				"May have prepayment penalties",
			},
			Eligibility: []string{
				"Credit score 600+ required",
				"Debt-to-income ratio below 43%",
				"Proof of income and employment",
				"Valid bank account",
			},
		})
	}
	return plans
}

// homeEquityPlans offers long-term secured loans. Skipped below a 620 credit
// score; a 740+ score earns the preferred rate.
func homeEquityPlans(p Profile) []Plan {
	if p.CreditScore > 0 && p.CreditScore < 620 {
		return nil
	}

	rate := 0.06
	if p.CreditScore >= 740 {
		rate = 0.04
	}

	var plans []Plan
	for _, term := range []int{60, 120, 180} {
		monthly := monthlyPayment(p.TotalDebt, rate, term)
		if monthly > p.MonthlyIncome*homeEquityCap {
			continue
		}
		interest := totalInterest(p.TotalDebt, rate, term)
		plans = append(plans, Plan{
			Type:           fmt.Sprintf("Home Equity Loan (%d months)", term),
			MonthlyPayment: round2(monthly),
			TotalRepayment: round2(p.TotalDebt + interest),
			TermMonths:     term,
			InterestRate:   round2(rate * 100),
			TotalInterest:  round2(interest),
			Pros: []string{
				fmt.Sprintf("Low interest rate (%.1f%% APR)", rate*100),
				"Interest may be tax deductible",
				"Long repayment terms keep payments low",
				"Large borrowing capacity",
			},
			Cons: []string{
				"Home used as collateral",
				"Closing costs and fees",
				"Longer loan term means more total interest",
				"Risk of foreclosure if payments are missed",
			},
			Eligibility: []string{
				"Credit score 620+ required",
				"Sufficient home equity",
				"Debt-to-income ratio below 43%",
				"Home appraisal required",
			},
		})
	}
	return plans
}

// hardshipPlans offers a 30% principal reduction over five years for
// documented hardship.
func hardshipPlans(p Profile) []Plan {
	const term = 60
	repayment := p.TotalDebt * (1 - hardshipPlanDiscount)
	monthly := repayment / term
	if monthly > p.MonthlyIncome*hardshipPaymentCap {
		return nil
	}
	return []Plan{{
		Type:           fmt.Sprintf("Hardship Payment Plan (%d months)", term),
		MonthlyPayment: round2(monthly),
		TotalRepayment: round2(repayment),
		TermMonths:     term,
		Pros: []string{
			"30% principal reduction",
			"No interest charges",
			"Extended repayment terms",
			"Protects credit score from collections",
		},
		Cons: []string{
			"Requires proof of financial hardship",
			"Limited availability",
			"May require down payment",
			"Provider must approve hardship status",
		},
		Eligibility: []string{
			"Documented financial hardship",
			"Income below 300% FPL",
			"Medical debt burden",
			"Provider approval required",
		},
	}}
}

// monthlyPayment amortizes principal over months at the annual rate.
func monthlyPayment(principal, annualRate float64, months int) float64 {
	if annualRate == 0 {
		return principal / float64(months)
	}
	r := annualRate / 12
	factor := math.Pow(1+r, float64(months))
	return principal * (r * factor) / (factor - 1)
}

func totalInterest(principal, annualRate float64, months int) float64 {
	return monthlyPayment(principal, annualRate, months)*float64(months) - principal
}

// score rates a plan 0-100 for the profile: affordable payments and low
// rates win, and the plan type is weighted by credit standing, hardship
// status and leverage.
func score(plan Plan, p Profile) float64 {
	s := 50.0

	paymentRatio := 1.0
	if p.MonthlyIncome > 0 {
		paymentRatio = plan.MonthlyPayment / p.MonthlyIncome
	}
	switch {
	case paymentRatio <= 0.10:
		s += 30
	case paymentRatio <= 0.15:
		s += 20
	case paymentRatio <= 0.20:
		s += 10
	}

	switch {
	case plan.InterestRate == 0:
		s += 20
	case plan.InterestRate <= 5:
		s += 15
	case plan.InterestRate <= 10:
		s += 5
	}

	hardshipPlan := strings.Contains(plan.Type, "Hardship")
	providerPlan := strings.Contains(plan.Type, "Provider Payment Plan")

	if p.Hardship && hardshipPlan {
		s += 25
	}
	if providerPlan {
		s += 15
		if p.Hardship {
			s += 10
		}
	}

	switch {
	case p.CreditScore >= 700:
		if strings.Contains(plan.Type, "Personal Loan") {
			s += 10
		}
		if strings.Contains(plan.Type, "Home Equity") {
			s += 10
		}
		if strings.Contains(plan.Type, "Medical Credit Card") {
			s += 5
		}
	case p.CreditScore > 0 && p.CreditScore < 650:
		if providerPlan {
			s += 20
		}
		if hardshipPlan {
			s += 25
		}
	}

	if p.DebtToIncomeRatio > 0.35 {
		if providerPlan || hardshipPlan {
			s += 15
		}
		if strings.Contains(plan.Type, "Personal Loan") || strings.Contains(plan.Type, "Home Equity") {
			s -= 20
		}
	}

	s = math.Max(0, math.Min(100, s))
	return math.Round(s*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
