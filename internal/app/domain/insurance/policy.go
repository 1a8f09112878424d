// Package insurance defines the explicit schema for an insurance policy.
// Policy data arriving from imports or the analysis backend is decoded into
// this shape at the boundary instead of being probed field by field later.
package insurance

import "time"

// Policy describes a health-insurance plan as it applies to one member.
// Monetary fields are annual amounts in dollars; CoinsuranceRate is a
// fraction in [0,1].
type Policy struct {
	ID                         string    `json:"id,omitempty"`
	ProviderName               string    `json:"providerName"`
	PlanName                   string    `json:"planName,omitempty"`
	PlanType                   string    `json:"planType,omitempty"`
	AnnualDeductibleIndividual float64   `json:"annual_deductible_individual"`
	AnnualDeductibleFamily     float64   `json:"annual_deductible_family,omitempty"`
	AnnualOutOfPocketMax       float64   `json:"annual_out_of_pocket_max"`
	CopayAmount                float64   `json:"copay_amount,omitempty"`
	CoinsuranceRate            float64   `json:"coinsurance_rate,omitempty"`
	RenewalDate                time.Time `json:"renewalDate"`
}
