// Package costs estimates what a medical service will cost a patient, given
// their coverage position. The math mirrors how insurers apply a deductible,
// then coinsurance, capped by the out-of-pocket maximum.
package costs

import "math"

// Service is one entry in the cost catalog.
type Service struct {
	Code        string  `json:"code" yaml:"code"`
	CPTCode     string  `json:"cptCode,omitempty" yaml:"cpt_code"`
	Name        string  `json:"name" yaml:"name"`
	Category    string  `json:"category" yaml:"category"`
	BaseCost    float64 `json:"baseCost" yaml:"base_cost"`
	Description string  `json:"description" yaml:"description"`
}

// Coverage is the patient's position against their plan's annual limits.
type Coverage struct {
	AnnualDeductible     float64 `json:"annualDeductible"`
	DeductibleMet        float64 `json:"deductibleMet"`
	AnnualOutOfPocketMax float64 `json:"annualOutOfPocketMax"`
	OutOfPocketMet       float64 `json:"outOfPocketMet"`
	CoinsuranceRate      float64 `json:"coinsuranceRate"`
}

// Alternative suggests a cheaper substitute for a service.
type Alternative struct {
	Type          string  `json:"type"`
	EstimatedCost float64 `json:"estimatedCost"`
	Description   string  `json:"description"`
	Savings       string  `json:"savings"`
}

// Estimate is the result of a cost estimation.
type Estimate struct {
	ServiceName        string        `json:"serviceName"`
	BaseCost           float64       `json:"baseCost"`
	EstimatedLow       float64       `json:"estimatedLow"`
	EstimatedHigh      float64       `json:"estimatedHigh"`
	LocationMultiplier float64       `json:"locationMultiplier"`
	WithInsurance      float64       `json:"withInsurance"`
	OutOfPocket        float64       `json:"outOfPocket"`
	Alternatives       []Alternative `json:"alternatives"`
}

// Request describes the estimation inputs beyond the service itself.
type Request struct {
	Location    string
	IsEmergency bool
	InNetwork   bool
}

var locationMultipliers = map[string]float64{
	"northeast": 1.25,
	"west":      1.20,
	"midwest":   0.95,
	"south":     0.90,
}

// LocationMultiplier returns the regional price adjustment, defaulting to
// 1.0 for unknown regions.
func LocationMultiplier(location string) float64 {
	if m, ok := locationMultipliers[location]; ok {
		return m
	}
	return 1.0
}

// Estimate computes the expected cost of svc under the given coverage.
func (c Coverage) Estimate(svc Service, req Request, alternatives []Alternative) Estimate {
	mult := LocationMultiplier(req.Location)
	adjusted := svc.BaseCost * mult

	if req.IsEmergency && svc.Category != "emergency" {
		adjusted *= 2.0
	}
	if !req.InNetwork {
		adjusted *= 1.5
	}

	patient, insurer := c.split(adjusted)

	return Estimate{
		ServiceName:        svc.Name,
		BaseCost:           round2(svc.BaseCost),
		EstimatedLow:       round2(adjusted * 0.85),
		EstimatedHigh:      round2(adjusted * 1.15),
		LocationMultiplier: mult,
		WithInsurance:      round2(patient + insurer),
		OutOfPocket:        round2(patient),
		Alternatives:       alternatives,
	}
}

// split divides cost into the patient's and the insurer's share: the patient
// pays any remaining deductible first, then coinsurance up to the remaining
// out-of-pocket headroom, and the insurer covers the rest.
func (c Coverage) split(cost float64) (patient, insurer float64) {
	remainingDeductible := c.AnnualDeductible - c.DeductibleMet
	remainingOOP := c.AnnualOutOfPocketMax - c.OutOfPocketMet

	if remainingDeductible > 0 {
		d := math.Min(cost, remainingDeductible)
		patient += d
		cost -= d
	}

	if cost > 0 && c.CoinsuranceRate > 0 {
		coinsurance := cost * c.CoinsuranceRate
		headroom := math.Max(0, remainingOOP-patient)
		due := math.Min(coinsurance, headroom)
		patient += due
		cost -= due
	}

	return patient, cost
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
