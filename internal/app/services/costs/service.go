// Package costs exposes the cost estimator over a configurable service
// catalog.
package costs

import (
	"strings"

	"github.com/medfin/platform/internal/app/domain/costs"
	"github.com/medfin/platform/pkg/logger"
)

// fallbackCode is used when an unknown service code is requested, matching
// the catalog's cheapest reasonable default.
const fallbackCode = "office_visit"

// Service estimates costs against a catalog of known medical services.
type Service struct {
	catalog map[string]costs.Service
	order   []string
	log     *logger.Logger
}

// New builds an estimator over the given catalog; an empty catalog falls
// back to the built-in one.
func New(catalog []costs.Service, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("costs")
	}
	if len(catalog) == 0 {
		catalog = DefaultCatalog()
	}
	s := &Service{catalog: make(map[string]costs.Service, len(catalog)), log: log}
	for _, svc := range catalog {
		if _, dup := s.catalog[svc.Code]; dup {
			continue
		}
		s.catalog[svc.Code] = svc
		s.order = append(s.order, svc.Code)
	}
	return s
}

// Services lists the catalog in its configured order.
func (s *Service) Services() []costs.Service {
	out := make([]costs.Service, 0, len(s.order))
	for _, code := range s.order {
		out = append(out, s.catalog[code])
	}
	return out
}

// Estimate computes the expected cost of a service under the given coverage.
// Unknown codes fall back to a standard office visit.
func (s *Service) Estimate(code string, coverage costs.Coverage, req costs.Request) costs.Estimate {
	svc, ok := s.catalog[strings.TrimSpace(code)]
	if !ok {
		s.log.WithField("code", code).Debug("unknown service code, using fallback")
		if svc, ok = s.catalog[fallbackCode]; !ok && len(s.order) > 0 {
			svc = s.catalog[s.order[0]]
		}
	}
	return coverage.Estimate(svc, req, s.alternatives(svc.Code))
}

// alternatives suggests cheaper substitutes for a handful of services.
func (s *Service) alternatives(code string) []costs.Alternative {
	switch code {
	case "emergency_room":
		visit, ok := s.catalog["office_visit"]
		if !ok {
			return nil
		}
		return []costs.Alternative{{
			Type:          "Urgent Care",
			EstimatedCost: visit.BaseCost * 1.5,
			Description:   "Consider urgent care for non-life-threatening issues",
			Savings:       "60-80%",
		}}
	case "mri_scan":
		ct, ok := s.catalog["ct_scan"]
		if !ok {
			return nil
		}
		return []costs.Alternative{{
			Type:          "CT Scan",
			EstimatedCost: ct.BaseCost,
			Description:   "Ask if a CT scan could be sufficient for diagnosis",
			Savings:       "40-50%",
		}}
	case "colonoscopy":
		return []costs.Alternative{{
			Type:          "At-home Screening",
			EstimatedCost: 150.00,
			Description:   "Cologuard or FIT test for routine screening",
			Savings:       "90-95%",
		}}
	}
	return nil
}

// DefaultCatalog is the built-in service cost catalog.
func DefaultCatalog() []costs.Service {
	return []costs.Service{
		{Code: "office_visit", CPTCode: "99213", Name: "Office Visit - Level 3", Category: "primary_care", BaseCost: 150.00, Description: "Standard office visit for established patient"},
		{Code: "emergency_room", CPTCode: "99281", Name: "Emergency Room Visit - Level 1", Category: "emergency", BaseCost: 500.00, Description: "Emergency department visit for minor issues"},
		{Code: "mri_scan", CPTCode: "70551", Name: "MRI Brain without Contrast", Category: "imaging", BaseCost: 1200.00, Description: "Magnetic resonance imaging of brain"},
		{Code: "ct_scan", CPTCode: "71250", Name: "CT Scan Chest without Contrast", Category: "imaging", BaseCost: 700.00, Description: "Computed tomography of chest"},
		{Code: "lab_work", CPTCode: "80053", Name: "Comprehensive Metabolic Panel", Category: "laboratory", BaseCost: 45.00, Description: "Blood panel covering 14 tests"},
		{Code: "surgery_minor", CPTCode: "12001", Name: "Simple Repair of Skin Wounds", Category: "surgery", BaseCost: 400.00, Description: "Minor surgical procedure"},
		{Code: "colonoscopy", CPTCode: "45378", Name: "Colonoscopy with Biopsy", Category: "procedure", BaseCost: 2500.00, Description: "Diagnostic colonoscopy procedure"},
		{Code: "physical_therapy", CPTCode: "97110", Name: "Therapeutic Exercise", Category: "therapy", BaseCost: 85.00, Description: "Physical therapy session"},
		{Code: "specialist_visit", CPTCode: "99214", Name: "Specialist Visit - Level 4", Category: "specialist", BaseCost: 250.00, Description: "Visit with medical specialist"},
		{Code: "prescription_generic", Name: "Generic Prescription Medication", Category: "pharmacy", BaseCost: 30.00, Description: "Standard generic medication"},
	}
}
