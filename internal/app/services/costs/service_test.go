package costs

import (
	"testing"

	costsdomain "github.com/medfin/platform/internal/app/domain/costs"
	"github.com/medfin/platform/pkg/logger"
)

func TestServicesKeepsCatalogOrder(t *testing.T) {
	s := New(nil, logger.Nop())

	services := s.Services()
	if len(services) != len(DefaultCatalog()) {
		t.Fatalf("got %d services", len(services))
	}
	if services[0].Code != "office_visit" {
		t.Errorf("first service = %s", services[0].Code)
	}
}

func TestEstimateKnownService(t *testing.T) {
	s := New(nil, logger.Nop())

	e := s.Estimate("lab_work", costsdomain.Coverage{}, costsdomain.Request{InNetwork: true})
	if e.ServiceName != "Comprehensive Metabolic Panel" {
		t.Errorf("service = %q", e.ServiceName)
	}
	if e.BaseCost != 45 {
		t.Errorf("base cost = %v", e.BaseCost)
	}
}

func TestEstimateUnknownCodeFallsBack(t *testing.T) {
	s := New(nil, logger.Nop())

	e := s.Estimate("teleportation", costsdomain.Coverage{}, costsdomain.Request{InNetwork: true})
	if e.ServiceName != "Office Visit - Level 3" {
		t.Errorf("fallback service = %q", e.ServiceName)
	}
}

func TestEstimateTrimsCode(t *testing.T) {
	s := New(nil, logger.Nop())

	e := s.Estimate("  mri_scan ", costsdomain.Coverage{}, costsdomain.Request{InNetwork: true})
	if e.ServiceName != "MRI Brain without Contrast" {
		t.Errorf("service = %q", e.ServiceName)
	}
}

func TestAlternatives(t *testing.T) {
	s := New(nil, logger.Nop())

	er := s.Estimate("emergency_room", costsdomain.Coverage{}, costsdomain.Request{InNetwork: true})
	if len(er.Alternatives) != 1 || er.Alternatives[0].Type != "Urgent Care" {
		t.Errorf("ER alternatives = %+v", er.Alternatives)
	}
	if er.Alternatives[0].EstimatedCost != 225 {
		t.Errorf("urgent care estimate = %v", er.Alternatives[0].EstimatedCost)
	}

	mri := s.Estimate("mri_scan", costsdomain.Coverage{}, costsdomain.Request{InNetwork: true})
	if len(mri.Alternatives) != 1 || mri.Alternatives[0].Type != "CT Scan" {
		t.Errorf("MRI alternatives = %+v", mri.Alternatives)
	}

	lab := s.Estimate("lab_work", costsdomain.Coverage{}, costsdomain.Request{InNetwork: true})
	if len(lab.Alternatives) != 0 {
		t.Errorf("lab alternatives = %+v", lab.Alternatives)
	}
}

func TestCustomCatalog(t *testing.T) {
	catalog := []costsdomain.Service{
		{Code: "checkup", Name: "Annual Checkup", BaseCost: 90},
	}
	s := New(catalog, logger.Nop())

	if services := s.Services(); len(services) != 1 {
		t.Fatalf("services = %+v", services)
	}
	// Unknown code with no office_visit entry falls back to the first entry.
	e := s.Estimate("nope", costsdomain.Coverage{}, costsdomain.Request{InNetwork: true})
	if e.ServiceName != "Annual Checkup" {
		t.Errorf("fallback = %q", e.ServiceName)
	}
}
