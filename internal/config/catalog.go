package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/medfin/platform/internal/app/domain/costs"
	"github.com/medfin/platform/internal/app/services/glossary"
	"github.com/medfin/platform/pkg/logger"
)

// LoadCostCatalog reads a service cost catalog from a YAML file of the form:
//
//	services:
//	  - code: office_visit
//	    name: Office Visit - Level 3
//	    base_cost: 150
func LoadCostCatalog(path string) ([]costs.Service, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read cost catalog: %w", err)
	}
	var doc struct {
		Services []costs.Service `yaml:"services"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse cost catalog: %w", err)
	}
	for i, svc := range doc.Services {
		if svc.Code == "" {
			return nil, fmt.Errorf("cost catalog entry %d: code is required", i)
		}
		if svc.BaseCost < 0 {
			return nil, fmt.Errorf("cost catalog entry %s: base_cost must be non-negative", svc.Code)
		}
	}
	return doc.Services, nil
}

// LoadCostCatalogOrDefault falls back to the built-in catalog when the path
// is empty or unreadable.
func LoadCostCatalogOrDefault(path string, log *logger.Logger) []costs.Service {
	if path == "" {
		return nil
	}
	catalog, err := LoadCostCatalog(path)
	if err != nil {
		if log != nil {
			log.WithError(err).Warn("using built-in cost catalog")
		}
		return nil
	}
	return catalog
}

// LoadGlossary reads glossary entries from a YAML file of the form:
//
//	terms:
//	  - term: deductible
//	    plain: amount you pay before coverage kicks in
func LoadGlossary(path string) ([]glossary.Entry, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read glossary: %w", err)
	}
	var doc struct {
		Terms []glossary.Entry `yaml:"terms"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse glossary: %w", err)
	}
	for i, entry := range doc.Terms {
		if entry.Term == "" || entry.Plain == "" {
			return nil, fmt.Errorf("glossary entry %d: term and plain are required", i)
		}
	}
	return doc.Terms, nil
}

// LoadGlossaryOrDefault falls back to the built-in dictionary when the path
// is empty or unreadable.
func LoadGlossaryOrDefault(path string, log *logger.Logger) []glossary.Entry {
	if path == "" {
		return nil
	}
	entries, err := LoadGlossary(path)
	if err != nil {
		if log != nil {
			log.WithError(err).Warn("using built-in glossary")
		}
		return nil
	}
	return entries
}
