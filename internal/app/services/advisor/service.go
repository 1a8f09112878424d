// Package advisor calls the analysis backend for the AI-driven features:
// bill analysis, appeal letter drafting, and assistance-program matching.
// All intelligence lives behind the backend API; this service only owns the
// request/response schemas and the transport policy via the API client.
package advisor

import (
	"context"
	"io"

	"github.com/medfin/platform/internal/apiclient"
	"github.com/medfin/platform/pkg/logger"
)

// BillIssue is one problem found in a submitted bill.
type BillIssue struct {
	IssueType        string  `json:"issue_type"`
	Severity         string  `json:"severity"`
	Description      string  `json:"description"`
	PotentialSavings float64 `json:"potential_savings"`
	Recommendation   string  `json:"recommendation"`
}

// BillAnalysis is the backend's verdict on an uploaded bill.
type BillAnalysis struct {
	Issues           []BillIssue `json:"issues"`
	PotentialSavings float64     `json:"potential_savings"`
	Summary          string      `json:"summary"`
}

// AppealRequest describes a denied claim to draft an appeal for.
type AppealRequest struct {
	DenialReason  string `json:"denial_reason"`
	ServiceDenied string `json:"service_denied"`
	PolicyDetails string `json:"policy_details,omitempty"`
	Tone          string `json:"tone,omitempty"`
}

// AppealDraft is a generated appeal letter.
type AppealDraft struct {
	Letter       string   `json:"letter"`
	KeyArguments []string `json:"key_arguments,omitempty"`
}

// AssistanceRequest describes the household's situation for program matching.
type AssistanceRequest struct {
	AnnualIncome   float64 `json:"annual_income"`
	HouseholdSize  int     `json:"household_size"`
	InsuranceType  string  `json:"insurance_type"`
	TotalDebt      float64 `json:"total_medical_debt"`
	HardshipLevel  string  `json:"hardship_level,omitempty"`
	State          string  `json:"state,omitempty"`
	HasMedicalDebt bool    `json:"has_medical_debt"`
}

// Program is one matched assistance program.
type Program struct {
	ProgramName             string   `json:"program_name"`
	ProviderType            string   `json:"provider_type"`
	EligibilityRequirements []string `json:"eligibility_requirements"`
	CoverageType            string   `json:"coverage_type"`
	MaxBenefit              *float64 `json:"max_benefit,omitempty"`
	ApplicationProcess      string   `json:"application_process"`
	DocumentationRequired   []string `json:"documentation_required"`
	ContactInfo             string   `json:"contact_info"`
	ApprovalTimeframe       string   `json:"approval_timeframe"`
}

// AssistanceMatch is the backend's structured matching result. The response
// always carries a programs array; single-object responses are a backend
// contract violation and surface as decode errors.
type AssistanceMatch struct {
	Programs                 []Program `json:"programs"`
	TotalPotentialSavings    float64   `json:"total_potential_savings"`
	RecommendedPrograms      []string  `json:"recommended_programs"`
	ApplicationPriorityOrder []string  `json:"application_priority_order"`
	AdditionalNotes          []string  `json:"additional_notes"`
}

// Service wraps the backend endpoints.
type Service struct {
	api *apiclient.Client
	log *logger.Logger
}

// New creates an advisor over the given API client.
func New(api *apiclient.Client, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("advisor")
	}
	return &Service{api: api, log: log}
}

// AnalyzeBill uploads a bill image or PDF for analysis.
func (s *Service) AnalyzeBill(ctx context.Context, fileName string, file io.Reader, insuranceType string) (BillAnalysis, error) {
	extra := map[string]interface{}{}
	if insuranceType != "" {
		extra["insurance_type"] = insuranceType
	}
	var analysis BillAnalysis
	if err := s.api.Upload(ctx, "/ai/upload-bill", "file", fileName, file, extra, &analysis); err != nil {
		return BillAnalysis{}, err
	}
	s.log.WithField("issues", len(analysis.Issues)).Info("bill analyzed")
	return analysis, nil
}

// DraftAppeal generates an appeal letter for a denied claim.
func (s *Service) DraftAppeal(ctx context.Context, req AppealRequest) (AppealDraft, error) {
	var draft AppealDraft
	if err := s.api.Post(ctx, "/ai/generate-appeal", req, &draft); err != nil {
		return AppealDraft{}, err
	}
	return draft, nil
}

// MatchAssistance finds assistance programs for the household.
func (s *Service) MatchAssistance(ctx context.Context, req AssistanceRequest) (AssistanceMatch, error) {
	var match AssistanceMatch
	if err := s.api.Post(ctx, "/assistance/match", req, &match); err != nil {
		return AssistanceMatch{}, err
	}
	return match, nil
}

// Healthy reports backend reachability; any failure is false, never an error.
func (s *Service) Healthy(ctx context.Context) bool {
	return s.api.HealthCheck(ctx)
}
