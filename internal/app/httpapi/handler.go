// Package httpapi exposes the application services over a small REST API.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/medfin/platform/internal/apiclient"
	app "github.com/medfin/platform/internal/app"
	costsdomain "github.com/medfin/platform/internal/app/domain/costs"
	familydomain "github.com/medfin/platform/internal/app/domain/family"
	"github.com/medfin/platform/internal/app/domain/insurance"
	paymentsdomain "github.com/medfin/platform/internal/app/domain/payments"
	"github.com/medfin/platform/internal/app/services/advisor"
	familysvc "github.com/medfin/platform/internal/app/services/family"
	navigationsvc "github.com/medfin/platform/internal/app/services/navigation"
	savingssvc "github.com/medfin/platform/internal/app/services/savings"
)

// maxUploadBytes caps bill uploads at 10 MiB.
const maxUploadBytes = 10 << 20

// handler bundles HTTP endpoints for the application services.
type handler struct {
	app *app.Application
}

// NewHandler returns a mux exposing the REST API.
func NewHandler(application *app.Application) http.Handler {
	h := &handler{app: application}
	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.health)
	mux.HandleFunc("/family", h.family)
	mux.HandleFunc("/family/", h.familyResources)
	mux.HandleFunc("/savings", h.savings)
	mux.HandleFunc("/savings/", h.savingsResources)
	mux.HandleFunc("/costs/services", h.costServices)
	mux.HandleFunc("/costs/estimate", h.costEstimate)
	mux.HandleFunc("/glossary/simplify", h.glossarySimplify)
	mux.HandleFunc("/glossary/terms", h.glossaryTerms)
	mux.HandleFunc("/glossary/terms/", h.glossaryTerm)
	mux.HandleFunc("/advisor/analyze-bill", h.analyzeBill)
	mux.HandleFunc("/advisor/appeal", h.draftAppeal)
	mux.HandleFunc("/advisor/assistance", h.matchAssistance)
	mux.HandleFunc("/payments/plans", h.paymentPlans)
	mux.HandleFunc("/payments/recommend", h.recommendPaymentPlan)
	mux.HandleFunc("/navigation/plan", h.navigationPlan)
	mux.HandleFunc("/navigation/analyze-situation", h.analyzeSituation)
	return mux
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	backend := "unreachable"
	if h.app.Advisor.Healthy(r.Context()) {
		backend = "ok"
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"backend": backend,
	})
}

func (h *handler) family(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.app.Family.List())

	case http.MethodPost:
		var params familysvc.AddParams
		if err := decodeJSON(r.Body, &params); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		member, err := h.app.Family.Add(params)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeJSON(w, http.StatusCreated, member)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *handler) familyResources(w http.ResponseWriter, r *http.Request) {
	trimmed := strings.Trim(strings.TrimPrefix(r.URL.Path, "/family"), "/")
	parts := strings.Split(trimmed, "/")
	if len(parts) == 0 || parts[0] == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	switch parts[0] {
	case "actions":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, h.app.Family.PendingActions(time.Now()))
		return
	case "export":
		h.exportCollection(w, r, h.app.Family.Export)
		return
	case "import":
		h.importCollection(w, r, h.app.Family.Import, familysvc.ErrInvalidImport)
		return
	}

	memberID := parts[0]
	if len(parts) == 1 {
		h.familyMember(w, r, memberID)
		return
	}
	if parts[1] == "policies" {
		h.memberPolicies(w, r, memberID, parts[2:])
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

func (h *handler) familyMember(w http.ResponseWriter, r *http.Request, memberID string) {
	switch r.Method {
	case http.MethodGet:
		member, ok := h.app.Family.Get(memberID)
		if !ok {
			writeError(w, http.StatusNotFound, errors.New("member not found"))
			return
		}
		writeJSON(w, http.StatusOK, member)

	case http.MethodPut:
		var params familysvc.UpdateParams
		if err := decodeJSON(r.Body, &params); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		member, found, err := h.app.Family.Update(memberID, params)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if !found {
			writeError(w, http.StatusNotFound, errors.New("member not found"))
			return
		}
		writeJSON(w, http.StatusOK, member)

	case http.MethodDelete:
		if !h.app.Family.Remove(memberID) {
			writeError(w, http.StatusNotFound, errors.New("member not found"))
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *handler) memberPolicies(w http.ResponseWriter, r *http.Request, memberID string, rest []string) {
	if len(rest) == 0 || rest[0] == "" {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var payload struct {
			PolicyID   string                  `json:"policyId"`
			Policy     insurance.Policy        `json:"policyData"`
			MemberType familydomain.MemberType `json:"memberType"`
		}
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		member, found, err := h.app.Family.AssignPolicy(memberID, payload.PolicyID, payload.Policy, payload.MemberType)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if !found {
			writeError(w, http.StatusNotFound, errors.New("member not found"))
			return
		}
		writeJSON(w, http.StatusOK, member)
		return
	}

	policyID := rest[0]
	switch r.Method {
	case http.MethodPut:
		var payload struct {
			DeductibleMet  float64 `json:"deductibleMet"`
			OutOfPocketMet float64 `json:"outOfPocketMet"`
		}
		if err := decodeJSON(r.Body, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		member, found, err := h.app.Family.UpdatePolicyProgress(memberID, policyID, payload.DeductibleMet, payload.OutOfPocketMet)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if !found {
			writeError(w, http.StatusNotFound, errors.New("policy assignment not found"))
			return
		}
		writeJSON(w, http.StatusOK, member)

	case http.MethodDelete:
		if !h.app.Family.RemovePolicy(memberID, policyID) {
			writeError(w, http.StatusNotFound, errors.New("policy assignment not found"))
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *handler) savings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.app.Savings.List())

	case http.MethodPost:
		var params savingssvc.AddParams
		if err := decodeJSON(r.Body, &params); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		event, err := h.app.Savings.Add(params)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeJSON(w, http.StatusCreated, event)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *handler) savingsResources(w http.ResponseWriter, r *http.Request) {
	trimmed := strings.Trim(strings.TrimPrefix(r.URL.Path, "/savings"), "/")
	parts := strings.Split(trimmed, "/")
	if len(parts) != 1 || parts[0] == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	switch parts[0] {
	case "summary":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, h.app.Savings.Summary())
		return
	case "export":
		h.exportCollection(w, r, h.app.Savings.Export)
		return
	case "import":
		h.importCollection(w, r, h.app.Savings.Import, savingssvc.ErrInvalidImport)
		return
	}

	eventID := parts[0]
	switch r.Method {
	case http.MethodPut:
		var params savingssvc.UpdateParams
		if err := decodeJSON(r.Body, &params); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		event, found, err := h.app.Savings.Update(eventID, params)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if !found {
			writeError(w, http.StatusNotFound, errors.New("event not found"))
			return
		}
		writeJSON(w, http.StatusOK, event)

	case http.MethodDelete:
		if !h.app.Savings.Remove(eventID) {
			writeError(w, http.StatusNotFound, errors.New("event not found"))
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *handler) exportCollection(w http.ResponseWriter, r *http.Request, export func() ([]byte, error)) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	data, err := export()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *handler) importCollection(w http.ResponseWriter, r *http.Request, imp func([]byte) error, invalid error) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := imp(data); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, invalid) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) costServices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.app.Costs.Services())
}

func (h *handler) costEstimate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var payload struct {
		ServiceCode string               `json:"serviceCode"`
		Coverage    costsdomain.Coverage `json:"coverage"`
		Location    string               `json:"location"`
		IsEmergency bool                 `json:"isEmergency"`
		InNetwork   *bool                `json:"inNetwork"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	req := costsdomain.Request{
		Location:    payload.Location,
		IsEmergency: payload.IsEmergency,
		InNetwork:   true,
	}
	if payload.InNetwork != nil {
		req.InNetwork = *payload.InNetwork
	}
	writeJSON(w, http.StatusOK, h.app.Costs.Estimate(payload.ServiceCode, payload.Coverage, req))
}

func (h *handler) glossarySimplify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var payload struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"original":   payload.Text,
		"simplified": h.app.Glossary.Simplify(payload.Text),
	})
}

func (h *handler) glossaryTerms(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.app.Glossary.Entries())
}

func (h *handler) glossaryTerm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	term := strings.Trim(strings.TrimPrefix(r.URL.Path, "/glossary/terms"), "/")
	entry, ok := h.app.Glossary.Define(term)
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("unknown term"))
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *handler) analyzeBill(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	defer file.Close()

	analysis, err := h.app.Advisor.AnalyzeBill(r.Context(), header.Filename, file, r.FormValue("insurance_type"))
	if err != nil {
		writeBackendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

func (h *handler) draftAppeal(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req advisor.AppealRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	draft, err := h.app.Advisor.DraftAppeal(r.Context(), req)
	if err != nil {
		writeBackendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

func (h *handler) matchAssistance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req advisor.AssistanceRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	match, err := h.app.Advisor.MatchAssistance(r.Context(), req)
	if err != nil {
		writeBackendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, match)
}

func (h *handler) paymentPlans(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var profile paymentsdomain.Profile
	if err := decodeJSON(r.Body, &profile); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, h.app.Payments.Plans(profile))
}

func (h *handler) recommendPaymentPlan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var profile paymentsdomain.Profile
	if err := decodeJSON(r.Body, &profile); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, h.app.Payments.Recommend(profile))
}

func (h *handler) navigationPlan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req navigationsvc.Request
	if err := decodeJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, h.app.Navigation.Plan(req))
}

func (h *handler) analyzeSituation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req navigationsvc.Request
	if err := decodeJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, h.app.Navigation.Analyze(req))
}

// writeBackendError maps an API client failure onto the gateway's own status
// space and attaches the user-facing message.
func writeBackendError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	if apiErr, ok := apiclient.AsAPIError(err); ok {
		switch {
		case apiErr.Status == apiclient.StatusNetworkError:
			status = http.StatusBadGateway
		case apiErr.Status == apiclient.StatusTimeout:
			status = http.StatusGatewayTimeout
		case apiErr.Status >= 400:
			status = apiErr.Status
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":       err.Error(),
		"userMessage": apiclient.UserMessage(err),
	})
}

func decodeJSON(body io.ReadCloser, dst interface{}) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
