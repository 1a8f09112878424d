package app

import (
	"context"
	"net/http"

	"github.com/medfin/platform/internal/apiclient"
	costsdomain "github.com/medfin/platform/internal/app/domain/costs"
	"github.com/medfin/platform/internal/app/metrics"
	advisorsvc "github.com/medfin/platform/internal/app/services/advisor"
	costssvc "github.com/medfin/platform/internal/app/services/costs"
	familysvc "github.com/medfin/platform/internal/app/services/family"
	glossarysvc "github.com/medfin/platform/internal/app/services/glossary"
	navigationsvc "github.com/medfin/platform/internal/app/services/navigation"
	paymentssvc "github.com/medfin/platform/internal/app/services/payments"
	"github.com/medfin/platform/internal/app/services/reminders"
	savingssvc "github.com/medfin/platform/internal/app/services/savings"
	"github.com/medfin/platform/internal/app/storage"
	"github.com/medfin/platform/internal/app/system"
	"github.com/medfin/platform/pkg/logger"
)

// Stores encapsulates persistence dependencies. Nil stores default to a
// shared in-memory backend.
type Stores struct {
	Family  storage.KV
	Savings storage.KV
}

// Options carries wiring inputs beyond the stores.
type Options struct {
	BackendURL       string
	HTTPClient       *http.Client
	ReminderSchedule string
	CostCatalog      []costsdomain.Service
	GlossaryEntries  []glossarysvc.Entry
}

// Application ties the domain services together and manages their lifecycle.
type Application struct {
	manager *system.Manager
	log     *logger.Logger

	Backend    *apiclient.Client
	Family     *familysvc.Service
	Savings    *savingssvc.Service
	Costs      *costssvc.Service
	Glossary   *glossarysvc.Service
	Advisor    *advisorsvc.Service
	Payments   *paymentssvc.Service
	Navigation *navigationsvc.Service
}

// New builds a fully initialised application with the provided stores.
func New(stores Stores, opts Options, log *logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.NewDefault("app")
	}

	if stores.Family == nil || stores.Savings == nil {
		mem := storage.NewMemory()
		if stores.Family == nil {
			stores.Family = mem
		}
		if stores.Savings == nil {
			stores.Savings = mem
		}
	}

	backend := apiclient.New(apiclient.Config{
		BaseURL:    opts.BackendURL,
		HTTPClient: opts.HTTPClient,
		Log:        log.WithField("component", "apiclient"),
		Metrics:    metrics.BackendRecorder{},
	})

	familyStore := familysvc.New(stores.Family, log.WithField("store", "family"))
	savingsStore := savingssvc.New(stores.Savings, log.WithField("store", "savings"))

	manager := system.NewManager()
	manager.Register(reminders.NewRefresher(familyStore, opts.ReminderSchedule, log.WithField("component", "reminders")))

	return &Application{
		manager:    manager,
		log:        log,
		Backend:    backend,
		Family:     familyStore,
		Savings:    savingsStore,
		Costs:      costssvc.New(opts.CostCatalog, log.WithField("component", "costs")),
		Glossary:   glossarysvc.New(opts.GlossaryEntries, log.WithField("component", "glossary")),
		Advisor:    advisorsvc.New(backend, log.WithField("component", "advisor")),
		Payments:   paymentssvc.New(log.WithField("component", "payments")),
		Navigation: navigationsvc.New(log.WithField("component", "navigation")),
	}, nil
}

// Start launches background services.
func (a *Application) Start(ctx context.Context) error {
	if err := a.manager.Start(ctx); err != nil {
		return err
	}
	a.log.Info("application started")
	return nil
}

// Stop shuts background services down.
func (a *Application) Stop(ctx context.Context) error {
	err := a.manager.Stop(ctx)
	a.log.Info("application stopped")
	return err
}
