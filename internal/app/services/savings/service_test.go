package savings

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	savingsdomain "github.com/medfin/platform/internal/app/domain/savings"
	"github.com/medfin/platform/internal/app/storage"
	"github.com/medfin/platform/pkg/logger"
)

func newTestService(kv storage.KV) *Service {
	return New(kv, logger.Nop())
}

func TestAddStampsIDAndDate(t *testing.T) {
	s := newTestService(nil)

	event, err := s.Add(AddParams{Category: savingsdomain.CategoryBillingError, Description: "duplicate charge", AmountSaved: 150})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if event.ID == "" {
		t.Error("event has no ID")
	}
	if event.Date.IsZero() {
		t.Error("event has no date")
	}
	if got := s.List(); len(got) != 1 || got[0].ID != event.ID {
		t.Errorf("List = %+v", got)
	}
}

func TestAddRejectsInvalid(t *testing.T) {
	s := newTestService(nil)

	if _, err := s.Add(AddParams{Category: "bad", AmountSaved: 10}); err == nil {
		t.Error("invalid category accepted")
	}
	if _, err := s.Add(AddParams{Category: savingsdomain.CategoryAppealWon, AmountSaved: -5}); err == nil {
		t.Error("negative amount accepted")
	}
	if got := s.List(); len(got) != 0 {
		t.Errorf("rejected adds must not be stored, got %+v", got)
	}
}

func TestAddWritesThrough(t *testing.T) {
	kv := storage.NewMemory()
	s := newTestService(kv)

	if _, err := s.Add(AddParams{Category: savingsdomain.CategoryRxSavings, AmountSaved: 25}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	data, err := kv.Load(context.Background(), "medfin_savings_history")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	var persisted []savingsdomain.Event
	if err := json.Unmarshal(data, &persisted); err != nil {
		t.Fatalf("unmarshal persisted: %v", err)
	}
	if len(persisted) != 1 || persisted[0].AmountSaved != 25 {
		t.Errorf("persisted = %+v", persisted)
	}
}

func TestLoadOnStartup(t *testing.T) {
	kv := storage.NewMemory()
	first := newTestService(kv)
	added, err := first.Add(AddParams{Category: savingsdomain.CategoryAppealWon, AmountSaved: 300})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	second := newTestService(kv)
	got := second.List()
	if len(got) != 1 || got[0].ID != added.ID {
		t.Errorf("reloaded = %+v", got)
	}
}

func TestCorruptStorageStartsEmpty(t *testing.T) {
	kv := storage.NewMemory()
	if err := kv.Save(context.Background(), "medfin_savings_history", []byte("{not json")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	s := newTestService(kv)
	if got := s.List(); len(got) != 0 {
		t.Errorf("corrupt storage should yield empty store, got %+v", got)
	}
}

func TestStorageFailureDoesNotSurface(t *testing.T) {
	s := newTestService(failingKV{})

	event, err := s.Add(AddParams{Category: savingsdomain.CategoryBillingError, AmountSaved: 10})
	if err != nil {
		t.Fatalf("Add with broken storage: %v", err)
	}
	if got := s.List(); len(got) != 1 || got[0].ID != event.ID {
		t.Errorf("List = %+v", got)
	}
}

func TestUpdate(t *testing.T) {
	s := newTestService(nil)
	event, _ := s.Add(AddParams{Category: savingsdomain.CategoryBillingError, Description: "old", AmountSaved: 100})

	desc := "corrected description"
	amount := 175.0
	updated, found, err := s.Update(event.ID, UpdateParams{Description: &desc, AmountSaved: &amount})
	if err != nil || !found {
		t.Fatalf("Update: found=%v err=%v", found, err)
	}
	if updated.Description != desc || updated.AmountSaved != amount {
		t.Errorf("updated = %+v", updated)
	}
	if updated.Category != savingsdomain.CategoryBillingError {
		t.Error("unset fields must not change")
	}

	if _, found, err := s.Update("missing", UpdateParams{Description: &desc}); err != nil || found {
		t.Errorf("missing ID: found=%v err=%v, want no-op", found, err)
	}

	bad := savingsdomain.Category("bogus")
	if _, _, err := s.Update(event.ID, UpdateParams{Category: &bad}); err == nil {
		t.Error("invalid update accepted")
	}
	if got := s.List(); got[0].Category != savingsdomain.CategoryBillingError {
		t.Error("failed update must not modify state")
	}
}

func TestRemove(t *testing.T) {
	s := newTestService(nil)
	event, _ := s.Add(AddParams{Category: savingsdomain.CategoryRxSavings, AmountSaved: 30})

	if !s.Remove(event.ID) {
		t.Error("Remove returned false for existing event")
	}
	if s.Remove(event.ID) {
		t.Error("Remove returned true for missing event")
	}
	if got := s.List(); len(got) != 0 {
		t.Errorf("List = %+v", got)
	}
}

func TestSummary(t *testing.T) {
	s := newTestService(nil)
	if _, err := s.Add(AddParams{Category: savingsdomain.CategoryBillingError, AmountSaved: 150}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	sum := s.Summary()
	if sum.Total != 150 || sum.EventCount != 1 {
		t.Errorf("summary = %+v", sum)
	}
	if sum.ByCategory[savingsdomain.CategoryBillingError] != 150 {
		t.Errorf("byCategory = %v", sum.ByCategory)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	s := newTestService(nil)
	s.now = func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) }

	if _, err := s.Add(AddParams{Category: savingsdomain.CategoryAppealWon, Description: "won appeal", AmountSaved: 420, MemberID: "m1"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	before := s.List()

	data, err := s.Export()
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("unmarshal export: %v", err)
	}
	if snap.Version != "1.0" {
		t.Errorf("version = %q", snap.Version)
	}
	if snap.ExportDate.IsZero() {
		t.Error("exportDate missing")
	}

	s.Clear()
	if got := s.List(); len(got) != 0 {
		t.Fatalf("Clear left %+v", got)
	}

	if err := s.Import(data); err != nil {
		t.Fatalf("Import: %v", err)
	}
	if got := s.List(); !reflect.DeepEqual(got, before) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, before)
	}
}

func TestImportRejectsInvalid(t *testing.T) {
	s := newTestService(nil)
	existing, _ := s.Add(AddParams{Category: savingsdomain.CategoryRxSavings, AmountSaved: 10})

	cases := []struct {
		name string
		data string
	}{
		{"not json", `{broken`},
		{"missing collection", `{"exportDate":"2026-05-01T00:00:00Z","version":"1.0"}`},
		{"collection not an array", `{"savings":{"id":"1"}}`},
		{"event without id", `{"savings":[{"category":"billing_error","amountSaved":5}]}`},
		{"duplicate ids", `{"savings":[{"id":"1","category":"billing_error"},{"id":"1","category":"appeal_won"}]}`},
		{"invalid category", `{"savings":[{"id":"1","category":"nope"}]}`},
		{"negative amount", `{"savings":[{"id":"1","category":"billing_error","amountSaved":-1}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := s.Import([]byte(tc.data))
			if !errors.Is(err, ErrInvalidImport) {
				t.Fatalf("err = %v, want ErrInvalidImport", err)
			}
			got := s.List()
			if len(got) != 1 || got[0].ID != existing.ID {
				t.Errorf("failed import modified state: %+v", got)
			}
		})
	}
}

func TestImportReplacesWholeCollection(t *testing.T) {
	s := newTestService(nil)
	s.Add(AddParams{Category: savingsdomain.CategoryBillingError, AmountSaved: 1})
	s.Add(AddParams{Category: savingsdomain.CategoryBillingError, AmountSaved: 2})

	data := `{"savings":[{"id":"x1","date":"2026-01-01T00:00:00Z","category":"appeal_won","amountSaved":99}],"exportDate":"2026-05-01T00:00:00Z","version":"1.0"}`
	if err := s.Import([]byte(data)); err != nil {
		t.Fatalf("Import: %v", err)
	}
	got := s.List()
	if len(got) != 1 || got[0].ID != "x1" || got[0].AmountSaved != 99 {
		t.Errorf("List = %+v", got)
	}
}

// failingKV breaks every storage operation to exercise degradation paths.
type failingKV struct{}

func (failingKV) Load(context.Context, string) ([]byte, error) {
	return nil, errors.New("storage down")
}
func (failingKV) Save(context.Context, string, []byte) error { return errors.New("storage down") }
func (failingKV) Delete(context.Context, string) error       { return errors.New("storage down") }
