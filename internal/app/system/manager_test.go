package system

import (
	"context"
	"errors"
	"testing"
)

type fakeService struct {
	name     string
	startErr error
	stopErr  error
	log      *[]string
}

func (f *fakeService) Name() string { return f.name }

func (f *fakeService) Start(context.Context) error {
	*f.log = append(*f.log, "start:"+f.name)
	return f.startErr
}

func (f *fakeService) Stop(context.Context) error {
	*f.log = append(*f.log, "stop:"+f.name)
	return f.stopErr
}

func TestStartAndStopOrder(t *testing.T) {
	var log []string
	m := NewManager()
	m.Register(&fakeService{name: "a", log: &log})
	m.Register(&fakeService{name: "b", log: &log})

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := m.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	want := []string{"start:a", "start:b", "stop:b", "stop:a"}
	if len(log) != len(want) {
		t.Fatalf("log = %v", log)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Errorf("log[%d] = %s, want %s", i, log[i], want[i])
		}
	}
}

func TestStartFailureRollsBack(t *testing.T) {
	var log []string
	m := NewManager()
	m.Register(&fakeService{name: "a", log: &log})
	m.Register(&fakeService{name: "b", startErr: errors.New("boom"), log: &log})
	m.Register(&fakeService{name: "c", log: &log})

	err := m.Start(context.Background())
	if err == nil {
		t.Fatal("Start succeeded despite failing service")
	}
	want := []string{"start:a", "start:b", "stop:a"}
	if len(log) != len(want) {
		t.Fatalf("log = %v, want %v", log, want)
	}
	// A failed start leaves the manager stopped; Stop is a no-op.
	if err := m.Stop(context.Background()); err != nil {
		t.Errorf("Stop after failed start: %v", err)
	}
	if len(log) != len(want) {
		t.Errorf("Stop after failed start touched services: %v", log)
	}
}

func TestStopReturnsFirstError(t *testing.T) {
	var log []string
	m := NewManager()
	m.Register(&fakeService{name: "a", stopErr: errors.New("a failed"), log: &log})
	m.Register(&fakeService{name: "b", stopErr: errors.New("b failed"), log: &log})

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	err := m.Stop(context.Background())
	if err == nil {
		t.Fatal("Stop returned nil despite failures")
	}
	// Reverse order means b stops first and its error wins.
	if got := err.Error(); got != "stop b: b failed" {
		t.Errorf("err = %q", got)
	}
	// Both services were still attempted.
	if log[len(log)-1] != "stop:a" {
		t.Errorf("log = %v", log)
	}
}

func TestStartIsIdempotent(t *testing.T) {
	var log []string
	m := NewManager()
	m.Register(&fakeService{name: "a", log: &log})

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	if len(log) != 1 {
		t.Errorf("log = %v, want single start", log)
	}
}
