package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

// --- Mocks ---

type mockDBPinger struct {
	err error
}

func (m *mockDBPinger) Ping(_ context.Context) error { return m.err }

type mockChecker struct {
	err   error
	block bool
}

func (m *mockChecker) HealthCheck(ctx context.Context) error {
	if m.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return m.err
}

// --- Tests ---

func TestCheck(t *testing.T) {
	down := errors.New("down")
	tests := []struct {
		name   string
		db     error
		text   Checker
		image  Checker
		status Status
		checks map[string]CheckResult
	}{
		{
			name: "all healthy", text: &mockChecker{}, image: &mockChecker{},
			status: Healthy,
			checks: map[string]CheckResult{ComponentDatabase: CheckOK, ComponentText: CheckOK, ComponentImage: CheckOK},
		},
		{
			name: "database down", db: down, text: &mockChecker{}, image: &mockChecker{},
			status: Unhealthy,
			checks: map[string]CheckResult{ComponentDatabase: CheckError, ComponentText: CheckOK, ComponentImage: CheckOK},
		},
		{
			name: "text backend down", text: &mockChecker{err: down}, image: &mockChecker{},
			status: Degraded,
			checks: map[string]CheckResult{ComponentDatabase: CheckOK, ComponentText: CheckError, ComponentImage: CheckOK},
		},
		{
			name: "database wins over embedding", db: down, text: &mockChecker{err: down}, image: &mockChecker{err: down},
			status: Unhealthy,
			checks: map[string]CheckResult{ComponentDatabase: CheckError, ComponentText: CheckError, ComponentImage: CheckError},
		},
		{
			name: "heuristic image has no check", text: &mockChecker{},
			status: Healthy,
			checks: map[string]CheckResult{ComponentDatabase: CheckOK, ComponentText: CheckOK},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := New(&mockDBPinger{err: tt.db}, tt.text, tt.image, 0, nil)
			r := svc.Check(context.Background())

			if r.Status != tt.status {
				t.Errorf("expected %q, got %q", tt.status, r.Status)
			}
			if len(r.Checks) != len(tt.checks) {
				t.Fatalf("expected %d checks, got %v", len(tt.checks), r.Checks)
			}
			for name, want := range tt.checks {
				if r.Checks[name] != want {
					t.Errorf("%s: expected %q, got %q", name, want, r.Checks[name])
				}
			}
		})
	}
}

func TestCheck_Timeout(t *testing.T) {
	svc := New(&mockDBPinger{}, &mockChecker{block: true}, nil, 20*time.Millisecond, nil)

	start := time.Now()
	r := svc.Check(context.Background())

	if time.Since(start) > time.Second {
		t.Fatal("check did not respect timeout")
	}
	if r.Status != Degraded || r.Checks[ComponentText] != CheckError {
		t.Errorf("expected hung backend to count as error, got %+v", r)
	}
}
