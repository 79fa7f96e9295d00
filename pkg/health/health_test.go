package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewChecker(t *testing.T) {
	checker := NewChecker("stepflow", "1.0.0")

	if checker == nil {
		t.Fatal("NewChecker() returned nil")
	}

	if checker.serviceName != "stepflow" {
		t.Errorf("serviceName = %v, want %v", checker.serviceName, "stepflow")
	}

	if checker.serviceVersion != "1.0.0" {
		t.Errorf("serviceVersion = %v, want %v", checker.serviceVersion, "1.0.0")
	}
}

func TestRegisterCheck(t *testing.T) {
	checker := NewChecker("test", "1.0")

	checkFunc := func(ctx context.Context) error {
		return nil
	}

	checker.RegisterCheck("engine-pool", checkFunc, 5*time.Second, true)

	checker.mu.RLock()
	defer checker.mu.RUnlock()

	if len(checker.checks) != 1 {
		t.Errorf("len(checks) = %v, want 1", len(checker.checks))
	}

	check, ok := checker.checks["engine-pool"]
	if !ok {
		t.Fatal("check not found")
	}

	if check.Name != "engine-pool" {
		t.Errorf("check.Name = %v, want %v", check.Name, "engine-pool")
	}

	if check.Critical != true {
		t.Errorf("check.Critical = %v, want true", check.Critical)
	}
}

func TestCheckHealthy(t *testing.T) {
	checker := NewChecker("test", "1.0")

	checker.RegisterCheck("always-healthy", func(ctx context.Context) error {
		return nil
	}, 5*time.Second, true)

	ctx := context.Background()
	response := checker.Check(ctx)

	if response.Status != StatusHealthy {
		t.Errorf("Status = %v, want %v", response.Status, StatusHealthy)
	}

	if len(response.Checks) != 1 {
		t.Errorf("len(Checks) = %v, want 1", len(response.Checks))
	}

	checkResult, ok := response.Checks["always-healthy"]
	if !ok {
		t.Fatal("check result not found")
	}

	if checkResult.Status != StatusHealthy {
		t.Errorf("check Status = %v, want %v", checkResult.Status, StatusHealthy)
	}
}

func TestCheckUnhealthy(t *testing.T) {
	checker := NewChecker("test", "1.0")

	checker.RegisterCheck("always-fails", func(ctx context.Context) error {
		return errors.New("check failed")
	}, 5*time.Second, true)

	ctx := context.Background()
	response := checker.Check(ctx)

	if response.Status != StatusUnhealthy {
		t.Errorf("Status = %v, want %v", response.Status, StatusUnhealthy)
	}

	checkResult := response.Checks["always-fails"]
	if checkResult.Status != StatusUnhealthy {
		t.Errorf("check Status = %v, want %v", checkResult.Status, StatusUnhealthy)
	}

	if checkResult.Error == "" {
		t.Error("expected error message")
	}
}

func TestCheckTimeout(t *testing.T) {
	checker := NewChecker("test", "1.0")

	checker.RegisterCheck("timeout", func(ctx context.Context) error {
		time.Sleep(2 * time.Second)
		return nil
	}, 100*time.Millisecond, true)

	ctx := context.Background()
	response := checker.Check(ctx)

	if response.Status != StatusUnhealthy {
		t.Errorf("Status = %v, want %v", response.Status, StatusUnhealthy)
	}

	checkResult := response.Checks["timeout"]
	if checkResult.Status != StatusUnhealthy {
		t.Errorf("check Status = %v, want %v", checkResult.Status, StatusUnhealthy)
	}
}

func TestCheckNonCritical(t *testing.T) {
	checker := NewChecker("test", "1.0")

	checker.RegisterCheck("non-critical", func(ctx context.Context) error {
		return errors.New("non-critical failure")
	}, 5*time.Second, false)

	checker.RegisterCheck("critical", func(ctx context.Context) error {
		return nil
	}, 5*time.Second, true)

	ctx := context.Background()
	response := checker.Check(ctx)

	if response.Status != StatusHealthy {
		t.Errorf("Status = %v, want %v", response.Status, StatusHealthy)
	}
}

func TestLiveness(t *testing.T) {
	checker := NewChecker("test", "1.0")

	ctx := context.Background()
	response := checker.Liveness(ctx)

	if response.Status != StatusHealthy {
		t.Errorf("Status = %v, want %v", response.Status, StatusHealthy)
	}

	if len(response.Checks) != 0 {
		t.Errorf("len(Checks) = %v, want 0", len(response.Checks))
	}
}

func TestReadiness(t *testing.T) {
	checker := NewChecker("test", "1.0")

	checker.RegisterCheck("ready", func(ctx context.Context) error {
		return nil
	}, 5*time.Second, true)

	ctx := context.Background()
	response := checker.Readiness(ctx)

	if response.Status != StatusHealthy {
		t.Errorf("Status = %v, want %v", response.Status, StatusHealthy)
	}

	if len(response.Checks) != 1 {
		t.Errorf("len(Checks) = %v, want 1", len(response.Checks))
	}
}

func TestHTTPHandler(t *testing.T) {
	checker := NewChecker("test", "1.0")
	checker.RegisterCheck("test", func(ctx context.Context) error {
		return nil
	}, 5*time.Second, true)

	handler := checker.HTTPHandler()

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	handler(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status code = %v, want %v", w.Code, http.StatusOK)
	}

	var response HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response.Status != StatusHealthy {
		t.Errorf("response.Status = %v, want %v", response.Status, StatusHealthy)
	}
}

func TestHTTPHandlerUnhealthy(t *testing.T) {
	checker := NewChecker("test", "1.0")
	checker.RegisterCheck("test", func(ctx context.Context) error {
		return errors.New("failure")
	}, 5*time.Second, true)

	handler := checker.HTTPHandler()

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	handler(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status code = %v, want %v", w.Code, http.StatusServiceUnavailable)
	}
}

func TestLivenessHandler(t *testing.T) {
	checker := NewChecker("test", "1.0")

	handler := checker.LivenessHandler()

	req := httptest.NewRequest("GET", "/health/live", nil)
	w := httptest.NewRecorder()

	handler(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status code = %v, want %v", w.Code, http.StatusOK)
	}
}

func TestReadinessHandler(t *testing.T) {
	checker := NewChecker("test", "1.0")
	checker.RegisterCheck("test", func(ctx context.Context) error {
		return nil
	}, 5*time.Second, true)

	handler := checker.ReadinessHandler()

	req := httptest.NewRequest("GET", "/health/ready", nil)
	w := httptest.NewRecorder()

	handler(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status code = %v, want %v", w.Code, http.StatusOK)
	}
}

func TestReadinessHandlerUnhealthy(t *testing.T) {
	checker := NewChecker("test", "1.0")
	checker.RegisterCheck("test", func(ctx context.Context) error {
		return errors.New("not ready")
	}, 5*time.Second, true)

	handler := checker.ReadinessHandler()

	req := httptest.NewRequest("GET", "/health/ready", nil)
	w := httptest.NewRecorder()

	handler(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status code = %v, want %v", w.Code, http.StatusServiceUnavailable)
	}
}

// TestPoolSaturationCheckBelowCapacity covers the one piece of this package
// that isn't teacher boilerplate: PoolSaturationCheck must stay healthy
// while the pool has room.
func TestPoolSaturationCheckBelowCapacity(t *testing.T) {
	check := PoolSaturationCheck(func() int { return 3 }, 10)

	if err := check(context.Background()); err != nil {
		t.Errorf("pool at 3/10 should be healthy: %v", err)
	}
}

// TestPoolSaturationCheckAtCapacity confirms the check flips unhealthy the
// instant the pool reaches maxSize, not only once it exceeds it — this is
// the behavior pkg/server wires into /health/ready via Engine.PoolSize and
// Engine.MaxLiveInstances.
func TestPoolSaturationCheckAtCapacity(t *testing.T) {
	check := PoolSaturationCheck(func() int { return 10 }, 10)

	if err := check(context.Background()); err == nil {
		t.Error("pool at 10/10 should be unhealthy")
	}
}

func TestPoolSaturationCheckOverCapacity(t *testing.T) {
	check := PoolSaturationCheck(func() int { return 12 }, 10)

	if err := check(context.Background()); err == nil {
		t.Error("pool at 12/10 should be unhealthy")
	}
}

// TestPoolSaturationCheckUnbounded confirms a maxSize of 0 (the
// config.MaxLiveInstances "unbounded" sentinel) never reports unhealthy
// regardless of pool size.
func TestPoolSaturationCheckUnbounded(t *testing.T) {
	check := PoolSaturationCheck(func() int { return 1_000_000 }, 0)

	if err := check(context.Background()); err != nil {
		t.Errorf("maxSize=0 should always be healthy: %v", err)
	}
}

// TestPoolSaturationCheckWiredThroughChecker exercises PoolSaturationCheck
// the way pkg/server actually uses it: registered on a Checker and read
// back out through Check/HTTPHandler, so a saturated pool surfaces as a
// StatusServiceUnavailable response rather than just a bare CheckFunc
// error.
func TestPoolSaturationCheckWiredThroughChecker(t *testing.T) {
	poolSize := 0
	checker := NewChecker("stepflow", "1.0.0")
	checker.RegisterCheck("engine-pool", PoolSaturationCheck(func() int { return poolSize }, 2), 5*time.Second, true)

	if resp := checker.Check(context.Background()); resp.Status != StatusHealthy {
		t.Fatalf("empty pool should be healthy, got %v", resp.Status)
	}

	poolSize = 2

	handler := checker.ReadinessHandler()
	req := httptest.NewRequest("GET", "/health/ready", nil)
	w := httptest.NewRecorder()
	handler(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("saturated pool should report unhealthy, status code = %v, want %v", w.Code, http.StatusServiceUnavailable)
	}
}
