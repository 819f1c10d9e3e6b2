package observability

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeStatus struct {
	synced     bool
	mqttOK     bool
	partitions int
	zones      int
}

func (f fakeStatus) Synced() bool        { return f.synced }
func (f fakeStatus) MQTTConnected() bool { return f.mqttOK }
func (f fakeStatus) PartitionCount() int { return f.partitions }
func (f fakeStatus) ZoneCount() int      { return f.zones }

type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

func TestEnabledReflectsAddr(t *testing.T) {
	s := New("", noopLogger{}, fakeStatus{}, nil)
	if s.Enabled() {
		t.Error("Enabled() = true for empty addr, want false")
	}
	s2 := New(":0", noopLogger{}, fakeStatus{}, nil)
	if !s2.Enabled() {
		t.Error("Enabled() = false for non-empty addr, want true")
	}
}

func TestHandleHealthzOKWhenSyncedAndConnected(t *testing.T) {
	s := New(":0", noopLogger{}, fakeStatus{synced: true, mqttOK: true, partitions: 1, zones: 2}, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	s.handleHealthz(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp healthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if resp.Status != "ok" || resp.Parts != 1 || resp.Zones != 2 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestHandleHealthzDegradedWhenNotSynced(t *testing.T) {
	s := New(":0", noopLogger{}, fakeStatus{synced: false, mqttOK: true}, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	s.handleHealthz(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
}

func TestHandleHealthzDegradedWhenMQTTDisconnected(t *testing.T) {
	s := New(":0", noopLogger{}, fakeStatus{synced: true, mqttOK: false}, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	s.handleHealthz(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
}

func TestHandleMetricsReportsStatusFields(t *testing.T) {
	s := New(":0", noopLogger{}, fakeStatus{mqttOK: true, partitions: 2, zones: 5}, NewHub())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	s.handleMetrics(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp metricsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !resp.MQTTConnected || resp.Partitions != 2 || resp.Zones != 5 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestCloseWithoutStartIsNoop(t *testing.T) {
	s := New(":0", noopLogger{}, fakeStatus{}, nil)
	if err := s.Close(); err != nil {
		t.Errorf("Close() error = %v, want nil", err)
	}
}
