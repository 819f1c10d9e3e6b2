package observability

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"
)

type metricsResponse struct {
	UptimeSeconds int64          `json:"uptime_seconds"`
	Runtime       runtimeMetrics `json:"runtime"`
	MQTTConnected bool           `json:"mqtt_connected"`
	Partitions    int            `json:"partitions"`
	Zones         int            `json:"zones"`
	DebugClients  int            `json:"debug_clients"`
}

type runtimeMetrics struct {
	Goroutines    int    `json:"goroutines"`
	MemoryAllocMB uint64 `json:"memory_alloc_mb"`
	NumGC         uint32 `json:"num_gc"`
}

// handleMetrics returns a JSON snapshot of runtime and bridge state, the
// same shape of endpoint as the teacher's api.handleMetrics but scoped to
// what this bridge actually tracks (no device registry, no database pool).
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	debugClients := 0
	if s.hub != nil {
		debugClients = s.hub.ClientCount()
	}

	resp := metricsResponse{
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: runtimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: mem.Alloc / 1024 / 1024,
			NumGC:         mem.NumGC,
		},
		MQTTConnected: s.status.MQTTConnected(),
		Partitions:    s.status.PartitionCount(),
		Zones:         s.status.ZoneCount(),
		DebugClients:  debugClients,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
