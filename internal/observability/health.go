package observability

import (
	"encoding/json"
	"net/http"
)

type healthResponse struct {
	Status string `json:"status"`
	Synced bool   `json:"synced"`
	MQTT   bool   `json:"mqtt_connected"`
	Zones  int    `json:"zones"`
	Parts  int    `json:"partitions"`
}

// handleHealthz reports 200 once the controller has completed its startup
// sync and the MQTT client is connected, 503 otherwise — suitable for a
// container orchestrator's readiness probe.
func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{
		Synced: s.status.Synced(),
		MQTT:   s.status.MQTTConnected(),
		Zones:  s.status.ZoneCount(),
		Parts:  s.status.PartitionCount(),
	}
	resp.Status = "ok"
	code := http.StatusOK
	if !resp.Synced || !resp.MQTT {
		resp.Status = "degraded"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(resp)
}
