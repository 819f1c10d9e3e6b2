// Package observability provides the bridge's optional HTTP surface:
// /healthz and /metrics, plus a debug WebSocket stream that fans out the
// Events passed to Hub.Broadcast. cmd/nxbridge does not call Broadcast, so
// no partition/zone transitions reach the stream. It is disabled entirely
// when no listen address is
// configured (SPEC_FULL.md §6 HEALTH_ADDR).
package observability
