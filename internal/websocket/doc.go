// Package websocket streams pipeline progress to browser and CLI clients.
//
// The Hub implements operations.WebSocketHub. Every status change of a run
// arrives as an operation:snapshot event carrying the whole
// operations.OperationSnapshot, and the latest snapshot is replayed to
// clients that connect mid-run. Handler upgrades /ws requests with
// gorilla/websocket.
//
// Message envelope:
//
//	{"type": "operation:snapshot", "data": {...}, "timestamp": "2026-10-18T10:00:00Z"}
package websocket
