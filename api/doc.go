// Package api provides the read-only HTTP surface of a running session.
//
// Endpoints:
//   - GET /api/session - identifier, phase, test mode, creation time and loop counters
//   - GET /api/health - liveness probe
//   - GET /ws - websocket spectator feed (optional ?session=<id> must match)
//   - POST /mcp - MCP JSON-RPC endpoint with read-only session tools
//
// Nothing here can change the session. Commands only arrive on standard
// input.
//
// Usage:
//
//	hub := websocket.NewHub(logger)
//	go hub.Run(ctx)
//
//	srv := api.NewServer(sess, commandLoop, hub, logger)
//	http.ListenAndServe("localhost:8090", srv)
//
// Errors are returned as JSON:
//
//	{"error": "session not found"}
package api
