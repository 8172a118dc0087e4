// Package mcp exposes a running session to MCP clients over HTTP.
//
// The server is read-only. Commands still arrive only on standard input;
// these tools just report on the session.
//
// MCP Tools:
//   - get_session: identifier, phase, test mode and creation time
//   - loop_stats: lines read, responses written and parse errors
//
// Both tools answer with a JSON text block, the same shape GET /api/session
// uses.
//
// Usage:
//
//	tools := mcp.NewServer(sess, commandLoop, logger)
//	router.Handle("/mcp", tools).Methods("POST")
package mcp
