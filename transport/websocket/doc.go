// Package websocket provides the read-only spectator feed of a session.
//
// The package implements:
//   - A hub that fans command loop events out to every spectator
//   - Connection lifecycle management with ping/pong keepalive
//   - Dropping of spectators that cannot keep up
//
// Architecture:
//
// A central Hub owns the set of connections. Each connection has a read
// goroutine, which only watches for disconnects, and a write goroutine fed
// by a buffered channel. The Hub implements loop.Observer, so the command
// loop publishes into it without ever blocking on a slow spectator.
//
// Message Protocol:
//
// Spectators send nothing. Every handled line produces one JSON message:
//
//	{"session_id":"<uuid>","event":"response","phase":"lobby","document":{"a":1},"document_kind":"object"}
//	{"session_id":"<uuid>","event":"parse_error","phase":"lobby","error":"JSON parse failed"}
//	{"session_id":"<uuid>","event":"terminated","phase":"lobby"}
//
// Usage:
//
//	hub := websocket.NewHub(logger)
//	go hub.Run(ctx)
//
//	http.HandleFunc("/ws", hub.ServeWS)
//	l := loop.New(sess, os.Stdin, os.Stdout, loop.WithObserver(hub))
package websocket
