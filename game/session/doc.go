// Package session holds the identity and lifecycle of a game session.
//
// A process runs exactly one Session. It owns:
//   - an identifier minted once at construction
//   - a diagnostic sink (discarding in test mode, file-backed otherwise)
//   - the lifecycle phase
//
// Lifecycle:
//
// Phases are ordered and only move forward:
//
//	lobby -> starting -> live -> ended
//
// Any phase that is not ended may also jump straight to ended. Advance
// rejects every other move with ErrInvalidTransition.
//
// Usage:
//
//	sess, err := session.New(false, session.WithLogDir("logs"))
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer sess.Close()
//
//	fmt.Println(sess.ID(), sess.Phase()) // <uuid> lobby
//
// Concurrency:
//
// Reads are safe from any goroutine so read-only observers can inspect the
// session while the command loop runs.
package session
