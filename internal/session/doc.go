// Package session holds the client's bearer credentials and the capability mode derived from them.
//
// A [Manager] owns the current [Session] and persists it through a [Store]. The store is usually the
// SQLite-backed local storage in the repositories package; [MemoryStore] is used for guest runs and tests.
//
// Guest mode is never persisted: a restarted client comes back as [Anonymous] unless tokens were stored.
//
// Subscribers registered with [Manager.OnEnd] are notified when the session terminates, either by an
// explicit logout or because a token refresh failed.
package session
