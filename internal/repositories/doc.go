// Package repositories implements SQLite persistence for client-side state.
//
// The client keeps almost nothing locally: the backend owns transcripts, chat history and settings.
//
// Key Implementations:
//   - [LocalStorage] : key/value table holding the bearer tokens, implements [session.Store]
//   - [ExportLogRepository] : history of transcripts written to disk by bulk exports
//
// Both expect the schema created by [shared.RunMigrations].
package repositories
