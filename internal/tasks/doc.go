// Package tasks runs the long operations of the client with real-time progress reporting.
//
// # Uploads
//
// [Uploader.Upload] validates an audio file against the limits of the current session mode (see [Validate]),
// streams it to the backend and reports progress. Byte upload progress fills 0-25; once the body is sent a
// [ProgressTracker] simulates processing from 25 toward 95 and 100 is reported only when the transcript exists.
//
// # Bulk Export
//
// [Exporter.BulkExport] renders every transcript in a chosen [formatter.Format] using a worker pool and a rate
// limiter, records each written file and writes a manifest.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
package tasks
