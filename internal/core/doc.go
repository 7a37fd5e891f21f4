// Package core provides the business logic for salary-review batches.
//
// It has no transport or storage dependencies; the HTTP server, the CLI and
// tests all drive the same [Service].
//
// # Pipeline
//
// A batch loads the pending table through a [Gateway], then for each row in
// storage order:
//
//  1. [Renderer.Render] produces the letter as a [Document]
//  2. [Renderer.Compose] produces the subject and body
//  3. [Dispatcher.Dispatch] makes exactly one delivery attempt
//
// Each row ends as a [RowResult] with [OutcomeSent] or [OutcomeFailed].
// Rows are then partitioned by index: sent rows are appended to the archive
// table and the rest are written back as the new pending table.
//
// # Concurrency
//
// Only one batch runs per [Service]. A second trigger waits up to
// [ServiceConfig.LockWait] and then fails with [ErrBatchInProgress].
//
// # Error Handling
//
// Technical errors are mapped to user-facing messages with [MapError]:
//
//   - SRC001-SRC002: pending table missing or unreadable
//   - BAT001: batch already running
//   - PST001: tables could not be written back
//   - RND001-RND002, DSP001-DSP004: per-row failures (logged, never returned)
package core
