// Package store provides SQLite-backed durable storage for the undo log.
//
// The store owns a single table, model_undo_log, holding one row per
// recorded mutation. It exposes insertion, per-model listing, status-filtered
// pruning and a compare-and-swap status update. It knows nothing about the
// undo/redo state machine; that lives in package undo.
//
// # Ordering
//
//   - id is INTEGER PRIMARY KEY AUTOINCREMENT: unique, monotonic, never reused
//   - All listings use ORDER BY id ASC; the head of a model is MAX(id)
//   - operator_at is epoch milliseconds and only informational
//
// # Atomicity
//
//   - Record runs prune-then-insert inside one immediate transaction
//   - UpdateStatus and UpdateHeadStatus are single conditional UPDATEs;
//     zero rows affected means the expected status no longer holds
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout (default 5000ms): Wait for locks instead of failing
//   - _txlock=immediate: Transactions take the write lock at BEGIN
//
// Every backend failure is returned as a *StorageError. The store never
// retries; retry policy belongs to the caller.
package store
