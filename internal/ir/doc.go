// Package ir defines the shared data model for the undo log.
//
// This package contains type definitions and small value helpers only. All
// other internal packages import ir; ir imports nothing internal, which keeps
// it the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Status uses the integer encoding 0=normal, 1=undone, 2=redone
//   - Payloads are UTF-8 text; nil means SQL NULL / JSON null
//   - Model and table identifiers are compared byte for byte and must
//     already be NFC without surrounding whitespace
//   - All JSON tags use snake_case
package ir
