// Package undo implements the undo/redo state machine on top of the undo log.
//
// The state of a model is derived from its head entry (the entry with the
// maximum id) every time it is needed; nothing is cached in memory:
//
//	Empty      no entries
//	NormalHead head status is Normal
//	UndoneHead head status is Undone
//	RedoneHead head status is Redone
//
// Transitions:
//
//	Record: any state  -> NormalHead (Undone and Redone entries are pruned first)
//	Undo:   NormalHead -> UndoneHead, RedoneHead -> UndoneHead
//	Redo:   UndoneHead -> RedoneHead
//
// Undo and Redo are compare-and-swap updates on the head entry. When another
// caller changes the head between the read and the update, the operation
// fails with ErrConcurrentModification and is not retried.
package undo
