// Package state defines persistence-facing contracts for loading and saving
// attribute records, plus a small resolver that orchestrates resolution and
// commit.
//
// Responsibilities:
//   - Store only loads/saves a single record for a single Ref.
//   - Resolver runs the registry's resolution against the loaded record and
//     commits the resulting diff copy-on-write, so a failed resolution has
//     zero observable side effects on stored state.
//   - The core attrs package remains persistence-agnostic; all persistence
//     logic stays behind Store implementations supplied by consumers.
//
// Data flow:
//
//	Store -> Resolver -> attrs.ResolveUpdate -> record.CopyOnWrite -> Store
//
// Concurrency:
//
//	Meta.ETag enables optimistic concurrency: Update rejects a stale ETag
//	with ErrETagMismatch before resolving. Each successful save mints a new
//	snapshot identifier that doubles as the next expected ETag.
package state
