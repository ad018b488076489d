// Package store keeps the library of saved diagrams.
//
// A [Store] maps filenames to diagrams. Filenames are derived from a
// diagram's display name by [FileName]: spaces become underscores and a
// ".json" extension is appended, so "Research crew" is stored as
// "Research_crew.json". Every lookup accepts the name with or without the
// extension, matching what the editor sends.
//
// # Backends
//
//   - [FileStore] keeps one indented JSON file per diagram in a directory.
//     This is the default and what the editor's original backend did.
//   - store/sqlite keeps diagrams in a single SQLite database
//     (modernc.org/sqlite, no cgo).
//   - store/mongo keeps diagrams in a MongoDB collection.
//
// Package store/backends opens any of them from a [Config]; it lives in its
// own package because the backends import this one.
//
// # Observability
//
// [Instrument] wraps a Store so that every operation reports to the
// registered observability.StoreHooks.
//
// # Testing
//
// Package store/storetest holds a behavioral contract that every backend
// runs in its tests.
package store
