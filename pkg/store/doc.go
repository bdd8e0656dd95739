// Package store defines the persistence-facing contract for per-owner setting
// values, plus a small in-memory implementation.
//
// Responsibilities:
//   - Store only reads and writes raw (encoded) values for a single Owner.
//   - Conversion between raw and typed values stays in the settings package.
//   - Implementations decide how owners map onto storage keys; Owner.Identifier()
//     provides a canonical `class/id` key for adapters that need one.
//
// Data flow:
//
//	settings.Accessors -> Converter.Encode -> Store.Set
//	Store.Get -> Converter.Decode -> typed value
//
// Adapters live in sub-packages: sqlite (modernc.org/sqlite) and cached
// (read-through go-cache wrapper).
package store
