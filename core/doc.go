// Package core provides the foundational domain types and interfaces used by
// tabkit. It defines the core abstractions for:
//
//   - Datasets (dense tabular feature matrices with labels, weights and
//     categorical feature metadata)
//   - Fold splitting for cross-validation
//   - Pluggable stores for run artifacts
//
// The package intentionally keeps implementation concerns (persistence,
// concrete trainers, tracking transports) out of scope, exposing small
// interfaces to enable custom backends and extensions. All exported
// identifiers include concise documentation to aid discoverability and
// external consumption.
package core
