// Package trainer defines the backend-agnostic abstractions and concrete
// helpers for fitting and applying tabular models inside tabkit.
//
// Core goals:
//   - Unify training + inference behind a single interface
//   - Normalize feature importance representation (feature name -> weight)
//   - Keep dataset shapes minimal and backend independent
//   - Facilitate lightweight mocking for tests (MockTrainer)
//
// Backends (e.g. LightGBM, leaves ensembles, linear models) implement the
// Trainer interface from this package so higher layers (runners, the
// experiment façade) remain decoupled from vendor libraries.
package trainer
