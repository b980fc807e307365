// Package runner implements the cross-validation orchestration layer.
//
// The Runner drives the full lifecycle of a tabular experiment: it splits
// the dataset into folds, trains a fresh model per fold, assembles
// out-of-fold predictions, scores them with the configured metric, and
// records parameters, per-fold scores, and fold models through the tracking
// and artifact layers. Fold models can be persisted through the cache
// package so a crashed run resumes without retraining finished folds.
//
// Public methods are safe for concurrent use; a Runner may execute several
// independent cross-validations at once.
package runner
