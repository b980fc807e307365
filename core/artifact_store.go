package core

import "context"

// ArtifactStore defines the interface for run artifact persistence.
// Implementations should be thread-safe and scope artifacts by run
// identifier. Short method names (Save/Get/List/Delete) mirror other store
// interfaces for consistency.
type ArtifactStore interface {
	Save(ctx context.Context, runID, name string, data []byte) error
	Get(ctx context.Context, runID, name string) ([]byte, error)
	List(ctx context.Context, runID string) ([]string, error)
	Delete(ctx context.Context, runID, name string) error
}
