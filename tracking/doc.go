// Package tracking records experiment runs: parameters, metrics and
// artifacts. It speaks the MLflow REST wire format through Client and offers
// an in-memory Recorder for tests and offline experimentation.
//
// The Recorder interface is what runners and the experiment façade depend
// on; Client and the in-memory store are interchangeable behind it. Artifact
// payloads are persisted through a core.ArtifactStore scoped by run ID, so
// local files, a shared directory or object storage can back them.
package tracking
