package fs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/tabml/tabkit/artifact"
	"github.com/tabml/tabkit/core"
)

var _ core.ArtifactStore = (*Store)(nil)

func TestFSStore_SaveGetOverwrite(t *testing.T) {
	ctx := context.Background()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if err := s.Save(ctx, "r1", "model.bin", []byte("v1")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Save(ctx, "r1", "model.bin", []byte("v2")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	out, err := s.Get(ctx, "r1", "model.bin")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(out) != "v2" {
		t.Fatalf("expected overwrite to win, got %q", out)
	}
}

func TestFSStore_NestedNamesAndList(t *testing.T) {
	ctx := context.Background()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Save(ctx, "r1", "plots/roc.png", []byte("png")); err != nil {
		t.Fatalf("nested save: %v", err)
	}
	if err := s.Save(ctx, "r1", "params.yaml", []byte("a: 1")); err != nil {
		t.Fatal(err)
	}
	names, err := s.List(ctx, "r1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(names) != 2 || names[0] != "params.yaml" || names[1] != "plots/roc.png" {
		t.Fatalf("unexpected listing %v", names)
	}

	// unknown run lists empty, not an error
	names, err = s.List(ctx, "nope")
	if err != nil || len(names) != 0 {
		t.Fatalf("expected empty list, got %v / %v", names, err)
	}
}

func TestFSStore_NotFoundAndDelete(t *testing.T) {
	ctx := context.Background()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.Get(ctx, "r1", "missing"); !errors.Is(err, artifact.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.Delete(ctx, "r1", "missing"); !errors.Is(err, artifact.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := s.Save(ctx, "r1", "a", []byte("x")); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, "r1", "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, "r1", "a"); !errors.Is(err, artifact.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestFSStore_ListKeepsArtifactPrefixedNames(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s, err := New(root)
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Save(ctx, "r1", "artifact-model.bin", []byte("m")); err != nil {
		t.Fatalf("save: %v", err)
	}
	// a stray temp file from an interrupted write must stay invisible
	stray := filepath.Join(root, "r1", tmpPrefix+"123"+tmpSuffix)
	if err := os.WriteFile(stray, []byte("partial"), 0o644); err != nil {
		t.Fatal(err)
	}

	names, err := s.List(ctx, "r1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(names) != 1 || names[0] != "artifact-model.bin" {
		t.Fatalf("unexpected listing %v", names)
	}
}

func TestFSStore_RejectsTempNamespaceNames(t *testing.T) {
	ctx := context.Background()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Save(ctx, "r1", tmpPrefix+"x"+tmpSuffix, []byte("x")); err == nil {
		t.Fatal("expected temp namespace rejection")
	}
	if err := s.Save(ctx, "r1", "nested/"+tmpPrefix+"x"+tmpSuffix, []byte("x")); err == nil {
		t.Fatal("expected temp namespace rejection for nested name")
	}
}

func TestFSStore_RejectsTraversal(t *testing.T) {
	ctx := context.Background()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Save(ctx, "r1", "../escape", []byte("x")); err == nil {
		t.Fatal("expected traversal rejection")
	}
	if err := s.Save(ctx, "", "a", []byte("x")); err == nil {
		t.Fatal("expected empty run id rejection")
	}
}
