package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// ProofStore keeps uploaded payment proofs as opaque blobs. Callers
// hold only the returned reference; the bytes are never inspected here.
type ProofStore interface {
	StoreProof(ctx context.Context, data []byte) (string, error)
	ResolveProof(ref string) (string, error)
}

// LocalProofStore writes proofs to a directory on disk and serves them
// by relative URL. It stands in for an object-storage bucket.
type LocalProofStore struct {
	dir string
}

func NewLocalProofStore(dir string) (*LocalProofStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("os.MkdirAll -> %w", err)
	}

	return &LocalProofStore{dir: dir}, nil
}

func (s *LocalProofStore) StoreProof(_ context.Context, data []byte) (string, error) {
	ref := uuid.NewString()

	if err := os.WriteFile(filepath.Join(s.dir, ref), data, 0o644); err != nil {
		return "", fmt.Errorf("os.WriteFile -> %w", err)
	}

	return ref, nil
}

func (s *LocalProofStore) ResolveProof(ref string) (string, error) {
	path := filepath.Join(s.dir, ref)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("os.Stat -> %w", err)
	}

	return "/uploads/proofs/" + ref, nil
}
