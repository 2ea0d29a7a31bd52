// Package blobfs is the filesystem implementation of the artifact store.
// Object keys follow the downstream-visible layout
// ⟨bucket⟩/⟨munchkinID⟩/data-⟨timestamp⟩.json regardless of backend, so the
// notification payload stays stable if the blob backend is swapped out.
package blobfs

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmelnik/ingestgate/internal/app/ports"
)

type store struct {
	baseDir string
	bucket  string
	now     func() time.Time
}

// NewStore roots artifacts under baseDir, namespaced by bucket.
func NewStore(baseDir, bucket string) ports.ArtifactStore {
	if strings.TrimSpace(baseDir) == "" {
		baseDir = "data/artifacts"
	}
	return &store{baseDir: baseDir, bucket: bucket, now: time.Now}
}

func (s *store) Save(ctx context.Context, munchkinID string, body []byte) (ports.StoredArtifact, error) {
	if strings.TrimSpace(munchkinID) == "" {
		return ports.StoredArtifact{}, ports.ErrMissingAccountID
	}
	if strings.ContainsAny(munchkinID, `/\`) || strings.Contains(munchkinID, "..") {
		return ports.StoredArtifact{}, fmt.Errorf("invalid account id %q", munchkinID)
	}

	filename := fmt.Sprintf("data-%d.json", s.now().UnixNano())
	key := path.Join(munchkinID, filename)

	dir := filepath.Join(s.baseDir, s.bucket, munchkinID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ports.StoredArtifact{}, fmt.Errorf("failed to create artifact dir: %w", err)
	}

	// O_EXCL keeps artifacts write-once: a key collision fails instead of
	// overwriting an earlier snapshot.
	f, err := os.OpenFile(filepath.Join(dir, filename), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return ports.StoredArtifact{}, fmt.Errorf("failed to create artifact: %w", err)
	}
	if _, err := f.Write(body); err != nil {
		_ = f.Close()
		return ports.StoredArtifact{}, fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := f.Close(); err != nil {
		return ports.StoredArtifact{}, fmt.Errorf("failed to close artifact: %w", err)
	}

	return ports.StoredArtifact{
		Filename: filename,
		Bucket:   s.bucket,
		Key:      key,
		Path:     path.Join(s.bucket, key),
	}, nil
}

var _ ports.ArtifactStore = (*store)(nil)
