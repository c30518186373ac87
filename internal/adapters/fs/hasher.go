// Package fs fingerprints manifests on the local filesystem.
package fs

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/cargo-metadata-mcp/internal/core/domain"
	"go.trai.ch/cargo-metadata-mcp/internal/core/ports"
	"go.trai.ch/zerr"
)

// LockfileName is the lockfile cargo writes next to the workspace manifest.
const LockfileName = "Cargo.lock"

var _ ports.Hasher = (*Hasher)(nil)

// Hasher fingerprints a manifest together with its sibling lockfile.
type Hasher struct{}

// NewHasher creates a new Hasher.
func NewHasher() *Hasher {
	return &Hasher{}
}

// HashManifest returns a fingerprint of the manifest content and the Cargo.lock
// next to it. A missing lockfile contributes nothing; a missing manifest is an error.
func (h *Hasher) HashManifest(manifestPath string) (uint64, error) {
	digest := xxhash.New()

	manifestHash, err := h.ComputeFileHash(manifestPath)
	if err != nil {
		return 0, zerr.With(fmt.Errorf("%w: %w", domain.ErrFingerprintFailed, err), "manifest_path", manifestPath)
	}
	writeHash(digest, manifestHash)

	lockPath := filepath.Join(filepath.Dir(manifestPath), LockfileName)
	lockHash, err := h.ComputeFileHash(lockPath)
	switch {
	case err == nil:
		_, _ = digest.Write([]byte{1})
		writeHash(digest, lockHash)
	case errors.Is(err, iofs.ErrNotExist):
		_, _ = digest.Write([]byte{0})
	default:
		return 0, zerr.With(fmt.Errorf("%w: %w", domain.ErrFingerprintFailed, err), "manifest_path", manifestPath)
	}

	return digest.Sum64(), nil
}

// ComputeFileHash computes the XXHash of a file's content.
func (h *Hasher) ComputeFileHash(path string) (uint64, error) {
	f, err := os.Open(path) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, "failed to open file"), "path", path)
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	hasher := xxhash.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return 0, zerr.With(zerr.Wrap(err, "failed to hash file content"), "path", path)
	}

	return hasher.Sum64(), nil
}

func writeHash(w io.Writer, hash uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], hash)
	_, _ = w.Write(buf[:])
}
