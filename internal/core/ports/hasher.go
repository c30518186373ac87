package ports

// Hasher defines the interface for fingerprinting manifests.
//
//go:generate mockgen -destination=mocks/hasher_mock.go -package=mocks -source=hasher.go
type Hasher interface {
	// HashManifest returns a fingerprint of the manifest and its sibling Cargo.lock.
	// A missing lockfile contributes nothing; a missing manifest is an error.
	HashManifest(manifestPath string) (uint64, error)
}
