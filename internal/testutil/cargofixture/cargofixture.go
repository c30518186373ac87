// Package cargofixture provides canned `cargo metadata` documents for tests.
package cargofixture

import (
	_ "embed"
	"testing"

	"go.trai.ch/cargo-metadata-mcp/internal/core/domain"
)

var (
	//go:embed testdata/single.json
	single []byte

	//go:embed testdata/virtual.json
	virtual []byte
)

// Package ids used by the fixtures.
const (
	DemoID    domain.PackageID = "path+file:///work/demo#0.1.0"
	MemberAID domain.PackageID = "path+file:///work/virt/member-a#0.2.0"
	MemberBID domain.PackageID = "path+file:///work/virt/member-b#0.3.0"
)

// SingleJSON is the metadata of a single crate "demo" depending on serde (resolved
// at 1.0.210), tokio (optional, resolved at 1.38.1) and anyhow (dev, unresolved).
func SingleJSON() []byte {
	return single
}

// VirtualJSON is the metadata of a virtual workspace with two members and one
// workspace member id that has no package.
func VirtualJSON() []byte {
	return virtual
}

// Single parses SingleJSON.
func Single(t testing.TB) *domain.Metadata {
	t.Helper()
	return mustParse(t, single)
}

// Virtual parses VirtualJSON.
func Virtual(t testing.TB) *domain.Metadata {
	t.Helper()
	return mustParse(t, virtual)
}

func mustParse(t testing.TB, data []byte) *domain.Metadata {
	t.Helper()
	m, err := domain.ParseMetadata(data)
	if err != nil {
		t.Fatalf("failed to parse fixture: %v", err)
	}
	return m
}
