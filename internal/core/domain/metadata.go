// Package domain holds the core types for cargo-metadata-mcp.
package domain

import (
	"bytes"
	"encoding/json"
	"fmt"

	"go.trai.ch/zerr"
)

// MetadataFormatVersion is the `cargo metadata --format-version` this package understands.
const MetadataFormatVersion = 1

// PackageID is the opaque package identifier cargo uses in workspace_members and resolve.
type PackageID string

// Metadata is a resolved `cargo metadata` snapshot.
//
// A Metadata value is immutable once parsed. The original document is kept so
// that a full dump reproduces cargo's own output instead of a lossy re-encoding.
type Metadata struct {
	Packages         []*Package  `json:"packages"`
	WorkspaceMembers []PackageID `json:"workspace_members"`
	Resolve          *Resolve    `json:"resolve"`
	WorkspaceRoot    string      `json:"workspace_root"`
	TargetDirectory  string      `json:"target_directory"`
	Version          int         `json:"version"`

	raw json.RawMessage
}

// Package is a single package entry of a metadata snapshot.
type Package struct {
	ID           PackageID           `json:"id"`
	Name         string              `json:"name"`
	Version      string              `json:"version"`
	Authors      []string            `json:"authors"`
	Description  *string             `json:"description"`
	Repository   *string             `json:"repository"`
	License      *string             `json:"license"`
	ManifestPath string              `json:"manifest_path"`
	Source       *string             `json:"source"`
	Edition      string              `json:"edition"`
	Dependencies []Dependency        `json:"dependencies"`
	Targets      []*Target           `json:"targets"`
	Features     map[string][]string `json:"features"`

	raw json.RawMessage
}

// Dependency is a dependency edge declared in a package manifest.
type Dependency struct {
	Name                string   `json:"name"`
	Source              *string  `json:"source"`
	Req                 string   `json:"req"`
	Kind                *string  `json:"kind"`
	Rename              *string  `json:"rename"`
	Optional            bool     `json:"optional"`
	UsesDefaultFeatures bool     `json:"uses_default_features"`
	Features            []string `json:"features"`
	Target              *string  `json:"target"`
	Path                *string  `json:"path,omitempty"`
}

// Target is a build target (lib, bin, test, bench, example, custom-build) of a package.
type Target struct {
	Name             string   `json:"name"`
	Kind             []string `json:"kind"`
	CrateTypes       []string `json:"crate_types"`
	RequiredFeatures []string `json:"required-features,omitempty"`
	SrcPath          string   `json:"src_path"`
	Edition          string   `json:"edition"`
	Doctest          bool     `json:"doctest"`
	Test             bool     `json:"test"`
	Doc              bool     `json:"doc"`

	raw json.RawMessage
}

// Resolve is the resolved dependency graph. It is absent when cargo runs with --no-deps.
type Resolve struct {
	Nodes []ResolveNode `json:"nodes"`
	Root  *PackageID    `json:"root"`
}

// ResolveNode is a node of the resolved dependency graph.
type ResolveNode struct {
	ID           PackageID   `json:"id"`
	Dependencies []PackageID `json:"dependencies"`
	Features     []string    `json:"features"`
}

// ParseMetadata decodes a `cargo metadata` JSON document.
func ParseMetadata(data []byte) (*Metadata, error) {
	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, zerr.Wrap(err, "failed to parse cargo metadata output")
	}
	if m.Version != MetadataFormatVersion {
		return nil, zerr.With(fmt.Errorf("%w", ErrUnsupportedFormatVersion), "version", m.Version)
	}
	m.raw = bytes.Clone(data)
	return &m, nil
}

// Raw returns the document the snapshot was parsed from.
func (m *Metadata) Raw() json.RawMessage {
	return m.raw
}

type packageAlias Package

// UnmarshalJSON decodes a package and keeps its original encoding.
func (p *Package) UnmarshalJSON(data []byte) error {
	var a packageAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*p = Package(a)
	p.raw = bytes.Clone(data)
	return nil
}

// MarshalJSON emits the original encoding when the package was decoded from cargo output.
func (p *Package) MarshalJSON() ([]byte, error) {
	if len(p.raw) > 0 {
		return p.raw, nil
	}
	return json.Marshal((*packageAlias)(p))
}

type targetAlias Target

// UnmarshalJSON decodes a target and keeps its original encoding.
func (t *Target) UnmarshalJSON(data []byte) error {
	var a targetAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*t = Target(a)
	t.raw = bytes.Clone(data)
	return nil
}

// MarshalJSON emits the original encoding when the target was decoded from cargo output.
func (t *Target) MarshalJSON() ([]byte, error) {
	if len(t.raw) > 0 {
		return t.raw, nil
	}
	return json.Marshal((*targetAlias)(t))
}
