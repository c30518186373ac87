package domain

import "path/filepath"

// PackageSummary is the reduced view of a package returned by package info queries.
type PackageSummary struct {
	Name         string              `json:"name"`
	Version      string              `json:"version"`
	Authors      []string            `json:"authors"`
	Description  *string             `json:"description"`
	Repository   *string             `json:"repository"`
	License      *string             `json:"license"`
	Dependencies []DependencySummary `json:"dependencies"`
}

// DependencySummary is the reduced view of a declared dependency.
type DependencySummary struct {
	Name     string   `json:"name"`
	Version  string   `json:"version"`
	Optional bool     `json:"optional"`
	Features []string `json:"features"`
}

// RootPackage returns the package that corresponds to the resolved manifest.
//
// When the resolve graph is present its root id decides. Without it (--no-deps)
// the package whose manifest sits at the workspace root is used. A virtual
// workspace has no root package and yields nil.
func (m *Metadata) RootPackage() *Package {
	if m.Resolve != nil {
		if m.Resolve.Root == nil {
			return nil
		}
		return m.PackageByID(*m.Resolve.Root)
	}

	rootManifest := filepath.Join(m.WorkspaceRoot, "Cargo.toml")
	for _, p := range m.Packages {
		if p.ManifestPath == rootManifest {
			return p
		}
	}
	return nil
}

// PackageByID looks a package up by its id.
func (m *Metadata) PackageByID(id PackageID) *Package {
	for _, p := range m.Packages {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// WorkspacePackages returns the packages listed in workspace_members, in member order.
// Member ids without a matching package are skipped.
func (m *Metadata) WorkspacePackages() []*Package {
	members := make([]*Package, 0, len(m.WorkspaceMembers))
	for _, id := range m.WorkspaceMembers {
		if p := m.PackageByID(id); p != nil {
			members = append(members, p)
		}
	}
	return members
}

// DependencyVersion reports the version string for a declared dependency: the
// version of the first package with the same name in the snapshot, otherwise
// the declared requirement.
func (m *Metadata) DependencyVersion(dep Dependency) string {
	for _, p := range m.Packages {
		if p.Name == dep.Name {
			return p.Version
		}
	}
	return dep.Req
}

// Dependencies projects the declared dependencies of p.
func (m *Metadata) Dependencies(p *Package) []DependencySummary {
	deps := make([]DependencySummary, 0, len(p.Dependencies))
	for _, dep := range p.Dependencies {
		features := dep.Features
		if features == nil {
			features = []string{}
		}
		deps = append(deps, DependencySummary{
			Name:     dep.Name,
			Version:  m.DependencyVersion(dep),
			Optional: dep.Optional,
			Features: features,
		})
	}
	return deps
}

// Summarize projects p into a PackageSummary.
func (m *Metadata) Summarize(p *Package) PackageSummary {
	authors := p.Authors
	if authors == nil {
		authors = []string{}
	}
	return PackageSummary{
		Name:         p.Name,
		Version:      p.Version,
		Authors:      authors,
		Description:  p.Description,
		Repository:   p.Repository,
		License:      p.License,
		Dependencies: m.Dependencies(p),
	}
}
