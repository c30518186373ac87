package domain

import (
	"fmt"
	"strings"

	"go.trai.ch/zerr"
)

// Operation names a read-only metadata query. The value doubles as the tool name.
type Operation string

// The supported operations.
const (
	OpMetadata      Operation = "get_metadata"
	OpPackageInfo   Operation = "get_package_info"
	OpDependencies  Operation = "get_dependencies"
	OpTargets       Operation = "get_targets"
	OpWorkspaceInfo Operation = "get_workspace_info"
	OpFeatures      Operation = "get_features"
)

var operationInfo = map[Operation]struct {
	title       string
	description string
	needsRoot   bool
}{
	OpMetadata: {
		title:       "Get metadata",
		description: "Returns the complete `cargo metadata` output for the Cargo project at manifest_path.",
	},
	OpPackageInfo: {
		title:       "Get package info",
		description: "Returns name, version, authors, description, repository, license and dependencies of the root package.",
		needsRoot:   true,
	},
	OpDependencies: {
		title:       "Get dependencies",
		description: "Returns the dependencies declared by the root package with their resolved versions.",
		needsRoot:   true,
	},
	OpTargets: {
		title:       "Get targets",
		description: "Returns the build targets (lib, bin, test, bench, example) of the root package.",
		needsRoot:   true,
	},
	OpWorkspaceInfo: {
		title:       "Get workspace info",
		description: "Returns the packages that are members of the workspace.",
	},
	OpFeatures: {
		title:       "Get features",
		description: "Returns the feature table of the root package.",
		needsRoot:   true,
	},
}

// Operations lists all operations in registration order.
func Operations() []Operation {
	return []Operation{
		OpMetadata,
		OpPackageInfo,
		OpDependencies,
		OpTargets,
		OpWorkspaceInfo,
		OpFeatures,
	}
}

// ParseOperation resolves a user supplied operation name. The "get_" prefix is
// optional and dashes are accepted in place of underscores.
func ParseOperation(name string) (Operation, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
	if !strings.HasPrefix(normalized, "get_") {
		normalized = "get_" + normalized
	}
	op := Operation(normalized)
	if _, ok := operationInfo[op]; !ok {
		return "", zerr.With(fmt.Errorf("%w", ErrUnknownOperation), "operation", name)
	}
	return op, nil
}

// Title is a short human readable name of the operation.
func (o Operation) Title() string {
	return operationInfo[o].title
}

// Description explains what the operation returns.
func (o Operation) Description() string {
	return operationInfo[o].description
}

// NeedsRootPackage reports whether the operation fails on a virtual workspace.
func (o Operation) NeedsRootPackage() bool {
	return operationInfo[o].needsRoot
}

// Valid reports whether o is one of the supported operations.
func (o Operation) Valid() bool {
	_, ok := operationInfo[o]
	return ok
}

// Subject is the noun used in serialization error messages.
func (o Operation) Subject() string {
	switch o {
	case OpMetadata:
		return "metadata"
	case OpPackageInfo:
		return "package info"
	case OpDependencies:
		return "dependencies"
	case OpTargets:
		return "targets"
	case OpWorkspaceInfo:
		return "workspace members"
	case OpFeatures:
		return "features"
	default:
		return string(o)
	}
}
