// Package query implements the read-only metadata operations served to clients.
package query

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.trai.ch/cargo-metadata-mcp/internal/core/domain"
	"go.trai.ch/zerr"
)

// Snapshots provides exclusive access to the snapshot for a manifest.
type Snapshots interface {
	With(ctx context.Context, manifestPath string, fn func(*domain.Metadata) error) error
}

// Service runs operations against cached snapshots and renders their payloads
// as JSON indented by two spaces.
type Service struct {
	snapshots Snapshots
}

// New creates a new Service.
func New(snapshots Snapshots) *Service {
	return &Service{snapshots: snapshots}
}

// Run executes op for manifestPath. Failures are *domain.QueryError values
// except for an unknown op.
func (s *Service) Run(ctx context.Context, op domain.Operation, manifestPath string) (string, error) {
	if !op.Valid() {
		return "", zerr.With(fmt.Errorf("%w", domain.ErrUnknownOperation), "operation", string(op))
	}

	var payload string
	err := s.snapshots.With(ctx, manifestPath, func(m *domain.Metadata) error {
		var err error
		payload, err = project(op, m)
		return err
	})
	if err != nil {
		return "", err
	}
	return payload, nil
}

// Metadata returns the complete snapshot.
func (s *Service) Metadata(ctx context.Context, manifestPath string) (string, error) {
	return s.Run(ctx, domain.OpMetadata, manifestPath)
}

// PackageInfo returns the summary of the root package.
func (s *Service) PackageInfo(ctx context.Context, manifestPath string) (string, error) {
	return s.Run(ctx, domain.OpPackageInfo, manifestPath)
}

// Dependencies returns the dependency summaries of the root package.
func (s *Service) Dependencies(ctx context.Context, manifestPath string) (string, error) {
	return s.Run(ctx, domain.OpDependencies, manifestPath)
}

// Targets returns the build targets of the root package.
func (s *Service) Targets(ctx context.Context, manifestPath string) (string, error) {
	return s.Run(ctx, domain.OpTargets, manifestPath)
}

// WorkspaceInfo returns the workspace member packages.
func (s *Service) WorkspaceInfo(ctx context.Context, manifestPath string) (string, error) {
	return s.Run(ctx, domain.OpWorkspaceInfo, manifestPath)
}

// Features returns the feature table of the root package.
func (s *Service) Features(ctx context.Context, manifestPath string) (string, error) {
	return s.Run(ctx, domain.OpFeatures, manifestPath)
}

func project(op domain.Operation, m *domain.Metadata) (string, error) {
	var root *domain.Package
	if op.NeedsRootPackage() {
		if root = m.RootPackage(); root == nil {
			return "", domain.NewMissingRootError()
		}
	}

	switch op {
	case domain.OpMetadata:
		return dump(op.Subject(), m)
	case domain.OpWorkspaceInfo:
		return encode(op.Subject(), m.WorkspacePackages())
	case domain.OpPackageInfo:
		return encode(op.Subject(), m.Summarize(root))
	case domain.OpDependencies:
		return encode(op.Subject(), m.Dependencies(root))
	case domain.OpTargets:
		targets := root.Targets
		if targets == nil {
			targets = []*domain.Target{}
		}
		return encode(op.Subject(), targets)
	default:
		features := root.Features
		if features == nil {
			features = map[string][]string{}
		}
		return encode(op.Subject(), features)
	}
}

func dump(subject string, m *domain.Metadata) (string, error) {
	raw := bytes.TrimSpace(m.Raw())
	if len(raw) == 0 {
		return encode(subject, m)
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return "", domain.NewSerializationError(subject, err)
	}
	return buf.String(), nil
}

func encode(subject string, v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", domain.NewSerializationError(subject, err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
