// Package cargo resolves metadata snapshots by running `cargo metadata`.
package cargo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"go.trai.ch/cargo-metadata-mcp/internal/core/domain"
	"go.trai.ch/cargo-metadata-mcp/internal/core/ports"
	"go.trai.ch/zerr"
)

// Resolver implements ports.MetadataResolver by invoking cargo as a subprocess.
type Resolver struct {
	logger ports.Logger
	tracer ports.Tracer
}

// NewResolver creates a new Resolver.
func NewResolver(logger ports.Logger, tracer ports.Tracer) *Resolver {
	return &Resolver{
		logger: logger,
		tracer: tracer,
	}
}

// Resolve runs `cargo metadata --format-version 1` for manifestPath and parses its output.
func (r *Resolver) Resolve(
	ctx context.Context,
	manifestPath string,
	opts domain.ResolveOptions,
) (*domain.Metadata, error) {
	ctx, span := r.tracer.Start(ctx, "cargo/metadata")
	defer span.End()
	span.SetAttribute("manifest_path", manifestPath)

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	cargo := Executable(opts)
	args := Args(manifestPath, opts)
	r.logger.Debug("running cargo", "cargo", cargo, "args", strings.Join(args, " "))

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, cargo, args...) //nolint:gosec // cargo path comes from configuration
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		err = commandError(ctx, err, stderr.String(), opts)
		span.RecordError(err)
		return nil, zerr.With(zerr.With(err, "cargo", cargo), "manifest_path", manifestPath)
	}

	doc := jsonLine(stdout.Bytes())
	if doc == nil {
		span.RecordError(domain.ErrCargoNoJSON)
		return nil, zerr.With(fmt.Errorf("%w", domain.ErrCargoNoJSON), "manifest_path", manifestPath)
	}

	metadata, err := domain.ParseMetadata(doc)
	if err != nil {
		span.RecordError(err)
		return nil, zerr.With(err, "manifest_path", manifestPath)
	}

	span.SetAttribute("packages", len(metadata.Packages))
	return metadata, nil
}

func commandError(ctx context.Context, err error, stderr string, opts domain.ResolveOptions) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) && opts.Timeout > 0 {
		return zerr.With(zerr.Wrap(ctx.Err(), "`cargo metadata` timed out"), "timeout", opts.Timeout.String())
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		failed := fmt.Errorf("%w: %s", domain.ErrCargoFailed, strings.TrimSpace(stderr))
		return zerr.With(failed, "exit_code", exitErr.ExitCode())
	}

	return zerr.Wrap(err, "failed to run cargo")
}

// Executable returns the cargo binary to run: the configured path, then $CARGO, then "cargo".
func Executable(opts domain.ResolveOptions) string {
	if opts.CargoPath != "" {
		return opts.CargoPath
	}
	if env := os.Getenv("CARGO"); env != "" {
		return env
	}
	return "cargo"
}

// Args builds the cargo command line for manifestPath.
func Args(manifestPath string, opts domain.ResolveOptions) []string {
	args := []string{"metadata", "--format-version", strconv.Itoa(domain.MetadataFormatVersion)}

	if opts.NoDeps {
		args = append(args, "--no-deps")
	}
	if opts.FilterPlatform != "" {
		args = append(args, "--filter-platform", opts.FilterPlatform)
	}
	if opts.AllFeatures {
		args = append(args, "--all-features")
	}
	if opts.NoDefaultFeatures {
		args = append(args, "--no-default-features")
	}
	if len(opts.Features) > 0 {
		args = append(args, "--features", strings.Join(opts.Features, ","))
	}
	if opts.Frozen {
		args = append(args, "--frozen")
	}
	if opts.Locked {
		args = append(args, "--locked")
	}
	if opts.Offline {
		args = append(args, "--offline")
	}

	return append(args, "--manifest-path", manifestPath)
}

// jsonLine returns the first stdout line that starts a JSON object.
// Build scripts and wrappers may print other lines before it.
func jsonLine(stdout []byte) []byte {
	for line := range bytes.Lines(stdout) {
		trimmed := bytes.TrimSpace(line)
		if bytes.HasPrefix(trimmed, []byte("{")) {
			return trimmed
		}
	}
	return nil
}
