package domain

import "go.trai.ch/zerr"

var (
	// ErrNoRootPackage is returned when a query needs the root package but the snapshot has none.
	ErrNoRootPackage = zerr.New("no root package found")

	// ErrUnsupportedFormatVersion is returned when cargo emits a metadata format other than version 1.
	ErrUnsupportedFormatVersion = zerr.New("unsupported cargo metadata format version")

	// ErrCargoFailed is returned when `cargo metadata` exits with a non-zero status.
	ErrCargoFailed = zerr.New("`cargo metadata` exited with an error")

	// ErrCargoNoJSON is returned when `cargo metadata` succeeds but prints no JSON document.
	ErrCargoNoJSON = zerr.New("`cargo metadata` did not produce a JSON document")

	// ErrManifestPathRequired is returned when a query is issued without a manifest path.
	ErrManifestPathRequired = zerr.New("manifest_path is required")

	// ErrUnknownOperation is returned when a query names an operation that does not exist.
	ErrUnknownOperation = zerr.New("unknown operation")

	// ErrInvalidCachePolicy is returned when the cache policy is neither sticky nor keyed.
	ErrInvalidCachePolicy = zerr.New("invalid cache policy, expected 'sticky' or 'keyed'")

	// ErrInvalidLogLevel is returned when the configured log level is not recognised.
	ErrInvalidLogLevel = zerr.New("invalid log level, expected 'debug', 'info', 'warn' or 'error'")

	// ErrInvalidLogFormat is returned when the configured log format is not recognised.
	ErrInvalidLogFormat = zerr.New("invalid log format, expected 'pretty' or 'json'")

	// ErrInvalidTimeout is returned when the cargo timeout is negative or cannot be parsed.
	ErrInvalidTimeout = zerr.New("invalid cargo timeout")

	// ErrConflictingFeatureFlags is returned when explicit features are combined with all_features.
	ErrConflictingFeatureFlags = zerr.New("cargo.features cannot be combined with cargo.all_features")

	// ErrConfigNotFound is returned when an explicitly requested config file does not exist.
	ErrConfigNotFound = zerr.New("config file not found")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrUnsupportedConfigFormat is returned when the config file extension is neither YAML nor TOML.
	ErrUnsupportedConfigFormat = zerr.New("unsupported config file format, expected .yaml, .yml or .toml")

	// ErrFingerprintFailed is returned when a manifest cannot be fingerprinted for the keyed cache.
	ErrFingerprintFailed = zerr.New("failed to fingerprint manifest")
)
