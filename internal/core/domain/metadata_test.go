package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/cargo-metadata-mcp/internal/core/domain"
	"go.trai.ch/cargo-metadata-mcp/internal/testutil/cargofixture"
	"go.trai.ch/zerr"
)

func TestParseMetadata(t *testing.T) {
	m, err := domain.ParseMetadata(cargofixture.SingleJSON())
	require.NoError(t, err)

	assert.Equal(t, "/work/demo", m.WorkspaceRoot)
	assert.Equal(t, "/work/demo/target", m.TargetDirectory)
	require.Len(t, m.Packages, 3)
	assert.Equal(t, []domain.PackageID{cargofixture.DemoID}, m.WorkspaceMembers)

	demo := m.Packages[0]
	assert.Equal(t, "demo", demo.Name)
	require.NotNil(t, demo.Description)
	assert.Equal(t, "A demo crate", *demo.Description)
	require.Len(t, demo.Dependencies, 3)
	assert.Equal(t, "^1.38", demo.Dependencies[2].Req)
	assert.True(t, demo.Dependencies[2].Optional)
	require.Len(t, demo.Targets, 2)
	assert.Equal(t, []string{"async"}, demo.Targets[1].RequiredFeatures)
	assert.Equal(t, []string{"dep:tokio"}, demo.Features["async"])

	require.NotNil(t, m.Resolve)
	require.NotNil(t, m.Resolve.Root)
	assert.Equal(t, cargofixture.DemoID, *m.Resolve.Root)
}

func TestParseMetadata_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{
			name:    "malformed json",
			input:   `{"packages": [`,
			wantErr: "failed to parse cargo metadata output",
		},
		{
			name:    "unsupported version",
			input:   `{"packages": [], "workspace_members": [], "version": 2}`,
			wantErr: "unsupported cargo metadata format version",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := domain.ParseMetadata([]byte(tt.input))
			require.Error(t, err)
			assert.Nil(t, m)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseMetadata_UnsupportedVersionIsSentinel(t *testing.T) {
	_, err := domain.ParseMetadata([]byte(`{"packages": [], "workspace_members": [], "version": 2}`))
	require.ErrorIs(t, err, domain.ErrUnsupportedFormatVersion)

	var zErr *zerr.Error
	require.ErrorAs(t, err, &zErr)
	assert.Equal(t, 2, zErr.Metadata()["version"])
}

func TestMetadata_RawIsPreserved(t *testing.T) {
	m := cargofixture.Single(t)
	assert.JSONEq(t, string(cargofixture.SingleJSON()), string(m.Raw()))
}

func TestPackage_MarshalKeepsCargoFields(t *testing.T) {
	m := cargofixture.Single(t)

	out, err := json.Marshal(m.Packages[1])
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(out, &fields))

	// Fields outside the typed model survive a round trip.
	assert.Equal(t, "https://serde.rs", fields["homepage"])
	assert.Equal(t, "1.31", fields["rust_version"])
}

func TestTarget_MarshalWithoutRaw(t *testing.T) {
	target := &domain.Target{
		Name:       "lib",
		Kind:       []string{"lib"},
		CrateTypes: []string{"lib"},
		SrcPath:    "src/lib.rs",
		Edition:    "2021",
	}

	out, err := json.Marshal(target)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"name": "lib",
		"kind": ["lib"],
		"crate_types": ["lib"],
		"src_path": "src/lib.rs",
		"edition": "2021",
		"doctest": false,
		"test": false,
		"doc": false
	}`, string(out))
}
