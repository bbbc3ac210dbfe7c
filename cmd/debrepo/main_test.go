package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/grindlemire/graft"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/debrepo/internal/core/domain"
	"go.trai.ch/debrepo/internal/testutil"
)

func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	configPath := filepath.Join(dir, "debrepo.yaml")
	configContent := `codename: artipie
storage:
  type: fs
  path: ./repo
settings:
  Components: main
  Architectures: amd64 arm64
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0o600))
	return configPath
}

func TestRun(t *testing.T) {
	// Save original args
	originalArgs := os.Args
	defer func() {
		os.Args = originalArgs
	}()

	tests := []struct {
		name         string
		args         func(dir, config string) []string
		expectedExit int
	}{
		{
			name: "Upload with explicit config",
			args: func(dir, config string) []string {
				deb := filepath.Join(dir, "aglfn_1.7-3_all.deb")
				require.NoError(t, os.WriteFile(deb, testutil.BuildDeb(t, testutil.Control("aglfn", "1.7-3", "all")), 0o600))
				return []string{"debrepo", "-c", config, "upload", deb}
			},
			expectedExit: 0,
		},
		{
			name: "Release with default config",
			args: func(_, _ string) []string {
				return []string{"debrepo", "release"}
			},
			expectedExit: 0,
		},
		{
			name: "Missing config",
			args: func(dir, _ string) []string {
				return []string{"debrepo", "-c", filepath.Join(dir, "nope.yaml"), "release"}
			},
			expectedExit: 1,
		},
		{
			name: "Rejected upload",
			args: func(dir, config string) []string {
				bad := filepath.Join(dir, "bad.deb")
				require.NoError(t, os.WriteFile(bad, []byte("not a package"), 0o600))
				return []string{"debrepo", "--config", config, "upload", bad}
			},
			expectedExit: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			config := writeConfig(t, tmpDir)

			// Change to tmpDir for relative path resolution
			t.Chdir(tmpDir)

			os.Args = tt.args(tmpDir, config)
			graft.ResetDefaultCache()

			exitCode := run()
			assert.Equal(t, tt.expectedExit, exitCode)
		})
	}
}

func TestRun_UploadWritesRepository(t *testing.T) {
	originalArgs := os.Args
	defer func() {
		os.Args = originalArgs
	}()

	tmpDir := t.TempDir()
	config := writeConfig(t, tmpDir)
	deb := filepath.Join(tmpDir, "aglfn_1.7-3_amd64.deb")
	require.NoError(t, os.WriteFile(deb, testutil.BuildDeb(t, testutil.Control("aglfn", "1.7-3", "amd64")), 0o600))

	os.Args = []string{"debrepo", "-c", config, "upload", deb}
	graft.ResetDefaultCache()
	require.Equal(t, 0, run())

	root := filepath.Join(tmpDir, "repo")
	assert.FileExists(t, filepath.Join(root, "main", "aglfn_1.7-3_amd64.deb"))
	assert.FileExists(t, filepath.Join(root, filepath.FromSlash(domain.ReleasePath("artipie"))))
	assert.FileExists(t, filepath.Join(root, "dists", "artipie", "main", "binary-amd64", "Packages.gz"))
	assert.NoFileExists(t, filepath.Join(root, "dists", "artipie", "main", "binary-arm64", "Packages.gz"))
}
