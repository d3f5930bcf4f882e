package jobstore

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

const testJobs = `jobs:
  - name: team/nightly
    description: Nightly build
    recipients: dev@example.com, qa@example.com
  - name: team/release
    description: ""
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func openStore(t *testing.T, content string) (*Store, string) {
	t.Helper()
	path := writeFile(t, "jobs.yaml", content)
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func TestOpen(t *testing.T) {
	s, _ := openStore(t, testJobs)

	assert.Equal(t, []string{"team/nightly", "team/release"}, s.Names())

	r := s.Get("team/nightly")
	require.NotNil(t, r)
	assert.Equal(t, "team/nightly", r.FullName())
	desc, err := r.Description()
	require.NoError(t, err)
	assert.Equal(t, "Nightly build", desc)
	assert.Equal(t, "dev@example.com, qa@example.com", r.Recipients())

	assert.Empty(t, s.Get("team/release").Recipients())
	assert.Nil(t, s.Get("team/unknown"))
}

func TestOpenErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{name: "invalid yaml", content: "jobs: [", errMsg: "error unmarshaling YAML"},
		{name: "missing name", content: "jobs:\n  - description: x\n", errMsg: "entry 0 has no name"},
		{name: "duplicate", content: "jobs:\n  - name: a\n  - name: a\n", errMsg: `duplicate job "a"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "jobs.yaml", tt.content)
			_, err := Open(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)

			// a failed open releases the lock
			s, err := Open(writeFile(t, "ok.yaml", testJobs))
			require.NoError(t, err)
			require.NoError(t, s.Close())
		})
	}
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestOpenLocked(t *testing.T) {
	s, path := openStore(t, testJobs)

	_, err := Open(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "locked by another run")

	require.NoError(t, s.Close())
	again, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, again.Close())
}

func TestSetDescriptionPersists(t *testing.T) {
	s, path := openStore(t, testJobs)

	r := s.Get("team/nightly")
	require.NoError(t, r.SetDescription("Nightly build<br>Mon Oct 19 14:03:05 UTC 2026 - Deactivated: red\n"))

	desc, err := r.Description()
	require.NoError(t, err)
	assert.Equal(t, "Nightly build<br>Mon Oct 19 14:03:05 UTC 2026 - Deactivated: red\n", desc)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	var file storeFile
	require.NoError(t, yaml.Unmarshal(content, &file))
	require.Len(t, file.Jobs, 2)
	assert.Equal(t, "Nightly build<br>Mon Oct 19 14:03:05 UTC 2026 - Deactivated: red\n", file.Jobs[0].Description)
	assert.Equal(t, "dev@example.com, qa@example.com", file.Jobs[0].Recipients)
	assert.Equal(t, "team/release", file.Jobs[1].Name)

	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), fi.Mode().Perm())

	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(path), "jobs.yaml.*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestSetDescriptionWriteFailureKeepsPrevious(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("directory permissions are not enforced")
	}
	s, path := openStore(t, testJobs)
	dir := filepath.Dir(path)
	require.NoError(t, os.Chmod(dir, 0o500))
	t.Cleanup(func() { _ = os.Chmod(dir, 0o700) })

	r := s.Get("team/nightly")
	err := r.SetDescription("changed")
	require.Error(t, err)

	desc, err := r.Description()
	require.NoError(t, err)
	assert.Equal(t, "Nightly build", desc)
}

func TestClosedStore(t *testing.T) {
	s, _ := openStore(t, testJobs)
	r := s.Get("team/nightly")
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err := r.Description()
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, r.SetDescription("x"), ErrClosed)
}
