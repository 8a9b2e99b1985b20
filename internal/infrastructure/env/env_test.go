package env

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_OverlayWins(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("HARNESS_TEST_A=base\nHARNESS_TEST_B=base\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.test"), []byte("HARNESS_TEST_B=overlay\n"), 0o600))
	t.Setenv("APP_ENV", "test")
	t.Setenv("HARNESS_TEST_A", "")
	t.Setenv("HARNESS_TEST_B", "")
	os.Unsetenv("HARNESS_TEST_A")
	os.Unsetenv("HARNESS_TEST_B")

	res, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "test", res.AppEnv)
	assert.Len(t, res.Loaded, 2)
	assert.Equal(t, "base", os.Getenv("HARNESS_TEST_A"))
	assert.Equal(t, "overlay", os.Getenv("HARNESS_TEST_B"))
}

func TestLoad_NoFiles(t *testing.T) {
	t.Setenv("APP_ENV", "")

	res, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "dev", res.AppEnv)
	assert.Empty(t, res.Loaded)
}
