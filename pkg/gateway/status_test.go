package gateway

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPIDFile(t *testing.T) *PIDFile {
	t.Helper()
	return NewPIDFile(filepath.Join(t.TempDir(), "hermes", "gateway.pid"))
}

func TestWriteRecordsCurrentProcess(t *testing.T) {
	pf := newTestPIDFile(t)
	require.NoError(t, pf.Write())

	data, err := os.ReadFile(pf.Path())
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), string(data))

	pid, err := pf.ReadPID()
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)
}

func TestWriteOverwrites(t *testing.T) {
	pf := newTestPIDFile(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(pf.Path()), 0o755))
	require.NoError(t, os.WriteFile(pf.Path(), []byte("99999999"), 0o644))

	require.NoError(t, pf.Write())
	pid, err := pf.ReadPID()
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)
}

func TestRemoveIsIdempotent(t *testing.T) {
	pf := newTestPIDFile(t)
	require.NoError(t, pf.Write())

	pf.Remove()
	pf.Remove()

	_, err := os.Stat(pf.Path())
	assert.True(t, os.IsNotExist(err))
}

func TestIsGatewayRunning(t *testing.T) {
	t.Run("no record", func(t *testing.T) {
		assert.False(t, newTestPIDFile(t).IsGatewayRunning())
	})

	t.Run("own process", func(t *testing.T) {
		pf := newTestPIDFile(t)
		require.NoError(t, pf.Write())
		assert.True(t, pf.IsGatewayRunning())
		assert.FileExists(t, pf.Path(), "a live record is kept")
	})

	for _, content := range []string{"4194999", "4294967296", "4294967295", "2147483648", "not-a-pid", "", "0", "-5", "12abc"} {
		t.Run("stale "+content, func(t *testing.T) {
			pf := newTestPIDFile(t)
			require.NoError(t, os.MkdirAll(filepath.Dir(pf.Path()), 0o755))
			require.NoError(t, os.WriteFile(pf.Path(), []byte(content), 0o644))

			assert.False(t, pf.IsGatewayRunning())
			assert.NoFileExists(t, pf.Path(), "stale record is deleted")
		})
	}

	t.Run("whitespace around pid", func(t *testing.T) {
		pf := newTestPIDFile(t)
		require.NoError(t, os.MkdirAll(filepath.Dir(pf.Path()), 0o755))
		require.NoError(t, os.WriteFile(pf.Path(), []byte(" "+strconv.Itoa(os.Getpid())+"\n"), 0o644))
		assert.True(t, pf.IsGatewayRunning())
	})
}

func TestReadPIDRejectsNonPositive(t *testing.T) {
	pf := newTestPIDFile(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(pf.Path()), 0o755))

	for _, content := range []string{"0", "-1", "4294967296", "4294967295"} {
		require.NoError(t, os.WriteFile(pf.Path(), []byte(content), 0o644))
		_, err := pf.ReadPID()
		assert.Error(t, err, content)
	}
}

func TestDefaultPIDPathFollowsHermesHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HERMES_HOME", home)
	assert.Equal(t, filepath.Join(home, "gateway.pid"), DefaultPIDPath())
}
