//go:build !windows

package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func isolateInstanceLock(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
}

func TestSecondInstanceSeesLock(t *testing.T) {
	isolateInstanceLock(t)

	lock, lockedByOther, err := acquireInstanceLock()
	require.NoError(t, err)
	require.False(t, lockedByOther)
	defer func() {
		_ = lock.Release()
	}()

	second, lockedByOther, err := acquireInstanceLock()
	require.NoError(t, err)
	require.True(t, lockedByOther)
	require.Nil(t, second)
}

func TestReleasedLockPassesToRelaunchedBuild(t *testing.T) {
	isolateInstanceLock(t)

	running, lockedByOther, err := acquireInstanceLock()
	require.NoError(t, err)
	require.False(t, lockedByOther)

	// The updater calls this right before it starts the new build.
	releaseLock := running.Release
	require.NoError(t, releaseLock())

	relaunched, lockedByOther, err := acquireInstanceLock()
	require.NoError(t, err)
	require.False(t, lockedByOther, "relaunched build found the lock still held")
	require.NoError(t, relaunched.Release())

	// The old process releases again on its way out.
	require.NoError(t, running.Release())
}
