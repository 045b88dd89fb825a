package usecases

import "testing"

// SetSpawnDispatchForTest swaps spawnDispatch for the duration of t, running
// settlement dispatch synchronously so tests can assert on its effects.
func SetSpawnDispatchForTest(t *testing.T, fn func(func())) {
	t.Helper()
	orig := spawnDispatch
	spawnDispatch = fn
	t.Cleanup(func() { spawnDispatch = orig })
}
