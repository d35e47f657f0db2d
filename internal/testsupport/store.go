package testsupport

import (
	"testing"

	"tidy/internal/config"
	"tidy/internal/ledger"
)

// MustOpenLedger opens the config's ledger database for tests and registers
// cleanup.
func MustOpenLedger(t testing.TB, cfg *config.Config) *ledger.Store {
	t.Helper()

	store, err := ledger.Open(cfg)
	if err != nil {
		t.Fatalf("ledger.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
