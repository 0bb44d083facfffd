package testsupport

import (
	"testing"

	"phiextract/internal/catalog"
	"phiextract/internal/config"
)

// MustOpenCatalog opens the configured catalog for tests and registers
// cleanup.
func MustOpenCatalog(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(cfg.CatalogPath())
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
