package store_test

import (
	"testing"

	"github.com/goliatone/go-settings/pkg/store"
	"github.com/goliatone/go-settings/pkg/store/storetest"
)

func TestMemoryStoreContract(t *testing.T) {
	storetest.RunContract(t, func(t *testing.T) store.Store {
		return store.NewMemoryStore()
	})
}
