package testutils

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/simevents/pkg/adapters/memory"
	"github.com/aretw0/simevents/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// SetupRedis starts an in-process Redis server and returns a client connected to it.
// Both are closed when the test ends. It fails the test immediately on error.
func SetupRedis(t *testing.T) (*backend.Client, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })

	return client, mr
}

// BlockParams returns valid engine parameters for the given connection name.
func BlockParams(connection string) memory.Params {
	return memory.Params{
		domain.ParamConfigurationIndex: 0,
		domain.ParamConnectionName:     connection,
	}
}
