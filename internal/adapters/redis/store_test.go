package redis_test

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/claude-collective/collective/internal/adapters/redis"
	"github.com/claude-collective/collective/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

func TestRedisStore_Contract(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	defer mr.Close()

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})

	store := redis.NewFromClient(client)
	ports.RunStoreContract(t, store)
}
