package login

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gs-cluster/database"
	"github.com/gs-cluster/subscriber"
	"github.com/gs-cluster/wire"
)

func newTestDirectory() (*Directory, *database.MemAccountStore, *subscriber.Registry) {
	accounts := database.NewMemAccountStore()
	registry := subscriber.NewRegistry()
	dir := NewDirectory(&StorePolicy{Accounts: accounts}, registry)
	return dir, accounts, registry
}

func TestTryLoginSingleSession(t *testing.T) {
	dir, _, _ := newTestDirectory()

	assert.True(t, dir.TryLogin("hero", 1))
	id, ok := dir.ServerOf("hero")
	assert.True(t, ok)
	assert.Equal(t, uint32(1), id)

	// same server again is idempotent
	assert.True(t, dir.TryLogin("hero", 1))
	assert.Len(t, dir.Snapshot(), 1)
}

func TestTryLoginEvictsPriorSession(t *testing.T) {
	dir, _, registry := newTestDirectory()
	shard1 := subscriber.NewRecorder(1)
	registry.Register(shard1)

	assert.True(t, dir.TryLogin("hero", 1))
	assert.True(t, dir.TryLogin("hero", 2))

	assert.Equal(t, []string{"hero"}, shard1.Kills)
	id, _ := dir.ServerOf("hero")
	assert.Equal(t, uint32(2), id)
	assert.Len(t, dir.Snapshot(), 1)
}

func TestTryLoginEvictionFailure(t *testing.T) {
	dir, _, registry := newTestDirectory()
	shard1 := subscriber.NewRecorder(1)
	shard1.Reachable = false
	registry.Register(shard1)

	assert.True(t, dir.TryLogin("hero", 1))
	assert.False(t, dir.TryLogin("hero", 2))

	// mapping untouched
	id, _ := dir.ServerOf("hero")
	assert.Equal(t, uint32(1), id)
}

func TestTryLoginStaleShardOverwritten(t *testing.T) {
	dir, _, _ := newTestDirectory()

	// shard 1 never registered a subscriber, its session is stale
	assert.True(t, dir.TryLogin("hero", 1))
	assert.True(t, dir.TryLogin("hero", 2))
	id, _ := dir.ServerOf("hero")
	assert.Equal(t, uint32(2), id)
}

func TestTryLoginBanned(t *testing.T) {
	dir, accounts, _ := newTestDirectory()
	accounts.Ban("hero")

	assert.False(t, dir.TryLogin("hero", 1))
	_, ok := dir.ServerOf("hero")
	assert.False(t, ok)
}

func TestLogOffMismatchedServerIsNoop(t *testing.T) {
	dir, _, _ := newTestDirectory()

	dir.TryLogin("hero", 2)
	dir.LogOff("hero", 1) // stale logoff from shard 1
	id, ok := dir.ServerOf("hero")
	assert.True(t, ok)
	assert.Equal(t, uint32(2), id)

	dir.LogOff("hero", 2)
	_, ok = dir.ServerOf("hero")
	assert.False(t, ok)

	// repeated logoff stays a no-op
	dir.LogOff("hero", 2)
}

func TestKickDisconnectsAccount(t *testing.T) {
	dir, _, registry := newTestDirectory()
	shard1 := subscriber.NewRecorder(1)
	registry.Register(shard1)

	// offline account cannot be kicked
	assert.False(t, dir.Kick("hero"))

	dir.TryLogin("hero", 1)
	assert.True(t, dir.Kick("hero"))
	assert.Equal(t, []string{"hero"}, shard1.Kills)
	assert.Equal(t, []uint8{wire.KillReasonAdmin}, shard1.KillReasons)
	_, ok := dir.ServerOf("hero")
	assert.False(t, ok)
}

func TestKickRefusedKeepsMapping(t *testing.T) {
	dir, _, registry := newTestDirectory()
	shard1 := subscriber.NewRecorder(1)
	shard1.Reachable = false
	registry.Register(shard1)

	dir.TryLogin("hero", 1)
	assert.False(t, dir.Kick("hero"))
	id, ok := dir.ServerOf("hero")
	assert.True(t, ok)
	assert.Equal(t, uint32(1), id)
}

func TestAtMostOneMappingUnderConcurrency(t *testing.T) {
	dir, _, _ := newTestDirectory()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(serverID uint32) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				dir.TryLogin("hero", serverID)
			}
		}(uint32(i + 1))
	}
	wg.Wait()

	snap := dir.Snapshot()
	assert.Len(t, snap, 1)
	_, ok := snap["hero"]
	assert.True(t, ok)
}
