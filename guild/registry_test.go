package guild

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gs-cluster/database"
	"github.com/gs-cluster/subscriber"
	"github.com/gs-cluster/wire"
)

type fixture struct {
	reg      *Registry
	store    *database.MemGuildStore
	registry *subscriber.Registry
}

func newFixture() *fixture {
	f := &fixture{
		store:    database.NewMemGuildStore(),
		registry: subscriber.NewRegistry(),
	}
	f.reg = NewRegistry(Config{Store: f.store, Registry: f.registry})
	return f
}

func (f *fixture) shard(id uint32) *subscriber.Recorder {
	rec := subscriber.NewRecorder(id)
	f.registry.Register(rec)
	return rec
}

func TestCreateGuildUniqueName(t *testing.T) {
	f := newFixture()

	require.True(t, f.reg.CreateGuild("Ravens", "aria", 10, nil, 1))
	assert.False(t, f.reg.CreateGuild("Ravens", "borin", 20, nil, 1))
	// name identity is case-insensitive
	assert.False(t, f.reg.CreateGuild("ravens", "borin", 20, nil, 1))
	assert.True(t, f.reg.GuildExists("RAVENS"))

	// founder is the online GuildMaster
	id, ok := f.reg.GetGuildIDByName("Ravens")
	require.True(t, ok)
	roster := f.reg.GetGuildList(id)
	require.Len(t, roster, 1)
	assert.Equal(t, "aria", roster[0].CharName)
	assert.Equal(t, PositionGuildMaster, roster[0].Position)
	assert.Equal(t, uint32(1), roster[0].ServerID)
}

func TestCreateGuildRejectsBadName(t *testing.T) {
	f := newFixture()

	assert.False(t, f.reg.CreateGuild("x", "aria", 10, nil, 1))
	assert.False(t, f.reg.CreateGuild(" padded", "aria", 10, nil, 1))
	assert.False(t, f.reg.CreateGuild("an unreasonably long guild name", "aria", 10, nil, 1))
}

func TestJoinCannotSeizeMastership(t *testing.T) {
	f := newFixture()
	f.reg.CreateGuild("Ravens", "aria", 10, nil, 1)
	id, _ := f.reg.GetGuildIDByName("Ravens")

	require.True(t, f.reg.CreateGuildMember(id, 20, "borin", PositionGuildMaster, 2))

	masters := 0
	for _, e := range f.reg.GetGuildList(id) {
		if e.Position == PositionGuildMaster {
			masters++
			assert.Equal(t, "aria", e.CharName)
		}
	}
	assert.Equal(t, 1, masters)
}

func TestChangePositionSwapsMasterAtomically(t *testing.T) {
	f := newFixture()
	f.reg.CreateGuild("Ravens", "aria", 10, nil, 1)
	id, _ := f.reg.GetGuildIDByName("Ravens")
	f.reg.CreateGuildMember(id, 20, "borin", PositionNormal, 2)

	// demoting the sole master directly is refused
	assert.False(t, f.reg.ChangeGuildMemberPosition(id, 10, PositionNormal))

	require.True(t, f.reg.ChangeGuildMemberPosition(id, 20, PositionGuildMaster))
	positions := map[string]Position{}
	for _, e := range f.reg.GetGuildList(id) {
		positions[e.CharName] = e.Position
	}
	assert.Equal(t, PositionGuildMaster, positions["borin"])
	assert.Equal(t, PositionNormal, positions["aria"])
}

func TestKickMember(t *testing.T) {
	f := newFixture()
	shard2 := f.shard(2)
	f.reg.CreateGuild("Ravens", "aria", 10, nil, 1)
	id, _ := f.reg.GetGuildIDByName("Ravens")
	f.reg.CreateGuildMember(id, 20, "borin", PositionNormal, 2)

	// the master cannot be kicked
	assert.False(t, f.reg.KickMember(id, "aria"))

	require.True(t, f.reg.KickMember(id, "borin"))
	assert.Len(t, f.reg.GetGuildList(id), 1)
	require.Len(t, shard2.Notices, 1)
	assert.Equal(t, wire.GuildNoticeKicked, shard2.Notices[0].Notice)
	assert.Equal(t, "borin", shard2.Notices[0].CharName)
}

func TestRosterListsOnlineMembersOnly(t *testing.T) {
	f := newFixture()
	f.reg.CreateGuild("Ravens", "aria", 10, nil, 1)
	id, _ := f.reg.GetGuildIDByName("Ravens")
	f.reg.CreateGuildMember(id, 20, "borin", PositionNormal, 2)

	f.reg.GuildMemberLeftGame(id, 20)
	roster := f.reg.GetGuildList(id)
	require.Len(t, roster, 1)
	assert.Equal(t, "aria", roster[0].CharName)

	f.reg.PlayerEnteredGame(id, 20, 5)
	roster = f.reg.GetGuildList(id)
	assert.Len(t, roster, 2)
}

func TestGuildMessageOnePushPerShard(t *testing.T) {
	f := newFixture()
	shard1 := f.shard(1)
	shard2 := f.shard(2)
	f.reg.CreateGuild("Ravens", "aria", 10, nil, 1)
	id, _ := f.reg.GetGuildIDByName("Ravens")
	// two members on shard 2, one on shard 1
	f.reg.CreateGuildMember(id, 20, "borin", PositionNormal, 2)
	f.reg.CreateGuildMember(id, 30, "caden", PositionNormal, 2)

	f.reg.SendGuildMessage(id, "aria", "rally up")

	assert.Len(t, shard1.GuildMessages, 1)
	require.Len(t, shard2.GuildMessages, 1)
	assert.Equal(t, "rally up", shard2.GuildMessages[0].Text)
}

func TestAllianceMembership(t *testing.T) {
	f := newFixture()
	f.reg.CreateGuild("Alpha", "aria", 10, nil, 1)
	f.reg.CreateGuild("Beta", "borin", 20, nil, 1)
	f.reg.CreateGuild("Gamma", "caden", 30, nil, 1)
	alpha, _ := f.reg.GetGuildIDByName("Alpha")
	beta, _ := f.reg.GetGuildIDByName("Beta")
	gamma, _ := f.reg.GetGuildIDByName("Gamma")

	// outside any alliance a guild is its own singleton set
	assert.Equal(t, []uint32{alpha}, f.reg.GetAllianceMemberGuildIDs(alpha))

	require.True(t, f.reg.CreateAlliance(alpha, beta))
	assert.ElementsMatch(t, []uint32{alpha, beta}, f.reg.GetAllianceMemberGuildIDs(alpha))
	master, ok := f.reg.AllianceMasterOf(beta)
	require.True(t, ok)
	assert.Equal(t, alpha, master)

	require.True(t, f.reg.CreateAlliance(alpha, gamma))
	assert.ElementsMatch(t, []uint32{alpha, beta, gamma}, f.reg.GetAllianceMemberGuildIDs(beta))

	require.True(t, f.reg.RemoveFromAlliance(beta))
	assert.ElementsMatch(t, []uint32{alpha, gamma}, f.reg.GetAllianceMemberGuildIDs(alpha))
	assert.Equal(t, []uint32{beta}, f.reg.GetAllianceMemberGuildIDs(beta))
	// detaching twice fails
	assert.False(t, f.reg.RemoveFromAlliance(beta))
}

func TestAllianceMasterHandoff(t *testing.T) {
	f := newFixture()
	f.reg.CreateGuild("Alpha", "aria", 10, nil, 1)
	f.reg.CreateGuild("Beta", "borin", 20, nil, 1)
	alpha, _ := f.reg.GetGuildIDByName("Alpha")
	beta, _ := f.reg.GetGuildIDByName("Beta")
	f.reg.CreateAlliance(alpha, beta)

	// the leading guild leaves, leadership moves on
	require.True(t, f.reg.RemoveFromAlliance(alpha))
	master, ok := f.reg.AllianceMasterOf(beta)
	require.True(t, ok)
	assert.Equal(t, beta, master)

	// the last guild leaves, the alliance dissolves
	require.True(t, f.reg.RemoveFromAlliance(beta))
	_, ok = f.reg.AllianceMasterOf(beta)
	assert.False(t, ok)
}

func TestAllianceHandoffDoesNotLeakGoroutines(t *testing.T) {
	f := newFixture()
	f.reg.CreateGuild("Alpha", "aria", 10, nil, 1)
	f.reg.CreateGuild("Beta", "borin", 20, nil, 1)
	f.reg.CreateGuild("Gamma", "caden", 30, nil, 1)
	alpha, _ := f.reg.GetGuildIDByName("Alpha")
	beta, _ := f.reg.GetGuildIDByName("Beta")
	gamma, _ := f.reg.GetGuildIDByName("Gamma")
	f.reg.CreateAlliance(alpha, beta)
	f.reg.CreateAlliance(alpha, gamma)
	ids := []uint32{alpha, beta, gamma}

	before := runtime.NumGoroutine()
	for i := 0; i < 50; i++ {
		// the leading guild leaves with two allies remaining, then
		// rejoins under the successor
		master, ok := f.reg.AllianceMasterOf(alpha)
		require.True(t, ok)
		require.True(t, f.reg.RemoveFromAlliance(master))

		var other uint32
		for _, id := range ids {
			if id != master {
				other = id
				break
			}
		}
		successor, ok := f.reg.AllianceMasterOf(other)
		require.True(t, ok)
		require.True(t, f.reg.CreateAlliance(successor, master))
	}

	time.Sleep(20 * time.Millisecond)
	after := runtime.NumGoroutine()
	assert.True(t, after <= before+2, "goroutines grew %d -> %d", before, after)
}

func TestJoiningNewAllianceLeavesOld(t *testing.T) {
	f := newFixture()
	f.reg.CreateGuild("Alpha", "aria", 10, nil, 1)
	f.reg.CreateGuild("Beta", "borin", 20, nil, 1)
	f.reg.CreateGuild("Gamma", "caden", 30, nil, 1)
	alpha, _ := f.reg.GetGuildIDByName("Alpha")
	beta, _ := f.reg.GetGuildIDByName("Beta")
	gamma, _ := f.reg.GetGuildIDByName("Gamma")

	f.reg.CreateAlliance(alpha, beta)
	f.reg.CreateAlliance(gamma, beta)

	assert.ElementsMatch(t, []uint32{gamma, beta}, f.reg.GetAllianceMemberGuildIDs(beta))
	assert.Equal(t, []uint32{alpha}, f.reg.GetAllianceMemberGuildIDs(alpha))
}

func TestHostility(t *testing.T) {
	f := newFixture()
	f.reg.CreateGuild("Alpha", "aria", 10, nil, 1)
	f.reg.CreateGuild("Beta", "borin", 20, nil, 1)
	alpha, _ := f.reg.GetGuildIDByName("Alpha")
	beta, _ := f.reg.GetGuildIDByName("Beta")

	require.True(t, f.reg.DeclareHostility(alpha, beta))
	// directed: only the declaring side holds the reference
	assert.Equal(t, beta, f.reg.HostileGuildOf(alpha))
	assert.Zero(t, f.reg.HostileGuildOf(beta))

	f.reg.RemoveHostility(alpha)
	assert.Zero(t, f.reg.HostileGuildOf(alpha))
	// removing again is a no-op
	f.reg.RemoveHostility(alpha)

	assert.False(t, f.reg.DeclareHostility(alpha, alpha))
}

func TestDeleteGuildNotifiesMembersAndAllies(t *testing.T) {
	f := newFixture()
	shard1 := f.shard(1)
	shard2 := f.shard(2)
	f.reg.CreateGuild("Alpha", "aria", 10, nil, 1)
	f.reg.CreateGuild("Beta", "borin", 20, nil, 2)
	alpha, _ := f.reg.GetGuildIDByName("Alpha")
	beta, _ := f.reg.GetGuildIDByName("Beta")
	f.reg.CreateAlliance(alpha, beta)
	f.reg.DeclareHostility(beta, alpha)

	require.True(t, f.reg.DeleteGuild(alpha))

	require.Len(t, shard1.Notices, 1)
	assert.Equal(t, wire.GuildNoticeDeleted, shard1.Notices[0].Notice)
	require.Len(t, shard2.Notices, 1)
	assert.Equal(t, alpha, shard2.Notices[0].GuildID)

	// back-references on the survivor are cleared
	assert.Zero(t, f.reg.HostileGuildOf(beta))
	assert.Equal(t, []uint32{beta}, f.reg.GetAllianceMemberGuildIDs(beta))
	assert.False(t, f.reg.GuildExists("Alpha"))

	rec, err := f.store.GetGuild("Alpha")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestRegistryReloadsFromStore(t *testing.T) {
	store := database.NewMemGuildStore()
	subs := subscriber.NewRegistry()
	first := NewRegistry(Config{Store: store, Registry: subs})

	first.CreateGuild("Alpha", "aria", 10, nil, 1)
	first.CreateGuild("Beta", "borin", 20, nil, 1)
	alpha, _ := first.GetGuildIDByName("Alpha")
	beta, _ := first.GetGuildIDByName("Beta")
	first.CreateAlliance(alpha, beta)
	first.DeclareHostility(alpha, beta)
	first.IncreaseGuildScore(alpha)

	// a fresh registry restores structure from persistence
	second := NewRegistry(Config{Store: store, Registry: subs})
	alpha2, ok := second.GetGuildIDByName("Alpha")
	require.True(t, ok)
	beta2, ok := second.GetGuildIDByName("Beta")
	require.True(t, ok)

	assert.ElementsMatch(t, []uint32{alpha2, beta2}, second.GetAllianceMemberGuildIDs(alpha2))
	master, ok := second.AllianceMasterOf(beta2)
	require.True(t, ok)
	assert.Equal(t, alpha2, master)
	assert.Equal(t, beta2, second.HostileGuildOf(alpha2))
	assert.Equal(t, 1, second.GuildScore(alpha2))

	// loaded members start offline
	assert.Empty(t, second.GetGuildList(alpha2))
	second.PlayerEnteredGame(alpha2, 10, 7)
	roster := second.GetGuildList(alpha2)
	require.Len(t, roster, 1)
	assert.Equal(t, PositionGuildMaster, roster[0].Position)
}
