package friend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gs-cluster/chat"
	"github.com/gs-cluster/database"
	"github.com/gs-cluster/server"
	"github.com/gs-cluster/subscriber"
	"github.com/gs-cluster/wire"
)

type fixture struct {
	router   *Router
	store    *database.MemFriendStore
	letters  *database.MemLetterStore
	registry *subscriber.Registry
	broker   *chat.Broker
}

func newFixture(t *testing.T) *fixture {
	broker := chat.NewBroker(chat.Config{Host: "chat:9300"})
	t.Cleanup(broker.Close)
	f := &fixture{
		store:    database.NewMemFriendStore(),
		letters:  database.NewMemLetterStore(),
		registry: subscriber.NewRegistry(),
		broker:   broker,
	}
	f.router = NewRouter(Config{
		Store:    f.store,
		Letters:  f.letters,
		Registry: f.registry,
		Broker:   f.broker,
	})
	return f
}

func (f *fixture) shard(id uint32) *subscriber.Recorder {
	rec := subscriber.NewRecorder(id)
	f.registry.Register(rec)
	return rec
}

func TestFriendRequestIsIdempotent(t *testing.T) {
	f := newFixture(t)

	assert.True(t, f.router.FriendRequest(1, "aria", 2, "borin"))
	assert.False(t, f.router.FriendRequest(1, "aria", 2, "borin"))
	// reverse direction does not duplicate either
	assert.False(t, f.router.FriendRequest(2, "borin", 1, "aria"))

	items, _ := f.store.Friends(1)
	assert.Len(t, items, 1)
}

func TestFriendRequestPromptsOnlineTarget(t *testing.T) {
	f := newFixture(t)
	shard3 := f.shard(3)
	f.router.PlayerEnteredGame(3, 2, "borin")

	f.router.FriendRequest(1, "aria", 2, "borin")

	require.Len(t, shard3.Requests, 1)
	assert.Equal(t, "aria", shard3.Requests[0].FromName)
	assert.Equal(t, "borin", shard3.Requests[0].ToName)
}

func TestFriendResponseAcceptNotifiesBothShards(t *testing.T) {
	f := newFixture(t)
	shard1 := f.shard(1)
	shard2 := f.shard(2)
	f.router.PlayerEnteredGame(1, 10, "aria")
	f.router.PlayerEnteredGame(2, 20, "borin")

	f.router.FriendRequest(10, "aria", 20, "borin")
	f.router.FriendResponse(20, "borin", 10, "aria", true)

	// requester's shard learns the responder's state and vice versa
	var toAria, toBorin *wire.MsgFriendState
	for _, st := range shard1.States {
		if st.ToName == "aria" && st.CharName == "borin" {
			toAria = st
		}
	}
	for _, st := range shard2.States {
		if st.ToName == "borin" && st.CharName == "aria" {
			toBorin = st
		}
	}
	require.NotNil(t, toAria)
	require.NotNil(t, toBorin)
	assert.Equal(t, uint32(2), toAria.ServerID)
	assert.Equal(t, uint32(1), toBorin.ServerID)

	// duplicate response is ignored
	before := len(shard1.States)
	f.router.FriendResponse(20, "borin", 10, "aria", true)
	assert.Equal(t, before, len(shard1.States))
}

func TestFriendResponseDecline(t *testing.T) {
	f := newFixture(t)

	f.router.FriendRequest(10, "aria", 20, "borin")
	f.router.FriendResponse(20, "borin", 10, "aria", false)

	// request gone, a fresh one can be created
	assert.True(t, f.router.FriendRequest(10, "aria", 20, "borin"))
}

func TestPresencePropagationTargetsOneShard(t *testing.T) {
	f := newFixture(t)
	shard3 := f.shard(3)
	shard4 := f.shard(4)

	// aria and borin are mutual friends, aria online on shard 3
	f.router.FriendRequest(10, "aria", 20, "borin")
	f.router.FriendResponse(20, "borin", 10, "aria", true)
	f.router.PlayerEnteredGame(3, 10, "aria")
	shard3.States = nil
	shard4.States = nil

	f.router.PlayerEnteredGame(4, 20, "borin")

	// exactly one notification, to shard 3 only
	require.Equal(t, 1, shard3.StateCount())
	assert.Equal(t, "borin", shard3.States[0].CharName)
	assert.Equal(t, uint32(4), shard3.States[0].ServerID)
	assert.Equal(t, "aria", shard3.States[0].ToName)
	assert.Zero(t, shard4.StateCount())
}

func TestPlayerLeftGameSendsOfflineSentinel(t *testing.T) {
	f := newFixture(t)
	shard3 := f.shard(3)

	f.router.FriendRequest(10, "aria", 20, "borin")
	f.router.FriendResponse(20, "borin", 10, "aria", true)
	f.router.PlayerEnteredGame(3, 10, "aria")
	f.router.PlayerEnteredGame(4, 20, "borin")
	shard3.States = nil

	f.router.PlayerLeftGame(20, "borin")

	require.Equal(t, 1, shard3.StateCount())
	assert.Equal(t, server.IDOffline, shard3.States[0].ServerID)
}

func TestSetVisibilitySendsInvisibleSentinel(t *testing.T) {
	f := newFixture(t)
	shard3 := f.shard(3)

	f.router.FriendRequest(10, "aria", 20, "borin")
	f.router.FriendResponse(20, "borin", 10, "aria", true)
	f.router.PlayerEnteredGame(3, 10, "aria")
	f.router.PlayerEnteredGame(4, 20, "borin")
	shard3.States = nil

	f.router.SetVisibility(4, 20, "borin", false)

	require.Equal(t, 1, shard3.StateCount())
	assert.Equal(t, server.IDInvisible, shard3.States[0].ServerID)
}

func TestMessengerInitPayload(t *testing.T) {
	f := newFixture(t)
	shard4 := f.shard(4)

	f.router.FriendRequest(10, "aria", 20, "borin")
	f.router.FriendResponse(20, "borin", 10, "aria", true)
	f.router.PlayerEnteredGame(3, 10, "aria")
	// caden has an open request aimed at borin
	f.router.FriendRequest(30, "caden", 20, "borin")

	f.router.PlayerEnteredGame(4, 20, "borin")

	require.Len(t, shard4.Inits, 1)
	init := shard4.Inits[0]
	assert.Equal(t, "borin", init.CharName)
	require.Len(t, init.Friends, 1)
	assert.Equal(t, "aria", init.Friends[0].Name)
	assert.Equal(t, uint32(3), init.Friends[0].ServerID)
	assert.Equal(t, []string{"caden"}, init.Requests)
}

func TestCreateChatRoomPushesFriendAuth(t *testing.T) {
	f := newFixture(t)
	shard4 := f.shard(4)
	f.router.PlayerEnteredGame(4, 20, "borin")

	own := f.router.CreateChatRoom(10, "aria", "borin")
	require.NotNil(t, own)
	assert.Equal(t, "aria", own.ClientName)

	require.Len(t, shard4.Rooms, 1)
	friendAuth := shard4.Rooms[0]
	assert.Equal(t, own.RoomID, friendAuth.RoomID)
	assert.Equal(t, "borin", friendAuth.ClientName)
	assert.NotEqual(t, own.Token, friendAuth.Token)

	state, ok := f.broker.State(own.RoomID)
	require.True(t, ok)
	assert.Equal(t, chat.RoomActive, state)
}

func TestInviteToChatRoom(t *testing.T) {
	f := newFixture(t)
	f.shard(4)
	f.shard(5)
	f.router.PlayerEnteredGame(4, 20, "borin")

	own := f.router.CreateChatRoom(10, "aria", "borin")
	require.NotNil(t, own)

	// caden is offline
	assert.False(t, f.router.InviteToChatRoom("caden", own.RoomID))

	f.router.PlayerEnteredGame(5, 30, "caden")
	assert.True(t, f.router.InviteToChatRoom("caden", own.RoomID))

	// room gone
	f.broker.CloseRoom(own.RoomID)
	assert.False(t, f.router.InviteToChatRoom("caden", own.RoomID))
}

func TestForwardLetterOnlineAndOffline(t *testing.T) {
	f := newFixture(t)
	shard4 := f.shard(4)
	f.router.PlayerEnteredGame(4, 20, "borin")

	f.router.ForwardLetter(&wire.MsgLetter{Sender: "aria", Receiver: "borin", Title: "hi"})
	require.Len(t, shard4.Letters, 1)

	// offline receiver: queued, then delivered on next enter
	f.router.ForwardLetter(&wire.MsgLetter{Sender: "aria", Receiver: "caden", Title: "later"})
	queued, _ := f.letters.UnreadOf("caden")
	require.Len(t, queued, 1)

	shard5 := f.shard(5)
	f.router.PlayerEnteredGame(5, 30, "caden")
	require.Len(t, shard5.Letters, 1)
	assert.Equal(t, "later", shard5.Letters[0].Title)
	queued, _ = f.letters.UnreadOf("caden")
	assert.Empty(t, queued)
}

func TestDeleteFriend(t *testing.T) {
	f := newFixture(t)
	f.shard(3)
	f.router.FriendRequest(10, "aria", 20, "borin")
	f.router.FriendResponse(20, "borin", 10, "aria", true)
	f.router.PlayerEnteredGame(3, 10, "aria")

	f.router.DeleteFriend("aria", "borin")

	items, _ := f.store.Friends(10)
	assert.Empty(t, items)
	items, _ = f.store.Friends(20)
	assert.Empty(t, items)
}
