// Package subscriber is the inbound contract of a game shard: the
// calls a directory service can push into the shard that currently
// hosts an affected player. Directories depend only on the Subscriber
// interface; the websocket transport lives in Remote.
package subscriber

import (
	"github.com/gs-cluster/wire"
)

// Subscriber is implemented once per transport. Every call except
// DisconnectAccount is fire-and-forget: delivery failure is logged and
// dropped, never surfaced to the operation that caused the push.
type Subscriber interface {
	// ServerID the shard this subscriber belongs to
	ServerID() uint32

	// DeliverLetter a letter header for an online receiver
	DeliverLetter(letter *wire.MsgLetter)
	// FriendRequest prompt an online player with a new request
	FriendRequest(req *wire.MsgFriendRequest)
	// FriendOnlineState a friend's presence changed
	FriendOnlineState(state *wire.MsgFriendState)
	// ChatRoomCreated chat room auth info for one participant
	ChatRoomCreated(info *wire.MsgChatRoomCreated)
	// InitializeMessenger the full social payload on entering game
	InitializeMessenger(init *wire.MsgMessengerInit)
	// GuildMessage guild chat relay
	GuildMessage(msg *wire.MsgGuildMessage)
	// GuildNotice guild deleted / member kicked
	GuildNotice(notice *wire.MsgGuildNotice)
	// Broadcast global broadcast text
	Broadcast(text string)

	// DisconnectAccount orders the shard to drop an account's session.
	// Returns false when the order could not even be queued, which
	// fails a pending cross-shard login eviction.
	DisconnectAccount(account string, reason uint8) bool
}
