package subscriber

import (
	"github.com/gs-cluster/peer"
	"github.com/gs-cluster/wire"
)

// Remote pushes subscriber calls over a shard's websocket peer. Each
// call encodes one wire message and queues it on the peer's send
// queue; a full queue or a dead peer drops the message.
type Remote struct {
	serverID uint32
	peer     *peer.Peer
}

// NewRemote NewRemote
func NewRemote(serverID uint32, p *peer.Peer) *Remote {
	return &Remote{serverID: serverID, peer: p}
}

// ServerID ServerID
func (s *Remote) ServerID() uint32 {
	return s.serverID
}

func (s *Remote) push(command uint8, body wire.Protocol) {
	msg := wire.MakeMessage(command, body)
	msg.Header.Dest = s.serverID
	s.peer.PushMessage(msg, nil)
}

// DeliverLetter DeliverLetter
func (s *Remote) DeliverLetter(letter *wire.MsgLetter) {
	s.push(wire.MsgTypeLetter, letter)
}

// FriendRequest FriendRequest
func (s *Remote) FriendRequest(req *wire.MsgFriendRequest) {
	s.push(wire.MsgTypeFriendRequest, req)
}

// FriendOnlineState FriendOnlineState
func (s *Remote) FriendOnlineState(state *wire.MsgFriendState) {
	s.push(wire.MsgTypeFriendState, state)
}

// ChatRoomCreated ChatRoomCreated
func (s *Remote) ChatRoomCreated(info *wire.MsgChatRoomCreated) {
	s.push(wire.MsgTypeChatRoomCreated, info)
}

// InitializeMessenger InitializeMessenger
func (s *Remote) InitializeMessenger(init *wire.MsgMessengerInit) {
	s.push(wire.MsgTypeMessengerInit, init)
}

// GuildMessage GuildMessage
func (s *Remote) GuildMessage(msg *wire.MsgGuildMessage) {
	s.push(wire.MsgTypeGuildMessage, msg)
}

// GuildNotice GuildNotice
func (s *Remote) GuildNotice(notice *wire.MsgGuildNotice) {
	s.push(wire.MsgTypeGuildNotice, notice)
}

// Broadcast Broadcast
func (s *Remote) Broadcast(text string) {
	s.push(wire.MsgTypeBroadcast, &wire.MsgBroadcast{Text: text})
}

// DisconnectAccount DisconnectAccount
func (s *Remote) DisconnectAccount(account string, reason uint8) bool {
	if !s.peer.IsConnected() {
		return false
	}
	s.push(wire.MsgTypeKill, &wire.MsgKill{Account: account, Reason: reason})
	return true
}
