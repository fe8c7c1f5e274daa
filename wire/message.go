package wire

import (
	"fmt"
	"io"
)

// Notification commands pushed from a directory service into a shard.
const (
	// MsgTypeKill disconnect an account from its shard
	MsgTypeKill = uint8(1)
	// MsgTypeLetter deliver a letter header to the receiver's shard
	MsgTypeLetter = uint8(2)
	// MsgTypeFriendRequest a friend request arrived for an online player
	MsgTypeFriendRequest = uint8(3)
	// MsgTypeFriendState a friend changed online state
	MsgTypeFriendState = uint8(4)
	// MsgTypeChatRoomCreated a chat room is ready, carries auth info
	MsgTypeChatRoomCreated = uint8(5)
	// MsgTypeMessengerInit full friend list answered on entering game
	MsgTypeMessengerInit = uint8(6)
	// MsgTypeGuildMessage guild chat relay
	MsgTypeGuildMessage = uint8(7)
	// MsgTypeGuildNotice guild deleted / member kicked notice
	MsgTypeGuildNotice = uint8(8)
	// MsgTypeBroadcast global broadcast text
	MsgTypeBroadcast = uint8(9)
)

// Gateway query commands exchanged with game clients.
const (
	// MsgTypeQueryServers ask for the advertised shard list
	MsgTypeQueryServers = uint8(20)
	// MsgTypeQueryServersResp shard list response
	MsgTypeQueryServersResp = uint8(21)
	// MsgTypeQueryAddr ask for one shard's public endpoint
	MsgTypeQueryAddr = uint8(22)
	// MsgTypeQueryAddrResp shard endpoint response
	MsgTypeQueryAddrResp = uint8(23)
	// MsgTypeQueryIP informational ip query
	MsgTypeQueryIP = uint8(24)
	// MsgTypeQueryIPResp informational ip response
	MsgTypeQueryIPResp = uint8(25)
	// MsgTypeQueryPatch patch/ftp-style informational query
	MsgTypeQueryPatch = uint8(26)
	// MsgTypeQueryPatchResp patch response
	MsgTypeQueryPatchResp = uint8(27)
)

// Protocol defined message decode and encode function
type Protocol interface {
	Decode(io.Reader) error
	Encode(io.Writer) error
}

// Header is Message Header. Source and Dest are server ids; zero means
// the message is addressed to the process on the other end of the
// connection itself.
type Header struct {
	Source  uint32
	Dest    uint32
	Seq     uint32
	Command uint8
}

// Decode Decode reader to Header
func (h *Header) Decode(r io.Reader) error {
	var err error
	if h.Source, err = ReadUint32(r); err != nil {
		return err
	}
	if h.Dest, err = ReadUint32(r); err != nil {
		return err
	}
	if h.Seq, err = ReadUint32(r); err != nil {
		return err
	}
	if h.Command, err = ReadUint8(r); err != nil {
		return err
	}
	return nil
}

// Encode Encode Header to writer
func (h *Header) Encode(w io.Writer) error {
	var err error
	if err = WriteUint32(w, h.Source); err != nil {
		return err
	}
	if err = WriteUint32(w, h.Dest); err != nil {
		return err
	}
	if err = WriteUint32(w, h.Seq); err != nil {
		return err
	}
	return WriteUint8(w, h.Command)
}

// Message is a routed unit: header plus command body.
type Message struct {
	Header *Header
	Body   Protocol
}

// Decode Decode reader to Message
func (m *Message) Decode(r io.Reader) error {
	var err error
	m.Header = &Header{}
	if err = m.Header.Decode(r); err != nil {
		return err
	}
	m.Body, err = MakeEmptyBody(m.Header.Command)
	if err != nil {
		return err
	}
	return m.Body.Decode(r)
}

// Encode Encode Message to writer
func (m *Message) Encode(w io.Writer) error {
	if err := m.Header.Encode(w); err != nil {
		return err
	}
	return m.Body.Encode(w)
}

// MakeEmptyBody make an empty body for a command
func MakeEmptyBody(command uint8) (Protocol, error) {
	var body Protocol
	switch command {
	case MsgTypeKill:
		body = &MsgKill{}
	case MsgTypeLetter:
		body = &MsgLetter{}
	case MsgTypeFriendRequest:
		body = &MsgFriendRequest{}
	case MsgTypeFriendState:
		body = &MsgFriendState{}
	case MsgTypeChatRoomCreated:
		body = &MsgChatRoomCreated{}
	case MsgTypeMessengerInit:
		body = &MsgMessengerInit{}
	case MsgTypeGuildMessage:
		body = &MsgGuildMessage{}
	case MsgTypeGuildNotice:
		body = &MsgGuildNotice{}
	case MsgTypeBroadcast:
		body = &MsgBroadcast{}
	case MsgTypeQueryServers:
		body = &MsgEmpty{}
	case MsgTypeQueryServersResp:
		body = &MsgQueryServersResp{}
	case MsgTypeQueryAddr:
		body = &MsgQueryAddr{}
	case MsgTypeQueryAddrResp:
		body = &MsgQueryAddrResp{}
	case MsgTypeQueryIP:
		body = &MsgEmpty{}
	case MsgTypeQueryIPResp:
		body = &MsgText{}
	case MsgTypeQueryPatch:
		body = &MsgEmpty{}
	case MsgTypeQueryPatchResp:
		body = &MsgText{}
	default:
		return nil, fmt.Errorf("unhandled msgType[%d]", command)
	}
	return body, nil
}

// MakeMessage make a message with command and body, header otherwise empty
func MakeMessage(command uint8, body Protocol) *Message {
	return &Message{
		Header: &Header{Command: command},
		Body:   body,
	}
}
