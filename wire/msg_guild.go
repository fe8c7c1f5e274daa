package wire

import "io"

// Guild notice kinds.
const (
	// GuildNoticeDeleted the guild was disbanded
	GuildNoticeDeleted = uint8(1)
	// GuildNoticeKicked a member was kicked
	GuildNoticeKicked = uint8(2)
)

// MsgGuildMessage relays a guild chat line to a member's shard.
type MsgGuildMessage struct {
	GuildID  uint32
	FromName string
	Text     string
}

// Decode Decode
func (m *MsgGuildMessage) Decode(r io.Reader) error {
	var err error
	if m.GuildID, err = ReadUint32(r); err != nil {
		return err
	}
	if m.FromName, err = ReadString(r); err != nil {
		return err
	}
	if m.Text, err = ReadString(r); err != nil {
		return err
	}
	return nil
}

// Encode Encode
func (m *MsgGuildMessage) Encode(w io.Writer) error {
	if err := WriteUint32(w, m.GuildID); err != nil {
		return err
	}
	if err := WriteString(w, m.FromName); err != nil {
		return err
	}
	return WriteString(w, m.Text)
}

// MsgGuildNotice tells a shard to clear guild UI state: the guild was
// deleted, or one of its players was kicked.
type MsgGuildNotice struct {
	GuildID  uint32
	Notice   uint8
	CharName string
}

// Decode Decode
func (m *MsgGuildNotice) Decode(r io.Reader) error {
	var err error
	if m.GuildID, err = ReadUint32(r); err != nil {
		return err
	}
	if m.Notice, err = ReadUint8(r); err != nil {
		return err
	}
	if m.CharName, err = ReadString(r); err != nil {
		return err
	}
	return nil
}

// Encode Encode
func (m *MsgGuildNotice) Encode(w io.Writer) error {
	if err := WriteUint32(w, m.GuildID); err != nil {
		return err
	}
	if err := WriteUint8(w, m.Notice); err != nil {
		return err
	}
	return WriteString(w, m.CharName)
}
