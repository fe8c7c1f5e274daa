package wire

import "io"

// MsgChatRoomCreated carries a player's own authentication info for a
// freshly created chat room. Token is single-use; after ExpireAt the
// chat server refuses it.
type MsgChatRoomCreated struct {
	RoomID     uint16
	Index      uint8
	ClientName string
	Token      uint32
	Host       string
	ExpireAt   int64
}

// Decode Decode
func (m *MsgChatRoomCreated) Decode(r io.Reader) error {
	var err error
	if m.RoomID, err = ReadUint16(r); err != nil {
		return err
	}
	if m.Index, err = ReadUint8(r); err != nil {
		return err
	}
	if m.ClientName, err = ReadString(r); err != nil {
		return err
	}
	if m.Token, err = ReadUint32(r); err != nil {
		return err
	}
	if m.Host, err = ReadString(r); err != nil {
		return err
	}
	if m.ExpireAt, err = ReadInt64(r); err != nil {
		return err
	}
	return nil
}

// Encode Encode
func (m *MsgChatRoomCreated) Encode(w io.Writer) error {
	if err := WriteUint16(w, m.RoomID); err != nil {
		return err
	}
	if err := WriteUint8(w, m.Index); err != nil {
		return err
	}
	if err := WriteString(w, m.ClientName); err != nil {
		return err
	}
	if err := WriteUint32(w, m.Token); err != nil {
		return err
	}
	if err := WriteString(w, m.Host); err != nil {
		return err
	}
	return WriteInt64(w, m.ExpireAt)
}
