package wire

import "io"

// MsgFriendRequest tells a shard that one of its players received a
// friend request, so the client can be prompted live.
type MsgFriendRequest struct {
	FromID   uint32
	FromName string
	ToName   string
}

// Decode Decode
func (m *MsgFriendRequest) Decode(r io.Reader) error {
	var err error
	if m.FromID, err = ReadUint32(r); err != nil {
		return err
	}
	if m.FromName, err = ReadString(r); err != nil {
		return err
	}
	if m.ToName, err = ReadString(r); err != nil {
		return err
	}
	return nil
}

// Encode Encode
func (m *MsgFriendRequest) Encode(w io.Writer) error {
	if err := WriteUint32(w, m.FromID); err != nil {
		return err
	}
	if err := WriteString(w, m.FromName); err != nil {
		return err
	}
	return WriteString(w, m.ToName)
}

// MsgFriendState reports one friend's new online state to the shard
// hosting the interested player. ServerID may be a presence sentinel.
type MsgFriendState struct {
	CharID   uint32
	CharName string
	ToName   string
	ServerID uint32
}

// Decode Decode
func (m *MsgFriendState) Decode(r io.Reader) error {
	var err error
	if m.CharID, err = ReadUint32(r); err != nil {
		return err
	}
	if m.CharName, err = ReadString(r); err != nil {
		return err
	}
	if m.ToName, err = ReadString(r); err != nil {
		return err
	}
	if m.ServerID, err = ReadUint32(r); err != nil {
		return err
	}
	return nil
}

// Encode Encode
func (m *MsgFriendState) Encode(w io.Writer) error {
	if err := WriteUint32(w, m.CharID); err != nil {
		return err
	}
	if err := WriteString(w, m.CharName); err != nil {
		return err
	}
	if err := WriteString(w, m.ToName); err != nil {
		return err
	}
	return WriteUint32(w, m.ServerID)
}
