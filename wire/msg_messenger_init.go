package wire

import "io"

// FriendItem is one row of the messenger payload.
type FriendItem struct {
	CharID   uint32
	Name     string
	ServerID uint32
	Accepted uint8
}

// MsgMessengerInit answers PlayerEnteredGame with the player's full
// friend list plus still-open incoming requests, so the shard renders
// the social UI without a second round trip.
type MsgMessengerInit struct {
	CharName string
	Friends  []FriendItem
	Requests []string
}

// Decode Decode
func (m *MsgMessengerInit) Decode(r io.Reader) error {
	var err error
	if m.CharName, err = ReadString(r); err != nil {
		return err
	}
	n, err := ReadUint16(r)
	if err != nil {
		return err
	}
	m.Friends = make([]FriendItem, n)
	for i := range m.Friends {
		f := &m.Friends[i]
		if f.CharID, err = ReadUint32(r); err != nil {
			return err
		}
		if f.Name, err = ReadString(r); err != nil {
			return err
		}
		if f.ServerID, err = ReadUint32(r); err != nil {
			return err
		}
		if f.Accepted, err = ReadUint8(r); err != nil {
			return err
		}
	}
	n, err = ReadUint16(r)
	if err != nil {
		return err
	}
	m.Requests = make([]string, n)
	for i := range m.Requests {
		if m.Requests[i], err = ReadString(r); err != nil {
			return err
		}
	}
	return nil
}

// Encode Encode
func (m *MsgMessengerInit) Encode(w io.Writer) error {
	if err := WriteString(w, m.CharName); err != nil {
		return err
	}
	if err := WriteUint16(w, uint16(len(m.Friends))); err != nil {
		return err
	}
	for i := range m.Friends {
		f := &m.Friends[i]
		if err := WriteUint32(w, f.CharID); err != nil {
			return err
		}
		if err := WriteString(w, f.Name); err != nil {
			return err
		}
		if err := WriteUint32(w, f.ServerID); err != nil {
			return err
		}
		if err := WriteUint8(w, f.Accepted); err != nil {
			return err
		}
	}
	if err := WriteUint16(w, uint16(len(m.Requests))); err != nil {
		return err
	}
	for _, name := range m.Requests {
		if err := WriteString(w, name); err != nil {
			return err
		}
	}
	return nil
}
