package wire

import "io"

// MsgLetter delivers a letter header to the shard hosting the receiver.
// The letter body stays in storage; the shard fetches it on demand.
type MsgLetter struct {
	LetterID uint64
	Sender   string
	Receiver string
	Title    string
	SendAt   int64
}

// Decode Decode
func (m *MsgLetter) Decode(r io.Reader) error {
	var err error
	if m.LetterID, err = ReadUint64(r); err != nil {
		return err
	}
	if m.Sender, err = ReadString(r); err != nil {
		return err
	}
	if m.Receiver, err = ReadString(r); err != nil {
		return err
	}
	if m.Title, err = ReadString(r); err != nil {
		return err
	}
	if m.SendAt, err = ReadInt64(r); err != nil {
		return err
	}
	return nil
}

// Encode Encode
func (m *MsgLetter) Encode(w io.Writer) error {
	if err := WriteUint64(w, m.LetterID); err != nil {
		return err
	}
	if err := WriteString(w, m.Sender); err != nil {
		return err
	}
	if err := WriteString(w, m.Receiver); err != nil {
		return err
	}
	if err := WriteString(w, m.Title); err != nil {
		return err
	}
	return WriteInt64(w, m.SendAt)
}
