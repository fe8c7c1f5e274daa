package wire

import "io"

// MsgBroadcast is a global broadcast line shown to everyone on a shard.
type MsgBroadcast struct {
	Text string
}

// Decode Decode
func (m *MsgBroadcast) Decode(r io.Reader) error {
	var err error
	m.Text, err = ReadString(r)
	return err
}

// Encode Encode
func (m *MsgBroadcast) Encode(w io.Writer) error {
	return WriteString(w, m.Text)
}

// MsgText is a plain text response body shared by the informational
// gateway queries.
type MsgText struct {
	Text string
}

// Decode Decode
func (m *MsgText) Decode(r io.Reader) error {
	var err error
	m.Text, err = ReadString(r)
	return err
}

// Encode Encode
func (m *MsgText) Encode(w io.Writer) error {
	return WriteString(w, m.Text)
}

// MsgEmpty is a bodyless request.
type MsgEmpty struct{}

// Decode Decode
func (m *MsgEmpty) Decode(r io.Reader) error { return nil }

// Encode Encode
func (m *MsgEmpty) Encode(w io.Writer) error { return nil }
