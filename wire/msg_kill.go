package wire

import "io"

// Kill reasons.
const (
	// KillReasonDuplicateLogin the account logged in elsewhere
	KillReasonDuplicateLogin = uint8(1)
	// KillReasonAdmin an administrative disconnect/ban command
	KillReasonAdmin = uint8(2)
)

// MsgKill orders a shard to disconnect an account.
type MsgKill struct {
	Account string
	Reason  uint8
}

// Decode Decode
func (m *MsgKill) Decode(r io.Reader) error {
	var err error
	if m.Account, err = ReadString(r); err != nil {
		return err
	}
	if m.Reason, err = ReadUint8(r); err != nil {
		return err
	}
	return nil
}

// Encode Encode
func (m *MsgKill) Encode(w io.Writer) error {
	if err := WriteString(w, m.Account); err != nil {
		return err
	}
	return WriteUint8(w, m.Reason)
}
