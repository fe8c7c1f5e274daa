package wire

import "io"

// ServerItem is one advertised shard in a server-list response.
type ServerItem struct {
	ServerID uint32
	Name     string
	Online   uint16
	MaxConns uint16
}

// MsgQueryServersResp lists the shards the gateway currently advertises.
type MsgQueryServersResp struct {
	Servers []ServerItem
}

// Decode Decode
func (m *MsgQueryServersResp) Decode(r io.Reader) error {
	n, err := ReadUint16(r)
	if err != nil {
		return err
	}
	m.Servers = make([]ServerItem, n)
	for i := range m.Servers {
		s := &m.Servers[i]
		if s.ServerID, err = ReadUint32(r); err != nil {
			return err
		}
		if s.Name, err = ReadString(r); err != nil {
			return err
		}
		if s.Online, err = ReadUint16(r); err != nil {
			return err
		}
		if s.MaxConns, err = ReadUint16(r); err != nil {
			return err
		}
	}
	return nil
}

// Encode Encode
func (m *MsgQueryServersResp) Encode(w io.Writer) error {
	if err := WriteUint16(w, uint16(len(m.Servers))); err != nil {
		return err
	}
	for i := range m.Servers {
		s := &m.Servers[i]
		if err := WriteUint32(w, s.ServerID); err != nil {
			return err
		}
		if err := WriteString(w, s.Name); err != nil {
			return err
		}
		if err := WriteUint16(w, s.Online); err != nil {
			return err
		}
		if err := WriteUint16(w, s.MaxConns); err != nil {
			return err
		}
	}
	return nil
}

// MsgQueryAddr asks for one shard's public endpoint.
type MsgQueryAddr struct {
	ServerID uint32
}

// Decode Decode
func (m *MsgQueryAddr) Decode(r io.Reader) error {
	var err error
	m.ServerID, err = ReadUint32(r)
	return err
}

// Encode Encode
func (m *MsgQueryAddr) Encode(w io.Writer) error {
	return WriteUint32(w, m.ServerID)
}

// MsgQueryAddrResp hands off a shard's public endpoint. OK is zero when
// the shard is unknown or no longer advertised.
type MsgQueryAddrResp struct {
	OK   uint8
	Host string
	Port uint16
}

// Decode Decode
func (m *MsgQueryAddrResp) Decode(r io.Reader) error {
	var err error
	if m.OK, err = ReadUint8(r); err != nil {
		return err
	}
	if m.Host, err = ReadString(r); err != nil {
		return err
	}
	if m.Port, err = ReadUint16(r); err != nil {
		return err
	}
	return nil
}

// Encode Encode
func (m *MsgQueryAddrResp) Encode(w io.Writer) error {
	if err := WriteUint8(w, m.OK); err != nil {
		return err
	}
	if err := WriteString(w, m.Host); err != nil {
		return err
	}
	return WriteUint16(w, m.Port)
}
