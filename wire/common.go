package wire

import (
	"encoding/binary"
	"errors"
	"io"
)

var (
	// littleEndian is a convenience variable since binary.LittleEndian is
	// quite long.
	littleEndian = binary.LittleEndian
)

var (
	// ErrStringOverflow string field longer than its wire capacity
	ErrStringOverflow = errors.New("string is overflow")
)

// ReadUint8 read one uint8 from reader
func ReadUint8(r io.Reader) (uint8, error) {
	var buf = make([]byte, 1)
	if _, err := io.ReadFull(r, buf); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// ReadUint16 read one uint16 from reader
func ReadUint16(r io.Reader) (uint16, error) {
	var buf = make([]byte, 2)
	if _, err := io.ReadFull(r, buf); err != nil {
		return 0, err
	}
	return littleEndian.Uint16(buf), nil
}

// ReadUint32 read one uint32 from reader
func ReadUint32(r io.Reader) (uint32, error) {
	var buf = make([]byte, 4)
	if _, err := io.ReadFull(r, buf); err != nil {
		return 0, err
	}
	return littleEndian.Uint32(buf), nil
}

// ReadUint64 read one uint64 from reader
func ReadUint64(r io.Reader) (uint64, error) {
	var buf = make([]byte, 8)
	if _, err := io.ReadFull(r, buf); err != nil {
		return 0, err
	}
	return littleEndian.Uint64(buf), nil
}

// ReadInt64 read one int64 from reader
func ReadInt64(r io.Reader) (int64, error) {
	v, err := ReadUint64(r)
	return int64(v), err
}

// ReadString read one length-prefixed string from reader
func ReadString(r io.Reader) (string, error) {
	buf, err := ReadBytes(r)
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

// ReadBytes read one []byte from reader, the leading uint32 is the length
func ReadBytes(r io.Reader) ([]byte, error) {
	blen, err := ReadUint32(r)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, blen)
	if _, err = io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// WriteUint8 write one uint8 to writer
func WriteUint8(w io.Writer, val uint8) error {
	_, err := w.Write([]byte{val})
	return err
}

// WriteUint16 write one uint16 to writer
func WriteUint16(w io.Writer, val uint16) error {
	buf := make([]byte, 2)
	littleEndian.PutUint16(buf, val)
	_, err := w.Write(buf)
	return err
}

// WriteUint32 write one uint32 to writer
func WriteUint32(w io.Writer, val uint32) error {
	buf := make([]byte, 4)
	littleEndian.PutUint32(buf, val)
	_, err := w.Write(buf)
	return err
}

// WriteUint64 write one uint64 to writer
func WriteUint64(w io.Writer, val uint64) error {
	buf := make([]byte, 8)
	littleEndian.PutUint64(buf, val)
	_, err := w.Write(buf)
	return err
}

// WriteInt64 write one int64 to writer
func WriteInt64(w io.Writer, val int64) error {
	return WriteUint64(w, uint64(val))
}

// WriteString write one length-prefixed string to writer
func WriteString(w io.Writer, str string) error {
	return WriteBytes(w, []byte(str))
}

// WriteBytes write one buf []byte to writer
func WriteBytes(w io.Writer, buf []byte) error {
	if err := WriteUint32(w, uint32(len(buf))); err != nil {
		return err
	}
	_, err := w.Write(buf)
	return err
}
