package msg

import (
	"encoding/binary"
	"io"
)

// Wire primitives for hand-written codecs. Generated code inlines the same
// byte layout instead of calling through here, so both sides stay
// interchangeable on the wire.

// WriteUint32 writes v little endian.
func WriteUint32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

// ReadUint32 reads a little endian uint32.
func ReadUint32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

// WriteString writes the length-prefixed encoding of s.
func WriteString(w io.Writer, s string) error {
	if err := WriteUint32(w, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

// ReadString reads a length-prefixed string.
func ReadString(r io.Reader) (string, error) {
	n, err := ReadUint32(r)
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}

// WriteTime writes t as two little endian uint32 words, seconds first.
func WriteTime(w io.Writer, t Time) error {
	var buf [8]byte
	binary.LittleEndian.PutUint32(buf[:4], t.Sec)
	binary.LittleEndian.PutUint32(buf[4:8], t.Nsec)
	_, err := w.Write(buf[:])
	return err
}

// ReadTime reads the two-word timestamp encoding.
func ReadTime(r io.Reader) (Time, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Time{}, err
	}
	return Time{
		Sec:  binary.LittleEndian.Uint32(buf[:4]),
		Nsec: binary.LittleEndian.Uint32(buf[4:8]),
	}, nil
}

// WriteDuration writes d as two little endian words, seconds first.
func WriteDuration(w io.Writer, d Duration) error {
	var buf [8]byte
	binary.LittleEndian.PutUint32(buf[:4], uint32(d.Sec))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(d.Nsec))
	_, err := w.Write(buf[:])
	return err
}

// ReadDuration reads the two-word duration encoding.
func ReadDuration(r io.Reader) (Duration, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Duration{}, err
	}
	return Duration{
		Sec:  int32(binary.LittleEndian.Uint32(buf[:4])),
		Nsec: int32(binary.LittleEndian.Uint32(buf[4:8])),
	}, nil
}
