package msg

import (
	"bytes"
	"fmt"
	"io"
)

// WriteStamped writes m as one length-prefixed frame: a uint32 body size
// followed by the streaming encoding of m. Relay code can skip or copy the
// frame without knowing the concrete type. Generated SerializeStamped
// methods delegate here; the decode side is ReadStamped, shared rather
// than regenerated per type.
func WriteStamped(w io.Writer, m Message) error {
	var body bytes.Buffer
	if err := m.Serialize(&body); err != nil {
		return err
	}
	if err := WriteUint32(w, uint32(body.Len())); err != nil {
		return err
	}
	_, err := w.Write(body.Bytes())
	return err
}

// ReadStamped reads one frame from r and decodes it into m. The frame must
// be consumed exactly; trailing bytes mean the reader and the writer were
// generated from different definitions.
func ReadStamped(r io.Reader, m Message) error {
	n, err := ReadUint32(r)
	if err != nil {
		return err
	}
	frame := make([]byte, n)
	if _, err := io.ReadFull(r, frame); err != nil {
		return err
	}
	br := bytes.NewReader(frame)
	if err := m.Deserialize(br); err != nil {
		return err
	}
	if left := br.Len(); left > 0 {
		return fmt.Errorf("msg: %s frame has %d trailing bytes", m.Type(), left)
	}
	return nil
}
