// Package stdmsgs provides the hand-built counterparts of the common
// definitions generated code links against instead of regenerating them.
package stdmsgs

import (
	"context"
	"io"

	"github.com/msgforge/msgforge/internal/fingerprint"
	"github.com/msgforge/msgforge/internal/schema"
	"github.com/msgforge/msgforge/pkg/msg"
)

// Header carries the stream metadata a stamped message leads with. Field
// names follow the generated capitalization of seq, stamp and frame_id.
type Header struct {
	Seq      uint32
	Stamp    msg.Time
	Frame_id string
}

// Serialize writes h to w in wire order.
func (h *Header) Serialize(w io.Writer) error {
	if err := msg.WriteUint32(w, h.Seq); err != nil {
		return err
	}
	if err := msg.WriteTime(w, h.Stamp); err != nil {
		return err
	}
	return msg.WriteString(w, h.Frame_id)
}

// Deserialize reads h from r, overwriting every field.
func (h *Header) Deserialize(r io.Reader) error {
	var err error
	if h.Seq, err = msg.ReadUint32(r); err != nil {
		return err
	}
	if h.Stamp, err = msg.ReadTime(r); err != nil {
		return err
	}
	h.Frame_id, err = msg.ReadString(r)
	return err
}

// Type returns the package-qualified message name.
func (h *Header) Type() string {
	return "std_msgs/Header"
}

// Fingerprint returns the content hash of the header definition.
func (h *Header) Fingerprint() string {
	return headerFingerprint
}

// HeaderSchema returns the definition Header is built from. Drivers seed
// their registry with it so header references resolve without a definition
// file on disk.
func HeaderSchema() schema.Schema {
	return schema.Schema{
		Pkg:  "std_msgs",
		Name: "Header",
		Fields: []schema.Field{
			{Name: "seq", Type: schema.Scalar(schema.KindUint32)},
			{Name: "stamp", Type: schema.Scalar(schema.KindTime)},
			{Name: "frame_id", Type: schema.Scalar(schema.KindString)},
		},
	}
}

// Hashed from the same definition the generator would hash, so a message
// embedding the header and this package always agree.
var headerFingerprint = func() string {
	fp, err := fingerprint.Fingerprint(context.Background(), HeaderSchema(), schema.NewRegistry())
	if err != nil {
		panic(err)
	}
	return fp
}()
