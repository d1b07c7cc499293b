// Package msg is the support library linked by generated message code. It
// carries the interfaces generic tooling programs against, the wire
// primitives hand-written codecs share, and the framed transport helpers
// generated stamped entry points delegate to.
package msg

import (
	"io"
	"time"
)

// Time is a wall-clock instant, seconds and nanoseconds since the Unix
// epoch, 2x32 bits on the wire.
type Time struct {
	Sec  uint32
	Nsec uint32
}

// Now returns the current wall clock as a wire timestamp.
func Now() Time {
	now := time.Now()
	return Time{Sec: uint32(now.Unix()), Nsec: uint32(now.Nanosecond())}
}

// Std converts t to the standard library representation.
func (t Time) Std() time.Time {
	return time.Unix(int64(t.Sec), int64(t.Nsec))
}

// IsZero reports whether t is the zero instant.
func (t Time) IsZero() bool {
	return t.Sec == 0 && t.Nsec == 0
}

// Duration is a signed span, seconds and nanoseconds, 2x32 bits on the
// wire.
type Duration struct {
	Sec  int32
	Nsec int32
}

// Std converts d to the standard library representation.
func (d Duration) Std() time.Duration {
	return time.Duration(d.Sec)*time.Second + time.Duration(d.Nsec)*time.Nanosecond
}

// Message is the contract every generated record satisfies.
type Message interface {
	// Type returns the package-qualified definition name, "std_msgs/Header".
	Type() string
	// Fingerprint returns the content hash of the definition the code was
	// generated from.
	Fingerprint() string
	// Serialize writes the record to w in wire order.
	Serialize(w io.Writer) error
	// Deserialize reads the record from r, overwriting every field.
	Deserialize(r io.Reader) error
}

// HeaderMessage is satisfied by generated records whose first field is the
// canonical header. Stream sequencing code reads and restamps messages
// through it without per-type branches.
type HeaderMessage interface {
	Message
	Seq() uint32
	FrameID() string
	Stamp() Time
	WithSeq(seq uint32) HeaderMessage
}
