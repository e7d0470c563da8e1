// Package wire implements the binary envelope shared by protocol messages,
// key shares and party keys.
//
// Every object is encoded as
//
//	magic "T2" | version | kind | uvarint(field count) | fields...
//
// where each field is uvarint(length) followed by that many bytes. Decoding
// is exact: the kind and field count must match what the caller expects and
// no bytes may follow the last field.
package wire

import (
	"encoding/binary"
	"math/big"
)

const (
	// Magic opens every encoded object
	Magic = "T2"

	// Version is the current envelope version
	Version byte = 1

	// MaxFieldSize bounds a single field to keep hostile inputs from
	// forcing large allocations
	MaxFieldSize = 1 << 16

	headerSize = len(Magic) + 2
)

// Kind tags the type of an encoded object
type Kind byte

const (
	KindPartyKeys Kind = iota + 1
	KindKeyShareP1
	KindKeyShareP2
	KindKeygenMsg1
	KindKeygenMsg2
	KindKeygenMsg3
	KindSignMsg1
	KindSignMsg2
	KindSignMsg3
	KindSignMsg4
	KindSignMsg5
)

var kindNames = map[Kind]string{
	KindPartyKeys:  "party-keys",
	KindKeyShareP1: "keyshare-p1",
	KindKeyShareP2: "keyshare-p2",
	KindKeygenMsg1: "keygen-msg1",
	KindKeygenMsg2: "keygen-msg2",
	KindKeygenMsg3: "keygen-msg3",
	KindSignMsg1:   "sign-msg1",
	KindSignMsg2:   "sign-msg2",
	KindSignMsg3:   "sign-msg3",
	KindSignMsg4:   "sign-msg4",
	KindSignMsg5:   "sign-msg5",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Writer accumulates the fields of one object
type Writer struct {
	kind   Kind
	fields [][]byte
}

// NewWriter starts an object of the given kind
func NewWriter(kind Kind) *Writer {
	return &Writer{kind: kind}
}

// Bytes appends a raw field. The slice is copied on Finish.
func (w *Writer) Bytes(b []byte) *Writer {
	w.fields = append(w.fields, b)
	return w
}

// Int appends a non-negative integer in minimal big-endian form
func (w *Writer) Int(v *big.Int) *Writer {
	return w.Bytes(v.Bytes())
}

// Ints appends a count field followed by each integer
func (w *Writer) Ints(vs []*big.Int) *Writer {
	w.Uint32(uint32(len(vs)))
	for _, v := range vs {
		w.Int(v)
	}
	return w
}

// Uint32 appends a 4-byte big-endian field
func (w *Writer) Uint32(v uint32) *Writer {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return w.Bytes(b[:])
}

// Finish returns the encoded object
func (w *Writer) Finish() []byte {
	size := headerSize + binary.MaxVarintLen64
	for _, f := range w.fields {
		size += binary.MaxVarintLen64 + len(f)
	}

	out := make([]byte, 0, size)
	out = append(out, Magic...)
	out = append(out, Version, byte(w.kind))
	out = binary.AppendUvarint(out, uint64(len(w.fields)))
	for _, f := range w.fields {
		out = binary.AppendUvarint(out, uint64(len(f)))
		out = append(out, f...)
	}
	return out
}

// Reader walks the fields of a decoded object. Accessors record the first
// failure and return zero values afterwards; check Err once at the end.
type Reader struct {
	fields [][]byte
	pos    int
	err    error
}

// Decode parses data as an object of the expected kind carrying exactly
// fieldCount fields
func Decode(data []byte, kind Kind, fieldCount int) (*Reader, error) {
	if len(data) < headerSize {
		return nil, ErrTruncated
	}
	if string(data[:len(Magic)]) != Magic {
		return nil, ErrBadMagic
	}
	if data[len(Magic)] != Version {
		return nil, ErrUnsupportedVersion
	}
	if Kind(data[len(Magic)+1]) != kind {
		return nil, ErrWrongKind
	}

	rest := data[headerSize:]
	count, n := binary.Uvarint(rest)
	if n <= 0 {
		return nil, ErrTruncated
	}
	if count != uint64(fieldCount) {
		return nil, ErrFieldCount
	}
	rest = rest[n:]

	fields := make([][]byte, 0, fieldCount)
	for i := 0; i < fieldCount; i++ {
		l, n := binary.Uvarint(rest)
		if n <= 0 {
			return nil, ErrTruncated
		}
		if l > MaxFieldSize {
			return nil, ErrFieldTooLarge
		}
		rest = rest[n:]
		if uint64(len(rest)) < l {
			return nil, ErrTruncated
		}
		fields = append(fields, rest[:l:l])
		rest = rest[l:]
	}
	if len(rest) != 0 {
		return nil, ErrTrailingData
	}
	return &Reader{fields: fields}, nil
}

// PeekKind returns the kind byte of an encoded object without decoding it
func PeekKind(data []byte) (Kind, error) {
	if len(data) < headerSize {
		return 0, ErrTruncated
	}
	if string(data[:len(Magic)]) != Magic {
		return 0, ErrBadMagic
	}
	return Kind(data[len(Magic)+1]), nil
}

func (r *Reader) next() []byte {
	if r.err != nil {
		return nil
	}
	if r.pos >= len(r.fields) {
		r.err = ErrFieldCount
		return nil
	}
	f := r.fields[r.pos]
	r.pos++
	return f
}

// Bytes returns a copy of the next field
func (r *Reader) Bytes() []byte {
	f := r.next()
	if f == nil {
		return nil
	}
	return append([]byte(nil), f...)
}

// Fixed returns the next field, which must be exactly n bytes long
func (r *Reader) Fixed(n int) []byte {
	f := r.next()
	if r.err != nil {
		return nil
	}
	if len(f) != n {
		r.err = ErrFieldLength
		return nil
	}
	return append([]byte(nil), f...)
}

// Int returns the next field as a positive integer without leading zeros
func (r *Reader) Int() *big.Int {
	f := r.next()
	if r.err != nil {
		return nil
	}
	if len(f) == 0 || f[0] == 0 {
		r.err = ErrNonCanonical
		return nil
	}
	return new(big.Int).SetBytes(f)
}

// Ints reads a count field followed by that many integers
func (r *Reader) Ints(max int) []*big.Int {
	n := r.Uint32()
	if r.err != nil {
		return nil
	}
	if int64(n) > int64(max) {
		r.err = ErrFieldCount
		return nil
	}
	out := make([]*big.Int, n)
	for i := range out {
		out[i] = r.Int()
	}
	if r.err != nil {
		return nil
	}
	return out
}

// Uint32 returns the next 4-byte field
func (r *Reader) Uint32() uint32 {
	f := r.Fixed(4)
	if f == nil {
		return 0
	}
	return binary.BigEndian.Uint32(f)
}

// Err returns the first decoding failure, or ErrFieldCount if fields
// remain unread
func (r *Reader) Err() error {
	if r.err != nil {
		return r.err
	}
	if r.pos != len(r.fields) {
		return ErrFieldCount
	}
	return nil
}
