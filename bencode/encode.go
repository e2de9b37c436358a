package bencode

import "strconv"

// Encoder builds a Bencode byte stream. Callers are responsible for
// emitting dict keys in lexicographic byte order and without duplicates;
// the KRPC layer does this with a fixed field order per message variant
// rather than a runtime sort (see krpc.Message.Encode), since the variant
// shapes are known statically.
type Encoder struct {
	buf []byte
}

// NewEncoder returns an Encoder with capacity hinted for a typical KRPC
// datagram.
func NewEncoder() *Encoder {
	return &Encoder{buf: make([]byte, 0, 256)}
}

// Bytes returns the encoded output so far.
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// Int appends "i<n>e".
func (e *Encoder) Int(n int64) {
	e.buf = append(e.buf, 'i')
	e.buf = strconv.AppendInt(e.buf, n, 10)
	e.buf = append(e.buf, 'e')
}

// ByteString appends "<len>:<s>".
func (e *Encoder) ByteString(s []byte) {
	e.buf = strconv.AppendInt(e.buf, int64(len(s)), 10)
	e.buf = append(e.buf, ':')
	e.buf = append(e.buf, s...)
}

// Str is ByteString for a Go string, avoiding a []byte conversion at call sites.
func (e *Encoder) Str(s string) {
	e.buf = strconv.AppendInt(e.buf, int64(len(s)), 10)
	e.buf = append(e.buf, ':')
	e.buf = append(e.buf, s...)
}

// BeginList appends 'l'.
func (e *Encoder) BeginList() { e.buf = append(e.buf, 'l') }

// EndList appends 'e'.
func (e *Encoder) EndList() { e.buf = append(e.buf, 'e') }

// BeginDict appends 'd'.
func (e *Encoder) BeginDict() { e.buf = append(e.buf, 'd') }

// EndDict appends 'e'.
func (e *Encoder) EndDict() { e.buf = append(e.buf, 'e') }

// Raw appends already-encoded bytes verbatim, e.g. a sub-value produced by
// re-emitting a decoded span without round-tripping it through the typed
// encoder methods above.
func (e *Encoder) Raw(b []byte) { e.buf = append(e.buf, b...) }
