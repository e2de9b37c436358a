// Package bencode is a hand-rolled, zero-copy Bencode decoder and encoder.
//
// The decoder never allocates: every decoded value is a borrowed view
// (index+length slice) over the caller's input buffer, restartable by
// copying the cursor value before iterating it. This is deliberately not a
// reflection-based struct (un)marshaller — that shape can't express the
// lazy Dict/List cursor or the KRPC layer's field-presence disambiguation,
// both of which require inspecting the raw Bencode shape during a single
// forward pass over the wire bytes.
package bencode

import (
	"strconv"

	"github.com/sjaensch/mainline-dht/err"
)

// Kind tags which variant a Value holds.
type Kind int

const (
	KindString Kind = iota
	KindInteger
	KindList
	KindDict
)

// Value is a decoded Bencode value. Exactly one of Str, Int, List, Dict is
// meaningful, selected by Kind.
type Value struct {
	Kind Kind
	Str  []byte
	Int  int64
	List List
	Dict Dict
}

// Bencode is a decoder session over a borrowed input slice.
type Bencode struct {
	Buffer []byte
}

// Peek returns the next undecoded byte, or ok=false at end of input.
func (b Bencode) Peek() (byte, bool) {
	if len(b.Buffer) == 0 {
		return 0, false
	}
	return b.Buffer[0], true
}

// AsDict decodes the whole buffer as a single top-level dictionary. Returns
// ErrUnknown if trailing bytes remain after the dict's closing 'e'.
func (b Bencode) AsDict() (Dict, error) {
	d, rest, decErr := b.EatDict()
	if decErr != nil {
		return Dict{}, decErr
	}
	if len(rest.Buffer) > 0 {
		return Dict{}, ErrUnknown
	}
	return d, nil
}

// EatInteger consumes "i<digits>e", returning the raw digits slice and the
// remainder. The caller (EatAny) parses the digits as signed decimal.
// Precondition: the buffer begins with 'i' (callers dispatch via Peek/EatAny).
func (b Bencode) EatInteger() ([]byte, Bencode, error) {
	err.Assert(len(b.Buffer) >= 1 && b.Buffer[0] == 'i')
	idx := indexByte(b.Buffer[1:], 'e')
	if idx < 0 {
		return nil, Bencode{}, ErrUnexpectedEOF
	}
	digits := b.Buffer[1 : 1+idx]
	return digits, Bencode{Buffer: b.Buffer[1+idx+1:]}, nil
}

// EatString consumes "<len>:<bytes>", returning the len-byte value slice and
// the remainder.
func (b Bencode) EatString() ([]byte, Bencode, error) {
	idx := indexByte(b.Buffer, ':')
	if idx < 0 {
		return nil, Bencode{}, ErrUnexpectedEOF
	}
	lenBytes := b.Buffer[:idx]
	n, ok := parseASCIIDecimal(lenBytes)
	if !ok {
		return nil, Bencode{}, ErrInvalidStringLength
	}
	rest := b.Buffer[idx+1:]
	if len(rest) < n {
		return nil, Bencode{}, ErrInvalidStringLength
	}
	return rest[:n], Bencode{Buffer: rest[n:]}, nil
}

// EatList consumes "l...e". The body is pre-scanned once to locate the
// matching terminator (so a truncated list fails fast with ErrUnknown
// rather than silently yielding a partial sequence); the returned List is a
// fresh, restartable cursor over the same body.
func (b Bencode) EatList() (List, Bencode, error) {
	err.Assert(len(b.Buffer) >= 1 && b.Buffer[0] == 'l')
	body := b.Buffer[1:]
	scan := List{buffer: body}
	for {
		if _, ok := scan.Next(); !ok {
			break
		}
	}
	if len(scan.buffer) > 0 && scan.buffer[0] == 'e' {
		return List{buffer: body}, Bencode{Buffer: scan.buffer[1:]}, nil
	}
	return List{}, Bencode{}, ErrUnknown
}

// EatDict consumes "d...e" the same way EatList consumes "l...e".
func (b Bencode) EatDict() (Dict, Bencode, error) {
	err.Assert(len(b.Buffer) >= 1 && b.Buffer[0] == 'd')
	body := b.Buffer[1:]
	scan := Dict{buffer: body}
	for {
		if _, ok := scan.Next(); !ok {
			break
		}
	}
	if len(scan.buffer) > 0 && scan.buffer[0] == 'e' {
		return Dict{buffer: body}, Bencode{Buffer: scan.buffer[1:]}, nil
	}
	return Dict{}, Bencode{}, ErrUnknown
}

// EatAny dispatches on the next byte: 'd', 'l', 'i', or an ASCII digit.
func (b Bencode) EatAny() (Value, Bencode, error) {
	next, ok := b.Peek()
	if !ok {
		return Value{}, Bencode{}, ErrUnknown
	}
	switch {
	case next == 'd':
		d, rest, decErr := b.EatDict()
		if decErr != nil {
			return Value{}, Bencode{}, decErr
		}
		return Value{Kind: KindDict, Dict: d}, rest, nil
	case next == 'l':
		l, rest, decErr := b.EatList()
		if decErr != nil {
			return Value{}, Bencode{}, decErr
		}
		return Value{Kind: KindList, List: l}, rest, nil
	case next == 'i':
		digits, rest, decErr := b.EatInteger()
		if decErr != nil {
			return Value{}, Bencode{}, decErr
		}
		n, perr := strconv.ParseInt(string(digits), 10, 64)
		if perr != nil {
			return Value{}, Bencode{}, ErrInvalidInteger
		}
		return Value{Kind: KindInteger, Int: n}, rest, nil
	case next >= '0' && next <= '9':
		s, rest, decErr := b.EatString()
		if decErr != nil {
			return Value{}, Bencode{}, decErr
		}
		return Value{Kind: KindString, Str: s}, rest, nil
	default:
		return Value{}, Bencode{}, ErrUnknown
	}
}

// EatAnySpan behaves like EatAny but also returns the exact wire bytes
// consumed for the value. Useful when a caller needs to hash or re-store the
// original encoding rather than re-emit it (e.g. a .torrent file's info
// dict, whose info-hash is defined over the bytes as received).
func (b Bencode) EatAnySpan() (Value, []byte, Bencode, error) {
	v, rest, decErr := b.EatAny()
	if decErr != nil {
		return Value{}, nil, Bencode{}, decErr
	}
	span := b.Buffer[:len(b.Buffer)-len(rest.Buffer)]
	return v, span, rest, nil
}

// DictEntry is one decoded key/value pair from a Dict.
type DictEntry struct {
	Key   []byte
	Value Value
}

// Dict is a lazy, restartable cursor over a dict's body. Copy a Dict value
// before calling Next to keep an independent, replayable cursor: Next
// mutates the receiver's position, nothing else.
type Dict struct {
	buffer []byte
}

// Next consumes one key/value pair. Returns ok=false at the terminating 'e'
// and also on a malformed pair — per the decoder's no-partial-items
// contract, a failure mid-iteration ends the sequence rather than yielding
// a truncated entry; EatDict's pre-scan is what turns that into a proper
// decode error for the caller that asked for the whole dict.
func (d *Dict) Next() (DictEntry, bool) {
	if len(d.buffer) == 0 || d.buffer[0] == 'e' {
		return DictEntry{}, false
	}
	cur := Bencode{Buffer: d.buffer}
	key, afterKey, keyErr := cur.EatString()
	if keyErr != nil {
		return DictEntry{}, false
	}
	value, afterValue, valErr := afterKey.EatAny()
	if valErr != nil {
		return DictEntry{}, false
	}
	d.buffer = afterValue.Buffer
	return DictEntry{Key: key, Value: value}, true
}

// List is a lazy, restartable cursor over a list's body; see Dict's Next
// doc for the restart/failure contract.
type List struct {
	buffer []byte
}

// Next consumes one list item.
func (l *List) Next() (Value, bool) {
	if len(l.buffer) == 0 || l.buffer[0] == 'e' {
		return Value{}, false
	}
	cur := Bencode{Buffer: l.buffer}
	value, rest, valErr := cur.EatAny()
	if valErr != nil {
		return Value{}, false
	}
	l.buffer = rest.Buffer
	return value, true
}

func indexByte(b []byte, c byte) int {
	for i, x := range b {
		if x == c {
			return i
		}
	}
	return -1
}

func parseASCIIDecimal(b []byte) (int, bool) {
	if len(b) == 0 {
		return 0, false
	}
	n := 0
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}
