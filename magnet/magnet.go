// Package magnet parses magnet: URIs into one or more referenced files,
// each identified by a hash taken from a urn:sha1:/urn:md5:/urn:btih: URN
// and (optionally) a display name.
package magnet

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/sjaensch/mainline-dht/encodings"
)

var (
	ErrInvalidURIScheme         = errors.New("magnet: uri scheme must be \"magnet:\"")
	ErrInvalidStartCharacter    = errors.New("magnet: uri must start with \"?\" after the scheme")
	ErrUnknownHashFunction      = errors.New("magnet: unrecognized urn hash function")
	ErrInvalidUseOfReservedChar = errors.New("magnet: reserved character used unescaped in query string")
	ErrInvalidPercentEscape     = errors.New("magnet: percent-escape did not decode to valid utf-8")

	// Reused from encodings so a caller comparing decode errors doesn't need
	// to special-case which package produced an invalid-hash error.
	ErrInvalidHashLength    = encodings.ErrInvalidHashLength
	ErrInvalidHashCharacter = encodings.ErrInvalidHashCharacter
)

// HashKind selects which variant of Hash is populated.
type HashKind int

const (
	HashInvalid HashKind = iota
	HashSHA1
	HashMD5
	HashBTIH
)

// Hash is a tagged union over the three URN hash families a magnet link can
// name. Exactly one of SHA1, MD5, BTIH is meaningful, selected by Kind.
type Hash struct {
	Kind HashKind
	SHA1 [20]byte
	MD5  [16]byte
	BTIH [20]byte
}

// ParseHash decodes the value of an "xt" parameter, e.g.
// "urn:btih:209c8226b299b308beaf2b9cd3fb49212dbd13ec". BTIH is accepted in
// either its 40-character hex form or its 32-character base32 form, per
// BEP 9; which one is in play is determined by the URN's total length.
func ParseHash(s string) (Hash, error) {
	switch {
	case strings.HasPrefix(s, "urn:sha1:"):
		b, err := encodings.Hash20Base32(s[9:])
		if err != nil {
			return Hash{}, err
		}
		return Hash{Kind: HashSHA1, SHA1: b}, nil
	case strings.HasPrefix(s, "urn:md5:"):
		b, err := encodings.Hash16Hex(s[8:])
		if err != nil {
			return Hash{}, err
		}
		return Hash{Kind: HashMD5, MD5: b}, nil
	case strings.HasPrefix(s, "urn:btih:"):
		rest := s[9:]
		var (
			b   [20]byte
			err error
		)
		if len(s) == 49 {
			b, err = encodings.Hash20Hex(rest)
		} else {
			b, err = encodings.Hash20Base32(rest)
		}
		if err != nil {
			return Hash{}, err
		}
		return Hash{Kind: HashBTIH, BTIH: b}, nil
	default:
		return Hash{}, ErrUnknownHashFunction
	}
}

// File is one file referenced by a (possibly multi-file) magnet link.
type File struct {
	Hash        Hash
	DisplayName string
}

func hexNibble(h byte) (byte, error) {
	switch {
	case h >= '0' && h <= '9':
		return h - '0', nil
	case h >= 'a' && h <= 'f':
		return h - 'a' + 10, nil
	case h >= 'A' && h <= 'F':
		return h - 'A' + 10, nil
	default:
		return 0, ErrInvalidHashCharacter
	}
}

func hexByte(b1, b2 byte) (byte, error) {
	hi, err := hexNibble(b1)
	if err != nil {
		return 0, err
	}
	lo, err := hexNibble(b2)
	if err != nil {
		return 0, err
	}
	return hi<<4 | lo, nil
}

// decodeQueryValue applies '+'-to-space and percent-escape decoding to one
// raw query-string value, rejecting unescaped '#', '?', '&'.
func decodeQueryValue(value string) (string, error) {
	if strings.ContainsAny(value, "#?&") {
		return "", ErrInvalidUseOfReservedChar
	}

	s := value
	if strings.Contains(s, "+") {
		s = strings.ReplaceAll(s, "+", " ")
	}

	firstPercent := strings.IndexByte(s, '%')
	if firstPercent < 0 {
		return s, nil
	}

	out := make([]byte, 0, len(s))
	out = append(out, s[:firstPercent]...)
	for _, segment := range strings.Split(s[firstPercent+1:], "%") {
		if len(segment) < 2 {
			return "", ErrInvalidUseOfReservedChar
		}
		b, err := hexByte(segment[0], segment[1])
		if err != nil {
			return "", err
		}
		out = append(out, b)
		out = append(out, segment[2:]...)
	}
	if !utf8.Valid(out) {
		return "", ErrInvalidPercentEscape
	}
	return string(out), nil
}

func fileKeyFor(key string) string {
	if len(key) < 3 {
		return "1"
	}
	return key[3:]
}

// ParseFiles parses a magnet: URI's "xt"/"dn" (and indexed "xt.N"/"dn.N")
// parameters into one File per distinct index. A magnet link with exactly
// one "xt" parameter yields a single File keyed "1"; multi-file magnet
// links (BEP 53) key each file by the numeric suffix on "xt.N"/"dn.N".
//
// Query pairs with no "=" are skipped (malformed, not fatal); a param
// naming neither "xt" nor "dn" (by either exact or indexed key) is ignored.
func ParseFiles(s string) ([]File, error) {
	if !strings.HasPrefix(s, "magnet:") {
		return nil, ErrInvalidURIScheme
	}
	if !strings.HasPrefix(s[7:], "?") {
		return nil, ErrInvalidStartCharacter
	}

	files := make(map[string]*File)
	var order []string
	get := func(key string) *File {
		f, ok := files[key]
		if !ok {
			f = &File{}
			files[key] = f
			order = append(order, key)
		}
		return f
	}

	for _, pair := range strings.Split(s[8:], "&") {
		eq := strings.IndexByte(pair, '=')
		if eq < 0 {
			continue
		}
		key := pair[:eq]
		value, err := decodeQueryValue(pair[eq+1:])
		if err != nil {
			return nil, err
		}

		switch {
		case key == "xt" || strings.HasPrefix(key, "xt."):
			hash, err := ParseHash(value)
			if err != nil {
				return nil, err
			}
			get(fileKeyFor(key)).Hash = hash
		case key == "dn" || strings.HasPrefix(key, "dn."):
			get(fileKeyFor(key)).DisplayName = value
		}
	}

	out := make([]File, 0, len(order))
	for _, k := range order {
		out = append(out, *files[k])
	}
	return out, nil
}
