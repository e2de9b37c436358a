package bencode

import "errors"

// Decoding errors. Bencode and KRPC share one taxonomy: a malformed KRPC
// datagram is, structurally, just malformed Bencode wearing a dict shape.
var (
	ErrUnknown                  = errors.New("bencode: unknown decoding error")
	ErrMissingRequiredField     = errors.New("bencode: missing required field")
	ErrRequiredFieldOfWrongType = errors.New("bencode: required field of wrong type")
	ErrInvalidStringLength      = errors.New("bencode: invalid string length")
	ErrInvalidInteger           = errors.New("bencode: invalid integer")
	ErrUnexpectedEOF            = errors.New("bencode: unexpected end of input")
)
