// Package krpc is the typed KRPC message model: queries, responses, and
// errors exchanged between Mainline DHT nodes, bencoded over UDP.
//
// A KRPC datagram is a single top-level Bencode dict with two mandatory
// keys ("t" the transaction id, "y" the message type) and extra keys that
// depend on "y". Responses carry no explicit variant tag — which of
// Ping/FindNode/GetPeers a response dict represents is inferred from which
// optional fields are present (see Decode).
package krpc

import "github.com/sjaensch/mainline-dht/bencode"

// QueryKind selects which of the four recognized query methods a Query is.
type QueryKind int

const (
	QueryPing QueryKind = iota
	QueryFindNode
	QueryGetPeers
	QueryAnnouncePeer
)

// Query is a KRPC query's "a" arguments, discriminated by Kind. Only the
// fields relevant to Kind are meaningful:
//
//	Ping:         ID
//	FindNode:     ID, Target
//	GetPeers:     ID, InfoHash
//	AnnouncePeer: ID, InfoHash, Port, Token
//
// AnnouncePeer is its own kind rather than being decoded as GetPeers:
// collapsing it into GetPeers would silently drop its Port and Token
// fields on decode. See TestAnnouncePeerIsNotGetPeers.
type Query struct {
	Kind     QueryKind
	ID       [20]byte
	Target   [20]byte
	InfoHash [20]byte
	Port     int64
	Token    []byte
}

// ResponseKind selects which of the three recognized response shapes a
// Response is. There is no "AnnouncePeer" response kind: an announce_peer
// query's response is just an empty-bodied Ping-shaped ack ({"id": ...}).
type ResponseKind int

const (
	ResponsePing ResponseKind = iota
	ResponseFindNode
	ResponseGetPeers
)

// Response is a KRPC response's "r" dict, discriminated by Kind:
//
//	Ping:     ID
//	FindNode: ID, Nodes
//	GetPeers: ID, Token
type Response struct {
	Kind  ResponseKind
	ID    [20]byte
	Nodes []byte
	Token []byte
}

// ErrorKind classifies a KRPC error by its numeric code.
type ErrorKind int

const (
	ErrorGeneric       ErrorKind = iota // 201
	ErrorServer                         // 202
	ErrorProtocol                       // 203
	ErrorMethodUnknown                  // 204
	ErrorUnknown                        // any other code; see Error.Code
)

// Error is a KRPC error's "e" list: [code, message].
type Error struct {
	Kind ErrorKind
	// Code holds the wire code when Kind is ErrorUnknown. For the four
	// named kinds the code is implied (see errorKindCode) and Code is
	// ignored on encode.
	Code    int64
	Message string
}

func errorKindCode(k ErrorKind) int64 {
	switch k {
	case ErrorGeneric:
		return 201
	case ErrorServer:
		return 202
	case ErrorProtocol:
		return 203
	case ErrorMethodUnknown:
		return 204
	default:
		return 0
	}
}

func errorKindFromCode(code int64) ErrorKind {
	switch code {
	case 201:
		return ErrorGeneric
	case 202:
		return ErrorServer
	case 203:
		return ErrorProtocol
	case 204:
		return ErrorMethodUnknown
	default:
		return ErrorUnknown
	}
}

// BodyKind selects which of Query, Response, Error a Message carries.
type BodyKind int

const (
	BodyQuery BodyKind = iota
	BodyResponse
	BodyError
)

// Message is a decoded or to-be-encoded KRPC datagram.
type Message struct {
	TransactionID []byte
	Kind          BodyKind
	Query         Query
	Response      Response
	Error         Error
}

func queryMethodName(k QueryKind) string {
	switch k {
	case QueryPing:
		return "ping"
	case QueryFindNode:
		return "find_node"
	case QueryGetPeers:
		return "get_peers"
	case QueryAnnouncePeer:
		return "announce_peer"
	default:
		return ""
	}
}

// re-exported so callers of this package don't also need to import bencode
// just to compare decode errors.
var (
	ErrUnknown                  = bencode.ErrUnknown
	ErrMissingRequiredField     = bencode.ErrMissingRequiredField
	ErrRequiredFieldOfWrongType = bencode.ErrRequiredFieldOfWrongType
	ErrInvalidStringLength      = bencode.ErrInvalidStringLength
	ErrInvalidInteger           = bencode.ErrInvalidInteger
	ErrUnexpectedEOF            = bencode.ErrUnexpectedEOF
)
