package krpc

import "github.com/sjaensch/mainline-dht/bencode"

// Encode serializes m to its Bencode wire form. Dict keys are emitted in a
// fixed order, per variant, chosen to already be lexicographic byte order —
// so no runtime sort is needed (see bencode.Encoder's doc comment).
func (m *Message) Encode() []byte {
	e := bencode.NewEncoder()
	e.BeginDict()

	switch m.Kind {
	case BodyQuery:
		e.Str("a")
		encodeQueryArgs(e, m.Query)
		e.Str("q")
		e.Str(queryMethodName(m.Query.Kind))
		e.Str("t")
		e.ByteString(m.TransactionID)
		e.Str("y")
		e.Str("q")
	case BodyResponse:
		e.Str("r")
		encodeResponseArgs(e, m.Response)
		e.Str("t")
		e.ByteString(m.TransactionID)
		e.Str("y")
		e.Str("r")
	case BodyError:
		e.Str("e")
		e.BeginList()
		code := errorKindCode(m.Error.Kind)
		if m.Error.Kind == ErrorUnknown {
			code = m.Error.Code
		}
		e.Int(code)
		e.Str(m.Error.Message)
		e.EndList()
		e.Str("t")
		e.ByteString(m.TransactionID)
		e.Str("y")
		e.Str("e")
	}

	e.EndDict()
	return e.Bytes()
}

// encodeQueryArgs emits the "a" dict body. Key order per variant:
//
//	ping:          id
//	find_node:     id, target
//	get_peers:     id, info_hash
//	announce_peer: id, info_hash, port, token
//
// each already lexicographic ("id" < "info_hash" < "port" < "token").
func encodeQueryArgs(e *bencode.Encoder, q Query) {
	e.BeginDict()
	e.Str("id")
	e.ByteString(q.ID[:])
	switch q.Kind {
	case QueryFindNode:
		e.Str("target")
		e.ByteString(q.Target[:])
	case QueryGetPeers:
		e.Str("info_hash")
		e.ByteString(q.InfoHash[:])
	case QueryAnnouncePeer:
		e.Str("info_hash")
		e.ByteString(q.InfoHash[:])
		e.Str("port")
		e.Int(q.Port)
		e.Str("token")
		e.ByteString(q.Token)
	}
	e.EndDict()
}

// encodeResponseArgs emits the "r" dict body. Key order per variant:
//
//	ping:      id
//	find_node: id, nodes
//	get_peers: id, token
//
// each already lexicographic ("id" < "nodes", "id" < "token").
func encodeResponseArgs(e *bencode.Encoder, r Response) {
	e.BeginDict()
	e.Str("id")
	e.ByteString(r.ID[:])
	switch r.Kind {
	case ResponseFindNode:
		e.Str("nodes")
		e.ByteString(r.Nodes)
	case ResponseGetPeers:
		e.Str("token")
		e.ByteString(r.Token)
	}
	e.EndDict()
}
