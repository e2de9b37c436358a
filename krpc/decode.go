package krpc

import "github.com/sjaensch/mainline-dht/bencode"

// Decode parses one top-level KRPC dict from data. Trailing bytes after the
// dict are rejected (see bencode.Bencode.AsDict).
func Decode(data []byte) (*Message, error) {
	dict, err := (bencode.Bencode{Buffer: data}).AsDict()
	if err != nil {
		return nil, err
	}

	var (
		haveT, haveY  bool
		transactionID []byte
		yChar         byte
		qMethod       []byte
		aDict         *bencode.Dict
		rDict         *bencode.Dict
		eList         *bencode.List
	)

	for {
		entry, ok := dict.Next()
		if !ok {
			break
		}
		switch string(entry.Key) {
		case "t":
			if entry.Value.Kind != bencode.KindString {
				return nil, ErrRequiredFieldOfWrongType
			}
			transactionID = entry.Value.Str
			haveT = true
		case "y":
			if entry.Value.Kind != bencode.KindString || len(entry.Value.Str) != 1 {
				return nil, ErrRequiredFieldOfWrongType
			}
			yChar = entry.Value.Str[0]
			haveY = true
		case "q":
			if entry.Value.Kind != bencode.KindString {
				return nil, ErrRequiredFieldOfWrongType
			}
			qMethod = entry.Value.Str
		case "a":
			if entry.Value.Kind != bencode.KindDict {
				return nil, ErrRequiredFieldOfWrongType
			}
			d := entry.Value.Dict
			aDict = &d
		case "r":
			if entry.Value.Kind != bencode.KindDict {
				return nil, ErrRequiredFieldOfWrongType
			}
			d := entry.Value.Dict
			rDict = &d
		case "e":
			if entry.Value.Kind != bencode.KindList {
				return nil, ErrRequiredFieldOfWrongType
			}
			l := entry.Value.List
			eList = &l
		}
	}

	if !haveT || !haveY {
		return nil, ErrMissingRequiredField
	}

	msg := &Message{TransactionID: transactionID}

	switch yChar {
	case 'q':
		if qMethod == nil || aDict == nil {
			return nil, ErrMissingRequiredField
		}
		q, decErr := decodeQuery(string(qMethod), *aDict)
		if decErr != nil {
			return nil, decErr
		}
		msg.Kind = BodyQuery
		msg.Query = q
	case 'r':
		if rDict == nil {
			return nil, ErrMissingRequiredField
		}
		r, decErr := decodeResponse(*rDict)
		if decErr != nil {
			return nil, decErr
		}
		msg.Kind = BodyResponse
		msg.Response = r
	case 'e':
		if eList == nil {
			return nil, ErrMissingRequiredField
		}
		e, decErr := decodeError(*eList)
		if decErr != nil {
			return nil, decErr
		}
		msg.Kind = BodyError
		msg.Error = e
	default:
		return nil, ErrUnknown
	}
	return msg, nil
}

// eat20 requires field to be a 20-byte Bencode string. A present field of
// the wrong Bencode shape is RequiredFieldOfWrongType; a string field of
// the wrong length is treated as absent (MissingRequiredField).
func eat20(v bencode.Value, present bool) ([20]byte, error) {
	var out [20]byte
	if !present {
		return out, ErrMissingRequiredField
	}
	if v.Kind != bencode.KindString {
		return out, ErrRequiredFieldOfWrongType
	}
	if len(v.Str) != 20 {
		return out, ErrMissingRequiredField
	}
	copy(out[:], v.Str)
	return out, nil
}

func decodeQuery(method string, a bencode.Dict) (Query, error) {
	var (
		idVal, targetVal, infoHashVal, portVal, tokenVal bencode.Value
		haveID, haveTarget, haveInfoHash, havePort, haveToken bool
	)
	for {
		entry, ok := a.Next()
		if !ok {
			break
		}
		switch string(entry.Key) {
		case "id":
			idVal, haveID = entry.Value, true
		case "target":
			targetVal, haveTarget = entry.Value, true
		case "info_hash":
			infoHashVal, haveInfoHash = entry.Value, true
		case "port":
			portVal, havePort = entry.Value, true
		case "token":
			tokenVal, haveToken = entry.Value, true
		}
	}

	id, err := eat20(idVal, haveID)
	if err != nil {
		return Query{}, err
	}

	switch method {
	case "ping":
		return Query{Kind: QueryPing, ID: id}, nil
	case "find_node":
		target, err := eat20(targetVal, haveTarget)
		if err != nil {
			return Query{}, err
		}
		return Query{Kind: QueryFindNode, ID: id, Target: target}, nil
	case "get_peers":
		infoHash, err := eat20(infoHashVal, haveInfoHash)
		if err != nil {
			return Query{}, err
		}
		return Query{Kind: QueryGetPeers, ID: id, InfoHash: infoHash}, nil
	case "announce_peer":
		infoHash, err := eat20(infoHashVal, haveInfoHash)
		if err != nil {
			return Query{}, err
		}
		if !havePort {
			return Query{}, ErrMissingRequiredField
		}
		if portVal.Kind != bencode.KindInteger {
			return Query{}, ErrRequiredFieldOfWrongType
		}
		if !haveToken {
			return Query{}, ErrMissingRequiredField
		}
		if tokenVal.Kind != bencode.KindString {
			return Query{}, ErrRequiredFieldOfWrongType
		}
		return Query{
			Kind:     QueryAnnouncePeer,
			ID:       id,
			InfoHash: infoHash,
			Port:     portVal.Int,
			Token:    tokenVal.Str,
		}, nil
	default:
		return Query{}, ErrUnknown
	}
}

// decodeResponse disambiguates the response shape by field presence: a
// "token" key means GetPeers, else a "nodes" key means FindNode, else it's
// a bare Ping ack.
func decodeResponse(r bencode.Dict) (Response, error) {
	var (
		idVal, nodesVal, tokenVal        bencode.Value
		haveID, haveNodes, haveToken bool
	)
	for {
		entry, ok := r.Next()
		if !ok {
			break
		}
		switch string(entry.Key) {
		case "id":
			idVal, haveID = entry.Value, true
		case "nodes":
			nodesVal, haveNodes = entry.Value, true
		case "token":
			tokenVal, haveToken = entry.Value, true
		}
	}

	id, err := eat20(idVal, haveID)
	if err != nil {
		return Response{}, err
	}

	switch {
	case haveToken:
		if tokenVal.Kind != bencode.KindString {
			return Response{}, ErrRequiredFieldOfWrongType
		}
		return Response{Kind: ResponseGetPeers, ID: id, Token: tokenVal.Str}, nil
	case haveNodes:
		if nodesVal.Kind != bencode.KindString {
			return Response{}, ErrRequiredFieldOfWrongType
		}
		return Response{Kind: ResponseFindNode, ID: id, Nodes: nodesVal.Str}, nil
	default:
		return Response{Kind: ResponsePing, ID: id}, nil
	}
}

func decodeError(l bencode.List) (Error, error) {
	codeVal, ok := l.Next()
	if !ok {
		return Error{}, ErrMissingRequiredField
	}
	if codeVal.Kind != bencode.KindInteger {
		return Error{}, ErrRequiredFieldOfWrongType
	}
	msgVal, ok := l.Next()
	if !ok {
		return Error{}, ErrMissingRequiredField
	}
	if msgVal.Kind != bencode.KindString {
		return Error{}, ErrRequiredFieldOfWrongType
	}
	if _, extra := l.Next(); extra {
		return Error{}, ErrUnknown
	}
	kind := errorKindFromCode(codeVal.Int)
	e := Error{Kind: kind, Message: string(msgVal.Str)}
	if kind == ErrorUnknown {
		e.Code = codeVal.Int
	}
	return e, nil
}
