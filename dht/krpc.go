package dht

import (
	"encoding/binary"
	"fmt"
	"log"
	"net"
	"time"

	"github.com/sjaensch/mainline-dht/krpc"
)

// compactNodeSize is the wire width of one compact node-info entry: a
// 20-byte node ID, a 4-byte IPv4 address, and a 2-byte port (BEP 5).
const compactNodeSize = 20 + 4 + 2

// Request sends query to node as a KRPC message tagged with transactionID
// and returns the decoded reply.
func Request(node *Node, transactionID []byte, query krpc.Query) (*krpc.Message, error) {
	conn, err := net.DialUDP("udp", &net.UDPAddr{Port: 6881}, node.Address)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	wire := (&krpc.Message{TransactionID: transactionID, Kind: krpc.BodyQuery, Query: query}).Encode()
	n, err := conn.Write(wire)
	if err != nil {
		return nil, err
	}
	log.Printf("KRPC query bytes=%d data=%s", n, wire)

	deadline := time.Now().Add(5 * time.Second)
	if err := conn.SetReadDeadline(deadline); err != nil {
		return nil, err
	}

	buffer := make([]byte, 4096)
	nRead, addr, err := conn.ReadFrom(buffer)
	if err != nil {
		return nil, err
	}
	log.Printf("UDP packet received: bytes=%d from=%s data=%s", nRead, addr.String(), string(buffer[:nRead]))

	return krpc.Decode(buffer[:nRead])
}

// compactNodesToList parses a find_node response's "nodes" string (a
// concatenation of compactNodeSize-byte entries) into a linked list of Node.
func compactNodesToList(nodes []byte) (*Node, int) {
	count := len(nodes) / compactNodeSize
	var first, cur *Node
	for i := 0; i < count; i++ {
		entry := nodes[i*compactNodeSize : (i+1)*compactNodeSize]
		n := &Node{
			ID: new([20]byte),
			Address: &net.UDPAddr{
				IP:   append([]byte(nil), entry[20:24]...),
				Port: int(binary.BigEndian.Uint16(entry[24:26])),
			},
			LastActive: time.Now(),
		}
		copy(n.ID[:], entry[:20])
		if cur == nil {
			first = n
		} else {
			cur.Next = n
		}
		cur = n
	}
	return first, count
}

// FindNode sends a find_node query for target to node and returns the
// responding node's candidate peers as a linked list.
func (node *Node) FindNode(ourID, target [20]byte) (*Node, error) {
	msg, err := Request(node, []byte("aa"), krpc.Query{Kind: krpc.QueryFindNode, ID: ourID, Target: target})
	if err != nil {
		return nil, err
	}
	if msg.Kind == krpc.BodyError {
		return nil, fmt.Errorf("find_node error: code=%d message=%s", msg.Error.Code, msg.Error.Message)
	}
	if msg.Kind != krpc.BodyResponse || msg.Response.Kind != krpc.ResponseFindNode {
		return nil, fmt.Errorf("find_node: unexpected response shape")
	}

	first, count := compactNodesToList(msg.Response.Nodes)
	log.Printf("Got %d nodes in response", count)
	return first, nil
}
