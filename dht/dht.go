// Package dht implements the Kademlia-style routing table a Mainline DHT
// node keeps: a binary tree of buckets of up to maxNodesPerBucket peers
// each, split on demand whenever a bucket is full, plus the
// bootstrap and find_node walk used to seed it.
package dht

import (
	"crypto/rand"
	"net"
	"time"

	"github.com/sjaensch/mainline-dht/err"
)

const maxNodesPerBucket = 8

var bootstrapNodes = []string{
	"router.utorrent.com:6881",
	"dht.transmissionbt.com:6881",
	"router.bittorrent.com:6881",
}

// DHT represents the DHT routing table
type DHT struct {
	NodeID     *[20]byte
	BucketTree *BucketTree
}

// BucketTree is an entry in the binary tree for our routing table
type BucketTree struct {
	LeftChild  *BucketTree // left and right children; if unset then this is a leaf, use Bucket instead
	RightChild *BucketTree
	Level      byte // Level within the tree, starts at 0
	Bucket     *Bucket
}

// Bucket represents one of the up to 160 buckets in the DHT, organized as a search tree
type Bucket struct {
	Nodes         *Node
	Count         byte
	LastRefreshed time.Time
}

// Node in the DHT
type Node struct {
	Next       *Node
	ID         *[20]byte
	Address    *net.UDPAddr
	LastActive time.Time
}

// BootstrapDHT initializes the DHT and fills it with the first nodes retrieved
// when looking for the given infohash
func BootstrapDHT(infohash [20]byte) (DHT, error) {
	dht := DHT{
		NodeID: new([20]byte),
		BucketTree: &BucketTree{
			Level:  0,
			Bucket: &Bucket{},
		},
	}
	rand.Read(dht.NodeID[:])

	raddr, resolveErr := net.ResolveUDPAddr("udp", bootstrapNodes[0])
	if resolveErr != nil {
		return dht, resolveErr
	}
	bootstrapNode := Node{
		Address: raddr,
	}

	nodes, findErr := bootstrapNode.FindNode(*dht.NodeID, infohash)
	if findErr != nil {
		return dht, findErr
	}
	dht.BucketTree.Bucket = &Bucket{
		Nodes: nodes,
	}

	return dht, nil
}

// bitAt returns the bit of id at bitIndex, counting from the most
// significant bit of id[0] (bitIndex 0) onward. This is the same bit a
// BucketTree at that depth branches on.
func bitAt(id *[20]byte, bitIndex byte) byte {
	bit := (id[bitIndex/8] >> (7 - (bitIndex % 8))) & 1
	err.Assert(bit == 0 || bit == 1)
	return bit
}

// InsertNode adds a Node to our routing table, descending to the
// appropriate bucket and splitting it if it's already full.
func (dht *DHT) InsertNode(node *Node) error {
	dht.BucketTree.addNode(node)
	return nil
}

// addNode descends bt to the leaf bucket node.ID belongs in, inserting it
// there; if that bucket is already at capacity, it's split into two
// child buckets (on the bit at bt.Level) and the insert is retried.
func (bt *BucketTree) addNode(node *Node) {
	if bt.Bucket == nil {
		err.Assert(bt.LeftChild != nil && bt.RightChild != nil)
		if bitAt(node.ID, bt.Level) == 0 {
			bt.LeftChild.addNode(node)
		} else {
			bt.RightChild.addNode(node)
		}
		return
	}

	if bt.Bucket.Count < maxNodesPerBucket {
		node.Next = bt.Bucket.Nodes
		bt.Bucket.Nodes = node
		bt.Bucket.Count++
		bt.Bucket.LastRefreshed = time.Now()
		return
	}

	// A full bucket is always split and the node is never discarded,
	// whatever the bucket's distance from our own ID: this routing table
	// does not track per-bucket ID ranges.
	bt.splitBucket()
	bt.addNode(node)
}

// splitBucket turns a full leaf into two leaves at Level+1, redistributing
// the existing nodes between them by the bit at the parent's Level.
func (bt *BucketTree) splitBucket() {
	left := &BucketTree{Level: bt.Level + 1, Bucket: &Bucket{}}
	right := &BucketTree{Level: bt.Level + 1, Bucket: &Bucket{}}

	for cur := bt.Bucket.Nodes; cur != nil; {
		next := cur.Next
		cur.Next = nil
		if bitAt(cur.ID, bt.Level) == 0 {
			left.addNode(cur)
		} else {
			right.addNode(cur)
		}
		cur = next
	}

	bt.Bucket = nil
	bt.LeftChild = left
	bt.RightChild = right
}
