package main

import (
	"fmt"
	"log"
	"net"
	"os"
	"time"

	"github.com/sjaensch/mainline-dht/dht"
	"github.com/sjaensch/mainline-dht/krpc"
	"github.com/sjaensch/mainline-dht/nodeid"
	"github.com/sjaensch/mainline-dht/torrentfile"
)

func grabSocket() (*net.UDPConn, error) {
	return net.ListenUDP("udp", &net.UDPAddr{})
}

// ping sends a ping query to addr and returns the responder's node ID and
// the source address the reply was actually observed to arrive from. BEP 42
// node-ID derivation must use that observed address, not anything a peer
// claims about itself in the message body.
func ping(conn *net.UDPConn, addr string, transactionID []byte, ourID [20]byte) ([20]byte, net.IP, error) {
	raddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return [20]byte{}, nil, err
	}

	wire := (&krpc.Message{
		TransactionID: transactionID,
		Kind:          krpc.BodyQuery,
		Query:         krpc.Query{Kind: krpc.QueryPing, ID: ourID},
	}).Encode()
	if _, err := conn.WriteToUDP(wire, raddr); err != nil {
		return [20]byte{}, nil, err
	}

	if err := conn.SetReadDeadline(time.Now().Add(10 * time.Second)); err != nil {
		return [20]byte{}, nil, err
	}

	buf := make([]byte, 512)
	n, from, err := conn.ReadFromUDP(buf)
	if err != nil {
		return [20]byte{}, nil, err
	}

	msg, err := krpc.Decode(buf[:n])
	if err != nil {
		return [20]byte{}, nil, err
	}
	if msg.Kind != krpc.BodyResponse || msg.Response.Kind != krpc.ResponsePing {
		return [20]byte{}, nil, fmt.Errorf("ping: unexpected reply shape")
	}
	return msg.Response.ID, from.IP, nil
}

// getPeers sends a get_peers query for infohash to addr and logs the reply.
func getPeers(conn *net.UDPConn, addr string, ourID, infohash [20]byte) error {
	raddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return err
	}

	wire := (&krpc.Message{
		TransactionID: []byte("aa"),
		Kind:          krpc.BodyQuery,
		Query:         krpc.Query{Kind: krpc.QueryGetPeers, ID: ourID, InfoHash: infohash},
	}).Encode()
	if _, err := conn.WriteToUDP(wire, raddr); err != nil {
		return err
	}

	if err := conn.SetReadDeadline(time.Now().Add(10 * time.Second)); err != nil {
		return err
	}
	buf := make([]byte, 512)
	n, _, err := conn.ReadFromUDP(buf)
	if err != nil {
		return err
	}
	msg, err := krpc.Decode(buf[:n])
	if err != nil {
		return err
	}
	log.Printf("get_peers reply: %+v", msg)
	return nil
}

func main() {
	if len(os.Args) != 2 {
		log.Fatal("expected one argument: torrent file")
	}

	tf, err := torrentfile.Open(os.Args[1])
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("Loaded %s, info-hash %x", tf.Name, tf.InfoHash)

	conn, err := grabSocket()
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()
	log.Printf("Allocated socket %s", conn.LocalAddr())

	seed, err := nodeid.RandomSeed()
	if err != nil {
		log.Fatal(err)
	}

	peerID, observedIP, err := ping(conn, "router.bittorrent.com:6881", []byte("aa"), seed)
	if err != nil {
		log.Fatalf("bootstrap ping failed: %v", err)
	}
	log.Printf("Bootstrap node ID: %x", peerID)

	var ip4 [4]byte
	if v4 := observedIP.To4(); v4 != nil {
		copy(ip4[:], v4)
	}
	ourID := nodeid.Derive(ip4, seed)
	log.Printf("Derived node ID: %x", ourID)

	if err := getPeers(conn, "router.bittorrent.com:6881", ourID, tf.InfoHash); err != nil {
		log.Printf("get_peers failed: %v", err)
	}

	d, err := dht.BootstrapDHT(tf.InfoHash)
	if err != nil {
		log.Fatalf("failed to bootstrap routing table: %v", err)
	}
	log.Printf("Got DHT %+v", d)
}
