// Package torrentfile parses .torrent metainfo files. It exercises the
// bencode package's raw-span capture (EatAnySpan) to compute the info-hash
// the same way BEP 3 defines it: as a hash of the info dict's exact wire
// bytes, not of a value re-encoded from parsed fields.
package torrentfile

import (
	"crypto/sha1"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/sjaensch/mainline-dht/bencode"
)

// FileEntry represents a single file within a multi-file torrent
type FileEntry struct {
	Length int
	Path   string
	Name   string
	Md5sum string
}

// TorrentFile encodes the metadata from a .torrent file
type TorrentFile struct {
	Announce    string
	InfoHash    [20]byte
	PieceHashes [][20]byte
	PieceLength int
	Length      int
	Name        string
	Entries     []FileEntry
}

// Open reads and parses the .torrent file at path.
func Open(path string) (TorrentFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return TorrentFile{}, err
	}
	return Parse(raw)
}

// Parse decodes a .torrent file's raw bencoded bytes.
func Parse(raw []byte) (TorrentFile, error) {
	cursor := bencode.Bencode{Buffer: raw}
	peek, ok := cursor.Peek()
	if !ok || peek != 'd' {
		return TorrentFile{}, bencode.ErrUnknown
	}
	body := bencode.Bencode{Buffer: cursor.Buffer[1:]}

	var (
		announce string
		infoHash [20]byte
		haveInfo bool
		info     bencode.Dict
	)

	for {
		next, ok := body.Peek()
		if !ok {
			return TorrentFile{}, bencode.ErrUnexpectedEOF
		}
		if next == 'e' {
			body = bencode.Bencode{Buffer: body.Buffer[1:]}
			break
		}

		key, afterKey, err := body.EatString()
		if err != nil {
			return TorrentFile{}, err
		}
		value, span, afterValue, err := afterKey.EatAnySpan()
		if err != nil {
			return TorrentFile{}, err
		}

		switch string(key) {
		case "announce":
			if value.Kind == bencode.KindString {
				announce = string(value.Str)
			}
		case "info":
			if value.Kind != bencode.KindDict {
				return TorrentFile{}, bencode.ErrRequiredFieldOfWrongType
			}
			infoHash = sha1.Sum(span)
			haveInfo = true
			info = value.Dict
		}
		body = afterValue
	}

	if len(body.Buffer) > 0 {
		return TorrentFile{}, bencode.ErrUnknown
	}
	if !haveInfo {
		return TorrentFile{}, bencode.ErrMissingRequiredField
	}

	var (
		pieces      []byte
		pieceLength int
		length      int
		name        string
		files       []FileEntry
	)

	for {
		entry, ok := info.Next()
		if !ok {
			break
		}
		switch string(entry.Key) {
		case "pieces":
			if entry.Value.Kind == bencode.KindString {
				pieces = entry.Value.Str
			}
		case "piece length":
			if entry.Value.Kind == bencode.KindInteger {
				pieceLength = int(entry.Value.Int)
			}
		case "length":
			if entry.Value.Kind == bencode.KindInteger {
				length = int(entry.Value.Int)
			}
		case "name":
			if entry.Value.Kind == bencode.KindString {
				name = string(entry.Value.Str)
			}
		case "files":
			if entry.Value.Kind != bencode.KindList {
				continue
			}
			list := entry.Value.List
			for {
				item, ok := list.Next()
				if !ok {
					break
				}
				if item.Kind != bencode.KindDict {
					continue
				}
				fe, err := parseFileEntry(item.Dict, name)
				if err != nil {
					return TorrentFile{}, err
				}
				files = append(files, fe)
			}
		}
	}

	pieceHashes, err := splitPieceHashes(pieces)
	if err != nil {
		return TorrentFile{}, err
	}

	t := TorrentFile{
		Announce:    announce,
		InfoHash:    infoHash,
		PieceHashes: pieceHashes,
		PieceLength: pieceLength,
		Length:      length,
		Name:        name,
		Entries:     files,
	}

	sum := 0
	for _, f := range files {
		sum += f.Length
	}
	if sum > 0 {
		if t.Length != 0 && t.Length != sum {
			log.Printf("%s: torrent length (%d) and sum of file lengths (%d) differ, using file lengths", t.Name, t.Length, sum)
		}
		t.Length = sum
	}

	return t, nil
}

func parseFileEntry(d bencode.Dict, torrentName string) (FileEntry, error) {
	var (
		length    int
		md5sum    string
		pathParts []string
	)
	for {
		entry, ok := d.Next()
		if !ok {
			break
		}
		switch string(entry.Key) {
		case "length":
			if entry.Value.Kind == bencode.KindInteger {
				length = int(entry.Value.Int)
			}
		case "md5sum":
			if entry.Value.Kind == bencode.KindString {
				md5sum = string(entry.Value.Str)
			}
		case "path":
			if entry.Value.Kind != bencode.KindList {
				continue
			}
			list := entry.Value.List
			for {
				item, ok := list.Next()
				if !ok {
					break
				}
				if item.Kind == bencode.KindString {
					pathParts = append(pathParts, string(item.Str))
				}
			}
		}
	}
	if len(pathParts) == 0 {
		return FileEntry{}, bencode.ErrMissingRequiredField
	}

	dir := torrentName
	for _, p := range pathParts[:len(pathParts)-1] {
		dir = filepath.Join(dir, p)
	}
	return FileEntry{
		Length: length,
		Path:   dir,
		Name:   pathParts[len(pathParts)-1],
		Md5sum: md5sum,
	}, nil
}

func splitPieceHashes(pieces []byte) ([][20]byte, error) {
	const hashLen = 20
	if len(pieces)%hashLen != 0 {
		return nil, fmt.Errorf("torrentfile: malformed pieces string of length %d", len(pieces))
	}
	hashes := make([][20]byte, len(pieces)/hashLen)
	for i := range hashes {
		copy(hashes[i][:], pieces[i*hashLen:(i+1)*hashLen])
	}
	return hashes, nil
}
