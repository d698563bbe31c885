package metadata

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
)

// PNG container handling. Metadata lives in text chunks; everything else —
// IHDR, IDAT, palette, everything we don't recognize — is carried through
// byte-for-byte so pixel data can never be altered by a metadata write.

var pngSignature = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}

type pngChunk struct {
	typ  string
	data []byte
}

func (c pngChunk) isText() bool {
	return c.typ == "tEXt" || c.typ == "iTXt" || c.typ == "zTXt"
}

// decodePNG splits a PNG byte stream into its chunks, validating the
// signature and each chunk's CRC
func decodePNG(data []byte) ([]pngChunk, error) {
	if len(data) < len(pngSignature) || !bytes.Equal(data[:len(pngSignature)], pngSignature) {
		return nil, fmt.Errorf("not a PNG file")
	}

	var chunks []pngChunk
	pos := len(pngSignature)

	for pos < len(data) {
		if pos+8 > len(data) {
			return nil, fmt.Errorf("truncated chunk header at offset %d", pos)
		}
		length := int(binary.BigEndian.Uint32(data[pos : pos+4]))
		typ := string(data[pos+4 : pos+8])

		end := pos + 8 + length + 4
		if length < 0 || end > len(data) {
			return nil, fmt.Errorf("truncated chunk %s at offset %d", typ, pos)
		}

		payload := data[pos+8 : pos+8+length]
		crc := binary.BigEndian.Uint32(data[pos+8+length : end])

		computed := crc32.NewIEEE()
		computed.Write(data[pos+4 : pos+8])
		computed.Write(payload)
		if computed.Sum32() != crc {
			return nil, fmt.Errorf("bad CRC for chunk %s", typ)
		}

		chunks = append(chunks, pngChunk{typ: typ, data: append([]byte(nil), payload...)})
		pos = end

		if typ == "IEND" {
			break
		}
	}

	if len(chunks) == 0 || chunks[len(chunks)-1].typ != "IEND" {
		return nil, fmt.Errorf("missing IEND chunk")
	}

	return chunks, nil
}

// encodePNG serializes chunks back into a PNG byte stream
func encodePNG(chunks []pngChunk) []byte {
	var buf bytes.Buffer
	buf.Write(pngSignature)

	var scratch [4]byte
	for _, c := range chunks {
		binary.BigEndian.PutUint32(scratch[:], uint32(len(c.data)))
		buf.Write(scratch[:])
		buf.WriteString(c.typ)
		buf.Write(c.data)

		crc := crc32.NewIEEE()
		crc.Write([]byte(c.typ))
		crc.Write(c.data)
		binary.BigEndian.PutUint32(scratch[:], crc.Sum32())
		buf.Write(scratch[:])
	}

	return buf.Bytes()
}

// textEntry is one key/value pair from a format's metadata container
type textEntry struct {
	key   string
	value string
}

// pngTextEntries extracts all key/value pairs from tEXt, iTXt and zTXt
// chunks. Entries that fail to decode are skipped; the container itself
// stays untouched.
func pngTextEntries(chunks []pngChunk) []textEntry {
	var entries []textEntry
	for _, c := range chunks {
		switch c.typ {
		case "tEXt":
			if key, value, ok := parseTEXt(c.data); ok {
				entries = append(entries, textEntry{key: key, value: value})
			}
		case "iTXt":
			if key, value, ok := parseITXt(c.data); ok {
				entries = append(entries, textEntry{key: key, value: value})
			}
		case "zTXt":
			if key, value, ok := parseZTXt(c.data); ok {
				entries = append(entries, textEntry{key: key, value: value})
			}
		}
	}
	return entries
}

func parseTEXt(data []byte) (string, string, bool) {
	sep := bytes.IndexByte(data, 0)
	if sep < 1 {
		return "", "", false
	}
	return string(data[:sep]), string(data[sep+1:]), true
}

func parseITXt(data []byte) (string, string, bool) {
	sep := bytes.IndexByte(data, 0)
	if sep < 1 || sep+3 > len(data) {
		return "", "", false
	}
	key := string(data[:sep])
	compressed := data[sep+1] == 1
	rest := data[sep+3:]

	// Skip language tag and translated keyword
	for i := 0; i < 2; i++ {
		z := bytes.IndexByte(rest, 0)
		if z < 0 {
			return "", "", false
		}
		rest = rest[z+1:]
	}

	if compressed {
		text, err := inflate(rest)
		if err != nil {
			return "", "", false
		}
		return key, string(text), true
	}
	return key, string(rest), true
}

func parseZTXt(data []byte) (string, string, bool) {
	sep := bytes.IndexByte(data, 0)
	if sep < 1 || sep+2 > len(data) {
		return "", "", false
	}
	key := string(data[:sep])
	text, err := inflate(data[sep+2:])
	if err != nil {
		return "", "", false
	}
	return key, string(text), true
}

func inflate(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// newITXtChunk builds an uncompressed iTXt chunk. iTXt is used for writing
// because its text is UTF-8, unlike Latin-1 tEXt.
func newITXtChunk(key, value string) pngChunk {
	var buf bytes.Buffer
	buf.WriteString(key)
	buf.WriteByte(0) // keyword terminator
	buf.WriteByte(0) // compression flag: uncompressed
	buf.WriteByte(0) // compression method
	buf.WriteByte(0) // empty language tag
	buf.WriteByte(0) // empty translated keyword
	buf.WriteString(value)
	return pngChunk{typ: "iTXt", data: buf.Bytes()}
}

// pngSetText removes every text chunk whose key is in remove and inserts
// fresh iTXt chunks for add directly after IHDR. Non-text chunks are
// carried through untouched.
func pngSetText(chunks []pngChunk, remove map[string]bool, add []textEntry) []pngChunk {
	out := make([]pngChunk, 0, len(chunks)+len(add))

	for _, c := range chunks {
		if c.isText() {
			key := textChunkKey(c)
			if remove[key] {
				continue
			}
		}
		out = append(out, c)

		if c.typ == "IHDR" {
			for _, e := range add {
				out = append(out, newITXtChunk(e.key, e.value))
			}
		}
	}

	return out
}

func textChunkKey(c pngChunk) string {
	sep := bytes.IndexByte(c.data, 0)
	if sep < 1 {
		return ""
	}
	return string(c.data[:sep])
}

// pngStructuralBytes concatenates every non-text chunk. Comparing these
// before and after a metadata write proves pixel data was untouched.
func pngStructuralBytes(chunks []pngChunk) []byte {
	var buf bytes.Buffer
	for _, c := range chunks {
		if c.isText() {
			continue
		}
		buf.WriteString(c.typ)
		buf.Write(c.data)
	}
	return buf.Bytes()
}
