package metadata

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
)

// JPEG container handling. Metadata lives in COM segments as "key=value"
// payloads. Everything from the SOS marker onward — entropy-coded image
// data included — is preserved as an opaque tail, so a metadata write can
// never touch the pixels.

const (
	markerSOI  = 0xD8
	markerEOI  = 0xD9
	markerSOS  = 0xDA
	markerCOM  = 0xFE
	markerAPP0 = 0xE0
	markerAPP1 = 0xE1
)

type jpegSegment struct {
	marker byte
	data   []byte
}

// jpegFile is a JPEG split at segment granularity. tail holds everything
// from the SOS marker to the end of the file, untouched.
type jpegFile struct {
	segments []jpegSegment
	tail     []byte
}

// decodeJPEG parses the segment stream up to SOS
func decodeJPEG(data []byte) (*jpegFile, error) {
	if len(data) < 4 || data[0] != 0xFF || data[1] != markerSOI {
		return nil, fmt.Errorf("not a JPEG file")
	}

	f := &jpegFile{}
	pos := 2

	for pos < len(data) {
		if data[pos] != 0xFF {
			return nil, fmt.Errorf("expected marker at offset %d", pos)
		}
		// Fill bytes before a marker are legal
		for pos < len(data) && data[pos] == 0xFF {
			pos++
		}
		if pos >= len(data) {
			return nil, fmt.Errorf("truncated marker at end of file")
		}
		marker := data[pos]
		pos++

		if marker == markerSOS {
			f.tail = append([]byte(nil), data[pos-2:]...)
			return f, nil
		}
		if marker == markerEOI {
			return nil, fmt.Errorf("missing SOS segment")
		}

		// Standalone markers (RSTn, TEM) carry no length
		if marker == 0x01 || (marker >= 0xD0 && marker <= 0xD7) {
			f.segments = append(f.segments, jpegSegment{marker: marker})
			continue
		}

		if pos+2 > len(data) {
			return nil, fmt.Errorf("truncated segment length at offset %d", pos)
		}
		length := int(binary.BigEndian.Uint16(data[pos : pos+2]))
		if length < 2 || pos+length > len(data) {
			return nil, fmt.Errorf("bad segment length %d at offset %d", length, pos)
		}

		payload := append([]byte(nil), data[pos+2:pos+length]...)
		f.segments = append(f.segments, jpegSegment{marker: marker, data: payload})
		pos += length
	}

	return nil, fmt.Errorf("missing SOS segment")
}

// encodeJPEG serializes the segments and re-attaches the preserved tail
func (f *jpegFile) encodeJPEG() []byte {
	var buf bytes.Buffer
	buf.Write([]byte{0xFF, markerSOI})

	var scratch [2]byte
	for _, s := range f.segments {
		buf.WriteByte(0xFF)
		buf.WriteByte(s.marker)
		if s.marker == 0x01 || (s.marker >= 0xD0 && s.marker <= 0xD7) {
			continue
		}
		binary.BigEndian.PutUint16(scratch[:], uint16(len(s.data)+2))
		buf.Write(scratch[:])
		buf.Write(s.data)
	}

	buf.Write(f.tail)
	return buf.Bytes()
}

// jpegTextEntries extracts key/value pairs from COM segments. A COM
// payload without '=' is someone else's comment and is ignored.
func (f *jpegFile) jpegTextEntries() []textEntry {
	var entries []textEntry
	for _, s := range f.segments {
		if s.marker != markerCOM {
			continue
		}
		payload := string(s.data)
		if eq := strings.IndexByte(payload, '='); eq > 0 {
			entries = append(entries, textEntry{key: payload[:eq], value: payload[eq+1:]})
		}
	}
	return entries
}

// jpegSetText removes COM segments whose key is in remove and inserts
// fresh COM segments for add after the leading APPn block. Foreign COM
// segments and all other segment types are carried through untouched.
func (f *jpegFile) jpegSetText(remove map[string]bool, add []textEntry) {
	kept := make([]jpegSegment, 0, len(f.segments))
	for _, s := range f.segments {
		if s.marker == markerCOM {
			payload := string(s.data)
			if eq := strings.IndexByte(payload, '='); eq > 0 && remove[payload[:eq]] {
				continue
			}
		}
		kept = append(kept, s)
	}

	// Insert after the run of APPn segments at the front so JFIF/EXIF
	// markers keep their expected position
	insertAt := 0
	for insertAt < len(kept) && kept[insertAt].marker >= markerAPP0 && kept[insertAt].marker <= 0xEF {
		insertAt++
	}

	fresh := make([]jpegSegment, 0, len(add))
	for _, e := range add {
		fresh = append(fresh, jpegSegment{
			marker: markerCOM,
			data:   []byte(e.key + "=" + e.value),
		})
	}

	out := make([]jpegSegment, 0, len(kept)+len(fresh))
	out = append(out, kept[:insertAt]...)
	out = append(out, fresh...)
	out = append(out, kept[insertAt:]...)
	f.segments = out
}

// jpegStructuralBytes concatenates every non-COM segment plus the tail.
// Comparing these before and after a metadata write proves the image
// data was untouched.
func (f *jpegFile) jpegStructuralBytes() []byte {
	var buf bytes.Buffer
	for _, s := range f.segments {
		if s.marker == markerCOM {
			continue
		}
		buf.WriteByte(s.marker)
		buf.Write(s.data)
	}
	buf.Write(f.tail)
	return buf.Bytes()
}
