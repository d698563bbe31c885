package metadata

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

// encodeFixturePNG renders a small RGBA image through the stdlib encoder
// so tests work against real PNG byte streams
func encodeFixturePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 16), G: uint8(y * 16), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding fixture: %v", err)
	}
	return buf.Bytes()
}

func TestDecodePNG_RoundTrip(t *testing.T) {
	original := encodeFixturePNG(t)

	chunks, err := decodePNG(original)
	if err != nil {
		t.Fatalf("decodePNG returned error: %v", err)
	}
	if chunks[0].typ != "IHDR" {
		t.Errorf("expected IHDR first, got %s", chunks[0].typ)
	}
	if chunks[len(chunks)-1].typ != "IEND" {
		t.Errorf("expected IEND last, got %s", chunks[len(chunks)-1].typ)
	}

	if !bytes.Equal(encodePNG(chunks), original) {
		t.Error("decode/encode round trip must be byte-identical")
	}
}

func TestDecodePNG_RejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"wrong signature", []byte("GIF89a whatever")},
		{"truncated after signature", pngSignature},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := decodePNG(tt.data); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestDecodePNG_RejectsBadCRC(t *testing.T) {
	data := encodeFixturePNG(t)
	// Flip a byte inside the IHDR payload without fixing its CRC
	data[len(pngSignature)+8] ^= 0xFF

	if _, err := decodePNG(data); err == nil {
		t.Error("expected CRC error")
	}
}

func TestPNGSetText_InsertAndReplace(t *testing.T) {
	chunks, err := decodePNG(encodeFixturePNG(t))
	if err != nil {
		t.Fatalf("decodePNG returned error: %v", err)
	}

	chunks = pngSetText(chunks, nil, []textEntry{{key: "px:tags", value: "a,b"}})
	entries := pngTextEntries(chunks)
	if len(entries) != 1 || entries[0].value != "a,b" {
		t.Fatalf("expected one entry a,b, got %v", entries)
	}

	// Replacing the same key must not accumulate chunks
	chunks = pngSetText(chunks, map[string]bool{"px:tags": true}, []textEntry{{key: "px:tags", value: "c"}})
	entries = pngTextEntries(chunks)
	if len(entries) != 1 || entries[0].value != "c" {
		t.Fatalf("expected single replaced entry, got %v", entries)
	}
}

func TestPNGSetText_PreservesStructuralBytes(t *testing.T) {
	chunks, _ := decodePNG(encodeFixturePNG(t))
	before := pngStructuralBytes(chunks)

	updated := pngSetText(chunks, map[string]bool{"px:rating": true}, []textEntry{
		{key: "px:rating", value: "4"},
		{key: "px:fields", value: `{"k":"v"}`},
	})

	if !bytes.Equal(pngStructuralBytes(updated), before) {
		t.Error("text edits must not touch non-text chunks")
	}

	// The result must still decode as a PNG the stdlib accepts
	if _, err := png.Decode(bytes.NewReader(encodePNG(updated))); err != nil {
		t.Errorf("stdlib decoder rejected rewritten PNG: %v", err)
	}
}

func TestPNGTextEntries_SkipsMalformedChunk(t *testing.T) {
	chunks, _ := decodePNG(encodeFixturePNG(t))

	// A tEXt chunk with no null separator is malformed but must not
	// break extraction of the valid ones
	chunks = append(chunks[:1], append([]pngChunk{
		{typ: "tEXt", data: []byte("no-separator-here")},
		newITXtChunk("px:rating", "5"),
	}, chunks[1:]...)...)

	entries := pngTextEntries(chunks)
	if len(entries) != 1 || entries[0].key != "px:rating" {
		t.Errorf("expected only the valid entry, got %v", entries)
	}
}

func TestITXtChunk_UnicodeValue(t *testing.T) {
	c := newITXtChunk("px:fields", `{"note":"日本語 façade"}`)
	key, value, ok := parseITXt(c.data)
	if !ok || key != "px:fields" || value != `{"note":"日本語 façade"}` {
		t.Errorf("iTXt must round-trip UTF-8, got %q=%q ok=%v", key, value, ok)
	}
}
