package metadata

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
)

func encodeFixtureJPEG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 16), G: uint8(y * 16), B: 64, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encoding fixture: %v", err)
	}
	return buf.Bytes()
}

func TestDecodeJPEG_RoundTrip(t *testing.T) {
	original := encodeFixtureJPEG(t)

	f, err := decodeJPEG(original)
	if err != nil {
		t.Fatalf("decodeJPEG returned error: %v", err)
	}
	if len(f.tail) == 0 {
		t.Fatal("expected preserved tail from SOS onward")
	}

	if !bytes.Equal(f.encodeJPEG(), original) {
		t.Error("decode/encode round trip must be byte-identical")
	}
}

func TestDecodeJPEG_RejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"not a jpeg", []byte("plain text file")},
		{"SOI only", []byte{0xFF, 0xD8}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := decodeJPEG(tt.data); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestJPEGSetText_InsertAndReplace(t *testing.T) {
	f, err := decodeJPEG(encodeFixtureJPEG(t))
	if err != nil {
		t.Fatalf("decodeJPEG returned error: %v", err)
	}

	f.jpegSetText(nil, []textEntry{{key: "px:tags", value: "a,b"}})
	entries := f.jpegTextEntries()
	if len(entries) != 1 || entries[0].value != "a,b" {
		t.Fatalf("expected one entry a,b, got %v", entries)
	}

	f.jpegSetText(map[string]bool{"px:tags": true}, []textEntry{{key: "px:tags", value: "c"}})
	entries = f.jpegTextEntries()
	if len(entries) != 1 || entries[0].value != "c" {
		t.Fatalf("expected single replaced entry, got %v", entries)
	}
}

func TestJPEGSetText_PreservesForeignComments(t *testing.T) {
	f, _ := decodeJPEG(encodeFixtureJPEG(t))
	f.segments = append(f.segments, jpegSegment{marker: markerCOM, data: []byte("shot on holiday")})

	f.jpegSetText(map[string]bool{"px:rating": true}, []textEntry{{key: "px:rating", value: "3"}})

	found := false
	for _, s := range f.segments {
		if s.marker == markerCOM && string(s.data) == "shot on holiday" {
			found = true
		}
	}
	if !found {
		t.Error("a COM segment without a key must survive metadata writes")
	}
}

func TestJPEGSetText_PreservesStructuralBytes(t *testing.T) {
	f, _ := decodeJPEG(encodeFixtureJPEG(t))
	before := f.jpegStructuralBytes()

	f.jpegSetText(nil, []textEntry{
		{key: "px:fields", value: `{"k":"v"}`},
		{key: "px:rating", value: "2"},
	})

	if !bytes.Equal(f.jpegStructuralBytes(), before) {
		t.Error("COM edits must not touch other segments or the tail")
	}

	if _, err := jpeg.Decode(bytes.NewReader(f.encodeJPEG())); err != nil {
		t.Errorf("stdlib decoder rejected rewritten JPEG: %v", err)
	}
}
