package domain

import (
	"fmt"
	"image"
	"math"
	"math/bits"
	"sort"
	"strconv"

	"github.com/nfnt/resize"
)

// HashKind identifies the perceptual hash algorithm
type HashKind string

const (
	HashAverage    HashKind = "average"
	HashDifference HashKind = "difference"
	HashPerceptual HashKind = "perceptual"
)

// Hash is a 64-bit perceptual image hash. Two visually similar images
// produce hashes with a small Hamming distance.
type Hash struct {
	Bits uint64
	Kind HashKind
}

// Distance returns the Hamming distance between two hashes
func (h Hash) Distance(other Hash) int {
	return bits.OnesCount64(h.Bits ^ other.Bits)
}

// Similarity returns a score in [0,1]; 1 means identical hashes.
// Hashes of different kinds are never considered similar.
func (h Hash) Similarity(other Hash) float64 {
	if h.Kind != other.Kind {
		return 0
	}
	return 1.0 - float64(h.Distance(other))/64.0
}

// Hex returns the hash as a 16-character hex string
func (h Hash) Hex() string {
	return fmt.Sprintf("%016x", h.Bits)
}

// ParseHash parses a hex string produced by Hex
func ParseHash(hex string, kind HashKind) (Hash, error) {
	v, err := strconv.ParseUint(hex, 16, 64)
	if err != nil {
		return Hash{}, fmt.Errorf("invalid hash %q: %w", hex, err)
	}
	return Hash{Bits: v, Kind: kind}, nil
}

// ComputeHash computes the hash of an image using the named algorithm
func ComputeHash(img image.Image, kind HashKind) (Hash, error) {
	switch kind {
	case HashAverage:
		return AverageHash(img), nil
	case HashDifference:
		return DifferenceHash(img), nil
	case HashPerceptual:
		return PerceptualHash(img), nil
	default:
		return Hash{}, fmt.Errorf("unknown hash algorithm: %s", kind)
	}
}

// AverageHash computes the aHash: shrink to 8x8, threshold against the mean
func AverageHash(img image.Image) Hash {
	pixels := grayPixels(img, 8, 8)

	var sum float64
	for _, p := range pixels {
		sum += p
	}
	avg := sum / float64(len(pixels))

	var h uint64
	for i, p := range pixels {
		if p > avg {
			h |= 1 << uint(63-i)
		}
	}
	return Hash{Bits: h, Kind: HashAverage}
}

// DifferenceHash computes the dHash: shrink to 9x8, compare horizontal neighbors
func DifferenceHash(img image.Image) Hash {
	pixels := grayPixels(img, 9, 8)

	var h uint64
	bit := 0
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if pixels[y*9+x+1] > pixels[y*9+x] {
				h |= 1 << uint(63-bit)
			}
			bit++
		}
	}
	return Hash{Bits: h, Kind: HashDifference}
}

// PerceptualHash computes the pHash: shrink to 32x32, 2D DCT, threshold the
// top-left 8x8 coefficient block against its median
func PerceptualHash(img image.Image) Hash {
	pixels := grayPixels(img, 32, 32)

	coeffs := dct2d(pixels, 32)

	// Top-left 8x8 holds the low frequencies
	low := make([]float64, 0, 64)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			low = append(low, coeffs[y*32+x])
		}
	}

	med := median(low)

	var h uint64
	for i, c := range low {
		if c > med {
			h |= 1 << uint(63-i)
		}
	}
	return Hash{Bits: h, Kind: HashPerceptual}
}

// grayPixels resizes the image and returns row-major grayscale values
func grayPixels(img image.Image, w, h int) []float64 {
	small := resize.Resize(uint(w), uint(h), img, resize.Bilinear)

	pixels := make([]float64, 0, w*h)
	bounds := small.Bounds()
	for y := bounds.Min.Y; y < bounds.Min.Y+h; y++ {
		for x := bounds.Min.X; x < bounds.Min.X+w; x++ {
			r, g, b, _ := small.At(x, y).RGBA()
			// ITU-R BT.601 luma, 16-bit channels
			lum := 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
			pixels = append(pixels, lum/256.0)
		}
	}
	return pixels
}

// dct2d computes a 2D DCT-II over an n x n block
func dct2d(pixels []float64, n int) []float64 {
	// Row pass
	rows := make([]float64, n*n)
	for y := 0; y < n; y++ {
		for u := 0; u < n; u++ {
			var sum float64
			for x := 0; x < n; x++ {
				sum += pixels[y*n+x] * math.Cos(math.Pi*float64(u)*(2*float64(x)+1)/(2*float64(n)))
			}
			rows[y*n+u] = sum
		}
	}

	// Column pass
	out := make([]float64, n*n)
	for u := 0; u < n; u++ {
		for v := 0; v < n; v++ {
			var sum float64
			for y := 0; y < n; y++ {
				sum += rows[y*n+u] * math.Cos(math.Pi*float64(v)*(2*float64(y)+1)/(2*float64(n)))
			}
			out[v*n+u] = sum
		}
	}
	return out
}

func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
