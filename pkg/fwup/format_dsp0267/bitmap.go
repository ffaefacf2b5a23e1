package format_dsp0267

import (
	"fmt"

	fwuperrors "github.com/openbmc/pldm-fwup/pkg/fwup/errors"
)

// Bitmap fields are length-typed byte strings with LSB-first bit order:
// bit i lives at byte i/8, bit i%8. Byte 0 holds bits 0..7.

// BitmapBitLength returns the ComponentBitmapBitLength for a component
// count: the smallest multiple of 8 that covers every component index,
// never below 8.
func BitmapBitLength(componentCount int) uint16 {
	byteLen := componentCount / 8
	if componentCount%8 != 0 {
		byteLen++
	}
	if byteLen == 0 {
		byteLen = 1
	}
	return uint16(byteLen * 8)
}

// PackBitmap encodes a set of bit indices into a bitmap of bitLength
// bits. Indices at or beyond bitLength are rejected.
func PackBitmap(indices []int, bitLength uint16) ([]byte, error) {
	buf := make([]byte, int(bitLength)/8)
	for _, i := range indices {
		if i < 0 || i >= int(bitLength) {
			return nil, fmt.Errorf("%w: bit %d in a %d-bit bitmap",
				fwuperrors.ErrBadComponentIndex, i, bitLength)
		}
		buf[i/8] |= 1 << (i % 8)
	}
	return buf, nil
}

// UnpackBitmap decodes a bitmap into the sorted set of bit indices.
func UnpackBitmap(bitmap []byte) []int {
	var indices []int
	for i := 0; i < len(bitmap)*8; i++ {
		if bitmap[i/8]&(1<<(i%8)) != 0 {
			indices = append(indices, i)
		}
	}
	return indices
}

// PackFlagBits folds a set of bit indices into an integer bitfield of
// the given width, rejecting indices outside it.
func PackFlagBits(indices []int, width uint) (uint64, error) {
	var flags uint64
	for _, i := range indices {
		if i < 0 || i >= int(width) {
			return 0, fmt.Errorf("%w: bit %d in a %d-bit field",
				fwuperrors.ErrUnsupportedOptionBit, i, width)
		}
		flags |= 1 << uint(i)
	}
	return flags, nil
}
