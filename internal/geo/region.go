package geo

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrMalformedRegion is returned when a region payload cannot be decoded.
var ErrMalformedRegion = errors.New("malformed region")

// maxRegionTiles bounds the extent accepted from a payload header.
const maxRegionTiles = 4 * RegionSize * RegionSize

// Region holds the north/east flags of every tile in a rectangular block, on all levels.
// Payload format: 4 big-endian int32 (minX, minY, maxX, maxY) followed by a
// little-endian bit array of width*height*Levels*FlagCount bits.
type Region struct {
	minX, minY int
	maxX, maxY int
	width      int
	height     int
	bits       []uint64
}

// NewRegion creates an all-closed region covering [minX..maxX] x [minY..maxY].
func NewRegion(minX, minY, maxX, maxY int) *Region {
	w := maxX - minX + 1
	h := maxY - minY + 1
	n := w * h * Levels * FlagCount
	return &Region{
		minX:   minX,
		minY:   minY,
		maxX:   maxX,
		maxY:   maxY,
		width:  w,
		height: h,
		bits:   make([]uint64, (n+63)/64),
	}
}

// NewBlockedRegion creates the fully blocked region used for absent data.
func NewBlockedRegion(rx, ry int) *Region {
	return NewRegion(rx*RegionSize, ry*RegionSize, (rx+1)*RegionSize-1, (ry+1)*RegionSize-1)
}

// DecodeRegion parses a decompressed region payload.
func DecodeRegion(data []byte) (*Region, error) {
	if len(data) < regionHeaderSize {
		return nil, fmt.Errorf("%w: header needs %d bytes, got %d", ErrMalformedRegion, regionHeaderSize, len(data))
	}
	minX := int(int32(binary.BigEndian.Uint32(data[0:])))
	minY := int(int32(binary.BigEndian.Uint32(data[4:])))
	maxX := int(int32(binary.BigEndian.Uint32(data[8:])))
	maxY := int(int32(binary.BigEndian.Uint32(data[12:])))

	if minX < 0 || minY < 0 || maxX < minX || maxY < minY || maxX > MaxCoord || maxY > MaxCoord {
		return nil, fmt.Errorf("%w: bad extent [%d,%d]-[%d,%d]", ErrMalformedRegion, minX, minY, maxX, maxY)
	}
	if (maxX-minX+1)*(maxY-minY+1) > maxRegionTiles {
		return nil, fmt.Errorf("%w: extent [%d,%d]-[%d,%d] too large", ErrMalformedRegion, minX, minY, maxX, maxY)
	}

	r := NewRegion(minX, minY, maxX, maxY)
	payload := data[regionHeaderSize:]
	if len(payload) > len(r.bits)*8 {
		return nil, fmt.Errorf("%w: %d flag bytes exceed extent capacity %d", ErrMalformedRegion, len(payload), len(r.bits)*8)
	}
	// Trailing zero bytes may be trimmed by the encoder.
	for i, b := range payload {
		r.bits[i/8] |= uint64(b) << (uint(i%8) * 8)
	}
	return r, nil
}

// Encode serializes the region into its payload form.
func (r *Region) Encode() []byte {
	n := (r.width*r.height*Levels*FlagCount + 7) / 8
	out := make([]byte, regionHeaderSize+n)
	binary.BigEndian.PutUint32(out[0:], uint32(int32(r.minX)))
	binary.BigEndian.PutUint32(out[4:], uint32(int32(r.minY)))
	binary.BigEndian.PutUint32(out[8:], uint32(int32(r.maxX)))
	binary.BigEndian.PutUint32(out[12:], uint32(int32(r.maxY)))
	for i := range n {
		out[regionHeaderSize+i] = byte(r.bits[i/8] >> (uint(i%8) * 8))
	}
	return out
}

// Contains reports whether (x, y, level) lies within the region extent.
func (r *Region) Contains(x, y, level int) bool {
	return x >= r.minX && x <= r.maxX && y >= r.minY && y <= r.maxY && level >= 0 && level < Levels
}

// Get returns a tile flag. Coordinates outside the region read as closed.
func (r *Region) Get(x, y, level, flag int) bool {
	if !r.Contains(x, y, level) || flag < 0 || flag >= FlagCount {
		return false
	}
	i := r.index(x, y, level, flag)
	return r.bits[i>>6]&(1<<(uint(i)&63)) != 0
}

// Set writes a tile flag. Out-of-range writes are ignored.
func (r *Region) Set(x, y, level, flag int, open bool) {
	if !r.Contains(x, y, level) || flag < 0 || flag >= FlagCount {
		return
	}
	i := r.index(x, y, level, flag)
	if open {
		r.bits[i>>6] |= 1 << (uint(i) & 63)
	} else {
		r.bits[i>>6] &^= 1 << (uint(i) & 63)
	}
}

// SizeBytes returns the resident size of the flag array.
func (r *Region) SizeBytes() int {
	return len(r.bits) * 8
}

// Bounds returns the region extent.
func (r *Region) Bounds() (minX, minY, maxX, maxY int) {
	return r.minX, r.minY, r.maxX, r.maxY
}

func (r *Region) index(x, y, level, flag int) int {
	return (level*r.width*r.height+(y-r.minY)*r.width+(x-r.minX))*FlagCount + flag
}
