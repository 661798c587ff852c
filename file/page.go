package file

import (
	"encoding/binary"
	"math"
)

// Page is a fixed-size byte buffer representing the in-memory image of a
// disk block. All multi-byte values are stored big-endian.
type Page struct {
	buffer []byte
}

// NewPage creates a Page with a buffer of the given block size.
func NewPage(blockSize int) *Page {
	return &Page{buffer: make([]byte, blockSize)}
}

// NewPageFromBytes creates a Page by wrapping the provided byte slice.
func NewPageFromBytes(bytes []byte) *Page {
	return &Page{buffer: bytes}
}

// GetInt retrieves a 32-bit integer from the buffer at the specified offset.
func (p *Page) GetInt(offset int) int32 {
	return int32(binary.BigEndian.Uint32(p.buffer[offset:]))
}

// SetInt writes a 32-bit integer to the buffer at the specified offset.
func (p *Page) SetInt(offset int, n int32) {
	binary.BigEndian.PutUint32(p.buffer[offset:], uint32(n))
}

// GetInt64 retrieves a 64-bit integer from the buffer at the specified offset.
// Used for transaction numbers and LSNs, which are allocated from an
// ever-increasing counter and so are not safely bounded to 32 bits over the
// lifetime of a long-running database.
func (p *Page) GetInt64(offset int) int64 {
	return int64(binary.BigEndian.Uint64(p.buffer[offset:]))
}

// SetInt64 writes a 64-bit integer to the buffer at the specified offset.
func (p *Page) SetInt64(offset int, n int64) {
	binary.BigEndian.PutUint64(p.buffer[offset:], uint64(n))
}

// GetFloat retrieves a 32-bit IEEE float from the buffer at the specified offset.
func (p *Page) GetFloat(offset int) float32 {
	return math.Float32frombits(binary.BigEndian.Uint32(p.buffer[offset:]))
}

// SetFloat writes a 32-bit IEEE float to the buffer at the specified offset.
func (p *Page) SetFloat(offset int, f float32) {
	binary.BigEndian.PutUint32(p.buffer[offset:], math.Float32bits(f))
}

// GetFixedBytes reads exactly length bytes from the buffer at the specified offset.
func (p *Page) GetFixedBytes(offset, length int) []byte {
	b := make([]byte, length)
	copy(b, p.buffer[offset:offset+length])
	return b
}

// SetFixedBytes writes b into the buffer at offset, zero-padding or truncating
// to exactly length bytes.
func (p *Page) SetFixedBytes(offset, length int, b []byte) {
	dst := p.buffer[offset : offset+length]
	n := copy(dst, b)
	for i := n; i < length; i++ {
		dst[i] = 0
	}
}

// GetBytes retrieves a length-prefixed byte slice from the buffer.
func (p *Page) GetBytes(offset int) []byte {
	length := int(binary.BigEndian.Uint32(p.buffer[offset:]))
	start := offset + 4
	end := start + length
	b := make([]byte, length)
	copy(b, p.buffer[start:end])
	return b
}

// SetBytes writes a length-prefixed byte slice to the buffer.
func (p *Page) SetBytes(offset int, b []byte) {
	length := len(b)
	binary.BigEndian.PutUint32(p.buffer[offset:], uint32(length))
	start := offset + 4
	copy(p.buffer[start:], b)
}

// GetString retrieves a length-prefixed UTF-8 string from the buffer.
func (p *Page) GetString(offset int) string {
	return string(p.GetBytes(offset))
}

// SetString writes a length-prefixed UTF-8 string to the buffer.
func (p *Page) SetString(offset int, s string) {
	p.SetBytes(offset, []byte(s))
}

// MaxLength calculates the maximum number of bytes required to store a
// length-prefixed string of the given character length.
func MaxLength(strlen int) int {
	return 4 + strlen*4
}

// Contents returns the byte buffer maintained by the Page.
func (p *Page) Contents() []byte {
	return p.buffer
}
