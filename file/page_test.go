package file

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPage(t *testing.T) {
	t.Run("NewPage", func(t *testing.T) {
		assert := assert.New(t)
		blockSize := 400
		page := NewPage(blockSize)
		assert.Equal(blockSize, len(page.Contents()), "Buffer size should match block size")
	})

	t.Run("NewPageFromBytes", func(t *testing.T) {
		assert := assert.New(t)
		data := []byte{1, 2, 3, 4}
		page := NewPageFromBytes(data)

		assert.Equal(len(data), len(page.Contents()))
		assert.Equal(data, page.Contents())
	})

	t.Run("IntOperations", func(t *testing.T) {
		assert := assert.New(t)
		page := NewPage(100)
		testCases := []struct {
			offset int
			value  int32
		}{
			{0, 42},
			{4, -123},
			{8, 0},
			{12, math.MaxInt32},
			{16, math.MinInt32},
		}

		for _, tc := range testCases {
			page.SetInt(tc.offset, tc.value)
			got := page.GetInt(tc.offset)
			assert.Equal(tc.value, got, "int at offset %d should match", tc.offset)
		}
	})

	t.Run("FloatOperations", func(t *testing.T) {
		assert := assert.New(t)
		page := NewPage(100)
		testCases := []float32{0, 3.5, -3.5, math.MaxFloat32, -math.MaxFloat32}
		offset := 0
		for _, v := range testCases {
			page.SetFloat(offset, v)
			assert.Equal(v, page.GetFloat(offset))
			offset += 4
		}
	})

	t.Run("FixedBytesOperations", func(t *testing.T) {
		assert := assert.New(t)
		page := NewPage(100)
		page.SetFixedBytes(0, 8, []byte("ab"))
		got := page.GetFixedBytes(0, 8)
		assert.Equal([]byte{'a', 'b', 0, 0, 0, 0, 0, 0}, got)

		page.SetFixedBytes(20, 4, []byte("toolong"))
		got = page.GetFixedBytes(20, 4)
		assert.Equal([]byte("tool"), got)
	})

	t.Run("BytesOperations", func(t *testing.T) {
		assert := assert.New(t)
		page := NewPage(100)
		testCases := []struct {
			offset int
			data   []byte
		}{
			{0, []byte{1, 2, 3, 4}},
			{20, []byte{}},
			{40, []byte{255, 0, 255}},
		}

		for _, tc := range testCases {
			page.SetBytes(tc.offset, tc.data)
			got := page.GetBytes(tc.offset)
			assert.Equal(tc.data, got)
		}
	})

	t.Run("StringOperations", func(t *testing.T) {
		assert := assert.New(t)
		page := NewPage(1000)
		values := []string{"basic value", "", "line1\nline2"}
		offset := 0
		for _, v := range values {
			page.SetString(offset, v)
			got := page.GetString(offset)
			assert.Equal(v, got)
			offset += MaxLength(len(v)) + 8
		}
	})

	t.Run("MaxLength", func(t *testing.T) {
		assert := assert.New(t)
		assert.Equal(4, MaxLength(0))
		assert.Equal(4+4, MaxLength(1))
		assert.Equal(4+40, MaxLength(10))
	})

	t.Run("BufferBoundary", func(t *testing.T) {
		assert := assert.New(t)
		blockSize := 20
		page := NewPage(blockSize)
		lastValidOffset := blockSize - 4
		page.SetInt(lastValidOffset, 42)
		assert.Equal(int32(42), page.GetInt(lastValidOffset))
	})
}
