package file

import "fmt"

// BlockId identifies a block of a file on disk by file name and zero-based
// block number. It is the unit of pinning in the buffer pool.
type BlockId struct {
	File        string
	BlockNumber int
}

func NewBlockId(filename string, blockNumber int) *BlockId {
	return &BlockId{File: filename, BlockNumber: blockNumber}
}

func (b *BlockId) Filename() string {
	return b.File
}

func (b *BlockId) Number() int {
	return b.BlockNumber
}

func (b *BlockId) Equals(other *BlockId) bool {
	if b == nil || other == nil {
		return b == other
	}
	return b.File == other.File && b.BlockNumber == other.BlockNumber
}

func (b *BlockId) String() string {
	return fmt.Sprintf("[file %s, block %d]", b.File, b.BlockNumber)
}
