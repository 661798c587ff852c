package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Manager is the disk manager. It reads and writes fixed-size blocks to
// files inside a single database directory, and hands out BlockIds for
// newly appended blocks. It is the sole component that talks to the host
// filesystem; the buffer pool, log manager and record file all go through
// it.
type Manager struct {
	dbDirectory string
	blockSize   int
	isNew       bool

	mu    sync.Mutex
	files map[string]*os.File
}

// NewManager opens (creating if necessary) the database directory at
// dbDirectory. isNew reports whether the directory had to be created,
// which callers use to decide whether to bootstrap catalog files.
func NewManager(dbDirectory string, blockSize int) (*Manager, error) {
	m := &Manager{
		dbDirectory: dbDirectory,
		blockSize:   blockSize,
		files:       make(map[string]*os.File),
	}

	if _, err := os.Stat(dbDirectory); os.IsNotExist(err) {
		m.isNew = true
		if err := os.MkdirAll(dbDirectory, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create db directory: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat db directory: %w", err)
	}

	// remove any leftover temp files from a previous run
	entries, err := os.ReadDir(dbDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to read db directory: %w", err)
	}
	for _, entry := range entries {
		if filepath.Ext(entry.Name()) == ".tmp" {
			_ = os.Remove(filepath.Join(dbDirectory, entry.Name()))
		}
	}

	return m, nil
}

// IsNew reports whether the database directory was newly created.
func (m *Manager) IsNew() bool {
	return m.isNew
}

// BlockSize returns the fixed block size used by this database.
func (m *Manager) BlockSize() int {
	return m.blockSize
}

// Directory returns the database directory this manager was opened
// against, used by callers that need to place a plain OS file alongside
// the block-managed ones (e.g. the coordinator's output.txt).
func (m *Manager) Directory() string {
	return m.dbDirectory
}

// IsFile reports whether the named file already exists inside the
// database directory.
func (m *Manager) IsFile(filename string) bool {
	_, err := os.Stat(filepath.Join(m.dbDirectory, filename))
	return err == nil
}

// CreateFile ensures the named file exists, creating an empty one if not.
func (m *Manager) CreateFile(filename string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, err := m.fileLocked(filename)
	return err
}

// DestroyFile removes the named file from the database directory. Any open
// handle is closed first.
func (m *Manager) DestroyFile(filename string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f, ok := m.files[filename]; ok {
		_ = f.Close()
		delete(m.files, filename)
	}
	path := filepath.Join(m.dbDirectory, filename)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to destroy file %s: %w", filename, err)
	}
	return nil
}

// Read reads the block into page's buffer.
func (m *Manager) Read(block *BlockId, page *Page) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, err := m.fileLocked(block.Filename())
	if err != nil {
		return err
	}
	offset := int64(block.Number()) * int64(m.blockSize)
	n, err := f.ReadAt(page.Contents(), offset)
	if err != nil && n == 0 {
		// reading a block that was allocated but never written; treat as zeros.
		for i := range page.Contents() {
			page.Contents()[i] = 0
		}
		return nil
	}
	return nil
}

// Write writes page's buffer to the specified block.
func (m *Manager) Write(block *BlockId, page *Page) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, err := m.fileLocked(block.Filename())
	if err != nil {
		return err
	}
	offset := int64(block.Number()) * int64(m.blockSize)
	if _, err := f.WriteAt(page.Contents(), offset); err != nil {
		return fmt.Errorf("failed to write block %s: %w", block, err)
	}
	return nil
}

// Append allocates a new block at the end of the named file and returns its BlockId.
func (m *Manager) Append(filename string) (BlockId, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	newBlockNumber, err := m.lengthLocked(filename)
	if err != nil {
		return BlockId{}, err
	}
	block := BlockId{File: filename, BlockNumber: newBlockNumber}

	f, err := m.fileLocked(filename)
	if err != nil {
		return BlockId{}, err
	}
	empty := make([]byte, m.blockSize)
	if _, err := f.WriteAt(empty, int64(block.BlockNumber)*int64(m.blockSize)); err != nil {
		return BlockId{}, fmt.Errorf("failed to append block: %w", err)
	}
	return block, nil
}

// Length returns the number of blocks in the named file.
func (m *Manager) Length(filename string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lengthLocked(filename)
}

func (m *Manager) lengthLocked(filename string) (int, error) {
	f, err := m.fileLocked(filename)
	if err != nil {
		return 0, err
	}
	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("failed to stat file %s: %w", filename, err)
	}
	return int(info.Size() / int64(m.blockSize)), nil
}

// fileLocked returns the open handle for filename, opening it if needed.
// Callers must hold m.mu.
func (m *Manager) fileLocked(filename string) (*os.File, error) {
	if f, ok := m.files[filename]; ok {
		return f, nil
	}
	path := filepath.Join(m.dbDirectory, filename)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", filename, err)
	}
	m.files[filename] = f
	return f, nil
}

// Close closes every open file handle. Called at database shutdown.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var firstErr error
	for name, f := range m.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close file %s: %w", name, err)
		}
	}
	m.files = make(map[string]*os.File)
	return firstErr
}
