package concurrency

import (
	"fmt"
	"sync"
	"time"

	"github.com/wrendb/wrendb/file"
)

const maxWaitTime = 10 * time.Second

// lockTable is the single, process-wide table of locks held on blocks. It
// is shared by every transaction's Manager.
type lockTable struct {
	mu    sync.Mutex
	cond  *sync.Cond
	locks map[file.BlockId]int // >0: number of shared locks, -1: exclusive lock
}

var globalLockTable = newLockTable()

func newLockTable() *lockTable {
	lt := &lockTable{locks: make(map[file.BlockId]int)}
	lt.cond = sync.NewCond(&lt.mu)
	return lt
}

func (lt *lockTable) sLock(block *file.BlockId) error {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	deadline := time.Now().Add(maxWaitTime)
	for lt.hasXLock(*block) {
		if time.Now().After(deadline) {
			return fmt.Errorf("lock abort: timed out waiting for S-lock on %s", block)
		}
		lt.waitWithTimeout(deadline)
	}
	lt.locks[*block]++
	return nil
}

func (lt *lockTable) xLock(block *file.BlockId) error {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	deadline := time.Now().Add(maxWaitTime)
	for lt.hasOtherSLocks(*block) {
		if time.Now().After(deadline) {
			return fmt.Errorf("lock abort: timed out waiting for X-lock on %s", block)
		}
		lt.waitWithTimeout(deadline)
	}
	lt.locks[*block] = -1
	return nil
}

func (lt *lockTable) unlock(block *file.BlockId) {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	val := lt.locks[*block]
	if val > 1 {
		lt.locks[*block] = val - 1
	} else {
		delete(lt.locks, *block)
		lt.cond.Broadcast()
	}
}

func (lt *lockTable) hasXLock(block file.BlockId) bool {
	return lt.locks[block] < 0
}

func (lt *lockTable) hasOtherSLocks(block file.BlockId) bool {
	return lt.locks[block] > 1 || lt.locks[block] < 0
}

// waitWithTimeout blocks on the condition variable but wakes up at
// deadline even without a Broadcast, so timed-out waiters can re-check.
func (lt *lockTable) waitWithTimeout(deadline time.Time) {
	done := make(chan struct{})
	timer := time.AfterFunc(time.Until(deadline), func() {
		lt.mu.Lock()
		lt.cond.Broadcast()
		lt.mu.Unlock()
	})
	defer timer.Stop()
	defer close(done)
	lt.cond.Wait()
}

// LockType distinguishes the two lock modes a transaction can hold on a block.
type LockType int

const (
	Shared LockType = iota
	Exclusive
)

// Manager is a transaction's private view onto the shared lock table. It
// tracks which locks this transaction currently holds so Release can drop
// them all at once, and so repeated requests for the same lock are no-ops.
type Manager struct {
	locks map[file.BlockId]LockType
}

func NewManager() *Manager {
	return &Manager{locks: make(map[file.BlockId]LockType)}
}

// SLock obtains a shared lock on the block, if the transaction does not
// already have one (of either kind).
func (m *Manager) SLock(block *file.BlockId) error {
	if _, ok := m.locks[*block]; ok {
		return nil
	}
	if err := globalLockTable.sLock(block); err != nil {
		return err
	}
	m.locks[*block] = Shared
	return nil
}

// XLock obtains an exclusive lock on the block, first obtaining a shared
// lock (to detect any writer conflict early) if the transaction doesn't
// already hold one.
func (m *Manager) XLock(block *file.BlockId) error {
	if m.hasXLock(block) {
		return nil
	}
	if err := m.SLock(block); err != nil {
		return err
	}
	if err := globalLockTable.xLock(block); err != nil {
		return err
	}
	m.locks[*block] = Exclusive
	return nil
}

func (m *Manager) hasXLock(block *file.BlockId) bool {
	return m.locks[*block] == Exclusive
}

// Release drops every lock this transaction holds.
func (m *Manager) Release() {
	for block := range m.locks {
		block := block
		globalLockTable.unlock(&block)
	}
	m.locks = make(map[file.BlockId]LockType)
}
