package metadata

import "github.com/wrendb/wrendb/tx"

// defaultStatRefreshLimit bounds how many GetStatInfo calls a StatManager
// serves from cache before recomputing every table's statistics from
// scratch.
const defaultStatRefreshLimit = 100

// Manager is the single facade the coordinator and optimizer use for all
// catalog and statistics access, composing Catalog and StatManager --
// one entry point, several specialized collaborators underneath.
type Manager struct {
	Catalog *Catalog
	Stats   Statistics
	statMgr *StatManager
}

// NewManager opens the catalog and computes initial statistics for txn's
// database.
func NewManager(txn *tx.Transaction) (*Manager, error) {
	catalog := Open(txn)
	statMgr, err := NewStatManager(txn, catalog, defaultStatRefreshLimit)
	if err != nil {
		return nil, err
	}
	return &Manager{
		Catalog: catalog,
		Stats:   NewFixedRatioStatistics(statMgr),
		statMgr: statMgr,
	}, nil
}

// RefreshStatistics forces every table's cached statistics to be
// recomputed, used by the CHECKPOINT statement path.
func (m *Manager) RefreshStatistics() error {
	m.statMgr.mu.Lock()
	defer m.statMgr.mu.Unlock()
	return m.statMgr.refreshLocked()
}
