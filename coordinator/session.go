package coordinator

import (
	"github.com/wrendb/wrendb/metadata"
	"github.com/wrendb/wrendb/tx"
)

// Session tracks one client's transaction state across statements. A
// statement that runs outside an explicit BEGIN gets its own transaction,
// committed automatically once the statement finishes; a session that has
// called BEGIN keeps that transaction, and the catalog manager opened
// against it, open across statements until COMMIT or ROLLBACK closes it,
// matching the original engine's REPL session model.
type Session struct {
	txn *tx.Transaction
	mgr *metadata.Manager
}

// NewSession starts a session with no open explicit transaction.
func NewSession() *Session {
	return &Session{}
}

func (s *Session) inExplicitTransaction() bool {
	return s.txn != nil
}
