// Package optimize turns the initial per-table plan.Node tree the analyzer
// builds into an equivalent tree of lower expected cost: cost-based join
// ordering, predicate pushdown, and projection pushdown, followed by
// lowering to a physical.Node tree. It never touches base tables or
// records directly -- all cost input comes from metadata.Statistics.
package optimize

import (
	"sort"

	"github.com/wrendb/wrendb/metadata"
	"github.com/wrendb/wrendb/plan"
	"github.com/wrendb/wrendb/types"
)

// buildJoinOrder builds the initial left-deep join tree for tables,
// ordered by ascending cardinality and, at each step, preferring a table
// connected to the already-joined set by a join condition. No conditions
// are attached to the Join nodes here; predicate pushdown attaches them.
func buildJoinOrder(tables []string, conditions []types.Condition, stats metadata.Statistics) (*plan.Node, error) {
	if len(tables) == 0 {
		return nil, nil
	}
	if len(tables) == 1 {
		return plan.NewScan(tables[0]), nil
	}

	cardinality := make(map[string]int, len(tables))
	for _, t := range tables {
		info, err := stats.TableStats(t)
		if err != nil {
			return nil, err
		}
		cardinality[t] = info.RecordsOutput()
	}

	ordered := append([]string(nil), tables...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return cardinality[ordered[i]] < cardinality[ordered[j]]
	})

	joined := []string{ordered[0]}
	root := plan.NewScan(ordered[0])
	remaining := ordered[1:]

	for len(remaining) > 0 {
		if !connected(remaining[0], joined, conditions) {
			for i := 1; i < len(remaining); i++ {
				if connected(remaining[i], joined, conditions) {
					remaining[0], remaining[i] = remaining[i], remaining[0]
					break
				}
			}
		}
		next := remaining[0]
		remaining = remaining[1:]
		root = plan.NewJoin(root, plan.NewScan(next), nil)
		joined = append(joined, next)
	}
	return root, nil
}

// connected reports whether some join condition connects candidate to a
// table already in joined.
func connected(candidate string, joined []string, conditions []types.Condition) bool {
	joinedSet := make(map[string]bool, len(joined))
	for _, t := range joined {
		joinedSet[t] = true
	}
	for _, c := range conditions {
		if !c.IsJoinCondition() {
			continue
		}
		if c.LeftTable == candidate && joinedSet[c.RHSTable] {
			return true
		}
		if c.RHSTable == candidate && joinedSet[c.LeftTable] {
			return true
		}
	}
	return false
}
