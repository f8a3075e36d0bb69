package prototype

import (
	"context"
	"fmt"
	"sort"
	"strings"

	protoform "github.com/protoform/protoform"
)

// CycleError names every prototype id on an inheritance cycle. The cycle and
// its whole descendant subtree are excluded from the published table;
// unrelated trees resolve normally.
type CycleError struct {
	IDs []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("prototype: inheritance cycle {%s}", strings.Join(e.IDs, ", "))
}

// Report summarizes one Resync pass.
type Report struct {
	Resolved int      // Prototypes in the published table.
	Excluded []string // Ids dropped (cycle membership, cycle descendants, populate failures).
	Cycles   []*CycleError
	Issues   protoform.Issues
}

// Resync recomputes the whole forest from the registered nodes and swaps the
// resolved id -> object table in atomically. The merge pass itself is
// single-threaded: topological order is a global property, so it runs only
// after all nodes are known. Structural schema failures abort with an error;
// cycles and per-node populate failures are findings in the Report.
func (s *Store[T]) Resync(ctx context.Context) (*Report, error) {
	s.mu.Lock()
	snapshot := make(map[string]*node, len(s.nodes))
	for id, n := range s.nodes {
		snapshot[id] = n
	}
	s.mu.Unlock()

	rep := &Report{}
	order := planOrder(snapshot, rep)

	merged := make(map[string][]protoform.DeserializedField, len(order))
	table := make(map[string]*T, len(order))
	for _, n := range order {
		own := n.fields
		if pf, ok := merged[n.parent]; ok {
			own = mergeFields(pf, own)
		}
		merged[n.id] = own

		obj := new(T)
		if err := s.reg.Populate(ctx, obj, own, s.opt); err != nil {
			// The node's object is excluded but its merged fields stay
			// available, so children still inherit through it.
			rep.Excluded = append(rep.Excluded, n.id)
			rep.Issues = protoform.AppendIssues(rep.Issues, prefixIssues(n.id, err)...)
			continue
		}
		table[n.id] = obj
	}
	rep.Resolved = len(table)
	sort.Strings(rep.Excluded)

	s.published.Store(&table)
	return rep, nil
}

// Classification of a node during the planOrder walk.
const (
	unseen = iota
	live
	dead
)

// planOrder detects cycles, excludes their subtrees, and returns the
// surviving nodes in merge order (parents strictly before children).
func planOrder(nodes map[string]*node, rep *Report) []*node {
	state := make(map[string]int, len(nodes))
	rank := make(map[string]int, len(nodes))

	ids := make([]string, 0, len(nodes))
	for id := range nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids) // deterministic cycle reporting and tie-breaks

	for _, id := range ids {
		if state[id] != unseen {
			continue
		}
		// Walk the ancestor chain. path holds descendant-first ids whose
		// fate depends on where the walk ends.
		var path []string
		onPath := map[string]int{}
		cur := id
		for {
			if st := state[cur]; st != unseen {
				// Reached an already-classified ancestor.
				finishPath(path, st == live, rank, rank[cur]+1, state)
				break
			}
			if at, ok := onPath[cur]; ok {
				// Revisited an id on the current walk: everything from the
				// first visit onward is the cycle, everything before is its
				// descendant subtree. All of it is excluded.
				cycle := append([]string(nil), path[at:]...)
				sort.Strings(cycle)
				rep.Cycles = append(rep.Cycles, &CycleError{IDs: cycle})
				for _, c := range cycle {
					it := protoform.NewIssue("/"+c, protoform.CodeInheritanceCycle)
					it.Hint = (&CycleError{IDs: cycle}).Error()
					rep.Issues = protoform.AppendIssues(rep.Issues, it)
				}
				finishPath(path, false, rank, 0, state)
				break
			}
			onPath[cur] = len(path)
			path = append(path, cur)

			n := nodes[cur]
			if n.parent == "" {
				finishPath(path, true, rank, 0, state)
				break
			}
			if _, ok := nodes[n.parent]; !ok {
				// Unregistered parent: resolve as a root, surface a warning.
				it := protoform.NewIssue("/"+cur, protoform.CodeMissingParent)
				it.Hint = "parent " + n.parent
				rep.Issues = protoform.AppendIssues(rep.Issues, it)
				finishPath(path, true, rank, 0, state)
				break
			}
			cur = n.parent
		}
	}

	var out []*node
	for _, id := range ids {
		if state[id] == live {
			out = append(out, nodes[id])
		} else {
			rep.Excluded = append(rep.Excluded, id)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := rank[out[i].id], rank[out[j].id]
		if ri != rj {
			return ri < rj
		}
		return out[i].id < out[j].id
	})
	return out
}

// finishPath classifies a walked ancestor chain. path is descendant-first;
// baseRank is the rank of the first classified entry (the deepest ancestor).
func finishPath(path []string, ok bool, rank map[string]int, baseRank int, state map[string]int) {
	st := live
	if !ok {
		st = dead
	}
	for i := len(path) - 1; i >= 0; i-- {
		state[path[i]] = st
		rank[path[i]] = baseRank + (len(path) - 1 - i)
	}
}

// mergeFields merges a parent's resolved fields into a child's own unmerged
// fields, position by position (both slices follow the same schema order).
func mergeFields(parent, child []protoform.DeserializedField) []protoform.DeserializedField {
	if len(parent) != len(child) {
		return child
	}
	out := make([]protoform.DeserializedField, len(child))
	for i := range child {
		out[i] = mergeField(parent[i], child[i])
	}
	return out
}

// mergeField applies the per-field inheritance policy.
func mergeField(parent, child protoform.DeserializedField) protoform.DeserializedField {
	switch child.Behavior {
	case protoform.InheritAlways:
		// Parent overrides the child even when the child mapped the field
		// explicitly.
		if parent.Mapped {
			return parent
		}
		return child
	case protoform.InheritNever:
		return child
	default: // InheritDefault
		if child.Mapped {
			return child
		}
		return parent
	}
}

// Cycles runs cycle detection over a bare id -> parent relation, without a
// store or schemas. Tooling uses it to lint prototype files before any type
// is involved.
func Cycles(parents map[string]string) []*CycleError {
	nodes := make(map[string]*node, len(parents))
	for id, p := range parents {
		nodes[id] = &node{id: id, parent: p}
	}
	rep := &Report{}
	planOrder(nodes, rep)
	return rep.Cycles
}

func prefixIssues(id string, err error) protoform.Issues {
	if iss, ok := protoform.AsIssues(err); ok {
		out := make(protoform.Issues, 0, len(iss))
		for _, it := range iss {
			it.Path = "/" + id + it.Path
			out = append(out, it)
		}
		return out
	}
	return protoform.Issues{{Path: "/" + id, Code: protoform.CodeCodecFailure, Message: err.Error(), Cause: err}}
}
