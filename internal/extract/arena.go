package extract

import "github.com/jward/trellis/internal/model"

// callerInfo describes a function-like syntax node that can own call
// relations. Anonymous function and arrow-function nodes get an entry with
// anonymous=true so the ancestor walk can pass through them.
type callerInfo struct {
	name      string
	kind      model.ParticipantKind
	className string
	start     model.Position
	anonymous bool
}

// nodeArena assigns every visited syntax node a stable index and a parent
// index, built during the extractor's single pre-order walk. The call
// resolver's "find enclosing declaration" is a walk over parent links in this
// arena rather than over mutable node pointers.
type nodeArena struct {
	parents []int
	callers []*callerInfo
}

func newArena() *nodeArena {
	return &nodeArena{}
}

// add registers a node with the given parent index (-1 for the root) and an
// optional caller descriptor, returning the node's arena index.
func (a *nodeArena) add(parent int, c *callerInfo) int {
	a.parents = append(a.parents, parent)
	a.callers = append(a.callers, c)
	return len(a.parents) - 1
}

// enclosingCaller walks ancestors from idx and returns the first named
// function, method, or constructor declaration. Anonymous function ancestors
// are transparent. Returns nil for top-level expressions.
func (a *nodeArena) enclosingCaller(idx int) *callerInfo {
	for i := a.parents[idx]; i >= 0; i = a.parents[i] {
		c := a.callers[i]
		if c != nil && !c.anonymous {
			return c
		}
	}
	return nil
}
