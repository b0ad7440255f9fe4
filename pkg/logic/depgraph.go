package logic

import (
	"sort"

	"github.com/formic-dev/formic/pkg/artifact"
	"github.com/formic-dev/formic/pkg/logic/expression"
)

// TopologicalSort orders a logic section for evaluation. Edges run from
// each key to every other logic-key name its expression references. The
// returned order is a safe linear evaluation order for the acyclic part of
// the graph; keys participating in any cycle (directly or through a
// multi-hop chain) are returned in cyclic instead and never receive a
// position in order. Both slices are deterministic: ties break
// lexicographically.
//
// Malformed expressions contribute no edges; they are reported by
// validation, not here.
func TopologicalSort(section map[string]string) (order []string, cyclic []string) {
	deps := make(map[string][]string, len(section))
	for name, text := range section {
		deps[name] = referencedKeys(section, text)
	}
	return sortByDeps(deps)
}

// sortLogicSection is TopologicalSort for full logic-key declarations:
// a structured key depends on every key referenced by any of its member
// expressions.
func sortLogicSection(section map[string]artifact.LogicKey) (order []string, cyclic []string) {
	names := make(map[string]string, len(section))
	for name := range section {
		names[name] = ""
	}

	deps := make(map[string][]string, len(section))
	for name, key := range section {
		if key.Structured() {
			seen := map[string]struct{}{}
			for _, text := range key.Object {
				for _, ref := range referencedKeys(names, text) {
					seen[ref] = struct{}{}
				}
			}
			refs := make([]string, 0, len(seen))
			for ref := range seen {
				refs = append(refs, ref)
			}
			sort.Strings(refs)
			deps[name] = refs
		} else {
			deps[name] = referencedKeys(names, key.Expr)
		}
	}
	return sortByDeps(deps)
}

// referencedKeys returns the logic-key names (bare identifiers that exist
// in the section) referenced by the expression, sorted.
func referencedKeys[V any](section map[string]V, text string) []string {
	parsed, err := expression.Parse(text)
	if err != nil {
		return nil
	}
	var refs []string
	for _, v := range parsed.Variables() {
		if _, ok := section[v]; ok {
			refs = append(refs, v)
		}
	}
	return refs
}

// sortByDeps runs the actual sort over a name→dependencies adjacency map.
// Cycle membership comes from Tarjan's strongly connected components:
// every component of size two or more, plus self-loops, is cyclic. Kahn's
// algorithm then orders the remaining keys; a key that merely depends on a
// cyclic key still gets a position (its evaluation degrades, it does not
// disappear).
func sortByDeps(deps map[string][]string) (order []string, cyclic []string) {
	cyclicSet := cycleMembers(deps)

	indegree := make(map[string]int, len(deps))
	dependents := make(map[string][]string, len(deps))
	for name, refs := range deps {
		if _, bad := cyclicSet[name]; bad {
			continue
		}
		for _, ref := range refs {
			if _, bad := cyclicSet[ref]; bad {
				continue
			}
			indegree[name]++
			dependents[ref] = append(dependents[ref], name)
		}
	}

	var ready []string
	for name := range deps {
		if _, bad := cyclicSet[name]; bad {
			continue
		}
		if indegree[name] == 0 {
			ready = append(ready, name)
		}
	}
	sort.Strings(ready)

	order = make([]string, 0, len(deps)-len(cyclicSet))
	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]
		order = append(order, name)

		next := append([]string(nil), dependents[name]...)
		sort.Strings(next)
		for _, dep := range next {
			indegree[dep]--
			if indegree[dep] == 0 {
				ready = insertSorted(ready, dep)
			}
		}
	}

	cyclic = make([]string, 0, len(cyclicSet))
	for name := range cyclicSet {
		cyclic = append(cyclic, name)
	}
	sort.Strings(cyclic)
	return order, cyclic
}

func insertSorted(list []string, s string) []string {
	i := sort.SearchStrings(list, s)
	list = append(list, "")
	copy(list[i+1:], list[i:])
	list[i] = s
	return list
}

// cycleMembers returns the set of keys on at least one cycle, via Tarjan's
// SCC algorithm (iteratively maintained stack, recursion on the graph's
// depth is fine at logic-section scale).
func cycleMembers(deps map[string][]string) map[string]struct{} {
	type state struct {
		index, lowlink int
		onStack        bool
		visited        bool
	}

	states := make(map[string]*state, len(deps))
	for name := range deps {
		states[name] = &state{}
	}

	var (
		index  int
		stack  []string
		cyclic = map[string]struct{}{}
	)

	var strongConnect func(name string)
	strongConnect = func(name string) {
		st := states[name]
		st.visited = true
		st.index = index
		st.lowlink = index
		index++
		stack = append(stack, name)
		st.onStack = true

		for _, ref := range deps[name] {
			rst, ok := states[ref]
			if !ok {
				continue
			}
			if !rst.visited {
				strongConnect(ref)
				if rst.lowlink < st.lowlink {
					st.lowlink = rst.lowlink
				}
			} else if rst.onStack {
				if rst.index < st.lowlink {
					st.lowlink = rst.index
				}
			}
			if ref == name {
				// Self-loop: a component of one is still a cycle.
				cyclic[name] = struct{}{}
			}
		}

		if st.lowlink == st.index {
			var component []string
			for {
				top := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				states[top].onStack = false
				component = append(component, top)
				if top == name {
					break
				}
			}
			if len(component) > 1 {
				for _, member := range component {
					cyclic[member] = struct{}{}
				}
			}
		}
	}

	names := make([]string, 0, len(deps))
	for name := range deps {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if !states[name].visited {
			strongConnect(name)
		}
	}
	return cyclic
}
