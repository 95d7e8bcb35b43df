package plan

import "sort"

// TopologicalOrder returns the tasks ordered so that each task's
// dependencies appear before the task itself, via depth-first traversal of
// the DependsOn edges. A task re-encountered while still on the recursion
// stack (a cycle) is not recursed into again; traversal continues past it,
// so malformed data degrades to a partial order instead of crashing the
// scheduler. Use FindCycles to surface the offending tasks.
func TopologicalOrder(tasks []*Task) []*Task {
	byID := make(map[int]*Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}

	visited := make(map[int]bool, len(tasks))
	inStack := make(map[int]bool)
	order := make([]*Task, 0, len(tasks))

	var visit func(t *Task)
	visit = func(t *Task) {
		if visited[t.ID] || inStack[t.ID] {
			return
		}
		inStack[t.ID] = true
		for _, depID := range t.DependsOn {
			if dep, ok := byID[depID]; ok {
				visit(dep)
			}
		}
		delete(inStack, t.ID)
		visited[t.ID] = true
		order = append(order, t)
	}

	for _, t := range tasks {
		visit(t)
	}
	return order
}

// FindCycles returns the ids of tasks re-encountered while on the DFS
// recursion stack, i.e. at least one member of every dependency cycle. The
// traversal runs over ids in sorted order so the result is identical
// regardless of input order. An empty result means the graph is a proper
// DAG.
func FindCycles(tasks []*Task) []int {
	byID := make(map[int]*Task, len(tasks))
	roots := make([]int, 0, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
		roots = append(roots, t.ID)
	}
	sort.Ints(roots)

	cycles := make(map[int]struct{})
	visited := make(map[int]bool, len(tasks))
	inStack := make(map[int]bool)

	var visit func(t *Task)
	visit = func(t *Task) {
		if visited[t.ID] {
			return
		}
		if inStack[t.ID] {
			cycles[t.ID] = struct{}{}
			return
		}
		inStack[t.ID] = true
		deps := append([]int(nil), t.DependsOn...)
		sort.Ints(deps)
		for _, depID := range deps {
			if dep, ok := byID[depID]; ok {
				visit(dep)
			}
		}
		delete(inStack, t.ID)
		visited[t.ID] = true
	}

	for _, id := range roots {
		visit(byID[id])
	}

	ids := make([]int, 0, len(cycles))
	for id := range cycles {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
