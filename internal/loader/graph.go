// Package loader follows use definitions across source files and orders
// the resulting units so that every file comes after the files it uses.
package loader

import (
	"fmt"
	"strings"

	"karmlang/karm/internal/ast"
)

// Unit is one loaded source file.
type Unit struct {
	Path    string       // Absolute filesystem path
	Name    string       // Path relative to the entry file's directory, for messages
	Source  string       // File contents
	Program *ast.Program // Parsed program
	Uses    []*Unit      // Units named by the file's use definitions, in order
	Users   []*Unit      // Units that use this one
}

// Graph is the use graph rooted at the entry file.
type Graph struct {
	Root  *Unit
	Units map[string]*Unit // indexed by absolute path
}

func newGraph() *Graph {
	return &Graph{Units: make(map[string]*Unit)}
}

func (g *Graph) addEdge(from, to *Unit) {
	from.Uses = append(from.Uses, to)
	to.Users = append(to.Users, from)
}

// CycleError reports a chain of use definitions leading back to a file
// already on the chain.
type CycleError struct {
	Cycle []string // Unit names forming the cycle, first and last equal
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("use cycle detected: %s", strings.Join(e.Cycle, " -> "))
}

// DetectCycles returns a CycleError for the first cycle reachable from
// the root, or nil.
func (g *Graph) DetectCycles() error {
	if g.Root == nil {
		return nil
	}

	// 0 = unvisited, 1 = in progress, 2 = done
	state := make(map[*Unit]int)
	var path []string

	var visit func(u *Unit) error
	visit = func(u *Unit) error {
		switch state[u] {
		case 2:
			return nil
		case 1:
			for i, name := range path {
				if name == u.Name {
					cycle := make([]string, 0, len(path)-i+1)
					cycle = append(cycle, path[i:]...)
					return &CycleError{Cycle: append(cycle, u.Name)}
				}
			}
			return &CycleError{Cycle: []string{u.Name, u.Name}}
		}

		state[u] = 1
		path = append(path, u.Name)
		for _, dep := range u.Uses {
			if err := visit(dep); err != nil {
				return err
			}
		}
		state[u] = 2
		path = path[:len(path)-1]
		return nil
	}

	return visit(g.Root)
}

// TopologicalSort returns the units reachable from the root with every
// unit after the units it uses. The root comes last.
func (g *Graph) TopologicalSort() ([]*Unit, error) {
	if err := g.DetectCycles(); err != nil {
		return nil, err
	}
	if g.Root == nil {
		return nil, nil
	}

	var result []*Unit
	visited := make(map[*Unit]bool)

	var visit func(u *Unit)
	visit = func(u *Unit) {
		if visited[u] {
			return
		}
		visited[u] = true
		for _, dep := range u.Uses {
			visit(dep)
		}
		result = append(result, u)
	}
	visit(g.Root)

	return result, nil
}
