// Package deps orders plugin manifests so that every plugin defining a
// component is initialized before any plugin requiring it.
package deps

import "github.com/cask-engine/cask/abi"

// graph is the transient dependency structure built by Resolve. Manifests are
// tracked by their position in the input slice.
type graph struct {
	manifests  []*abi.Manifest
	definers   map[string]int
	dependents [][]int
	inDegree   []int
}

// Resolve returns manifests in a deterministic topological order. Ties between
// ready manifests are broken by input order.
func Resolve(manifests []*abi.Manifest) ([]*abi.Manifest, error) {
	g := &graph{
		manifests:  manifests,
		definers:   make(map[string]int),
		dependents: make([][]int, len(manifests)),
		inDegree:   make([]int, len(manifests)),
	}
	if err := g.buildDefiners(); err != nil {
		return nil, err
	}
	if err := g.buildEdges(); err != nil {
		return nil, err
	}
	return g.sort()
}

func (g *graph) buildDefiners() error {
	for i, m := range g.manifests {
		for _, component := range m.Defines {
			if prev, ok := g.definers[component]; ok {
				return &ConfigurationError{
					Kind:      KindDuplicateDefiner,
					Component: component,
					Plugins:   []string{g.manifests[prev].Name, m.Name},
				}
			}
			g.definers[component] = i
		}
	}
	return nil
}

func (g *graph) buildEdges() error {
	for i, m := range g.manifests {
		for _, component := range m.Requires {
			definer, ok := g.definers[component]
			if !ok {
				return &ConfigurationError{
					Kind:      KindMissingDependency,
					Component: component,
					Plugins:   []string{m.Name},
				}
			}
			// A plugin requiring its own component needs no ordering.
			if definer == i {
				continue
			}
			g.dependents[definer] = append(g.dependents[definer], i)
			g.inDegree[i]++
		}
	}
	return nil
}

func (g *graph) sort() ([]*abi.Manifest, error) {
	ready := make([]int, 0, len(g.manifests))
	for i := range g.manifests {
		if g.inDegree[i] == 0 {
			ready = append(ready, i)
		}
	}

	result := make([]*abi.Manifest, 0, len(g.manifests))
	placed := make([]bool, len(g.manifests))
	for len(ready) > 0 {
		current := ready[0]
		ready = ready[1:]
		result = append(result, g.manifests[current])
		placed[current] = true

		for _, dependent := range g.dependents[current] {
			g.inDegree[dependent]--
			if g.inDegree[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
	}

	if len(result) < len(g.manifests) {
		var stuck []string
		for i, m := range g.manifests {
			if !placed[i] {
				stuck = append(stuck, m.Name)
			}
		}
		return nil, &ConfigurationError{Kind: KindCircularDependency, Plugins: stuck}
	}
	return result, nil
}
