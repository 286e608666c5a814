// Package pathway models biological pathways as directed graphs and derives
// code-mutation candidates from their structure.
package pathway

import (
	"fmt"

	"pathogen/internal/model"
)

// Graph is the queryable form of one pathway. It is built once per
// generation from a fetched pathway and is read-only afterwards.
type Graph struct {
	pathway model.Pathway

	nodes map[string]model.PathwayNode
	order []string
	out   map[string][]string
	in    map[string][]string

	edgeCount int
}

// NewGraph indexes a pathway for structural queries. Edges referencing
// unknown nodes are dropped, matching the permissive KGML relation handling.
func NewGraph(p model.Pathway) (*Graph, error) {
	g := &Graph{
		pathway: p,
		nodes:   make(map[string]model.PathwayNode, len(p.Nodes)),
		order:   make([]string, 0, len(p.Nodes)),
		out:     make(map[string][]string, len(p.Nodes)),
		in:      make(map[string][]string, len(p.Nodes)),
	}

	for _, node := range p.Nodes {
		if node.ID == "" {
			return nil, fmt.Errorf("pathway %s: node with empty id", p.ID)
		}
		if _, exists := g.nodes[node.ID]; exists {
			return nil, fmt.Errorf("pathway %s: duplicate node id %s", p.ID, node.ID)
		}
		g.nodes[node.ID] = node
		g.order = append(g.order, node.ID)
	}

	for _, edge := range p.Edges {
		if _, ok := g.nodes[edge.From]; !ok {
			continue
		}
		if _, ok := g.nodes[edge.To]; !ok {
			continue
		}
		g.out[edge.From] = append(g.out[edge.From], edge.To)
		g.in[edge.To] = append(g.in[edge.To], edge.From)
		g.edgeCount++
	}

	return g, nil
}

func (g *Graph) PathwayID() string { return g.pathway.ID }

func (g *Graph) NodeCount() int { return len(g.order) }

func (g *Graph) EdgeCount() int { return g.edgeCount }

func (g *Graph) Node(id string) (model.PathwayNode, bool) {
	node, ok := g.nodes[id]
	return node, ok
}

// NodeIDs returns node ids in insertion order, which keeps every downstream
// traversal deterministic.
func (g *Graph) NodeIDs() []string {
	return append([]string(nil), g.order...)
}

func (g *Graph) OutDegree(id string) int { return len(g.out[id]) }

func (g *Graph) InDegree(id string) int { return len(g.in[id]) }

func (g *Graph) Successors(id string) []string {
	return append([]string(nil), g.out[id]...)
}

func (g *Graph) Predecessors(id string) []string {
	return append([]string(nil), g.in[id]...)
}

// Stats summarizes the coarse structure of a graph. The mapper uses Acyclic
// and Density for confidence bonuses; the rest feeds run logs.
type Stats struct {
	NodeCount        int                    `json:"num_nodes"`
	EdgeCount        int                    `json:"num_edges"`
	Acyclic          bool                   `json:"is_dag"`
	Density          float64                `json:"density"`
	WeakComponents   int                    `json:"num_weakly_connected_components"`
	BranchingNodes   []string               `json:"branching_nodes,omitempty"`
	ConvergenceNodes []string               `json:"convergence_nodes,omitempty"`
	NodeTypes        map[model.NodeType]int `json:"node_types,omitempty"`
}

const statsNodeSample = 10

// Analyze computes the structural summary of the graph in O(V+E).
func (g *Graph) Analyze() Stats {
	stats := Stats{
		NodeCount:      g.NodeCount(),
		EdgeCount:      g.EdgeCount(),
		Acyclic:        g.acyclic(),
		Density:        g.density(),
		WeakComponents: g.weakComponents(),
	}

	if g.NodeCount() == 0 {
		return stats
	}

	stats.NodeTypes = make(map[model.NodeType]int)
	for _, id := range g.order {
		node := g.nodes[id]
		nodeType := node.Type
		if nodeType == "" {
			nodeType = model.NodeUnknown
		}
		stats.NodeTypes[nodeType]++

		if g.OutDegree(id) > 1 && len(stats.BranchingNodes) < statsNodeSample {
			stats.BranchingNodes = append(stats.BranchingNodes, id)
		}
		if g.InDegree(id) > 1 && len(stats.ConvergenceNodes) < statsNodeSample {
			stats.ConvergenceNodes = append(stats.ConvergenceNodes, id)
		}
	}

	return stats
}

func (g *Graph) density() float64 {
	n := g.NodeCount()
	if n <= 1 {
		return 0
	}
	return float64(g.edgeCount) / float64(n*(n-1))
}

// acyclic runs Kahn's algorithm over the indexed adjacency.
func (g *Graph) acyclic() bool {
	if g.NodeCount() == 0 {
		return true
	}

	indegree := make(map[string]int, len(g.order))
	for _, id := range g.order {
		indegree[id] = len(g.in[id])
	}

	queue := make([]string, 0, len(g.order))
	for _, id := range g.order {
		if indegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	visited := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		visited++
		for _, next := range g.out[id] {
			indegree[next]--
			if indegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}
	return visited == len(g.order)
}

func (g *Graph) weakComponents() int {
	if g.NodeCount() == 0 {
		return 0
	}

	seen := make(map[string]bool, len(g.order))
	components := 0
	for _, start := range g.order {
		if seen[start] {
			continue
		}
		components++
		stack := []string{start}
		seen[start] = true
		for len(stack) > 0 {
			id := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, next := range g.out[id] {
				if !seen[next] {
					seen[next] = true
					stack = append(stack, next)
				}
			}
			for _, prev := range g.in[id] {
				if !seen[prev] {
					seen[prev] = true
					stack = append(stack, prev)
				}
			}
		}
	}
	return components
}
