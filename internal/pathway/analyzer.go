package pathway

import "pathogen/internal/model"

// DefaultMaxLinearChains bounds the linear-chain search. Chain discovery is
// the only candidate rule that walks paths rather than single nodes, so the
// cap keeps analysis linear on dense pathways.
const DefaultMaxLinearChains = 4

const minChainLength = 3

// Analyzer extracts mutation candidates from a pathway graph. The zero value
// uses DefaultMaxLinearChains.
type Analyzer struct {
	// MaxLinearChains caps how many qualifying chains are emitted per graph.
	// Zero means DefaultMaxLinearChains; negative disables chain detection.
	MaxLinearChains int
}

// Candidates classifies every node of the graph. The result order is
// deterministic: branching candidates first, then catalytic, convergence,
// and linear chains, each in node insertion order. Empty and edgeless
// graphs produce no candidates.
func (a Analyzer) Candidates(g *Graph) []model.MutationCandidate {
	if g == nil || g.NodeCount() == 0 || g.EdgeCount() == 0 {
		return nil
	}

	var candidates []model.MutationCandidate

	for _, id := range g.NodeIDs() {
		if out := g.OutDegree(id); out > 1 {
			candidates = append(candidates, model.MutationCandidate{
				Type:       model.CandidateBranchingPathway,
				NodeID:     id,
				OutDegree:  out,
				Successors: g.Successors(id),
			})
		}
	}

	for _, id := range g.NodeIDs() {
		node, _ := g.Node(id)
		if node.Type == model.NodeEnzyme {
			candidates = append(candidates, model.MutationCandidate{
				Type:     model.CandidateCatalyticReaction,
				NodeID:   id,
				Reaction: node.Reaction,
			})
		}
	}

	for _, id := range g.NodeIDs() {
		if in := g.InDegree(id); in > 1 {
			candidates = append(candidates, model.MutationCandidate{
				Type:     model.CandidateConvergencePoint,
				NodeID:   id,
				InDegree: in,
			})
		}
	}

	candidates = append(candidates, a.linearChains(g)...)

	return candidates
}

// linearChains finds maximal simple chains of length >= 3 where every
// interior node has out-degree exactly 1, stopping once the configured cap
// is reached.
func (a Analyzer) linearChains(g *Graph) []model.MutationCandidate {
	limit := a.MaxLinearChains
	if limit == 0 {
		limit = DefaultMaxLinearChains
	}
	if limit < 0 {
		return nil
	}

	var chains []model.MutationCandidate
	for _, start := range g.NodeIDs() {
		if len(chains) >= limit {
			break
		}
		if g.OutDegree(start) != 1 {
			continue
		}
		if isChainContinuation(g, start) {
			continue
		}

		path := walkChain(g, start)
		if len(path) < minChainLength {
			continue
		}
		chains = append(chains, model.MutationCandidate{
			Type:       model.CandidateLinearChain,
			NodeID:     start,
			Path:       path,
			PathLength: len(path),
		})
	}
	return chains
}

// isChainContinuation reports whether some predecessor would extend the
// chain through this node, meaning the chain starting here is not maximal.
func isChainContinuation(g *Graph, id string) bool {
	for _, prev := range g.Predecessors(id) {
		if g.OutDegree(prev) == 1 {
			return true
		}
	}
	return false
}

// walkChain follows unique successors from start until the chain branches
// or revisits a node.
func walkChain(g *Graph, start string) []string {
	visited := map[string]bool{start: true}
	path := []string{start}

	current := start
	for g.OutDegree(current) == 1 {
		next := g.Successors(current)[0]
		if visited[next] {
			break
		}
		visited[next] = true
		path = append(path, next)
		current = next
	}
	return path
}
