package pathway

import (
	"testing"

	"pathogen/internal/model"
)

func testPathway() model.Pathway {
	return model.Pathway{
		ID: "ko00010",
		Nodes: []model.PathwayNode{
			{ID: "a", Type: model.NodeGene},
			{ID: "b", Type: model.NodeEnzyme, Reaction: "rn:R01234"},
			{ID: "c", Type: model.NodeCompound},
			{ID: "d", Type: model.NodeCompound},
		},
		Edges: []model.PathwayEdge{
			{From: "a", To: "b"},
			{From: "b", To: "c"},
			{From: "b", To: "d"},
		},
	}
}

func TestNewGraphIndexesNodesAndEdges(t *testing.T) {
	g, err := NewGraph(testPathway())
	if err != nil {
		t.Fatalf("new graph: %v", err)
	}

	if g.NodeCount() != 4 {
		t.Fatalf("node count = %d, want 4", g.NodeCount())
	}
	if g.EdgeCount() != 3 {
		t.Fatalf("edge count = %d, want 3", g.EdgeCount())
	}
	if g.OutDegree("b") != 2 {
		t.Fatalf("out degree of b = %d, want 2", g.OutDegree("b"))
	}
	if g.InDegree("b") != 1 {
		t.Fatalf("in degree of b = %d, want 1", g.InDegree("b"))
	}
	successors := g.Successors("b")
	if len(successors) != 2 || successors[0] != "c" || successors[1] != "d" {
		t.Fatalf("unexpected successors of b: %v", successors)
	}
}

func TestNewGraphRejectsDuplicateNodeIDs(t *testing.T) {
	pw := model.Pathway{
		ID: "dup",
		Nodes: []model.PathwayNode{
			{ID: "a"},
			{ID: "a"},
		},
	}
	if _, err := NewGraph(pw); err == nil {
		t.Fatal("expected error for duplicate node id")
	}
}

func TestNewGraphDropsEdgesToUnknownNodes(t *testing.T) {
	pw := model.Pathway{
		ID:    "partial",
		Nodes: []model.PathwayNode{{ID: "a"}, {ID: "b"}},
		Edges: []model.PathwayEdge{
			{From: "a", To: "b"},
			{From: "a", To: "ghost"},
			{From: "ghost", To: "b"},
		},
	}
	g, err := NewGraph(pw)
	if err != nil {
		t.Fatalf("new graph: %v", err)
	}
	if g.EdgeCount() != 1 {
		t.Fatalf("edge count = %d, want 1", g.EdgeCount())
	}
}

func TestAnalyzeAcyclicGraph(t *testing.T) {
	g, err := NewGraph(testPathway())
	if err != nil {
		t.Fatalf("new graph: %v", err)
	}

	stats := g.Analyze()
	if !stats.Acyclic {
		t.Fatal("expected acyclic graph")
	}
	if stats.NodeCount != 4 || stats.EdgeCount != 3 {
		t.Fatalf("unexpected counts: %+v", stats)
	}
	if stats.WeakComponents != 1 {
		t.Fatalf("weak components = %d, want 1", stats.WeakComponents)
	}
	wantDensity := 3.0 / 12.0
	if stats.Density != wantDensity {
		t.Fatalf("density = %v, want %v", stats.Density, wantDensity)
	}
	if len(stats.BranchingNodes) != 1 || stats.BranchingNodes[0] != "b" {
		t.Fatalf("unexpected branching nodes: %v", stats.BranchingNodes)
	}
	if stats.NodeTypes[model.NodeCompound] != 2 {
		t.Fatalf("unexpected node types: %v", stats.NodeTypes)
	}
}

func TestAnalyzeDetectsCycle(t *testing.T) {
	pw := model.Pathway{
		ID:    "cycle",
		Nodes: []model.PathwayNode{{ID: "a"}, {ID: "b"}, {ID: "c"}},
		Edges: []model.PathwayEdge{
			{From: "a", To: "b"},
			{From: "b", To: "c"},
			{From: "c", To: "a"},
		},
	}
	g, err := NewGraph(pw)
	if err != nil {
		t.Fatalf("new graph: %v", err)
	}
	if g.Analyze().Acyclic {
		t.Fatal("expected cyclic graph")
	}
}

func TestAnalyzeCountsDisconnectedComponents(t *testing.T) {
	pw := model.Pathway{
		ID:    "split",
		Nodes: []model.PathwayNode{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}},
		Edges: []model.PathwayEdge{
			{From: "a", To: "b"},
			{From: "c", To: "d"},
		},
	}
	g, err := NewGraph(pw)
	if err != nil {
		t.Fatalf("new graph: %v", err)
	}
	if got := g.Analyze().WeakComponents; got != 2 {
		t.Fatalf("weak components = %d, want 2", got)
	}
}

func TestAnalyzeEmptyGraph(t *testing.T) {
	g, err := NewGraph(model.Pathway{ID: "empty"})
	if err != nil {
		t.Fatalf("new graph: %v", err)
	}
	stats := g.Analyze()
	if !stats.Acyclic {
		t.Fatal("empty graph should be acyclic")
	}
	if stats.Density != 0 || stats.WeakComponents != 0 {
		t.Fatalf("unexpected empty stats: %+v", stats)
	}
}
