package pathway

import (
	"testing"

	"pathogen/internal/model"
)

const sampleKGML = `<?xml version="1.0"?>
<pathway name="path:ko00010" title="Glycolysis">
  <entry id="1" type="gene" name="ko:K00001"/>
  <entry id="2" type="enzyme" name="ec:1.1.1.1" reaction="rn:R00754"/>
  <entry id="3" type="compound" name="cpd:C00001"/>
  <entry id="4" type="compound" name="cpd:C00002"/>
  <relation entry1="1" entry2="2" type="ECrel">
    <subtype name="compound" value="3"/>
  </relation>
  <relation entry1="1" entry2="99" type="ECrel"/>
  <reaction id="2" type="irreversible">
    <substrate id="3"/>
    <product id="4"/>
  </reaction>
</pathway>`

func TestDecodeKGML(t *testing.T) {
	pw, err := DecodeKGML([]byte(sampleKGML), "ko00010")
	if err != nil {
		t.Fatalf("decode kgml: %v", err)
	}

	if pw.ID != "ko00010" || pw.Name != "Glycolysis" {
		t.Fatalf("unexpected pathway identity: %+v", pw)
	}
	if len(pw.Nodes) != 4 {
		t.Fatalf("node count = %d, want 4", len(pw.Nodes))
	}
	if pw.Nodes[1].Type != model.NodeEnzyme || pw.Nodes[1].Reaction != "rn:R00754" {
		t.Fatalf("unexpected enzyme node: %+v", pw.Nodes[1])
	}

	// The relation to the undeclared entry 99 is dropped; the reaction adds
	// one substrate-product edge.
	if len(pw.Edges) != 2 {
		t.Fatalf("edge count = %d, want 2: %+v", len(pw.Edges), pw.Edges)
	}
	if pw.Edges[0].From != "1" || pw.Edges[0].To != "2" || pw.Edges[0].Type != "ECrel" {
		t.Fatalf("unexpected relation edge: %+v", pw.Edges[0])
	}
	if pw.Edges[0].Subtypes["compound"] != "3" {
		t.Fatalf("unexpected subtypes: %+v", pw.Edges[0].Subtypes)
	}
	if pw.Edges[1].From != "3" || pw.Edges[1].To != "4" || pw.Edges[1].Type != "reaction" {
		t.Fatalf("unexpected reaction edge: %+v", pw.Edges[1])
	}
}

func TestDecodeKGMLRejectsMalformedXML(t *testing.T) {
	if _, err := DecodeKGML([]byte("<pathway"), "broken"); err == nil {
		t.Fatal("expected decode error for malformed xml")
	}
}

func TestNodeTypeFromKGML(t *testing.T) {
	cases := map[string]model.NodeType{
		"gene":     model.NodeGene,
		"ortholog": model.NodeGene,
		"compound": model.NodeCompound,
		"enzyme":   model.NodeEnzyme,
		"reaction": model.NodeReaction,
		"map":      model.NodeUnknown,
	}
	for in, want := range cases {
		if got := nodeTypeFromKGML(in); got != want {
			t.Fatalf("nodeTypeFromKGML(%q) = %s, want %s", in, got, want)
		}
	}
}
