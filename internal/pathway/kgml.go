package pathway

import (
	"encoding/xml"
	"fmt"

	"pathogen/internal/model"
)

// KGML is the KEGG Markup Language: entries are graph nodes, relations are
// typed edges, and reactions connect substrates to products.

type kgmlPathway struct {
	XMLName   xml.Name       `xml:"pathway"`
	Name      string         `xml:"name,attr"`
	Title     string         `xml:"title,attr"`
	Entries   []kgmlEntry    `xml:"entry"`
	Relations []kgmlRelation `xml:"relation"`
	Reactions []kgmlReaction `xml:"reaction"`
}

type kgmlEntry struct {
	ID       string `xml:"id,attr"`
	Type     string `xml:"type,attr"`
	Name     string `xml:"name,attr"`
	Reaction string `xml:"reaction,attr"`
}

type kgmlRelation struct {
	Entry1   string        `xml:"entry1,attr"`
	Entry2   string        `xml:"entry2,attr"`
	Type     string        `xml:"type,attr"`
	Subtypes []kgmlSubtype `xml:"subtype"`
}

type kgmlSubtype struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type kgmlReaction struct {
	ID         string        `xml:"id,attr"`
	Type       string        `xml:"type,attr"`
	Substrates []kgmlElement `xml:"substrate"`
	Products   []kgmlElement `xml:"product"`
}

type kgmlElement struct {
	ID string `xml:"id,attr"`
}

// DecodeKGML builds a pathway from KGML XML. Relations and reaction edges
// that reference undeclared entries are dropped rather than rejected.
func DecodeKGML(data []byte, pathwayID string) (model.Pathway, error) {
	var doc kgmlPathway
	if err := xml.Unmarshal(data, &doc); err != nil {
		return model.Pathway{}, fmt.Errorf("decode kgml for %s: %w", pathwayID, err)
	}

	pw := model.Pathway{
		ID:   pathwayID,
		Name: doc.Title,
	}

	known := make(map[string]bool, len(doc.Entries))
	for _, entry := range doc.Entries {
		if entry.ID == "" || known[entry.ID] {
			continue
		}
		known[entry.ID] = true
		pw.Nodes = append(pw.Nodes, model.PathwayNode{
			ID:       entry.ID,
			Type:     nodeTypeFromKGML(entry.Type),
			Name:     entry.Name,
			Reaction: entry.Reaction,
		})
	}

	for _, relation := range doc.Relations {
		if !known[relation.Entry1] || !known[relation.Entry2] {
			continue
		}
		edge := model.PathwayEdge{
			From: relation.Entry1,
			To:   relation.Entry2,
			Type: relation.Type,
		}
		for _, subtype := range relation.Subtypes {
			if subtype.Name == "" {
				continue
			}
			if edge.Subtypes == nil {
				edge.Subtypes = make(map[string]string, len(relation.Subtypes))
			}
			edge.Subtypes[subtype.Name] = subtype.Value
		}
		pw.Edges = append(pw.Edges, edge)
	}

	for _, reaction := range doc.Reactions {
		for _, substrate := range reaction.Substrates {
			for _, product := range reaction.Products {
				if !known[substrate.ID] || !known[product.ID] {
					continue
				}
				pw.Edges = append(pw.Edges, model.PathwayEdge{
					From:       substrate.ID,
					To:         product.ID,
					Type:       "reaction",
					ReactionID: reaction.ID,
				})
			}
		}
	}

	return pw, nil
}

func nodeTypeFromKGML(entryType string) model.NodeType {
	switch entryType {
	case "gene", "ortholog":
		return model.NodeGene
	case "compound":
		return model.NodeCompound
	case "enzyme":
		return model.NodeEnzyme
	case "reaction":
		return model.NodeReaction
	default:
		return model.NodeUnknown
	}
}
