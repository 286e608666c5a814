package pathway

import (
	"fmt"
	"strings"

	"pathogen/internal/model"
)

// ParseFlat parses the KEGG flat-file pathway format into a simplified
// pathway: genes and compounds become disconnected nodes. Sources fall back
// to this shape when KGML is unavailable for a pathway id.
func ParseFlat(text, pathwayID string) model.Pathway {
	pw := model.Pathway{ID: pathwayID}

	section := ""
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if strings.HasPrefix(line, "///") {
			break
		}

		switch {
		case strings.HasPrefix(line, "NAME"):
			section = ""
			pw.Name = strings.TrimSpace(flatValue(line))
		case strings.HasPrefix(line, "GENE"):
			section = "GENE"
			if v := strings.TrimSpace(flatValue(line)); v != "" {
				pw.Genes = append(pw.Genes, v)
			}
		case strings.HasPrefix(line, "COMPOUND"):
			section = "COMPOUND"
			if v := strings.TrimSpace(flatValue(line)); v != "" {
				pw.Compounds = append(pw.Compounds, v)
			}
		case strings.HasPrefix(line, " "):
			switch section {
			case "GENE":
				pw.Genes = append(pw.Genes, strings.TrimSpace(line))
			case "COMPOUND":
				pw.Compounds = append(pw.Compounds, strings.TrimSpace(line))
			}
		default:
			section = ""
		}
	}

	for i, gene := range pw.Genes {
		pw.Nodes = append(pw.Nodes, model.PathwayNode{
			ID:   flatNodeID("gene", i),
			Type: model.NodeGene,
			Name: gene,
		})
	}
	for i, compound := range pw.Compounds {
		pw.Nodes = append(pw.Nodes, model.PathwayNode{
			ID:   flatNodeID("compound", i),
			Type: model.NodeCompound,
			Name: compound,
		})
	}

	return pw
}

// flatValue strips the fixed 12-column keyword prefix used by KEGG flat files.
func flatValue(line string) string {
	if len(line) <= 12 {
		return ""
	}
	return line[12:]
}

func flatNodeID(kind string, index int) string {
	return fmt.Sprintf("%s_%d", kind, index)
}
