package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"pathogen/internal/model"
	"pathogen/internal/pathway"
)

// dirSource serves pathway graphs from a local directory: <id>.xml is
// decoded as KGML, <id>.txt as a KEGG flat file. A missing pathway id maps
// to ErrPathwayNotFound so the engine skips it without retrying.
type dirSource struct {
	dir string
}

func (s *dirSource) FetchPathwayGraph(_ context.Context, pathwayID string) (model.Pathway, error) {
	xmlPath := filepath.Join(s.dir, pathwayID+".xml")
	if data, err := os.ReadFile(xmlPath); err == nil {
		pw, err := pathway.DecodeKGML(data, pathwayID)
		if err != nil {
			return model.Pathway{}, fmt.Errorf("decode %s: %w", xmlPath, err)
		}
		return pw, nil
	} else if !os.IsNotExist(err) {
		return model.Pathway{}, err
	}

	flatPath := filepath.Join(s.dir, pathwayID+".txt")
	if data, err := os.ReadFile(flatPath); err == nil {
		return pathway.ParseFlat(string(data), pathwayID), nil
	} else if !os.IsNotExist(err) {
		return model.Pathway{}, err
	}

	return model.Pathway{}, fmt.Errorf("%w: %s in %s", pathway.ErrPathwayNotFound, pathwayID, s.dir)
}
