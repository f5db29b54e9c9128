// Package store persists the per-document output artifacts under
// OUTPUT_DIR/<stem>/.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"letterflow/schema"
)

// Artifacts is everything a successful pipeline run produced for a document.
type Artifacts struct {
	OCR       *schema.OCRResult
	Corrected *schema.CorrectedText
	Entities  *schema.EntitySet
	Letters   []schema.Letter
}

// Store writes the final artifacts of a document. Implementations must only
// be called once per document, after every processing stage has finished.
type Store interface {
	Persist(doc *schema.Document, a *Artifacts) error
}

// FSStore writes the five artifact files to the local filesystem.
type FSStore struct {
	OutputDir string
}

const pageBreakMarker = "\n\n--- PAGE BREAK ---\n\n"

func (s *FSStore) Persist(doc *schema.Document, a *Artifacts) error {
	dir := filepath.Join(s.OutputDir, doc.Stem)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return schema.NewError(schema.KindPersist, err)
	}

	raw := strings.Join(a.OCR.Pages, pageBreakMarker)
	if err := writeFile(dir, doc.Stem+".raw.txt", []byte(raw)); err != nil {
		return err
	}

	corrected := strings.Join(a.Corrected.Pages, pageBreakMarker)
	if err := writeFile(dir, doc.Stem+".corrected.txt", []byte(corrected)); err != nil {
		return err
	}

	if err := writeJSON(dir, doc.Stem+".coords.json", coordinates(a.OCR)); err != nil {
		return err
	}
	if err := writeJSON(dir, doc.Stem+".entities.json", entitiesByCategory(a.Entities)); err != nil {
		return err
	}
	combined := a.Letters
	if combined == nil {
		combined = []schema.Letter{}
	}
	return writeJSON(dir, doc.Stem+".combined_output.json", combined)
}

// coordinates never serializes as null, even for a document with no
// recognized text.
func coordinates(ocr *schema.OCRResult) []schema.Coordinate {
	if ocr.Coordinates == nil {
		return []schema.Coordinate{}
	}
	return ocr.Coordinates
}

// entitiesByCategory renders the entity mapping with every category present.
func entitiesByCategory(entities *schema.EntitySet) map[string][]schema.Entity {
	out := map[string][]schema.Entity{}
	for _, c := range entities.Categories() {
		ents := entities.ByCategory(c)
		if ents == nil {
			ents = []schema.Entity{}
		}
		out[c] = ents
	}
	return out
}

func writeFile(dir, name string, data []byte) error {
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return schema.NewError(schema.KindPersist, fmt.Errorf("writing %s: %w", name, err))
	}
	return nil
}

func writeJSON(dir, name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return schema.NewError(schema.KindPersist, fmt.Errorf("encoding %s: %w", name, err))
	}
	return writeFile(dir, name, data)
}
