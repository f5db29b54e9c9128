package schema

// Document is one scanned input file moving through the pipeline. It is
// created at batch-enumeration time and owned by a single worker afterwards.
type Document struct {
	SourcePath string
	Stem       string
	// PreparedPath is the file actually handed to the OCR backend. Equal to
	// SourcePath unless preprocessing produced a converted PDF in the tmp dir.
	PreparedPath string
	PageCount    int
}

// Coordinate is one recognized text fragment with its bounding box.
type Coordinate struct {
	Text string     `json:"text"`
	BBox [4]float64 `json:"bbox"` // x, y, w, h
	Page int        `json:"page"` // zero-based
}

// OCRResult holds the raw extraction for a document: one text per page plus
// the per-fragment coordinates, both in page order.
type OCRResult struct {
	Pages       []string
	Coordinates []Coordinate
}

// CorrectedText is the LLM-corrected version of OCRResult.Pages, aligned 1:1
// by page index.
type CorrectedText struct {
	Pages []string
}

// Entity is one extracted value with the page it was found on.
type Entity struct {
	Value string `json:"value"`
	Page  int    `json:"page"`
}

// EntitySet groups extracted entities by category. All categories are always
// present; an empty category is an empty slice, never a missing key.
type EntitySet struct {
	People      []Entity `json:"people"`
	Productions []Entity `json:"productions"`
	Companies   []Entity `json:"companies"`
	Theaters    []Entity `json:"theaters"`
	Dates       []Entity `json:"dates"`
}

// Categories returns the entity categories in their canonical order.
func (e *EntitySet) Categories() []string {
	return []string{"people", "productions", "companies", "theaters", "dates"}
}

// ByCategory returns the entities of one category.
func (e *EntitySet) ByCategory(category string) []Entity {
	switch category {
	case "people":
		return e.People
	case "productions":
		return e.Productions
	case "companies":
		return e.Companies
	case "theaters":
		return e.Theaters
	case "dates":
		return e.Dates
	}
	return nil
}

// Append adds an entity to the named category.
func (e *EntitySet) Append(category string, ent Entity) {
	switch category {
	case "people":
		e.People = append(e.People, ent)
	case "productions":
		e.Productions = append(e.Productions, ent)
	case "companies":
		e.Companies = append(e.Companies, ent)
	case "theaters":
		e.Theaters = append(e.Theaters, ent)
	case "dates":
		e.Dates = append(e.Dates, ent)
	}
}

// Total counts entities across all categories.
func (e *EntitySet) Total() int {
	n := 0
	for _, c := range e.Categories() {
		n += len(e.ByCategory(c))
	}
	return n
}

// Letter is a contiguous run of corrected pages forming one logical letter,
// with the entities whose provenance falls inside its page range.
type Letter struct {
	StartPage int       `json:"start_page"`
	EndPage   int       `json:"end_page"`
	Body      string    `json:"body"`
	Entities  EntitySet `json:"entities"`
}
