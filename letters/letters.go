// Package letters assembles the final combined artifact: it partitions the
// corrected pages of a document into logical letters and attaches each
// extracted entity to the letter covering its provenance page.
package letters

import (
	"sort"
	"strings"

	"letterflow/schema"
)

// Split partitions the corrected pages into letters at the given marker
// pages. It is a pure function: identical input always yields an identical
// letter sequence. Markers are advisory data from the LLM: they are clamped
// to the page range, deduplicated and sorted, and page 0 always starts the
// first letter. With no usable markers the whole document is one letter.
//
// The returned letters are ordered, non-overlapping and cover every page.
// Entities are attached to the letter whose range contains their provenance
// page; an entity past the last page falls back to the nearest preceding
// letter, one before the first page to the first letter. Nothing is dropped.
func Split(corrected *schema.CorrectedText, entities *schema.EntitySet, markers []int) []schema.Letter {
	n := len(corrected.Pages)
	if n == 0 {
		return nil
	}

	starts := normalizeMarkers(markers, n)

	out := make([]schema.Letter, 0, len(starts))
	for i, start := range starts {
		end := n - 1
		if i+1 < len(starts) {
			end = starts[i+1] - 1
		}
		out = append(out, schema.Letter{
			StartPage: start,
			EndPage:   end,
			Body:      strings.Join(corrected.Pages[start:end+1], "\n\n"),
			Entities:  emptyEntitySet(),
		})
	}

	if entities != nil {
		attach(out, entities)
	}
	return out
}

// normalizeMarkers turns the advisory marker list into strictly increasing
// letter start pages beginning at 0.
func normalizeMarkers(markers []int, pageCount int) []int {
	seen := map[int]bool{}
	var inRange []int
	for _, m := range markers {
		if m > 0 && m < pageCount && !seen[m] {
			seen[m] = true
			inRange = append(inRange, m)
		}
	}
	sort.Ints(inRange)
	return append([]int{0}, inRange...)
}

func attach(out []schema.Letter, entities *schema.EntitySet) {
	for _, category := range entities.Categories() {
		for _, ent := range entities.ByCategory(category) {
			out[letterIndexFor(out, ent.Page)].Entities.Append(category, ent)
		}
	}
}

// letterIndexFor locates the letter covering the page, falling back to the
// nearest preceding letter for out-of-range provenance.
func letterIndexFor(out []schema.Letter, page int) int {
	if page < out[0].StartPage {
		return 0
	}
	for i, l := range out {
		if page >= l.StartPage && page <= l.EndPage {
			return i
		}
	}
	return len(out) - 1
}

func emptyEntitySet() schema.EntitySet {
	return schema.EntitySet{
		People:      []schema.Entity{},
		Productions: []schema.Entity{},
		Companies:   []schema.Entity{},
		Theaters:    []schema.Entity{},
		Dates:       []schema.Entity{},
	}
}
