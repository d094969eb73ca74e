// Package projection derives the visible list from the loaded records and the
// current filter selection.
package projection

import (
	"sort"
	"strings"

	"anoa.com/studentroster/internal/roster/model"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Apply filters and sorts records without modifying them. The result is a
// new slice; equal inputs always give the same order.
func Apply(records []model.Student, f model.Filters) []model.Student {
	query := strings.ToLower(f.Search)

	out := make([]model.Student, 0, len(records))
	for _, r := range records {
		if query != "" && !matches(r, query) {
			continue
		}
		if f.Class != "" && r.Class != f.Class {
			continue
		}
		out = append(out, r)
	}

	// collate.Collator is not safe for concurrent use.
	col := collate.New(language.English)
	key := sortKey(f.SortBy)
	desc := f.SortOrder == model.SortDesc

	sort.SliceStable(out, func(i, j int) bool {
		c := col.CompareString(key(out[i]), key(out[j]))
		if desc {
			c = -c
		}
		return c < 0
	})
	return out
}

func matches(r model.Student, query string) bool {
	if strings.Contains(strings.ToLower(r.Name), query) ||
		strings.Contains(strings.ToLower(r.RollNumber), query) {
		return true
	}
	return r.Email != nil && strings.Contains(strings.ToLower(*r.Email), query)
}

func sortKey(field model.SortField) func(model.Student) string {
	if field == model.SortByRollNumber {
		return func(s model.Student) string { return s.RollNumber }
	}
	return func(s model.Student) string { return s.Name }
}

// Classes returns the distinct class values of records, sorted.
func Classes(records []model.Student) []string {
	seen := make(map[string]struct{}, len(records))
	classes := []string{}
	for _, r := range records {
		if _, ok := seen[r.Class]; ok {
			continue
		}
		seen[r.Class] = struct{}{}
		classes = append(classes, r.Class)
	}
	sort.Strings(classes)
	return classes
}
