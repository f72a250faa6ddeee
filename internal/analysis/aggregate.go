// Package analysis aggregates study file records into per-subcategory counts.
package analysis

import (
	"slices"
	"strings"

	"github.com/gchanuoft/DSI-BuildSoftSummative/internal/osdr"
)

// CategoryCount is the number of file records in one subcategory.
type CategoryCount struct {
	Category string
	Count    int
}

// Result is an ordered sequence of category counts, sorted by category
// label. A Result is never modified after it is produced.
type Result []CategoryCount

// CountBySubcategory groups files by subcategory and counts the records that
// carry a file name. An empty subcategory is a group of its own and sorts
// first. Records with no subcategory at all are not grouped; a subcategory
// whose records all lack a file name has a count of zero.
func CountBySubcategory(files []osdr.StudyFile) Result {
	counts := make(map[string]int)
	for _, f := range files {
		if f.Subcategory == nil {
			continue
		}
		n := counts[*f.Subcategory]
		if f.FileName != nil {
			n++
		}
		counts[*f.Subcategory] = n
	}

	result := make(Result, 0, len(counts))
	for category, count := range counts {
		result = append(result, CategoryCount{Category: category, Count: count})
	}
	slices.SortFunc(result, func(a, b CategoryCount) int {
		return strings.Compare(a.Category, b.Category)
	})
	return result
}

// DropFirstCategory returns r without its first entry in sort order.
func DropFirstCategory(r Result) Result {
	if len(r) == 0 {
		return Result{}
	}
	return slices.Clone(r[1:])
}

// Aggregate counts files per subcategory and, when dropFirst is set, removes
// the first category.
func Aggregate(files []osdr.StudyFile, dropFirst bool) Result {
	result := CountBySubcategory(files)
	if dropFirst {
		result = DropFirstCategory(result)
	}
	return result
}

// AsMap returns the category to count mapping.
func (r Result) AsMap() map[string]int {
	m := make(map[string]int, len(r))
	for _, c := range r {
		m[c.Category] = c.Count
	}
	return m
}

// Total returns the sum of all counts.
func (r Result) Total() int {
	total := 0
	for _, c := range r {
		total += c.Count
	}
	return total
}

// Max returns the largest count, or zero for an empty result.
func (r Result) Max() int {
	highest := 0
	for _, c := range r {
		highest = max(highest, c.Count)
	}
	return highest
}
