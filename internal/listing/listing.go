// Package listing derives dataset views from records already fetched:
// filtering, ordering, quick search and topic suggestions. Nothing here
// touches the store and no input slice is ever modified.
package listing

import (
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/neutralface-io/nfai-web/internal/models"
)

// All disables a filter field.
const All = "All"

// DefaultSearchLimit caps quick search and topic suggestions.
const DefaultSearchLimit = 5

// MaxSearchLimit bounds how many quick-search hits one request may ask for.
const MaxSearchLimit = 50

type SortKey string

const (
	SortPopular  SortKey = "popular"
	SortRecent   SortKey = "recent"
	SortSize     SortKey = "size"
	SortCategory SortKey = "category"
)

// SortKeys lists the keys Sort understands.
var SortKeys = []SortKey{SortPopular, SortRecent, SortSize, SortCategory}

// Filter narrows a dataset list. Empty or All fields match everything.
type Filter struct {
	Topic       string `json:"topic" query:"topic"`
	License     string `json:"license" query:"license"`
	SearchQuery string `json:"q" query:"q"`
}

func active(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && v != All
}

// Matches reports whether d passes every active field of f.
func (f Filter) Matches(d models.Dataset) bool {
	if active(f.Topic) && !d.Topics.Contains(strings.TrimSpace(f.Topic)) {
		return false
	}
	if active(f.License) && d.License != strings.TrimSpace(f.License) {
		return false
	}
	return matchesQuery(d, f.SearchQuery)
}

// Apply keeps the datasets matching f, in their original order.
func (f Filter) Apply(datasets []models.Dataset) []models.Dataset {
	out := make([]models.Dataset, 0, len(datasets))
	for _, d := range datasets {
		if f.Matches(d) {
			out = append(out, d)
		}
	}
	return out
}

// ActiveCount is the number of topic/license fields narrowing the list,
// the badge shown next to the filter toggle.
func (f Filter) ActiveCount() int {
	n := 0
	if active(f.Topic) {
		n++
	}
	if active(f.License) {
		n++
	}
	return n
}

func matchesQuery(d models.Dataset, q string) bool {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(d.Name), q) ||
		strings.Contains(strings.ToLower(d.Description), q)
}

// ParseSortKey maps s onto a known key; ok is false for anything else.
func ParseSortKey(s string) (SortKey, bool) {
	k := SortKey(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range SortKeys {
		if k == known {
			return k, true
		}
	}
	return k, false
}

// Sort returns a stably ordered copy. Unknown keys keep the input order.
func Sort(datasets []models.Dataset, key SortKey) []models.Dataset {
	out := append([]models.Dataset(nil), datasets...)
	less := lessFor(key)
	if less == nil {
		return out
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func lessFor(key SortKey) func(a, b models.Dataset) bool {
	switch key {
	case SortPopular:
		return func(a, b models.Dataset) bool { return a.Likes > b.Likes }
	case SortRecent:
		return func(a, b models.Dataset) bool { return a.UploadDate.After(b.UploadDate) }
	case SortSize:
		return func(a, b models.Dataset) bool { return a.Size > b.Size }
	case SortCategory:
		return func(a, b models.Dataset) bool {
			ta, tb := firstTopic(a), firstTopic(b)
			if ta == "" || tb == "" {
				// datasets without topics sink to the end
				return ta != "" && tb == ""
			}
			return strings.Compare(ta, tb) < 0
		}
	default:
		return nil
	}
}

func firstTopic(d models.Dataset) string {
	if len(d.Topics) == 0 {
		return ""
	}
	return d.Topics[0]
}

// Apply filters then sorts.
func Apply(datasets []models.Dataset, f Filter, key SortKey) []models.Dataset {
	return Sort(f.Apply(datasets), key)
}

// Search is the navbar quick search: the first limit datasets whose name or
// description contains q. A blank query returns nothing.
func Search(datasets []models.Dataset, q string, limit int) []models.Dataset {
	if strings.TrimSpace(q) == "" {
		return nil
	}
	limit = ClampSearchLimit(limit)
	out := make([]models.Dataset, 0, min(limit, len(datasets)))
	for _, d := range datasets {
		if len(out) == limit {
			break
		}
		if matchesQuery(d, q) {
			out = append(out, d)
		}
	}
	return out
}

// ClampSearchLimit maps a requested hit count into [1, MaxSearchLimit];
// zero or negative means DefaultSearchLimit.
func ClampSearchLimit(limit int) int {
	if limit <= 0 {
		return DefaultSearchLimit
	}
	return min(limit, MaxSearchLimit)
}

// ExcludeMembers returns the datasets not already in members that match q,
// the candidates offered when adding to a collection.
func ExcludeMembers(datasets []models.Dataset, members []models.Dataset, q string) []models.Dataset {
	in := make(map[uuid.UUID]struct{}, len(members))
	for _, m := range members {
		in[m.ID] = struct{}{}
	}
	out := make([]models.Dataset, 0, len(datasets))
	for _, d := range datasets {
		if _, ok := in[d.ID]; ok {
			continue
		}
		if matchesQuery(d, q) {
			out = append(out, d)
		}
	}
	return out
}
