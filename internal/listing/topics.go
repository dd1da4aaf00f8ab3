package listing

import (
	"sort"
	"strings"

	"github.com/neutralface-io/nfai-web/internal/models"
)

// NormalizeTopics lowercases and trims each topic, dropping blanks and
// repeats while keeping first-seen order.
func NormalizeTopics(topics []string) []string {
	out := make([]string, 0, len(topics))
	seen := make(map[string]struct{}, len(topics))
	for _, t := range topics {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// SuggestTopics offers up to limit existing topics containing input that are
// not already selected.
func SuggestTopics(existing, selected []string, input string, limit int) []string {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	input = strings.ToLower(strings.TrimSpace(input))
	chosen := make(map[string]struct{}, len(selected))
	for _, s := range selected {
		chosen[s] = struct{}{}
	}
	out := make([]string, 0, limit)
	for _, t := range existing {
		if len(out) == limit {
			break
		}
		if _, ok := chosen[t]; ok {
			continue
		}
		if strings.Contains(strings.ToLower(t), input) {
			out = append(out, t)
		}
	}
	return out
}

// CountTopics tallies topic usage across datasets, most used first and
// alphabetical among ties.
func CountTopics(datasets []models.Dataset) []models.Topic {
	counts := make(map[string]int)
	for _, d := range datasets {
		for _, t := range d.Topics {
			counts[t]++
		}
	}
	out := make([]models.Topic, 0, len(counts))
	for name, n := range counts {
		out = append(out, models.Topic{Name: name, UsageCount: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UsageCount != out[j].UsageCount {
			return out[i].UsageCount > out[j].UsageCount
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// TopicNames flattens topics to their names.
func TopicNames(topics []models.Topic) []string {
	out := make([]string, len(topics))
	for i, t := range topics {
		out[i] = t.Name
	}
	return out
}

// Licenses is the license filter menu: All followed by every known license.
func Licenses() []string {
	return append([]string{All}, models.Licenses...)
}
