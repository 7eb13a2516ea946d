package profile

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Merge folds facts into p: values accumulate as case-insensitively deduped
// sorted variants (a user may state the same fact differently across turns),
// topics append to a recency ring of the last ten. Merging the same facts twice
// is a no-op the second time. Returns whether anything changed.
func Merge(p *Profile, facts ExtractedFacts, sentinels []string, now time.Time) bool {
	changed := false

	for key, value := range facts.PersonalInfo {
		if mergeField(p.PersonalInfo, key, value, sentinels) {
			changed = true
		}
	}
	for key, value := range facts.Preferences {
		if mergeField(p.Preferences, key, value, sentinels) {
			changed = true
		}
	}

	for _, raw := range cleanValues(facts.ImportantTopics, sentinels) {
		if !containsString(p.ImportantTopics, raw) {
			p.ImportantTopics = append(p.ImportantTopics, raw)
			changed = true
		}
	}
	if len(p.ImportantTopics) > maxTopics {
		p.ImportantTopics = p.ImportantTopics[len(p.ImportantTopics)-maxTopics:]
	}

	if changed {
		p.LastUpdated = now
	}
	return changed
}

// mergeField unions the incoming value with the stored one under key.
func mergeField(fields map[string]Value, key string, value any, sentinels []string) bool {
	newVals := cleanValues(value, sentinels)
	if len(newVals) == 0 {
		return false
	}
	oldVals := cleanValues([]string(fields[key]), sentinels)

	merged := unionFold(oldVals, newVals)
	if len(merged) == 0 {
		return false
	}
	if equalStrings(merged, oldVals) {
		return false
	}
	fields[key] = Value(merged)
	return true
}

// cleanValues normalizes an incoming value to a flat, sorted, deduped list of
// trimmed strings: nested lists are flattened, comma-joined strings split, and
// entries matching a "not provided" sentinel (case-insensitively) dropped.
func cleanValues(value any, sentinels []string) []string {
	var out []string
	for _, item := range stringify(flatten(value)) {
		for _, part := range strings.Split(item, ",") {
			part = strings.TrimSpace(part)
			if part == "" || isSentinel(part, sentinels) {
				continue
			}
			out = append(out, part)
		}
	}
	return unionFold(nil, out)
}

// unionFold merges two cleaned lists, deduping case-insensitively (first
// occurrence wins, so an existing stored form survives a re-stated variant)
// and returning the union sorted.
func unionFold(old, new []string) []string {
	seen := make(map[string]bool, len(old)+len(new))
	var out []string
	for _, v := range old {
		folded := strings.ToLower(v)
		if !seen[folded] {
			seen[folded] = true
			out = append(out, v)
		}
	}
	for _, v := range new {
		folded := strings.ToLower(v)
		if !seen[folded] {
			seen[folded] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

// flatten normalizes value to a flat []any, expanding nested lists.
func flatten(value any) []any {
	switch v := value.(type) {
	case nil:
		return nil
	case []any:
		var out []any
		for _, item := range v {
			out = append(out, flatten(item)...)
		}
		return out
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out
	default:
		return []any{value}
	}
}

func stringify(items []any) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		switch v := item.(type) {
		case string:
			s = v
		case float64:
			// JSON numbers: render "25" not "25.000000"
			if v == float64(int64(v)) {
				s = fmt.Sprintf("%d", int64(v))
			} else {
				s = fmt.Sprintf("%g", v)
			}
		default:
			s = strings.TrimSpace(fmt.Sprint(v))
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func isSentinel(s string, sentinels []string) bool {
	for _, sent := range sentinels {
		if strings.EqualFold(s, sent) {
			return true
		}
	}
	return false
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
