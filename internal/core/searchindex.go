package core

import (
	"strings"
)

// ParseSearchIndex parses searchindex.csv. The first row is a header.
// Descriptions may contain unquoted commas, so each row is split into at
// most five fields; shorter rows are skipped.
func ParseSearchIndex(data []byte) []SearchEntry {
	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	if len(lines) == 0 {
		return nil
	}

	var entries []SearchEntry
	for _, line := range lines[1:] {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, ",", 5)
		if len(parts) < 5 {
			continue
		}
		entries = append(entries, SearchEntry{
			ID:          strings.TrimSpace(parts[0]),
			Name:        strings.TrimSpace(parts[1]),
			Author:      strings.TrimSpace(parts[2]),
			Version:     strings.TrimSpace(parts[3]),
			Description: strings.TrimSpace(parts[4]),
		})
	}
	return entries
}

// MatchSearch filters entries by a case-insensitive substring match on id,
// name, author or description, keeping index order.
func MatchSearch(entries []SearchEntry, term string, limit int) []SearchEntry {
	needle := strings.ToLower(term)
	var out []SearchEntry
	for _, e := range entries {
		if !matches(e, needle) {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func matches(e SearchEntry, needle string) bool {
	for _, field := range []string{e.ID, e.Name, e.Author, e.Description} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}
