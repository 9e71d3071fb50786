// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package catalog holds the static, declarative description of every
// bridgeable tool plus pure query functions over it.
//
// The filters are designed to be intersected by the caller (logical AND),
// not used as mutually exclusive alternatives.
package catalog

import (
	"encoding/json"
	"sort"
	"strings"
)

// Category classifies tools by capability area. Drawn from a fixed
// enumeration; every catalog entry carries at least one.
type Category string

const (
	CategoryFilesystem Category = "filesystem"
	CategoryWeb        Category = "web"
	CategoryBrowser    Category = "browser"
	CategoryMaps       Category = "maps"
	CategorySearch     Category = "search"
	CategoryMessaging  Category = "messaging"
	CategoryData       Category = "data"
	CategoryDev        Category = "dev"
	CategoryMemory     Category = "memory"
)

// Entry declares one bridgeable tool. Entries are immutable configuration:
// the exposed name is globally unique, and the backend id must correspond to
// a configured backend (entries for unreachable backends are simply never
// activated).
type Entry struct {
	// Name is the exposed tool name the host/caller invokes
	Name string

	// Description explains what the tool does
	Description string

	// Backend is the id of the backend that implements this tool
	Backend string

	// RemoteName is the name the backend itself uses for this tool
	RemoteName string

	// InputSchema is the JSON Schema for the tool's parameters
	InputSchema json.RawMessage

	// Categories is the non-empty set of capability areas
	Categories []Category

	// Priority ranks importance from 1 (most critical) to 5
	Priority int

	// Tags are free-text keywords for relevance search
	Tags []string
}

// HasCategory reports whether the entry belongs to the given category.
func (e Entry) HasCategory(cat Category) bool {
	for _, c := range e.Categories {
		if c == cat {
			return true
		}
	}
	return false
}

// FilterByBackends keeps entries whose backend id is in the given set.
func FilterByBackends(entries []Entry, backendIDs map[string]bool) []Entry {
	var result []Entry
	for _, entry := range entries {
		if backendIDs[entry.Backend] {
			result = append(result, entry)
		}
	}
	return result
}

// FilterByCategory keeps entries whose category set intersects the requested
// set.
func FilterByCategory(entries []Entry, categories []Category) []Entry {
	var result []Entry
	for _, entry := range entries {
		for _, cat := range categories {
			if entry.HasCategory(cat) {
				result = append(result, entry)
				break
			}
		}
	}
	return result
}

// FilterByMaxPriority keeps entries with priority <= max, so max=2 yields
// priorities 1 and 2 and max=5 yields everything.
func FilterByMaxPriority(entries []Entry, max int) []Entry {
	var result []Entry
	for _, entry := range entries {
		if entry.Priority <= max {
			result = append(result, entry)
		}
	}
	return result
}

// SearchByTags scores entries against free-text query terms and returns
// matches sorted by descending score.
//
// A tag matches a term when either contains the other (case-insensitive).
// Entries with zero matching tags are dropped; the rest score
// matchCount * (6 - priority), so equally-matching higher-priority entries
// outrank lower-priority ones. The scoring is an approximate heuristic, not
// a precise ranking algorithm.
func SearchByTags(entries []Entry, terms []string) []Entry {
	if len(terms) == 0 {
		return nil
	}

	lowered := make([]string, len(terms))
	for i, term := range terms {
		lowered[i] = strings.ToLower(term)
	}

	type scored struct {
		entry Entry
		score int
	}

	var matched []scored
	for _, entry := range entries {
		matches := 0
		for _, tag := range entry.Tags {
			tag = strings.ToLower(tag)
			for _, term := range lowered {
				if strings.Contains(tag, term) || strings.Contains(term, tag) {
					matches++
					break
				}
			}
		}
		if matches == 0 {
			continue
		}
		matched = append(matched, scored{
			entry: entry,
			score: matches * (6 - entry.Priority),
		})
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].score > matched[j].score
	})

	result := make([]Entry, len(matched))
	for i, s := range matched {
		result[i] = s.entry
	}
	return result
}
