package catalog

import "strings"

// Filter is the catalog's query criteria (spec.md §4.5). All three
// criteria compose by conjunction; an entirely empty Filter means "no
// filter" (every entry matches), distinct from a filter that legitimately
// matches nothing.
type Filter struct {
	Search            string
	TagIDs            []int32
	IncludeChildTags  bool
	FolderID          *int32
	IncludeSubfolders bool
}

func (f Filter) isEmpty() bool {
	return f.Search == "" && len(f.TagIDs) == 0 && f.FolderID == nil
}

// Apply evaluates the filter against the model. It returns (nil, false)
// when the filter is empty ("no filter": every entry matches), and
// (ids, true) otherwise — ids may itself be empty when the filter
// legitimately matches nothing. Collapsing these into a single []int32
// would make a real empty result indistinguishable from "no filter",
// per spec.md §4.5's "no filter" vs. "empty result" distinction.
func (c *Catalog) Apply(f Filter) ([]int32, bool) {
	if f.isEmpty() {
		return nil, false
	}

	c.model.RLock()
	defer c.model.RUnlock()

	var folderSet map[int32]struct{}
	if f.FolderID != nil {
		if *f.FolderID == RootID && f.IncludeSubfolders {
			folderSet = nil // every folder matches; no filter needed
		} else if f.IncludeSubfolders {
			folderSet = c.model.folderDescendants(*f.FolderID)
		} else {
			folderSet = map[int32]struct{}{*f.FolderID: {}}
		}
	}

	var tagSet map[int32]struct{}
	if len(f.TagIDs) > 0 {
		tagSet = make(map[int32]struct{})
		for _, id := range f.TagIDs {
			if f.IncludeChildTags {
				for d := range c.model.tagDescendants(id) {
					tagSet[d] = struct{}{}
				}
			} else {
				tagSet[id] = struct{}{}
			}
		}
	}

	search := strings.ToLower(f.Search)

	var out []int32
	for id, e := range c.model.entries {
		if f.FolderID != nil && folderSet != nil {
			if _, ok := folderSet[e.FolderID]; !ok {
				continue
			}
		}
		if tagSet != nil && !entryMatchesAnyTag(e, tagSet) {
			continue
		}
		if search != "" && !entryMatchesSearch(e, search) {
			continue
		}
		out = append(out, id)
	}
	return out, true
}

// entryMatchesAnyTag is the tag criterion's disjunction across the
// listed (and, with include_child_tags, expanded) tag ids: a match is any
// intersection between the entry's tags and the expanded set (spec.md
// §4.5).
func entryMatchesAnyTag(e *Entry, tagSet map[int32]struct{}) bool {
	for t := range e.TagIDs {
		if _, ok := tagSet[t]; ok {
			return true
		}
	}
	return false
}

func entryMatchesSearch(e *Entry, search string) bool {
	if strings.Contains(strings.ToLower(e.FileName), search) {
		return true
	}
	if e.Metadata == nil {
		return false
	}
	return strings.Contains(strings.ToLower(e.Metadata.Title), search) ||
		strings.Contains(strings.ToLower(e.Metadata.Artist), search) ||
		strings.Contains(strings.ToLower(e.Metadata.Album), search)
}
