package core

import "strings"

// PathGroup is one distinct path-segment sequence declared by the
// table's path columns, together with every contiguous run of data
// rows that shares it.
type PathGroup struct {
	Path   []string
	Ranges []RowRange
}

// PathGroups is C8's path: row_ranges mapping, kept in declaration
// order -- spec.md §4.4 and §4.7 require the scanner to visit distinct
// paths in the order they first appear in the grid.
type PathGroups struct {
	Groups []*PathGroup
}

// buildPathGroups groups a table's scan rows by their declared path,
// merging non-contiguous repeats of the same path into one group's
// Ranges while keeping that group's position at its first appearance.
func buildPathGroups(t *Table) *PathGroups {
	pg := &PathGroups{}
	byKey := make(map[string]*PathGroup)

	i := 0
	for i < len(t.ScanRows) {
		path := t.ScanRows[i].Path
		key := pathKey(path)

		start := i
		j := i + 1
		for j < len(t.ScanRows) && pathKey(t.ScanRows[j].Path) == key {
			j++
		}
		end := -1
		if j-start > 1 {
			end = j - 1
		}
		rng := RowRange{Start: start, End: end}

		if g, ok := byKey[key]; ok {
			g.Ranges = append(g.Ranges, rng)
		} else {
			g := &PathGroup{Path: path, Ranges: []RowRange{rng}}
			byKey[key] = g
			pg.Groups = append(pg.Groups, g)
		}

		i = j
	}

	return pg
}

func pathKey(path []string) string {
	return strings.Join(path, "\x1f")
}

// descend walks record through path's segments, returning the nested
// sub-mapping at that path, or ok=false if any segment is absent or
// not itself a mapping.
func descend(record map[string]interface{}, path []string) (map[string]interface{}, bool) {
	cur := record
	for _, seg := range path {
		v, ok := cur[seg]
		if !ok {
			return nil, false
		}
		sub, ok := v.(map[string]interface{})
		if !ok {
			return nil, false
		}
		cur = sub
	}
	return cur, true
}

// scanPaths is C8's scanner dispatch: visit each declared path group
// in order, descend into the input's matching sub-mapping, parse and
// scan it as an independent input against that group's row ranges,
// and combine results per spec.md §4.7.
//
// First-match mode short-circuits on the first group whose scan
// returns a non-empty result. Accumulate mode merges every group's
// result by concatenating same-key values into a sequence, in the
// order the groups were visited.
func scanPaths(t *Table, parsed *ParsedInput, symbolizeKeys bool) (map[string]interface{}, error) {
	firstMatch := t.Options.firstMatch()

	cache := make(map[string]*ParsedInput)
	var merged map[string]interface{}

	for _, group := range t.Paths.Groups {
		sub, ok := descend(parsed.Record, group.Path)
		if !ok {
			continue
		}

		key := pathKey(group.Path)
		sp, cached := cache[key]
		if !cached {
			p, err := parseInput(t, sub, symbolizeKeys)
			if err != nil {
				return nil, err
			}
			cache[key] = p
			sp = p
		}

		rowIdxs := expandRanges(group.Ranges)
		attrs, _, err := scanRowIndices(t, rowIdxs, sp, firstMatch, false)
		if err != nil {
			return nil, err
		}

		if firstMatch {
			if len(attrs) > 0 {
				return attrs, nil
			}
			continue
		}
		merged = mergeAccumulate(merged, attrs)
	}

	if merged == nil {
		return map[string]interface{}{}, nil
	}
	return merged, nil
}

// mergeAccumulate combines two accumulate-mode result maps, turning
// same-key collisions into a concatenated sequence. Neither argument
// is mutated.
func mergeAccumulate(a, b map[string]interface{}) map[string]interface{} {
	if a == nil {
		return b
	}
	if len(b) == 0 {
		return a
	}

	out := make(map[string]interface{}, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		if existing, ok := out[k]; ok {
			out[k] = append(toSeq(existing), toSeq(v)...)
		} else {
			out[k] = v
		}
	}
	return out
}

func toSeq(v interface{}) []interface{} {
	if v == nil {
		return nil
	}
	if s, ok := v.([]interface{}); ok {
		return s
	}
	return []interface{}{v}
}
