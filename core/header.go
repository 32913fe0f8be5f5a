package core

import (
	"regexp"
	"strings"
)

// Grid is the two-dimensional grid of already-split strings Parse
// consumes. Row 0 may be preceded by zero or more option rows; CSV/YAML
// tokenization into this shape is an ambient concern outside this
// package (see the sibling grid package).
type Grid [][]string

var headerCellRegexp = regexp.MustCompile(`(?i)^\s*(in/text|out/text|set/nil|set/blank|in|out|set|path|cond|if)\s*:\s*(.*)$`)

// looksLikeHeader reports whether row contains at least one cell
// matching the column-type regex, which per spec.md §4.2 is how
// pre-header option scanning knows to stop.
func looksLikeHeader(row []string) bool {
	for _, cell := range row {
		if headerCellRegexp.MatchString(cell) {
			return true
		}
	}
	return false
}

// applyOptionWord mutates opts for a single recognized option-row
// cell, reporting whether the word was recognized at all.
func applyOptionWord(opts *Options, word string) bool {
	switch strings.ToLower(strings.TrimSpace(word)) {
	case "first_match":
		opts.FirstMatch = boolPtr(true)
		return true
	case "accumulate":
		opts.FirstMatch = boolPtr(false)
		return true
	case "regexp_implicit":
		opts.RegexpImplicit = true
		return true
	case "text_only", "string_search":
		opts.TextOnly = true
		return true
	default:
		return false
	}
}

func boolPtr(b bool) *bool { return &b }

// scanPreHeaderOptions consumes rows from the front of the grid that
// are not yet the header row, applying any recognized option words to
// opts, and returns the index of the header row.
func scanPreHeaderOptions(grid Grid, opts *Options) int {
	for i, row := range grid {
		if looksLikeHeader(row) {
			return i
		}
		for _, cell := range row {
			applyOptionWord(opts, cell)
		}
	}
	return len(grid)
}

// parseHeaderCell recognizes one header cell, normalizing its type and
// validating/cleaning its name per spec.md §4.2.
func parseHeaderCell(col int, text string) (*Column, bool, error) {
	if strings.TrimSpace(text) == "" {
		return nil, false, nil
	}

	parts := headerCellRegexp.FindStringSubmatch(text)
	if parts == nil {
		return nil, false, nil
	}
	kind, rawName := strings.ToLower(parts[1]), strings.TrimSpace(parts[2])

	c := &Column{Indexed: true}

	switch kind {
	case "in":
		c.Type = ColIn
	case "out":
		c.Type = ColOut
	case "in/text":
		c.Type, c.TextOnly = ColIn, true
	case "out/text":
		c.Type, c.TextOnly = ColOut, true
	case "set":
		c.Type = ColSet
	case "set/nil":
		c.Type = ColSetNil
	case "set/blank":
		c.Type = ColSetBlank
	case "path":
		c.Type = ColPath
	case "if":
		c.Type = ColIf
	case "cond":
		// cond is the header spelling for the data model's
		// anonymous, input-role guard column: a predicate over the
		// full input record rather than over a single field.
		c.Type = ColGuard
	default:
		return nil, false, headerErr(col, "unrecognized column type %q", kind)
	}

	if rawName == "" {
		if c.Type.requiresName() {
			return nil, false, headerErr(col, "%s column requires a name", c.Type)
		}
		return c, true, nil
	}

	name := strings.Join(strings.Fields(rawName), "_")
	if !nameRegexp.MatchString(name) {
		return nil, false, headerErr(col, "invalid column name %q", rawName)
	}
	c.Name = name
	return c, true, nil
}

// parseHeaderRow parses every cell of the header row, skipping blank
// columns (which strips that column from the whole table).
//
// Returns the columns keyed by grid column index, and the set of
// column indices to keep.
func parseHeaderRow(row []string) (map[int]*Column, []int, error) {
	cols := make(map[int]*Column, len(row))
	keep := make([]int, 0, len(row))
	for i, cell := range row {
		c, ok, err := parseHeaderCell(i, cell)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			continue
		}
		cols[i] = c
		keep = append(keep, i)
	}
	return cols, keep, nil
}
