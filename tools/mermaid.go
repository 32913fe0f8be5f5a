/* Copyright 2018 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package tools

import (
	"fmt"
	"io"
	"strings"

	"github.com/gridrules/dtable/core"
)

// MermaidOpts controls Mermaid's rendering.
type MermaidOpts struct {
	// ShowConstants includes each row range's constant values in its
	// node label.
	ShowConstants bool `json:"showConstants"`

	RangeFill string `json:"rangeFill,omitempty"`
}

// Mermaid makes a Mermaid (https://mermaidjs.github.io/) input file
// for a compiled Table's scan structure: one graph node per index key
// or path, fanning out to its row ranges.
func Mermaid(t *core.Table, w io.WriteCloser, opts *MermaidOpts) error {
	if opts == nil {
		opts = &MermaidOpts{ShowConstants: true, RangeFill: "#bcf2db"}
	}

	fmt.Fprintf(w, "graph LR\n")

	num := 0
	nextID := func() string {
		num++
		return fmt.Sprintf("n%d", num)
	}

	rangeLabel := func(r core.RowRange) string {
		first, last := r.Rows()
		label := fmt.Sprintf("rows %d..%d", first, last)
		if opts.ShowConstants && first < len(t.ScanRows) {
			var parts []string
			for col, text := range t.ScanRows[first].Constants {
				parts = append(parts, fmt.Sprintf("col%d=%s", col, text))
			}
			if len(parts) > 0 {
				label += "<br/>" + strings.Join(parts, ", ")
			}
		}
		return label
	}

	writeRange := func(from string, r core.RowRange) {
		nid := nextID()
		fmt.Fprintf(w, "  %s[\"%s\"]\n", nid, rangeLabel(r))
		if opts.RangeFill != "" {
			fmt.Fprintf(w, "  style %s fill:%s\n", nid, opts.RangeFill)
		}
		if from != "" {
			fmt.Fprintf(w, "  %s --> %s\n", from, nid)
		}
	}

	switch {
	case t.Paths != nil:
		for _, group := range t.Paths.Groups {
			keyID := nextID()
			fmt.Fprintf(w, "  %s(\"path: %s\")\n", keyID, strings.Join(group.Path, "/"))
			for _, r := range group.Ranges {
				writeRange(keyID, r)
			}
		}
	case t.Index != nil:
		for key, ranges := range t.Index.Hash {
			keyID := nextID()
			fmt.Fprintf(w, "  %s(\"%s\")\n", keyID, strings.Replace(key, `"`, `'`, -1))
			for _, r := range ranges {
				writeRange(keyID, r)
			}
		}
	default:
		for i := range t.ScanRows {
			writeRange("", core.RowRange{Start: i, End: -1})
		}
	}

	fmt.Fprintf(w, "\n")
	return w.Close()
}
