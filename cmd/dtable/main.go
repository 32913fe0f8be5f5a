// A simple, single-process tool that compiles a decision table from a
// grid file and decides either one record (given on the command line)
// or a stream of records read from stdin, one JSON object per line,
// writing one decided JSON object per line to stdout.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/gridrules/dtable/core"
	"github.com/gridrules/dtable/grid"
	"github.com/gridrules/dtable/interpreters"
	"github.com/gridrules/dtable/tools"
	"github.com/gridrules/dtable/util"

	yaml "gopkg.in/yaml.v2"
)

// loadOptions reads filename as a YAML document of the same
// string-keyed shape core.ParseOptions accepts (first_match,
// regexp_implicit, text_only), the sidecar-options-file convention
// described by SPEC_FULL §2.3.
func loadOptions(filename string) (core.Options, error) {
	bs, err := ioutil.ReadFile(filename)
	if err != nil {
		return core.Options{}, core.WrapFile(filename, err)
	}

	var raw map[string]interface{}
	if err := yaml.Unmarshal(bs, &raw); err != nil {
		return core.Options{}, core.WrapFile(filename, err)
	}

	opts, err := core.ParseOptions(raw)
	if err != nil {
		return core.Options{}, core.WrapFile(filename, err)
	}
	return opts, nil
}

// loadGrid reads filename through tools.ReadFileWithInlines, so a grid
// can %inline("NAME") a shared fragment of rows the way the teacher
// composed spec YAML from fragments, then hands the expanded bytes to
// grid.FromYAML or grid.FromCSV by extension.
func loadGrid(filename string) (core.Grid, error) {
	bs, err := tools.ReadFileWithInlines(filename)
	if err != nil {
		return nil, core.WrapFile(filename, err)
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		g, err := grid.FromYAML(bytes.NewReader(bs))
		if err != nil {
			return nil, core.WrapFile(filename, err)
		}
		return g, nil
	default:
		g, err := grid.FromCSV(bytes.NewReader(bs))
		if err != nil {
			return nil, core.WrapFile(filename, err)
		}
		return g, nil
	}
}

func main() {
	var (
		gridFilename    = flag.String("grid", "", "grid filename (CSV or YAML)")
		optionsFilename = flag.String("options", "", "sidecar YAML options file (first_match, regexp_implicit, text_only); empty to use flags/header only")
		recordJSON      = flag.String("record", "", "a single input record (JSON); if empty, read records from stdin")
		symbolize       = flag.Bool("symbolize-keys", false, "leave the caller's record untouched; decide against a copy")
		regexpImp       = flag.Bool("regexp-implicit", false, "treat punctuation-bearing cells as implicit regexps")
		diag            = flag.Bool("diag", false, "print per-row trace diagnostics to stderr")
		dumpColumns     = flag.Bool("dump-columns", false, "print the compiled column dictionary as YAML and exit")
		doc             = flag.Bool("doc", false, "print the table as an HTML document fragment and exit")
		analyze         = flag.Bool("analyze", false, "print structural analysis (row count, key columns, unused outputs, ...) and exit")
	)
	flag.Parse()

	if *gridFilename == "" {
		fmt.Fprintln(os.Stderr, "dtable: -grid is required")
		os.Exit(2)
	}

	g, err := loadGrid(*gridFilename)
	if err != nil {
		fatal(err)
	}

	opts := core.Options{
		RegexpImplicit: *regexpImp,
		Interpreters:   interpreters.Standard(),
		Debug:          *diag,
	}
	if *optionsFilename != "" {
		fileOpts, err := loadOptions(*optionsFilename)
		if err != nil {
			fatal(err)
		}
		fileOpts.Interpreters = opts.Interpreters
		fileOpts.Debug = opts.Debug
		if *regexpImp {
			fileOpts.RegexpImplicit = true
		}
		opts = fileOpts
	}

	table, err := core.Parse(g, opts)
	if err != nil {
		fatal(err)
	}

	switch {
	case *dumpColumns:
		js, err := tools.ColumnsYAML(table)
		if err != nil {
			fatal(err)
		}
		fmt.Println(js)
		return
	case *doc:
		if err := tools.RenderTableHTML(table, os.Stdout); err != nil {
			fatal(err)
		}
		return
	case *analyze:
		a, err := tools.Analyze(table)
		if err != nil {
			fatal(err)
		}
		js, err := json.MarshalIndent(a, "", "  ")
		if err != nil {
			fatal(err)
		}
		fmt.Println(string(js))
		return
	}

	decideAndPrint := func(input map[string]interface{}) {
		if *diag {
			attrs, trace, err := table.DecideTrace(input, *symbolize)
			for _, e := range trace {
				fmt.Fprintf(os.Stderr, "# row %d matched=%v accepted=%v\n", e.Row, e.Matched, e.Accepted)
			}
			printResult(attrs, err)
			return
		}
		attrs, err := table.Decide(input, *symbolize)
		printResult(attrs, err)
	}

	if *recordJSON != "" {
		var input map[string]interface{}
		if err := json.Unmarshal([]byte(*recordJSON), &input); err != nil {
			fatal(err)
		}
		decideAndPrint(input)
		return
	}

	in := bufio.NewReader(os.Stdin)
	for {
		line, err := in.ReadBytes('\n')
		if err == io.EOF {
			break
		}
		if err != nil {
			fatal(err)
		}
		var input map[string]interface{}
		if err := json.Unmarshal(line, &input); err != nil {
			fmt.Printf("error: %s\n", err)
			continue
		}
		decideAndPrint(input)
	}
}

func printResult(attrs map[string]interface{}, err error) {
	if err != nil {
		fmt.Printf("error: %s\n", err)
		return
	}
	js, err := json.Marshal(&attrs)
	if err != nil {
		fmt.Printf("error: %s\n", err)
		return
	}
	fmt.Printf("%s\n", js)
	util.Logf("dtable: decided %s", js)
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "dtable: %s\n", err)
	os.Exit(1)
}
