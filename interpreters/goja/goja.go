// Package goja implements core.Interpreter using Goja, a Go
// implementation of ECMAScript 5.1+.
//
// See https://github.com/dop251/goja.
package goja

import (
	"context"
	"errors"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/dop251/goja"
	"github.com/gorhill/cronexpr"
)

var (
	// InterruptedMessage is the string value of Interrupted.
	InterruptedMessage = "RuntimeError: timeout"

	// Interrupted is returned by Exec if the execution is
	// interrupted.
	Interrupted = errors.New(InterruptedMessage)
)

// Interpreter implements core.Interpreter using Goja.
type Interpreter struct {
	// Timeout bounds how long a single Exec may run. Zero means no
	// timeout.
	Timeout time.Duration

	// LibraryProvider resolves a "// requires: name" comment on an
	// expression's first line into source to prepend. Defaults to
	// MakeFileLibraryProvider(".") if nil.
	LibraryProvider func(ctx context.Context, name string) (string, error)
}

// NewInterpreter makes a new Interpreter with the default file-based
// library provider.
func NewInterpreter() *Interpreter {
	return &Interpreter{LibraryProvider: MakeFileLibraryProvider(".")}
}

// MakeFileLibraryProvider resolves library names of the form
// "file://path", "http://url", or "https://url".
func MakeFileLibraryProvider(dir string) func(context.Context, string) (string, error) {
	return func(ctx context.Context, name string) (string, error) {
		parts := strings.SplitN(name, "://", 2)
		if len(parts) != 2 {
			return "", fmt.Errorf("bad library reference %q", name)
		}
		switch parts[0] {
		case "file":
			bs, err := ioutil.ReadFile(dir + "/" + parts[1])
			if err != nil {
				return "", err
			}
			return string(bs), nil
		case "http", "https":
			req, err := http.NewRequestWithContext(ctx, "GET", name, nil)
			if err != nil {
				return "", err
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return "", err
			}
			defer resp.Body.Close()
			bs, err := ioutil.ReadAll(resp.Body)
			if err != nil {
				return "", err
			}
			return string(bs), nil
		default:
			return "", fmt.Errorf("unsupported library scheme %q", parts[0])
		}
	}
}

var requiresRegexp = regexp.MustCompile(`^\s*//\s*requires:\s*(.*)$`)

// stripRequires recognizes an optional leading "// requires: a, b"
// comment line and returns the libraries it names alongside the
// remaining source.
func stripRequires(source string) (code string, libs []string) {
	lines := strings.SplitN(source, "\n", 2)
	m := requiresRegexp.FindStringSubmatch(lines[0])
	if m == nil {
		return source, nil
	}
	for _, name := range strings.Split(m[1], ",") {
		name = strings.TrimSpace(name)
		if name != "" {
			libs = append(libs, name)
		}
	}
	if len(lines) == 2 {
		return lines[1], libs
	}
	return "", libs
}

func wrapExpression(code string) string {
	return fmt.Sprintf("(function(){\nreturn (%s);\n}());\n", code)
}

// Compile compiles a cell's expression text into a *goja.Program. A
// leading "// requires: libname" comment line is resolved through
// LibraryProvider and prepended to the compiled source.
func (i *Interpreter) Compile(ctx context.Context, source string) (interface{}, error) {
	code, libs := stripRequires(source)

	var libSrc string
	if len(libs) > 0 {
		provide := i.LibraryProvider
		if provide == nil {
			provide = MakeFileLibraryProvider(".")
		}
		for _, lib := range libs {
			src, err := provide(ctx, lib)
			if err != nil {
				return nil, fmt.Errorf("requires %q: %w", lib, err)
			}
			libSrc += src + "\n"
		}
	}

	full := libSrc + wrapExpression(code)
	prog, err := goja.Compile("", full, true)
	if err != nil {
		return nil, fmt.Errorf("%s: %s", err, full)
	}
	return prog, nil
}

// Exec runs a compiled expression against record, which is exposed to
// the expression as the global "record". Utility functions gensym,
// esc, and cronNext are exposed the same way the teacher's action
// scripts expose them.
func (i *Interpreter) Exec(ctx context.Context, record map[string]interface{}, compiled interface{}) (interface{}, error) {
	prog, ok := compiled.(*goja.Program)
	if !ok {
		return nil, fmt.Errorf("goja: bad compilation %T", compiled)
	}

	vm := goja.New()
	vm.Set("record", record)
	vm.Set("gensym", gensym)
	vm.Set("esc", func(s string) string { return url.QueryEscape(s) })
	vm.Set("cronNext", func(expr string) (string, error) {
		c, err := cronexpr.Parse(expr)
		if err != nil {
			return "", err
		}
		return c.Next(time.Now()).UTC().Format(time.RFC3339Nano), nil
	})

	runCtx := ctx
	var cancel context.CancelFunc
	if i.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, i.Timeout)
		defer cancel()
	}

	done := make(chan struct{})
	go func() {
		select {
		case <-runCtx.Done():
			vm.Interrupt(InterruptedMessage)
		case <-done:
		}
	}()

	v, err := vm.RunProgram(prog)
	close(done)
	if err != nil {
		if _, is := err.(*goja.InterruptedError); is {
			return nil, Interrupted
		}
		return nil, err
	}

	return v.Export(), nil
}

func gensym() string {
	const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	buf := make([]byte, 16)
	seed := uint64(time.Now().UnixNano())
	for i := range buf {
		seed = seed*6364136223846793005 + 1442695040888963407
		buf[i] = alphabet[(seed>>33)%uint64(len(alphabet))]
	}
	return string(buf)
}
