/* Copyright 2018-2019 Comcast Cable Communications Management, LLC
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

// Package expect is a tool for testing decision tables end to end.
//
// You construct a Session, which has inputs and expected outputs.
// Then run the session against a subprocess (typically cmd/dtable,
// which reads one JSON input record per stdin line and writes one
// decided JSON output record per stdout line) to see if the expected
// outputs actually appeared.
//
// Specifying what's expected can be simple, as in some literal output
// record, or fancier, via a GuardSource expression that further
// checks a matched record.
//
// This package also has support for delays, timeouts, and other
// time-driven behavior.
//
// See ../../cmd/dtable for command-line use.
package expect

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"reflect"
	"strings"
	"time"

	"github.com/gridrules/dtable/core"
)

// GuardSource is source for an expression that further checks a
// matched output record, compiled via one of Session's Interpreters.
type GuardSource struct {
	Interpreter string `json:"interpreter,omitempty" yaml:"interpreter,omitempty"`
	Source      string `json:"source" yaml:"source"`
}

// Output is a specification for a decision output record that's
// expected.
type Output struct {
	// Doc is an opaque documentation string.
	Doc string `json:"doc,omitempty" yaml:"doc,omitempty"`

	// Want must deep-equal an emitted output record (after both
	// sides are normalized through JSON encoding).
	Want interface{} `json:"want,omitempty" yaml:"want,omitempty"`

	// GuardSource is optional source that's compiled and run against
	// a matched record to perform a further procedural check.
	GuardSource *GuardSource `json:"guard,omitempty" yaml:"guard,omitempty"`

	// Got, the record that matched Want (and passed the guard, if
	// any), is written during processing. Just for diagnostics.
	Got interface{} `json:"-" yaml:"-"`

	// Inverted means that a matching output isn't desired.
	Inverted bool `json:"inverted,omitempty" yaml:"inverted,omitempty"`
}

// IO is a package of input records and required output record
// specifications.
type IO struct {
	// Doc is an opaque documentation string.
	Doc string `json:"doc,omitempty" yaml:"doc,omitempty"`

	// WaitBefore is the time to wait before sending the first input.
	WaitBefore time.Duration `json:"waitBefore,omitempty" yaml:"waitBefore,omitempty"`

	// WaitBetween is the time to wait between sending inputs.
	WaitBetween time.Duration `json:"waitBetween,omitempty" yaml:"waitBetween,omitempty"`

	// Inputs are the JSON-encoded input records to send.
	Inputs []interface{} `json:"inputs,omitempty" yaml:"inputs,omitempty"`

	// WaitAfter is the time to wait after sending the last input.
	WaitAfter time.Duration `json:"waitAfter,omitempty" yaml:"waitAfter,omitempty"`

	// OutputSet is the set (not a list) of outputs to verify.
	OutputSet []Output `json:"outputSet,omitempty" yaml:"outputSet,omitempty"`

	// Timeout is the optional timeout for this IO.
	// Session.DefaultTimeout is the default value.
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// Session is mostly a sequence of IOs.
type Session struct {
	// Doc is an opaque documentation string.
	Doc string `json:"doc,omitempty" yaml:"doc,omitempty"`

	// IOs is the sequence of IOs that this session will run.
	IOs []IO `json:"ios" yaml:"ios"`

	// Interpreters are used (if necessary) to compile any
	// GuardSources.
	Interpreters map[string]core.Interpreter `json:"-" yaml:"-"`

	// DefaultTimeout is the default timeout for each IO.
	DefaultTimeout time.Duration `json:"defaultTimeout,omitempty" yaml:"defaultTimeout,omitempty"`

	// ShowStderr controls whether the subprocess's stderr is logged.
	ShowStderr bool `json:"showStderr,omitempty" yaml:"showStderr,omitempty"`

	// ShowStdin controls whether data sent to the subprocess is
	// logged.
	ShowStdin bool `json:"showStdin,omitempty" yaml:"showStdin,omitempty"`

	// ShowStdout controls whether the subprocess's stdout is logged.
	ShowStdout bool `json:"showStdout,omitempty" yaml:"showStdout,omitempty"`

	// InputPrefix specifies the prefix of output lines that should
	// be stripped before JSON-decoding (for subprocesses that tag
	// their decision output, e.g. "out: ").
	InputPrefix string `json:"inputPrefix,omitempty" yaml:"inputPrefix,omitempty"`

	Verbose bool `json:"verbose,omitempty" yaml:"verbose,omitempty"`
}

// Run processes all the IOs in the Session.
//
// The current directory is changed to 'dir' (and then hopefully
// restored).
//
// The subprocess is given by args. The first arg is the executable.
// Example args:
//
//   "dtable", "-grid", "pricing.csv"
//
func (s *Session) Run(ctx context.Context, dir string, args ...string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if dir != "" {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		if err := os.Chdir(dir); err != nil {
			return err
		}
		defer func() {
			if err := os.Chdir(cwd); err != nil {
				log.Printf("error restoring cwd %s", cwd)
			}
		}()
	}

	if len(args) == 0 {
		return fmt.Errorf("need a command (and optional args) (for expect.Session.Run)")
	}

	cmd := exec.Command(args[0], args[1:]...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return err
	}
	defer stdin.Close()

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	defer stdout.Close()
	out := bufio.NewReader(stdout)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return err
	}
	defer stderr.Close()

	if err := cmd.Start(); err != nil {
		return err
	}

	newline := []byte{'\n'}

	go func() {
		out := bufio.NewReader(stderr)
		for {
			line, err := out.ReadBytes('\n')
			if err == io.EOF {
				break
			}
			if err != nil {
				if strings.Index(err.Error(), "already closed") < 0 {
					log.Printf("stderr error %s", err)
				}
				break
			}
			if s.ShowStderr {
				log.Printf("stderr %s", line)
			}
		}
	}()

	for _, iop := range s.IOs {
		if iop.Timeout == 0 {
			iop.Timeout = s.DefaultTimeout
		}

		var (
			errs = make(chan error, 4)

			happy    = errors.New("happy")
			timeout  = errors.New("timeout")
			canceled = errors.New("canceled")
		)

		if 0 < iop.Timeout {
			time.AfterFunc(iop.Timeout, func() {
				errs <- timeout
				errs <- timeout
			})
		}

		go func() {
			f := func() error {
				need := 0
				for _, o := range iop.OutputSet {
					if !o.Inverted {
						need++
					}
				}

				for 0 < need {
					line, err := out.ReadBytes('\n')
					if err != nil {
						return err
					}

					if s.ShowStdout {
						log.Printf("out %s", line)
					}

					if bytes.HasPrefix(line, []byte(s.InputPrefix)) {
						line = bytes.TrimSpace(line[len(s.InputPrefix):])
					}

					var record interface{}
					if err = json.Unmarshal(line, &record); err != nil {
						log.Printf("ignoring '%s'", line)
						continue
					}

					for i := range iop.OutputSet {
						output := &iop.OutputSet[i]
						if output.Got != nil {
							continue
						}
						if !deepEqualJSON(output.Want, record) {
							continue
						}

						if output.GuardSource != nil {
							ok, err := runGuard(ctx, s.Interpreters, output.GuardSource, record)
							if err != nil {
								return err
							}
							if !ok {
								continue
							}
						}

						output.Got = record
						if output.Inverted {
							return fmt.Errorf("undesired output %v", record)
						}
						need--
					}
				}

				return nil
			}

			if err := f(); err == nil {
				errs <- happy
			} else {
				errs <- err
			}
		}()

		go func() {
			f := func() error {
				s.pause("waitBefore", iop.WaitBefore)

				for i, input := range iop.Inputs {
					if 0 < i {
						s.pause("waitBetween", iop.WaitBetween)
					}

					js, err := json.Marshal(input)
					if err != nil {
						return err
					}

					if s.ShowStdin {
						log.Printf("in %s\n", js)
					}

					if _, err := stdin.Write(js); err != nil {
						return err
					}

					if _, err := stdin.Write(newline); err != nil {
						return err
					}
				}

				s.pause("waitAfter", iop.WaitAfter)
				return nil
			}

			if err := f(); err == nil {
				errs <- happy
			} else {
				errs <- err
			}
		}()

		happies := 0
		want := 2

	LOOP:
		for happies < want {
			select {
			case <-ctx.Done():
				return canceled
			case err = <-errs:
				switch err {
				case happy:
					happies++
				default:
					break LOOP
				}
			}
		}

		if happies < want {
			return err
		}
	}

	cancel()

	if err := stdin.Close(); err != nil {
		log.Printf("stdin.Close() error %s", err)
	}

	if err := stdout.Close(); err != nil {
		log.Printf("stdout.Close() error %s", err)
	}

	return cmd.Wait()
}

func runGuard(ctx context.Context, interpreters map[string]core.Interpreter, g *GuardSource, record interface{}) (bool, error) {
	interp, ok := interpreters[g.Interpreter]
	if !ok {
		return false, fmt.Errorf("no interpreter %q", g.Interpreter)
	}
	compiled, err := interp.Compile(ctx, g.Source)
	if err != nil {
		return false, err
	}
	m, ok := record.(map[string]interface{})
	if !ok {
		m = map[string]interface{}{"_": record}
	}
	result, err := interp.Exec(ctx, m, compiled)
	if err != nil {
		return false, err
	}
	truthy, ok := result.(bool)
	return ok && truthy, nil
}

func deepEqualJSON(want, got interface{}) bool {
	js, err := json.Marshal(want)
	if err != nil {
		return false
	}
	var normalized interface{}
	if err := json.Unmarshal(js, &normalized); err != nil {
		return false
	}
	return reflect.DeepEqual(normalized, got)
}

func (s *Session) pause(why string, d time.Duration) {
	if 0 < d {
		if s.Verbose {
			log.Printf("pause %s %s", why, d)
		}
		time.Sleep(d)
	}
}
