package tools

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"os"
	"os/exec"
	"reflect"
	"time"
)

// Output is a specification for an expected decision result.
type Output struct {
	// Doc is an opaque documentation string.
	Doc string `json:"doc,omitempty" yaml:"doc,omitempty"`

	// Want must deep-equal a decoded output record, after both sides
	// round-trip through JSON to normalize numeric/map types.
	Want interface{} `json:"want,omitempty" yaml:"want,omitempty"`

	// Got, set during processing, is the decoded output record that
	// matched Want. Just for diagnostics.
	Got interface{} `json:"-" yaml:"-"`
}

// IO is a package of input records and the output records expected in
// response.
type IO struct {
	Doc string `json:"doc,omitempty" yaml:"doc,omitempty"`

	WaitBefore  time.Duration `json:"waitBefore,omitempty" yaml:"waitBefore,omitempty"`
	WaitBetween time.Duration `json:"waitBetween,omitempty" yaml:"waitBetween,omitempty"`

	// Inputs are the input records to send, one JSON document per line.
	Inputs []interface{} `json:"inputs,omitempty" yaml:"inputs,omitempty"`

	WaitAfter time.Duration `json:"waitAfter,omitempty" yaml:"waitAfter,omitempty"`

	// OutputSet is the set (not a sequence) of outputs to verify.
	OutputSet []Output `json:"outputSet,omitempty" yaml:"outputSet,omitempty"`

	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// Session is a sequence of IOs run against a subprocess (typically
// cmd/dtable), one decision request/response round per input line.
type Session struct {
	Doc string `json:"doc,omitempty" yaml:"doc,omitempty"`

	IOs []IO `json:"ios" yaml:"ios"`

	DefaultTimeout time.Duration `json:"defaultTimeout,omitempty" yaml:"defaultTimeout,omitempty"`

	ShowStderr bool `json:"showStderr,omitempty" yaml:"showStderr,omitempty"`
	ShowStdin  bool `json:"showStdin,omitempty" yaml:"showStdin,omitempty"`
	ShowStdout bool `json:"showStdout,omitempty" yaml:"showStdout,omitempty"`
	Verbose    bool `json:"verbose,omitempty" yaml:"verbose,omitempty"`
}

// Run processes every IO in the Session against a subprocess started
// with args (the first element is the executable).
func (s *Session) Run(ctx context.Context, dir string, args ...string) error {
	if dir != "" {
		if err := os.Chdir(dir); err != nil {
			return err
		}
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
				log.Printf("stderr error %s", err)
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
			timer    *time.Timer
			happy    = errors.New("happy")
			timeout  = errors.New("timeout")
			canceled = errors.New("canceled")
			errs     = make(chan error, 3)
		)

		if iop.Timeout > 0 {
			timer = time.AfterFunc(iop.Timeout, func() {
				errs <- timeout
			})
		}

		go func() {
			f := func() error {
				need := len(iop.OutputSet)

				for {
					line, err := out.ReadBytes('\n')
					if err != nil {
						return err
					}
					if s.ShowStdout {
						log.Printf("out %s", line)
					}

					var got interface{}
					if err = json.Unmarshal(line, &got); err != nil {
						log.Printf("ignoring %s", line)
						continue
					}

					for i := range iop.OutputSet {
						output := &iop.OutputSet[i]
						if output.Got != nil {
							continue
						}
						if deepEqualJSON(output.Want, got) {
							output.Got = got
							need--
						}
					}
					if need == 0 {
						return nil
					}
				}
			}

			err := f()
			if timer != nil {
				timer.Stop()
			}
			if err == nil {
				errs <- happy
			} else {
				errs <- err
			}
		}()

		go func() {
			f := func() error {
				s.pause("waitBefore", iop.WaitBefore)

				for i, input := range iop.Inputs {
					if i > 0 {
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
		for {
			select {
			case <-ctx.Done():
				return canceled
			case err = <-errs:
				switch err {
				case happy:
					happies++
					if happies >= want {
						break LOOP
					}
				default:
					break LOOP
				}
			}
		}

		if happies < want {
			return err
		}
	}

	if err := stdin.Close(); err != nil {
		log.Printf("stdin.Close() error %s", err)
	}

	return cmd.Wait()
}

func (s *Session) pause(why string, d time.Duration) {
	if d > 0 {
		if s.Verbose {
			log.Printf("pause %s %s", why, d)
		}
		time.Sleep(d)
	}
}

// deepEqualJSON compares want (a Go value, possibly authored directly
// in a YAML/JSON test fixture) against got (already json.Unmarshaled,
// so float64/map[string]interface{}/[]interface{} throughout) by
// round-tripping want through the same encoding first.
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
