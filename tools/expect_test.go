package tools

import (
	"context"
	"os/exec"
	"testing"
	"time"
)

// TestExpectBasic runs a real acceptance session against a real
// dtable process, reading records from stdin and writing decided
// records to stdout.
//
// Requires a current dtable in the path.
func TestExpectBasic(t *testing.T) {
	if _, err := exec.LookPath("dtable"); err != nil {
		t.Skip(err)
	}

	s := &Session{
		Doc: "A test session",
		IOs: []IO{
			{
				Doc:         "Send a record, and verify the decided output",
				WaitBetween: 100 * time.Millisecond,
				Inputs: []interface{}{
					map[string]interface{}{"status": "active"},
				},
				OutputSet: []Output{
					{
						Want: map[string]interface{}{"discount": "0.1"},
					},
				},
			},
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.ShowStderr = true

	if err := s.Run(ctx, "..", "dtable", "-grid", "testdata/pricing.csv"); err != nil {
		t.Fatal(err)
	}
}
