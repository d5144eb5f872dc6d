package sched_test

import (
	"strings"
	"testing"

	"github.com/dshills/interleave-go/sched"
)

func TestSchedErrorFormat(t *testing.T) {
	withCode := &sched.SchedError{Message: "failed to save trace", Code: "STORE_ERROR"}
	if got := withCode.Error(); got != "STORE_ERROR: failed to save trace" {
		t.Errorf("Error() = %q", got)
	}

	plain := &sched.SchedError{Message: "failed to save trace"}
	if got := plain.Error(); got != "failed to save trace" {
		t.Errorf("Error() = %q", got)
	}
}

func TestTaskErrorFormat(t *testing.T) {
	err := &sched.TaskError{WorkerID: "w2", Ordinal: 2, Value: "boom"}
	msg := err.Error()

	for _, want := range []string{"w2", "ordinal 2", "boom", "panicked"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, missing %q", msg, want)
		}
	}
}
