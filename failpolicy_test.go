package alloc

import (
	"bytes"
	"log/slog"
	"testing"
)

func TestNoopFailPolicyDoesNothing(t *testing.T) {
	NoopFailPolicy{}.OnFail(TagLinear, "Allocate", ErrOutOfSpace)
}

func TestPanicFailPolicyPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected OnFail to panic")
		}
	}()
	PanicFailPolicy{}.OnFail(TagStack, "Free", ErrInvalidFree)
}

func TestLoggingFailPolicyLogsAndDelegates(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	next := &recordingPolicy{}
	p := LoggingFailPolicy{Logger: logger, Next: next}
	p.OnFail(TagPool, "Allocate", ErrOutOfSpace)

	if buf.Len() == 0 {
		t.Error("expected a log line to be written")
	}
	if next.tag != TagPool || next.op != "Allocate" {
		t.Error("expected the call to be delegated to Next")
	}
}

type recordingPolicy struct {
	tag ResourceTag
	op  string
}

func (r *recordingPolicy) OnFail(tag ResourceTag, op string, detail error) {
	r.tag, r.op = tag, op
}
