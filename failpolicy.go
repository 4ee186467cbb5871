package alloc

import (
	"fmt"
	"log/slog"
)

// FailPolicy is invoked by a resource on every Allocate/Free call that is
// about to return nil/false. It is the only error-signalling mechanism
// beyond the return value itself; a resource never panics or logs on its
// own unless the policy attached to it does.
type FailPolicy interface {
	OnFail(tag ResourceTag, op string, detail error)
}

// NoopFailPolicy does nothing. It is the default for every resource.
type NoopFailPolicy struct{}

// OnFail implements FailPolicy.
func (NoopFailPolicy) OnFail(ResourceTag, string, error) {}

// PanicFailPolicy turns any failure into a panic carrying the detail.
type PanicFailPolicy struct{}

// OnFail implements FailPolicy.
func (PanicFailPolicy) OnFail(tag ResourceTag, op string, detail error) {
	panic(fmt.Sprintf("alloc: %s[%s]: %v", tag, op, detail))
}

// LoggingFailPolicy logs each failure at slog.LevelWarn and then, if Next
// is set, delegates to it — composing, for example, logging with a panic.
type LoggingFailPolicy struct {
	Logger *slog.Logger
	Next   FailPolicy
}

// OnFail implements FailPolicy.
func (p LoggingFailPolicy) OnFail(tag ResourceTag, op string, detail error) {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn("alloc: operation failed",
		slog.String("resource", tag.String()),
		slog.String("op", op),
		slog.Any("detail", detail),
	)
	if p.Next != nil {
		p.Next.OnFail(tag, op, detail)
	}
}

// LogInvalidConfig is the one construction-time log line every resource's
// New function emits when it detects an unusable configuration (too small
// a region, a bad alignment). It bypasses FailPolicy entirely: the
// resource's OnFail hook is only invoked from Allocate/Free.
func LogInvalidConfig(logger *slog.Logger, tag ResourceTag, start, end, align uintptr, cause error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn("alloc: invalid resource configuration",
		slog.Group("region",
			slog.Uint64("start", uint64(start)),
			slog.Uint64("end", uint64(end)),
			slog.Uint64("align", uint64(align)),
		),
		slog.String("resource", tag.String()),
		slog.Any("cause", cause),
	)
}
