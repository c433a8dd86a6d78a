package progress

import (
	"fmt"

	"go.uber.org/zap"
)

type safe struct {
	next   Reporter
	logger *zap.Logger
}

// Safe wraps r so a panicking consumer is logged and swallowed instead of
// unwinding the sync worker.
func Safe(r Reporter, logger *zap.Logger) Reporter {
	if r == nil {
		return Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &safe{next: r, logger: logger}
}

func (s *safe) Report(u Update) {
	defer func() {
		if p := recover(); p != nil {
			s.logger.Warn("progress reporter panicked",
				zap.String("phase", string(u.Phase)),
				zap.String("panic", fmt.Sprint(p)))
		}
	}()
	s.next.Report(u)
}
