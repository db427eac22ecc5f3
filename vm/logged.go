package vm

import (
	"time"

	"go.uber.org/zap"
)

// loggedMachine decorates a VirtualMachine with execution logging.
type loggedMachine struct {
	m   VirtualMachine
	log *zap.Logger
}

// WithLogger returns a VirtualMachine that logs every execution of m at debug
// level: mode, range, outcome and duration. A nil logger returns m unchanged.
func WithLogger(m VirtualMachine, log *zap.Logger) VirtualMachine {
	if log == nil {
		return m
	}
	return &loggedMachine{m: m, log: log.With(zap.String("vm", m.Motto()))}
}

// Motto implements VirtualMachine.
func (l *loggedMachine) Motto() string {
	return l.m.Motto()
}

// Execute implements VirtualMachine.
func (l *loggedMachine) Execute(input string, r Range, mode MatchMode) *MatchResult {
	start := time.Now()
	res := l.m.Execute(input, r, mode)

	if ce := l.log.Check(zap.DebugLevel, "execute"); ce != nil {
		fields := []zap.Field{
			zap.Stringer("mode", mode),
			zap.Stringer("range", r),
			zap.Bool("matched", res != nil),
			zap.Duration("elapsed", time.Since(start)),
		}
		if res != nil {
			fields = append(fields,
				zap.Stringer("match", res.Range),
				zap.Bool("partial", res.Partial),
			)
		}
		ce.Write(fields...)
	}
	return res
}
