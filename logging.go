package ospfap

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Logger is the narrow logging surface the core needs: structured
// warning/error lines for the drop-and-continue error policy described
// in spec.md section 7. Production code backs it with logrus, mirroring
// the teacher package's use of an injectable logger rather than the
// global log package.
type Logger interface {
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// nopLogger is the zero-value Logger: Router works without one, it just
// stays silent.
type nopLogger struct{}

func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}

// logrusLogger adapts a *logrus.Entry to the Logger interface, tagging
// every line with this router's id so multi-router test harnesses and
// production fleets can filter by router.
type logrusLogger struct {
	entry *logrus.Entry
}

// NewLogrusLogger returns a Logger backed by logrus, fielded with the
// owning router's id.
func NewLogrusLogger(l *logrus.Logger, routerID RouterID) Logger {
	if l == nil {
		l = logrus.StandardLogger()
	}
	return logrusLogger{entry: l.WithField("router", routerID.String())}
}

func (l logrusLogger) Warnf(format string, args ...interface{}) {
	l.entry.Warn(fmt.Sprintf(format, args...))
}

func (l logrusLogger) Errorf(format string, args ...interface{}) {
	l.entry.Error(fmt.Sprintf(format, args...))
}

// SetLogger installs l as this router's Logger. Pass nil to silence
// logging.
func (r *Router) SetLogger(l Logger) {
	if l == nil {
		l = nopLogger{}
	}
	r.log = l
}

// Tracer receives the optional CSV traces described in spec.md
// section 6: per-packet size/type/level, and per-origination timing.
type Tracer interface {
	TracePacket(ts interface{ UnixNano() int64 }, size int, typ packetType, level string)
	TraceLsaOrigination(ts interface{ UnixNano() int64 }, key LsaKey)
	TraceLsaMapping(l1, l2 LsaKey)
}

// SetTracer installs t as this router's Tracer. Pass nil to disable
// tracing.
func (r *Router) SetTracer(t Tracer) {
	r.trace = t
}
