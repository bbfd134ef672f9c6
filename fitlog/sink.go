// Package fitlog provides the fit.LogSink implementation used outside of
// tests: a thin, re-bindable wrapper over github.com/agilira/iris, a
// field-based structured logger (grounded on the Level/Field encoding rules
// in agilira/iris's own format.go).
package fitlog

import (
	"fmt"
	"sync"

	"github.com/agilira/iris"

	"github.com/porelle-logan/choochoo/fit"
)

// Sink adapts an *iris.Logger to fit.LogSink, tagging every entry with the
// component that produced it. The wrapped logger is swappable behind a
// mutex: fit.LoadSchema rebinds a fresh Sink after deserializing a cached
// schema, mirroring NullableLog.set_log in
// original_source/choochoo/fit/profile.py.
type Sink struct {
	mu        sync.RWMutex
	logger    *iris.Logger
	component string
}

// New wraps logger, tagging every log line with component (e.g.
// "type-registry", "message-catalog", "record-decoder",
// "profile-compiler").
func New(logger *iris.Logger, component string) *Sink {
	return &Sink{logger: logger, component: component}
}

// Rebind swaps the underlying *iris.Logger, used when a Sink is reattached
// to a schema freshly loaded from a Schema Cache.
func (s *Sink) Rebind(logger *iris.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger = logger
}

func (s *Sink) current() *iris.Logger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.logger
}

func (s *Sink) field() iris.Field {
	return iris.Field{Key: "component", Type: iris.StringType, String: s.component}
}

func (s *Sink) Debugf(format string, args ...interface{}) {
	s.current().Debug(fmt.Sprintf(format, args...), s.field())
}

func (s *Sink) Infof(format string, args ...interface{}) {
	s.current().Info(fmt.Sprintf(format, args...), s.field())
}

func (s *Sink) Warnf(format string, args ...interface{}) {
	s.current().Warn(fmt.Sprintf(format, args...), s.field())
}

func (s *Sink) Errorf(format string, args ...interface{}) {
	s.current().Error(fmt.Sprintf(format, args...), s.field())
}

var _ fit.LogSink = (*Sink)(nil)
