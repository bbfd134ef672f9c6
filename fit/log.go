package fit

// LogSink is the four-level logging contract the core calls into (spec.md
// §6.4). It is the core's only permitted side effect besides returning
// decoded values and errors.
//
// A LogSink must be safe to rebind: the Schema Cache loader replaces the
// sink on a deserialized schema before handing it back to the caller (see
// LoadSchema), mirroring NullableLog in the Python original this
// module was distilled from.
type LogSink interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// nullLog discards everything. Used where a caller passes a nil LogSink so
// the core never has to nil-check before logging.
type nullLog struct{}

func (nullLog) Debugf(string, ...interface{}) {}
func (nullLog) Infof(string, ...interface{})  {}
func (nullLog) Warnf(string, ...interface{})  {}
func (nullLog) Errorf(string, ...interface{}) {}

func orNullLog(log LogSink) LogSink {
	if log == nil {
		return nullLog{}
	}
	return log
}
