package monitoring

import (
	"log"
	"time"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// now is replaced in tests.
var now = time.Now

// Timed logs how long an operation took when the returned func is called:
//
//	defer monitoring.Timed("compute lag map r=%d", r)()
func Timed(format string, v ...interface{}) func() {
	start := now()
	return func() {
		args := append(append([]interface{}{}, v...), now().Sub(start).Round(time.Microsecond))
		Logf(format+" took %s", args...)
	}
}
