package failfast

import (
	"errors"
	"testing"
)

func TestFailfast(t *testing.T) {
	var code int
	orig := exit
	exit = func(c int) { code = c }
	t.Cleanup(func() { exit = orig })

	type When struct {
		Err   error
		Level ErrorLevel
	}
	type Then struct{ Code int }

	theory := func(when When, then Then) func(t *testing.T) {
		return func(t *testing.T) {
			code = -1
			Failfast(when.Err, when.Level, "testing")
			if code != then.Code {
				t.Errorf("want exit code %d, got %d", then.Code, code)
			}
		}
	}

	boom := errors.New("boom")
	t.Run("nil error is ignored", theory(When{Err: nil, Level: Critical}, Then{Code: -1}))
	t.Run("warn keeps running", theory(When{Err: boom, Level: Warn}, Then{Code: -1}))
	t.Run("error exits 1", theory(When{Err: boom, Level: Error}, Then{Code: 1}))
	t.Run("critical exits 2", theory(When{Err: boom, Level: Critical}, Then{Code: 2}))

	t.Run("panic panics with the error", func(t *testing.T) {
		defer func() {
			if r := recover(); r != boom {
				t.Errorf("want panic(boom), got %v", r)
			}
		}()
		Failfast(boom, Panic, "testing")
	})
}
