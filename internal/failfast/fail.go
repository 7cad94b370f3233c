package failfast

import (
	"fmt"
	"os"
	"runtime"

	"fargatesoci/internal/logger"
)

type ErrorLevel int

const (
	Ignore   ErrorLevel = iota // do nothing, just log
	Warn                       // log a Warning
	Error                      // log an Error and exit with code 1
	Critical                   // log a Critical error and exit with code 2
	Panic                      // log and panic
)

var (
	failfastLogger = logger.PackageLogger("🚨 FailFast::")

	// exit is swapped in tests.
	exit = os.Exit
)

// Failfast reports err with the caller's location and reacts according to
// level. A nil err is a no-op.
func Failfast(err error, level ErrorLevel, message string) {
	if err == nil {
		return
	}
	where := "unknown"
	if pc, file, line, ok := runtime.Caller(1); ok {
		where = fmt.Sprintf("%s:%d (%s)", file, line, runtime.FuncForPC(pc).Name())
	}
	failfastLogger.Error("%s: %v\n📄 AT: %s", message, err, where)

	switch level {
	case Ignore:
		failfastLogger.Info("Ignoring error as per configuration.")
	case Warn:
		failfastLogger.Warn("Continuing after: %s", err)
	case Error:
		exit(1)
	case Critical:
		exit(2)
	case Panic:
		panic(err)
	}
}
