package gbr

import (
	"fmt"
	"log"
	"os"
)

//Logger defines an interface for writing log messages.
type Logger interface {
	Infof(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
}

//DefaultLogger logs to the Go stdlib logs.
type DefaultLogger struct{}

//Infof implements the Logger.Infof interface.
func (DefaultLogger) Infof(format string, args ...interface{}) {
	_ = log.Output(2, fmt.Sprintf(format, args...))
}

//Fatalf implements the Logger.Fatalf interface.
func (DefaultLogger) Fatalf(format string, args ...interface{}) {
	_ = log.Output(2, fmt.Sprintf(format, args...))
	os.Exit(1)
}

//NoopLogger drops every Infof message. Fatalf still exits.
type NoopLogger struct{}

func (NoopLogger) Infof(format string, args ...interface{}) {}

func (NoopLogger) Fatalf(format string, args ...interface{}) {
	DefaultLogger{}.Fatalf(format, args...)
}
