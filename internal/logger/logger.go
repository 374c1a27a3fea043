// Package logger provides the leveled logger shared by services, the HTTP API
// and the bot.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// Logger accepts a message followed by optional details: errors, maps or the
// acting model.User.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// StdLogger writes "[level] msg: details" lines through a std log.Logger.
type StdLogger struct {
	std   *log.Logger
	debug bool
}

var _ Logger = (*StdLogger)(nil)

func New(w io.Writer, debug bool) *StdLogger {
	if w == nil {
		w = os.Stdout
	}
	return &StdLogger{std: log.New(w, "", log.LstdFlags), debug: debug}
}

// NewStd wraps an existing std logger.
func NewStd(std *log.Logger, debug bool) *StdLogger {
	return &StdLogger{std: std, debug: debug}
}

func (l *StdLogger) print(level, msg string, args []interface{}) {
	if len(args) == 0 {
		l.std.Printf("[%s] %s", level, msg)
		return
	}
	details := make([]string, 0, len(args))
	for _, arg := range args {
		details = append(details, fmt.Sprintf("%v", arg))
	}
	l.std.Printf("[%s] %s: %s", level, msg, strings.Join(details, " "))
}

func (l *StdLogger) Debug(msg string, args ...interface{}) {
	if l.debug {
		l.print("debug", msg, args)
	}
}

func (l *StdLogger) Info(msg string, args ...interface{}) { l.print("info", msg, args) }

func (l *StdLogger) Warn(msg string, args ...interface{}) { l.print("warn", msg, args) }

func (l *StdLogger) Error(msg string, args ...interface{}) { l.print("error", msg, args) }

type nop struct{}

func (nop) Debug(string, ...interface{}) {}
func (nop) Info(string, ...interface{})  {}
func (nop) Warn(string, ...interface{})  {}
func (nop) Error(string, ...interface{}) {}

// Nop discards everything.
var Nop Logger = nop{}
