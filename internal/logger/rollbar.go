package logger

import (
	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"study-planner/internal/model"
)

// RollbarOptions identifies the deployment in Rollbar.
type RollbarOptions struct {
	Token       string
	Environment string
	Host        string
	Version     string
}

// RollbarLogger reports to Rollbar and mirrors every call to a local logger.
type RollbarLogger struct {
	local *StdLogger
}

var _ Logger = (*RollbarLogger)(nil)

func NewRollbar(local *StdLogger, opts RollbarOptions) *RollbarLogger {
	rollbar.SetToken(opts.Token)
	rollbar.SetEnvironment(opts.Environment)
	rollbar.SetServerHost(opts.Host)
	rollbar.SetCodeVersion(opts.Version)
	rollbar.SetStackTracer(errors.StackTracer)
	return &RollbarLogger{local: local}
}

// Flush blocks until queued items are sent.
func (l *RollbarLogger) Flush() {
	rollbar.Wait()
}

// prepare lifts a model.User out of args and sets it as the Rollbar person.
func (l *RollbarLogger) prepare(msg string, args []interface{}) []interface{} {
	var personSet bool
	out := make([]interface{}, 0, len(args)+1)
	out = append(out, msg)
	for _, arg := range args {
		if usr, ok := arg.(model.User); ok {
			if !personSet {
				rollbar.SetPerson(usr.ID, usr.DisplayName, usr.Email)
				personSet = true
			}
			continue
		}
		out = append(out, arg)
	}
	if !personSet {
		rollbar.ClearPerson()
	}
	return out
}

func (l *RollbarLogger) Debug(msg string, args ...interface{}) {
	rollbar.Debug(l.prepare(msg, args)...)
	l.local.Debug(msg, args...)
}

func (l *RollbarLogger) Info(msg string, args ...interface{}) {
	rollbar.Info(l.prepare(msg, args)...)
	l.local.Info(msg, args...)
}

func (l *RollbarLogger) Warn(msg string, args ...interface{}) {
	rollbar.Warning(l.prepare(msg, args)...)
	l.local.Warn(msg, args...)
}

func (l *RollbarLogger) Error(msg string, args ...interface{}) {
	rollbar.Error(l.prepare(msg, args)...)
	l.local.Error(msg, args...)
}
