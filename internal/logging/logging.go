// Package logging provides the shared logging plumbing for fractalview's
// sub-packages.
//
// Components receive a *slog.Logger by injection (the root View passes the
// logger configured via fractalview.SetLogger). Components constructed
// without one fall back to Discard, so logging stays strictly opt-in.
package logging

import (
	"context"
	"log/slog"
)

// discardHandler silently drops all records. Enabled returns false so
// callers skip message formatting entirely.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return discardHandler{} }
func (discardHandler) WithGroup(string) slog.Handler             { return discardHandler{} }

// Discard returns a logger that drops all output.
func Discard() *slog.Logger { return slog.New(discardHandler{}) }

// OrDiscard returns log, or a discard logger when log is nil.
func OrDiscard(log *slog.Logger) *slog.Logger {
	if log == nil {
		return Discard()
	}
	return log
}

// BestEffort logs a teardown failure at Warn level and returns.
//
// Resource destruction in this module is best-effort: a leaked log line is
// acceptable, a crashed eviction loop is not. Call sites use this helper so
// the policy stays in one place.
func BestEffort(log *slog.Logger, msg string, err error, args ...any) {
	if err == nil {
		return
	}
	log.Warn(msg, append([]any{"err", err}, args...)...)
}
