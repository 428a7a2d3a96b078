package logger

import "deletion-agent/internal/application/port/output"

// NopLogger discards everything. Used by tests and as a safe default.
type NopLogger struct{}

var _ output.LoggerPort = (*NopLogger)(nil)

func NewNop() *NopLogger { return &NopLogger{} }

func (n *NopLogger) Debug(msg string, args ...any) {}
func (n *NopLogger) Info(msg string, args ...any)  {}
func (n *NopLogger) Warn(msg string, args ...any)  {}
func (n *NopLogger) Error(msg string, args ...any) {}

func (n *NopLogger) WithField(key string, value any) output.LoggerPort  { return n }
func (n *NopLogger) WithFields(fields map[string]any) output.LoggerPort { return n }

func (n *NopLogger) Close() error { return nil }
