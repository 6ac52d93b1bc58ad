// Package logrelay forwards kernel log traffic to the host's log sink.
// Text passes through unmodified, in channel order: the relay applies no
// buffering or reordering of its own.
package logrelay

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/orogen-io/sideband/types"
)

// Level is the severity a relayed line is routed at.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Sink receives relayed kernel log lines.
type Sink interface {
	Write(level Level, text string)
}

// Relay forwards Log and LogSlice messages to a sink.
type Relay struct {
	sink Sink
}

// New creates a relay over the given sink.
func New(sink Sink) *Relay {
	return &Relay{sink: sink}
}

// Relay forwards one log message. LogSlice text aliases the exchange
// buffer, so it is copied here before handing it to the sink.
func (r *Relay) Relay(m types.Message) error {
	switch v := m.(type) {
	case types.Log:
		r.sink.Write(parseLevel(v.Text), v.Text)
		return nil
	case types.LogSlice:
		text := string(v.Text)
		r.sink.Write(parseLevel(text), text)
		return nil
	default:
		return fmt.Errorf("logrelay: not a log message: %T", m)
	}
}

// parseLevel routes severity from the optional "LEVEL:" prefix the kernel
// log macros emit. The prefix stays part of the forwarded text.
func parseLevel(text string) Level {
	prefix, _, ok := strings.Cut(text, ":")
	if !ok {
		return LevelInfo
	}
	switch prefix {
	case "DEBUG", "TRACE":
		return LevelDebug
	case "INFO":
		return LevelInfo
	case "WARN":
		return LevelWarn
	case "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

// ZapSink routes relayed lines to a zap logger at the matching severity.
type ZapSink struct {
	logger *zap.Logger
}

// NewZapSink creates a sink over the given logger.
func NewZapSink(logger *zap.Logger) *ZapSink {
	return &ZapSink{logger: logger.With(zap.String("origin", "kernel"))}
}

// Write implements Sink.
func (s *ZapSink) Write(level Level, text string) {
	switch level {
	case LevelDebug:
		s.logger.Debug(text)
	case LevelWarn:
		s.logger.Warn(text)
	case LevelError:
		s.logger.Error(text)
	default:
		s.logger.Info(text)
	}
}

var _ Sink = (*ZapSink)(nil)
