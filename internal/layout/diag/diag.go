package diag

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level mirrors zap levels for the subset the engine emits.
type Level int8

const (
	LevelDebug Level = iota - 1
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	return zapcore.Level(l).String()
}

// Code identifies the class of a message so hosts can filter on it.
type Code string

const (
	CodeInvalidTree        Code = "invalid-tree"
	CodeMissingFont        Code = "missing-font"
	CodeMissingImage       Code = "missing-image"
	CodeMonolithicOverflow Code = "monolithic-overflow"
	CodeUnbalancedClip     Code = "unbalanced-clip"
	CodeUnsupported        Code = "unsupported"
	CodeSingularTransform  Code = "singular-transform"
	CodeOverConstrained    Code = "over-constrained"
	CodeCacheSnapshot      Code = "cache-snapshot"
)

// Message is one DebugMessage produced during a pass.
type Message struct {
	Level    Level  `json:"level"`
	Code     Code   `json:"code"`
	Node     int32  `json:"node"`
	Resource string `json:"resource,omitempty"`
	Text     string `json:"text"`
}

func (m Message) String() string {
	if m.Resource != "" {
		return fmt.Sprintf("[%s] %s node=%d resource=%s: %s", m.Level, m.Code, m.Node, m.Resource, m.Text)
	}
	return fmt.Sprintf("[%s] %s node=%d: %s", m.Level, m.Code, m.Node, m.Text)
}

// Collector gathers messages for one pass and mirrors them to a logger.
// A nil *Collector discards everything.
type Collector struct {
	logger   *zap.Logger
	messages []Message
	// seen suppresses repeats of the same (code, resource) pair, so a
	// missing font is reported once per pass rather than once per run.
	seen map[string]struct{}
}

// NewCollector returns a collector mirroring to logger. A nil logger is
// replaced by zap.NewNop.
func NewCollector(logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{logger: logger, seen: make(map[string]struct{})}
}

// Add records a message.
func (c *Collector) Add(m Message) {
	if c == nil {
		return
	}
	if m.Resource != "" {
		key := string(m.Code) + "\x00" + m.Resource
		if _, dup := c.seen[key]; dup {
			return
		}
		c.seen[key] = struct{}{}
	}
	c.messages = append(c.messages, m)

	fields := []zap.Field{zap.String("code", string(m.Code)), zap.Int32("node", m.Node)}
	if m.Resource != "" {
		fields = append(fields, zap.String("resource", m.Resource))
	}
	if ce := c.logger.Check(zapcore.Level(m.Level), m.Text); ce != nil {
		ce.Write(fields...)
	}
}

// Warnf records a warning attached to node.
func (c *Collector) Warnf(code Code, node int32, format string, args ...any) {
	c.Add(Message{Level: LevelWarn, Code: code, Node: node, Text: fmt.Sprintf(format, args...)})
}

// Infof records an informational message attached to node.
func (c *Collector) Infof(code Code, node int32, format string, args ...any) {
	c.Add(Message{Level: LevelInfo, Code: code, Node: node, Text: fmt.Sprintf(format, args...)})
}

// Errorf records an error attached to node.
func (c *Collector) Errorf(code Code, node int32, format string, args ...any) {
	c.Add(Message{Level: LevelError, Code: code, Node: node, Text: fmt.Sprintf(format, args...)})
}

// Resource records a warning keyed by a resource handle.
func (c *Collector) Resource(code Code, node int32, resource, text string) {
	c.Add(Message{Level: LevelWarn, Code: code, Node: node, Resource: resource, Text: text})
}

// Messages returns everything recorded so far.
func (c *Collector) Messages() []Message {
	if c == nil {
		return nil
	}
	return c.messages
}

// Has reports whether any message carries code.
func (c *Collector) Has(code Code) bool {
	for _, m := range c.Messages() {
		if m.Code == code {
			return true
		}
	}
	return false
}

// Logger exposes the mirror logger for components that log directly.
func (c *Collector) Logger() *zap.Logger {
	if c == nil {
		return zap.NewNop()
	}
	return c.logger
}
