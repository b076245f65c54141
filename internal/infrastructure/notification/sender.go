package notification

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Message is a rendered email
type Message struct {
	From    string
	To      string
	Subject string
	HTML    string
}

// Sender delivers messages
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender writes messages to the log instead of delivering them.
// It is the default until a mail provider is configured.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a LogSender
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send logs the envelope. The body is only logged at debug level.
func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.logger.Info("email sent",
		zap.String("from", msg.From),
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
	)
	s.logger.Debug("email body", zap.String("to", msg.To), zap.String("html", msg.HTML))
	return nil
}

// MemorySender keeps messages in memory, used by tests and local tooling
type MemorySender struct {
	mu   sync.Mutex
	sent []Message
}

// Send records msg
func (s *MemorySender) Send(_ context.Context, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return nil
}

// Sent returns a copy of the recorded messages
func (s *MemorySender) Sent() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.sent...)
}

var (
	_ Sender = (*LogSender)(nil)
	_ Sender = (*MemorySender)(nil)
)
