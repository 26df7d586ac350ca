package notify

import (
	"context"

	"go.uber.org/zap"

	"poolNotifier/internal/model"
)

// LogSink writes payloads to the logger instead of a channel. Used for dry runs.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) SendMessage(_ context.Context, msg model.NotificationMessage) error {
	fields := []zap.Field{
		zap.String("title", msg.Title),
		zap.String("description", msg.Description),
		zap.String("url", msg.URL),
		zap.String("pool", msg.Author.Name),
		zap.String("footer", msg.Footer.Text),
	}
	for _, f := range msg.Fields {
		fields = append(fields, zap.String(f.Name, f.Value))
	}
	s.logger.Info("notification", fields...)
	return nil
}

func (s *LogSink) SendText(_ context.Context, text string) error {
	s.logger.Info("diagnostic", zap.String("text", text))
	return nil
}
