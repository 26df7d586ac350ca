package notify

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"poolNotifier/internal/model"
)

// JSONLSink appends every payload as one JSON line to a file.
type JSONLSink struct {
	path string
	now  func() time.Time
	mu   sync.Mutex
}

func NewJSONLSink(path string) *JSONLSink {
	return &JSONLSink{path: path, now: time.Now}
}

type jsonlRecord struct {
	Time    time.Time                  `json:"time"`
	Kind    string                     `json:"kind"`
	Message *model.NotificationMessage `json:"message,omitempty"`
	Text    string                     `json:"text,omitempty"`
	Payload json.RawMessage            `json:"payload,omitempty"`
}

// SendMessage records msg.
func (s *JSONLSink) SendMessage(_ context.Context, msg model.NotificationMessage) error {
	return s.append(jsonlRecord{Time: s.now().UTC(), Kind: "message", Message: &msg})
}

// SendText records text. Valid JSON text is embedded as is.
func (s *JSONLSink) SendText(_ context.Context, text string) error {
	record := jsonlRecord{Time: s.now().UTC(), Kind: "text"}
	if json.Valid([]byte(text)) {
		record.Payload = json.RawMessage(text)
	} else {
		record.Text = text
	}
	return s.append(record)
}

func (s *JSONLSink) append(record jsonlRecord) error {
	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	if _, err := writer.Write(line); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	if err := writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("write newline: %w", err)
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	return nil
}
