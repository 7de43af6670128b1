package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"hookAMM/internal/model"
)

// JsonlSink appends journal records to JSONL files: events to eventsPath and
// failed operations to errorsPath. An empty errorsPath drops error records.
type JsonlSink struct {
	eventsPath string
	errorsPath string
	mu         sync.Mutex
}

func NewJsonlSink(eventsPath, errorsPath string) *JsonlSink {
	return &JsonlSink{eventsPath: eventsPath, errorsPath: errorsPath}
}

// PutEvents appends a batch of events as JSON lines.
func (s *JsonlSink) PutEvents(_ context.Context, events []model.PoolEvent) error {
	if len(events) == 0 {
		return nil
	}
	records := make([]interface{}, len(events))
	for i := range events {
		records[i] = events[i]
	}
	return s.appendLines(s.eventsPath, records)
}

// PutErrors appends a batch of operation errors as JSON lines.
func (s *JsonlSink) PutErrors(_ context.Context, errs []model.OperationError) error {
	if len(errs) == 0 || s.errorsPath == "" {
		return nil
	}
	records := make([]interface{}, len(errs))
	for i := range errs {
		records[i] = errs[i]
	}
	return s.appendLines(s.errorsPath, records)
}

func (s *JsonlSink) appendLines(path string, records []interface{}) error {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, record := range records {
		line, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal journal record: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write journal record: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	return nil
}
