package aggregate

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"go.uber.org/zap"

	"hookAMM/internal/model"
)

// Aggregator rebuilds pool totals from JSONL journal files.
type Aggregator struct {
	tracker *Tracker
	since   time.Time
	logger  *zap.Logger
}

func NewAggregator(decimals DecimalsFunc, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{tracker: NewTracker(decimals), logger: logger}
}

// Since drops journal records that occurred before t.
func (a *Aggregator) Since(t time.Time) *Aggregator {
	a.since = t
	return a
}

// Run reads the events file and, if errorsPath is set, the errors file, and
// returns the totals per pool. Undecodable lines are logged and skipped.
func (a *Aggregator) Run(ctx context.Context, eventsPath, errorsPath string) ([]model.PoolStats, error) {
	var total, failed, skipped int

	err := scanLines(ctx, eventsPath, func(line []byte) {
		total++
		var ev model.PoolEvent
		if err := json.Unmarshal(line, &ev); err != nil {
			failed++
			a.logger.Warn("decode journal event", zap.Error(err))
			return
		}
		if ev.OccurredAt.Before(a.since) {
			skipped++
			return
		}
		if err := a.tracker.AddEvent(ev); err != nil {
			failed++
			a.logger.Warn("aggregate event", zap.Error(err), zap.String("id", ev.ID), zap.String("kind", ev.Kind))
		}
	})
	if err != nil {
		return nil, err
	}

	if errorsPath != "" {
		err := scanLines(ctx, errorsPath, func(line []byte) {
			total++
			var rec model.OperationError
			if err := json.Unmarshal(line, &rec); err != nil {
				failed++
				a.logger.Warn("decode journal error", zap.Error(err))
				return
			}
			if rec.OccurredAt.Before(a.since) {
				skipped++
				return
			}
			a.tracker.AddError(rec)
		})
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	a.logger.Info("aggregate complete",
		zap.Int("total", total),
		zap.Int("failed", failed),
		zap.Int("skipped", skipped),
	)
	return a.tracker.All(), nil
}

func scanLines(ctx context.Context, path string, fn func([]byte)) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		fn(line)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan input: %w", err)
	}
	return nil
}
