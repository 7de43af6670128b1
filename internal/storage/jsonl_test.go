package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"hookAMM/internal/model"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	require.NoError(t, sc.Err())
	return lines
}

func TestJsonlSinkAppends(t *testing.T) {
	dir := t.TempDir()
	events := filepath.Join(dir, "out", "events.jsonl")
	errs := filepath.Join(dir, "out", "errors.jsonl")
	sink := NewJsonlSink(events, errs)
	ctx := context.Background()

	key := model.PoolKey{AssetA: "0xaa", AssetB: "0xbb"}
	ev, err := model.NewPoolEvent(model.EventSwap, key, "0xcc", 3, time.Now(), model.SwapEventData{AmountIn: 10, AmountOut: 9})
	require.NoError(t, err)

	require.NoError(t, sink.PutEvents(ctx, []model.PoolEvent{ev}))
	require.NoError(t, sink.PutEvents(ctx, []model.PoolEvent{ev}))
	require.NoError(t, sink.PutEvents(ctx, nil))
	require.NoError(t, sink.PutErrors(ctx, []model.OperationError{
		model.NewOperationError(model.EventSwap, key, "0xcc", "SlippageExceeded", errors.New("slippage"), time.Now()),
	}))

	lines := readLines(t, events)
	require.Len(t, lines, 2)
	var decoded model.PoolEvent
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &decoded))
	require.Equal(t, ev.ID, decoded.ID)
	require.JSONEq(t, string(ev.Payload), string(decoded.Payload))

	require.Len(t, readLines(t, errs), 1)
}

func TestJsonlSinkWithoutErrorsPath(t *testing.T) {
	sink := NewJsonlSink(filepath.Join(t.TempDir(), "events.jsonl"), "")
	err := sink.PutErrors(context.Background(), []model.OperationError{{Code: "x"}})
	require.NoError(t, err)
}

func TestMultiSink(t *testing.T) {
	a, b := &MemorySink{}, &MemorySink{}
	sink := MultiSink{a, Discard{}, b}
	ctx := context.Background()

	require.NoError(t, sink.PutEvents(ctx, []model.PoolEvent{{ID: "1"}}))
	require.NoError(t, sink.PutErrors(ctx, []model.OperationError{{ID: "2"}}))
	require.Len(t, a.Events(), 1)
	require.Len(t, b.Events(), 1)
	require.Len(t, b.Errors(), 1)
}
