package datalayer

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/verte-zerg/readtrack/internal/model"
)

// WriteJSONLines encodes one event per line.
func WriteJSONLines(w io.Writer, events []model.Event) error {
	writer := bufio.NewWriter(w)
	enc := json.NewEncoder(writer)
	for _, event := range events {
		if err := enc.Encode(event); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush events: %w", err)
	}
	return nil
}

// maxLineBytes bounds a single encoded event.
const maxLineBytes = 4 << 20

// ReadJSONLines decodes events written by WriteJSONLines. Blank lines are skipped.
func ReadJSONLines(r io.Reader) ([]model.Event, error) {
	var events []model.Event
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var event model.Event
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if event.Event == "" {
			return nil, fmt.Errorf("line %d: missing event name", lineNo)
		}
		switch event.Type {
		case model.EventView, model.EventReadConfirmation:
		default:
			return nil, fmt.Errorf("line %d: unknown event type %q", lineNo, event.Type)
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return events, nil
}
