package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/felixgeelhaar/fortify/retry"

	"github.com/felixgeelhaar/fareview/pkg/domain"
)

var _ domain.AuditRepository = (*FilesystemRepository)(nil)

func (r *FilesystemRepository) RecordEvent(event domain.Event) error {
	path, err := r.ResolvePath(EventsFile)
	if err != nil {
		return err
	}
	if err := r.Initialize(); err != nil {
		return err
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	data = append(data, '\n')

	// #nosec G304 -- Path is resolved and validated via ResolvePath
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open events file: %w", err)
	}
	defer f.Close() //nolint:errcheck // write errors are reported below

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}

	return nil
}

// LoadEvents reads the event chain. Malformed lines are skipped; the chain
// check in the audit service reports the resulting gap.
func (r *FilesystemRepository) LoadEvents() ([]domain.Event, error) {
	retryer := retry.New[[]domain.Event](r.retryConfig)

	return retryer.Do(context.Background(), func(ctx context.Context) ([]domain.Event, error) {
		path, err := r.ResolvePath(EventsFile)
		if err != nil {
			return nil, err
		}

		// #nosec G304 -- Path is resolved and validated via ResolvePath
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return []domain.Event{}, nil
			}
			return nil, fmt.Errorf("failed to read events file: %w", err)
		}

		var events []domain.Event
		for _, line := range bytes.Split(data, []byte("\n")) {
			if len(bytes.TrimSpace(line)) == 0 {
				continue
			}
			var e domain.Event
			if err := json.Unmarshal(line, &e); err != nil {
				continue
			}
			events = append(events, e)
		}
		return events, nil
	})
}
