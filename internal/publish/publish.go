// Package publish delivers finished chart payloads: to stdout, to the
// Geckoboard push API, or to an S3 object a dashboard polls.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/ignite/cohort-retention/internal/cohort"
)

// Sink receives a complete payload. Sinks are only called once the payload
// has been fully built.
type Sink interface {
	Publish(ctx context.Context, variant string, payload *cohort.ChartPayload) error
}

// WriterSink encodes the payload as a single JSON document.
type WriterSink struct {
	w      io.Writer
	indent bool
}

// NewWriterSink creates a sink writing to w
func NewWriterSink(w io.Writer, indent bool) *WriterSink {
	return &WriterSink{w: w, indent: indent}
}

// Publish writes the payload followed by a newline
func (s *WriterSink) Publish(_ context.Context, _ string, payload *cohort.ChartPayload) error {
	var (
		data []byte
		err  error
	)
	if s.indent {
		data, err = json.MarshalIndent(payload, "", "  ")
	} else {
		data, err = json.Marshal(payload)
	}
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}
	data = append(data, '\n')
	if _, err := s.w.Write(data); err != nil {
		return fmt.Errorf("writing payload: %w", err)
	}
	return nil
}

// Multi publishes to each sink in order and stops at the first error.
// Later sinks never see a payload an earlier one rejected.
type Multi []Sink

// Publish fans the payload out sequentially
func (m Multi) Publish(ctx context.Context, variant string, payload *cohort.ChartPayload) error {
	for _, sink := range m {
		if err := sink.Publish(ctx, variant, payload); err != nil {
			return err
		}
	}
	return nil
}
