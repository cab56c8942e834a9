package joblog

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/gosuda/qbsync/internal/domain"
)

// FileSink appends one JSON object per entry to a writer, normally a file
// opened in append mode.
type FileSink struct {
	log  zerolog.Logger
	file *os.File
}

// NewWriterSink writes entries to w.
func NewWriterSink(w io.Writer) *FileSink {
	return &FileSink{log: zerolog.New(zerolog.SyncWriter(w))}
}

// NewFileSink opens (or creates) the JSON-lines file at path. When tee is
// non-nil every line is also written to it.
func NewFileSink(path string, tee io.Writer) (*FileSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("joblog.NewFileSink: mkdir: %w", err)
	}

	f, err := os.OpenFile(filepath.Clean(path), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600) // #nosec G304 -- path is from application config
	if err != nil {
		return nil, fmt.Errorf("joblog.NewFileSink: open: %w", err)
	}

	var w io.Writer = f
	if tee != nil {
		w = io.MultiWriter(f, tee)
	}

	s := NewWriterSink(w)
	s.file = f
	return s, nil
}

// Record writes entry as a single line.
func (s *FileSink) Record(_ context.Context, entry domain.JobLogEntry) error {
	s.log.Log().EmbedObject(entryObject(entry)).Send()
	return nil
}

// Close closes the underlying file, if the sink owns one.
func (s *FileSink) Close() error {
	if s.file == nil {
		return nil
	}
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("joblog.FileSink.Close: %w", err)
	}
	return nil
}

type entryObject domain.JobLogEntry

// MarshalZerologObject uses the same field names as the entry's JSON form.
func (e entryObject) MarshalZerologObject(ev *zerolog.Event) {
	ev.Str("id", e.ID.String()).
		Str("ticket", e.Ticket).
		Str("kind", e.Kind).
		Str("status", e.Status).
		Int64("duration_ns", int64(e.Duration)).
		Time("created_at", e.CreatedAt)
	if e.JobID != "" {
		ev.Str("job_id", e.JobID)
	}
	if e.RequestID != "" {
		ev.Str("request_id", e.RequestID)
	}
	if e.Payload != "" {
		ev.Str("payload", e.Payload)
	}
	if e.Message != "" {
		ev.Str("message", e.Message)
	}
}
