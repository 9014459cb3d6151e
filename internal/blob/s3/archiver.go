package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/inarbit/engine/internal/domain"
)

// SignalArchiver implements domain.SignalArchiver by serializing a batch of
// signals to JSONL and uploading it to S3, partitioned by upload time. It is
// write-only and fire-and-forget: a failed upload is logged by the caller
// and the batch is dropped, never retried, matching the engine's
// log-and-swallow policy for non-critical I/O.
type SignalArchiver struct {
	writer domain.BlobWriter
}

// NewSignalArchiver creates a SignalArchiver backed by writer.
func NewSignalArchiver(writer domain.BlobWriter) *SignalArchiver {
	return &SignalArchiver{writer: writer}
}

// Archive serializes batch as JSONL and uploads it to
// signals/YYYY-MM-DD/<unix-nano>.jsonl. An empty batch is a no-op.
func (a *SignalArchiver) Archive(ctx context.Context, batch []domain.ArchivedSignal) error {
	if len(batch) == 0 {
		return nil
	}

	buf, err := marshalJSONL(batch)
	if err != nil {
		return fmt.Errorf("s3blob: archive signals marshal: %w", err)
	}

	path := signalArchivePath(time.Now())
	if err := a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson"); err != nil {
		return fmt.Errorf("s3blob: archive signals upload: %w", err)
	}
	return nil
}

// signalArchivePath partitions archive objects by day, e.g.
// signals/2023-11-14/1700000000000000000.jsonl.
func signalArchivePath(at time.Time) string {
	return fmt.Sprintf("signals/%s/%d.jsonl", at.Format("2006-01-02"), at.UnixNano())
}

// marshalJSONL serialises a slice of values as newline-delimited JSON.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}
