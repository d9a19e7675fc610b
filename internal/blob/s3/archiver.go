package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"arbsim/internal/domain"
)

// TradeArchiveStore provides the read access the archiver needs. The full
// domain.TradeArchive satisfies it implicitly.
type TradeArchiveStore interface {
	// ListBefore returns all trades executed strictly before the cutoff.
	ListBefore(ctx context.Context, before time.Time) ([]domain.Trade, error)
}

// Uploader is the write access the archiver needs from the blob store.
// *Writer satisfies it.
type Uploader interface {
	domain.BlobWriter
	PutMultipart(ctx context.Context, path string, data io.Reader, partSize int64) error
}

// Archiver serializes old trade rows to JSONL and uploads them to the blob
// store. Deletion of the exported rows from the primary store is a separate,
// explicit step taken by the caller after the upload has succeeded.
type Archiver struct {
	writer Uploader
	trades TradeArchiveStore
}

// NewArchiver creates a new Archiver.
func NewArchiver(writer Uploader, trades TradeArchiveStore) *Archiver {
	return &Archiver{
		writer: writer,
		trades: trades,
	}
}

// ArchiveTrades queries all trades before the cutoff, serializes them to
// JSONL, and uploads the file at archive/trades/YYYY-MM.jsonl. It returns
// the count of exported records.
func (a *Archiver) ArchiveTrades(ctx context.Context, before time.Time) (int64, error) {
	trades, err := a.trades.ListBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive trades query: %w", err)
	}
	if len(trades) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(trades)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive trades marshal: %w", err)
	}

	path := archivePath("trades", before)
	if err := a.upload(ctx, path, buf); err != nil {
		return 0, fmt.Errorf("s3blob: archive trades upload: %w", err)
	}

	return int64(len(trades)), nil
}

// upload picks the transfer mode by payload size: single PutObject below the
// multipart minimum part size, concurrent multipart above it.
func (a *Archiver) upload(ctx context.Context, path string, buf []byte) error {
	if int64(len(buf)) > minPartSize {
		return a.writer.PutMultipart(ctx, path, bytes.NewReader(buf), minPartSize)
	}
	return a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson")
}

// archivePath builds the object key for an archive file, partitioned by the
// year-month of the cutoff time.
//
//	archive/trades/2026-08.jsonl
func archivePath(kind string, before time.Time) string {
	return fmt.Sprintf("archive/%s/%s.jsonl", kind, before.Format("2006-01"))
}

// marshalJSONL serializes a slice of records to newline-delimited JSON.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i, record := range records {
		if err := enc.Encode(record); err != nil {
			return nil, fmt.Errorf("encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}
