package s3blob

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arbsim/internal/domain"
)

type fakeUploader struct {
	putPaths       []string
	multipartPaths []string
	lastSize       int64
}

func (f *fakeUploader) Put(_ context.Context, path string, data io.Reader, _ string) error {
	n, err := io.Copy(io.Discard, data)
	if err != nil {
		return err
	}
	f.lastSize = n
	f.putPaths = append(f.putPaths, path)
	return nil
}

func (f *fakeUploader) PutMultipart(_ context.Context, path string, data io.Reader, _ int64) error {
	n, err := io.Copy(io.Discard, data)
	if err != nil {
		return err
	}
	f.lastSize = n
	f.multipartPaths = append(f.multipartPaths, path)
	return nil
}

type fakeTradeStore struct {
	trades []domain.Trade
}

func (f *fakeTradeStore) ListBefore(context.Context, time.Time) ([]domain.Trade, error) {
	return f.trades, nil
}

func makeTrades(n int, pad int) []domain.Trade {
	trades := make([]domain.Trade, n)
	for i := range trades {
		trades[i] = domain.Trade{
			ID:       "t",
			Symbol:   strings.Repeat("x", pad),
			Strategy: "NYSE -> NASDAQ",
			Status:   domain.TradeSuccess,
			Profit:   0.05,
		}
	}
	return trades
}

func TestArchiveTrades_SmallPayloadUsesSinglePut(t *testing.T) {
	uploader := &fakeUploader{}
	archiver := NewArchiver(uploader, &fakeTradeStore{trades: makeTrades(10, 4)})

	before := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	count, err := archiver.ArchiveTrades(context.Background(), before)
	require.NoError(t, err)
	assert.Equal(t, int64(10), count)

	require.Len(t, uploader.putPaths, 1)
	assert.Empty(t, uploader.multipartPaths)
	assert.Equal(t, "archive/trades/2026-08.jsonl", uploader.putPaths[0])
}

func TestArchiveTrades_LargePayloadUsesMultipart(t *testing.T) {
	// ~4 KiB per record over 2000 records pushes the JSONL buffer past the
	// 5 MiB multipart minimum.
	uploader := &fakeUploader{}
	archiver := NewArchiver(uploader, &fakeTradeStore{trades: makeTrades(2000, 4096)})

	before := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	count, err := archiver.ArchiveTrades(context.Background(), before)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), count)

	require.Len(t, uploader.multipartPaths, 1)
	assert.Empty(t, uploader.putPaths)
	assert.Greater(t, uploader.lastSize, minPartSize)
}

func TestArchiveTrades_EmptyRangeUploadsNothing(t *testing.T) {
	uploader := &fakeUploader{}
	archiver := NewArchiver(uploader, &fakeTradeStore{})

	count, err := archiver.ArchiveTrades(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, uploader.putPaths)
	assert.Empty(t, uploader.multipartPaths)
}
