package dataset

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/datachat/datachat/internal/storage"
)

// csvHeader mirrors the column names of the original spreadsheet
// export, spaces and dollar sign included. The ingest layer is
// responsible for normalizing them.
var csvHeader = []string{
	"Transaction ID",
	"Fiscal Year",
	"Fiscal Quarter",
	"Transaction Date",
	"Country",
	"Product Category",
	"Units Sold",
	"Transaction Value ($)",
}

func WriteCSV(w io.Writer, rows []Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range rows {
		record := []string{
			row.TransactionID,
			strconv.FormatInt(row.FiscalYear, 10),
			row.FiscalQuarter,
			row.TransactionDate,
			row.Country,
			row.ProductCategory,
			strconv.FormatInt(row.UnitsSold, 10),
			strconv.FormatFloat(row.TransactionValue, 'f', 2, 64),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteParquet(w io.Writer, rows []Transaction) error {
	pw := parquet.NewGenericWriter[Transaction](w)
	if _, err := pw.Write(rows); err != nil {
		return fmt.Errorf("write parquet rows: %w", err)
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}

type Result struct {
	Path        string
	Rows        int
	ObjectKey   string
	SnapshotKey string
}

// Run generates the configured number of rows, writes them to
// cfg.OutputPath, and optionally uploads the file to the object
// store under the dataset layout keys.
func Run(ctx context.Context, cfg Config, store storage.ObjectStore, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	rows := NewGenerator(cfg.Seed).Batch(cfg.Rows)

	var buf bytes.Buffer
	var err error
	switch cfg.Format {
	case FormatParquet:
		err = WriteParquet(&buf, rows)
	case FormatCSV:
		err = WriteCSV(&buf, rows)
	default:
		err = fmt.Errorf("unsupported demo dataset format %q", cfg.Format)
	}
	if err != nil {
		return Result{}, err
	}

	if dir := filepath.Dir(cfg.OutputPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Result{}, fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(cfg.OutputPath, buf.Bytes(), 0o644); err != nil {
		return Result{}, fmt.Errorf("write dataset file: %w", err)
	}

	result := Result{Path: cfg.OutputPath, Rows: len(rows)}
	logger.Info(
		"generated demo dataset",
		slog.String("path", cfg.OutputPath),
		slog.String("format", cfg.Format),
		slog.Int("rows", len(rows)),
	)

	if !cfg.Upload {
		return result, nil
	}
	if store == nil {
		return Result{}, fmt.Errorf("upload requested but object store is not configured")
	}

	fileName := filepath.Base(cfg.OutputPath)
	contentType := "text/csv"
	if cfg.Format == FormatParquet {
		contentType = "application/vnd.apache.parquet"
	}

	key, err := storage.BuildDatasetObjectKey(cfg.DatasetName, fileName)
	if err != nil {
		return Result{}, err
	}
	if _, err := store.Put(ctx, key, bytes.NewReader(buf.Bytes()), int64(buf.Len()), storage.PutOptions{ContentType: contentType}); err != nil {
		return Result{}, fmt.Errorf("upload dataset object: %w", err)
	}
	result.ObjectKey = key
	logger.Info("uploaded demo dataset", slog.String("key", key), slog.Int("bytes", buf.Len()))

	if cfg.Snapshot {
		snapshotKey, err := storage.BuildDatasetSnapshotKey(cfg.DatasetName, fileName, time.Now().UTC())
		if err != nil {
			return Result{}, err
		}
		if _, err := store.Put(ctx, snapshotKey, bytes.NewReader(buf.Bytes()), int64(buf.Len()), storage.PutOptions{ContentType: contentType}); err != nil {
			return Result{}, fmt.Errorf("upload dataset snapshot: %w", err)
		}
		result.SnapshotKey = snapshotKey
		logger.Info("uploaded dataset snapshot", slog.String("key", snapshotKey))
	}

	return result, nil
}
