package dataset

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/parquet-go/parquet-go"

	"github.com/datachat/datachat/internal/storage"
)

func TestWriteCSVHeaderAndRows(t *testing.T) {
	rows := NewGenerator(1).Batch(3)

	var buf bytes.Buffer
	if err := WriteCSV(&buf, rows); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	records, err := csv.NewReader(bytes.NewReader(buf.Bytes())).ReadAll()
	if err != nil {
		t.Fatalf("csv parse error = %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("record count = %d, want header + 3 rows", len(records))
	}

	wantHeader := "Transaction ID,Fiscal Year,Fiscal Quarter,Transaction Date,Country,Product Category,Units Sold,Transaction Value ($)"
	if got := strings.Join(records[0], ","); got != wantHeader {
		t.Fatalf("header = %q, want %q", got, wantHeader)
	}
	for i, record := range records[1:] {
		if record[0] != rows[i].TransactionID {
			t.Fatalf("row %d id = %q, want %q", i, record[0], rows[i].TransactionID)
		}
		if !strings.Contains(record[7], ".") {
			t.Fatalf("row %d value = %q, want two decimal places", i, record[7])
		}
	}
}

func TestWriteParquetRoundTrip(t *testing.T) {
	rows := NewGenerator(2).Batch(5)

	var buf bytes.Buffer
	if err := WriteParquet(&buf, rows); err != nil {
		t.Fatalf("WriteParquet() error = %v", err)
	}

	reader := parquet.NewGenericReader[Transaction](bytes.NewReader(buf.Bytes()))
	defer func() { _ = reader.Close() }()
	got := make([]Transaction, 5)
	count, err := reader.Read(got)
	if err != nil && !errors.Is(err, io.EOF) {
		t.Fatalf("reader.Read() error = %v", err)
	}
	if count != 5 {
		t.Fatalf("read rows = %d", count)
	}
	for i := range rows {
		if got[i] != rows[i] {
			t.Fatalf("row %d = %#v, want %#v", i, got[i], rows[i])
		}
	}
}

func TestRunWritesFile(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		OutputPath:  filepath.Join(dir, "transactions.csv"),
		Format:      FormatCSV,
		Rows:        10,
		Seed:        42,
		DatasetName: "transactions",
	}

	result, err := Run(context.Background(), cfg, nil, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Rows != 10 {
		t.Fatalf("Rows = %d", result.Rows)
	}
	if result.ObjectKey != "" || result.SnapshotKey != "" {
		t.Fatalf("unexpected upload keys: %+v", result)
	}

	data, err := os.ReadFile(cfg.OutputPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("csv parse error = %v", err)
	}
	if len(records) != 11 {
		t.Fatalf("record count = %d, want header + 10 rows", len(records))
	}
}

func TestRunUploadsDatasetAndSnapshot(t *testing.T) {
	dir := t.TempDir()
	store := &memoryObjectStore{objects: map[string][]byte{}}
	cfg := Config{
		OutputPath:  filepath.Join(dir, "transactions.parquet"),
		Format:      FormatParquet,
		Rows:        4,
		Seed:        7,
		DatasetName: "transactions",
		Upload:      true,
		Snapshot:    true,
	}

	result, err := Run(context.Background(), cfg, store, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.ObjectKey != "datasets/transactions/transactions.parquet" {
		t.Fatalf("ObjectKey = %q", result.ObjectKey)
	}
	if !strings.HasPrefix(result.SnapshotKey, "datasets/transactions/snapshots/date=") {
		t.Fatalf("SnapshotKey = %q", result.SnapshotKey)
	}
	if len(store.objects) != 2 {
		t.Fatalf("uploaded objects = %d, want 2", len(store.objects))
	}
	if !bytes.Equal(store.objects[result.ObjectKey], store.objects[result.SnapshotKey]) {
		t.Fatal("snapshot payload differs from dataset payload")
	}
	if store.contentTypes[result.ObjectKey] != "application/vnd.apache.parquet" {
		t.Fatalf("content type = %q", store.contentTypes[result.ObjectKey])
	}
}

func TestRunUploadWithoutStoreFails(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		OutputPath:  filepath.Join(dir, "transactions.csv"),
		Format:      FormatCSV,
		Rows:        1,
		Seed:        1,
		DatasetName: "transactions",
		Upload:      true,
	}

	if _, err := Run(context.Background(), cfg, nil, nil); err == nil {
		t.Fatal("Run() error = nil, want missing store error")
	}
}

type memoryObjectStore struct {
	objects      map[string][]byte
	contentTypes map[string]string
}

func (m *memoryObjectStore) Put(_ context.Context, key string, body io.Reader, size int64, opts storage.PutOptions) (storage.ObjectInfo, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return storage.ObjectInfo{}, err
	}
	m.objects[key] = data
	if m.contentTypes == nil {
		m.contentTypes = map[string]string{}
	}
	m.contentTypes[key] = opts.ContentType
	return storage.ObjectInfo{Key: key, Size: size}, nil
}

func (m *memoryObjectStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memoryObjectStore) Stat(_ context.Context, key string) (storage.ObjectInfo, error) {
	data, ok := m.objects[key]
	if !ok {
		return storage.ObjectInfo{}, storage.ErrObjectNotFound
	}
	return storage.ObjectInfo{Key: key, Size: int64(len(data))}, nil
}
