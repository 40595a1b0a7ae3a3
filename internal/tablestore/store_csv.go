package tablestore

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"os"

	"github.com/examstack/examportal/internal/storage"
)

// CSVBackend keeps each table as one CSV object in a blob store,
// mirroring the portal's original file-per-table layout. A missing
// object reads as an empty table so first writes can bootstrap it.
type CSVBackend struct {
	blobs storage.BlobStore
}

func NewCSVBackend(blobs storage.BlobStore) *CSVBackend {
	return &CSVBackend{blobs: blobs}
}

func (b *CSVBackend) Load(_ context.Context, table string) ([]Row, error) {
	rc, err := b.blobs.Get(csvKey(table))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer rc.Close()

	r := csv.NewReader(rc)
	r.FieldsPerRecord = -1 // older rows may predate added columns
	var rows []Row
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

func (b *CSVBackend) Save(_ context.Context, table string, rows []Row) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	_, err := b.blobs.Put(csvKey(table), bytes.NewReader(buf.Bytes()))
	return err
}

func csvKey(table string) string { return "tables/" + table + ".csv" }
