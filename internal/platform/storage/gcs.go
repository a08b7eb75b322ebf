package storage

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"time"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSStore keeps each table as a CSV object in a Cloud Storage bucket under
// an optional key prefix.
type GCSStore struct {
	bucket *gcs.BucketHandle
	prefix string
}

// NewGCSStore builds a store for the given bucket. Explicit credentials JSON
// takes precedence; otherwise application default credentials are used.
func NewGCSStore(ctx context.Context, bucket, prefix string, credentialsJSON []byte, opts ...option.ClientOption) (*GCSStore, error) {
	if bucket == "" {
		return nil, errors.New("storage: bucket name required")
	}
	if len(credentialsJSON) > 0 {
		opts = append(opts, option.WithCredentialsJSON(credentialsJSON))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage: gcs client: %w", err)
	}
	return &GCSStore{bucket: client.Bucket(bucket), prefix: prefix}, nil
}

func (s *GCSStore) object(name string) string {
	if s.prefix == "" {
		return name + ".csv"
	}
	return s.prefix + "/" + name + ".csv"
}

// Load reads the named table object. Returns ErrNotExist when absent.
func (s *GCSStore) Load(ctx context.Context, name string) ([][]string, error) {
	r, err := s.bucket.Object(s.object(name)).NewReader(ctx)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return nil, fmt.Errorf("storage: load %s: %w", name, ErrNotExist)
		}
		return nil, fmt.Errorf("storage: load %s: %w", name, err)
	}
	defer r.Close()

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("storage: load %s: %w", name, err)
	}
	return rows, nil
}

// Save rewrites the named table object.
func (s *GCSStore) Save(ctx context.Context, name string, rows [][]string) error {
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.WriteAll(rows); err != nil {
		return fmt.Errorf("storage: save %s: %w", name, err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("storage: save %s: %w", name, err)
	}

	wc := s.bucket.Object(s.object(name)).NewWriter(ctx)
	wc.ContentType = "text/csv"
	if _, err := io.Copy(wc, buf); err != nil {
		wc.Close()
		return fmt.Errorf("storage: save %s: %w", name, err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("storage: save %s: %w", name, err)
	}
	return nil
}

// Backup copies the current contents of a table to a timestamped object
// under backup/. Missing tables are not an error.
func (s *GCSStore) Backup(ctx context.Context, name string) error {
	rows, err := s.Load(ctx, name)
	if err != nil {
		if errors.Is(err, ErrNotExist) {
			return nil
		}
		return err
	}
	stamp := time.Now().Format("20060102_150405")
	backup := &GCSStore{bucket: s.bucket, prefix: "backup"}
	return backup.Save(ctx, fmt.Sprintf("%s_%s", name, stamp), rows)
}
