package archive

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/pratik-mahalle/lexaudit/internal/config"
	"github.com/pratik-mahalle/lexaudit/internal/domain/compliance"
	"github.com/pratik-mahalle/lexaudit/internal/pkg/errors"
)

// ObjectWriter stores one object in a bucket
type ObjectWriter func(ctx context.Context, bucket, key string, data []byte, metadata map[string]string) error

// GCSArchiver writes reports as JSON objects to a Cloud Storage bucket
type GCSArchiver struct {
	write  ObjectWriter
	close  func() error
	bucket string
	prefix string
}

// NewGCSArchiver creates an archiver from cfg using the credentials file
// when set, or application default credentials otherwise
func NewGCSArchiver(ctx context.Context, cfg config.ArchiveConfig) (*GCSArchiver, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	a := NewGCSArchiverWithWriter(storageWriter(client), cfg.Bucket, cfg.Prefix)
	a.close = client.Close
	return a, nil
}

// NewGCSArchiverWithWriter creates an archiver over an existing writer
func NewGCSArchiverWithWriter(write ObjectWriter, bucket, prefix string) *GCSArchiver {
	return &GCSArchiver{write: write, bucket: bucket, prefix: prefix}
}

func storageWriter(client *storage.Client) ObjectWriter {
	return func(ctx context.Context, bucket, key string, data []byte, metadata map[string]string) error {
		w := client.Bucket(bucket).Object(key).NewWriter(ctx)
		w.ContentType = "application/json"
		w.Metadata = metadata
		if _, err := w.Write(data); err != nil {
			w.Close()
			return err
		}
		return w.Close()
	}
}

// Archive implements compliance.Archiver
func (a *GCSArchiver) Archive(ctx context.Context, report *compliance.Prediction) error {
	data, err := encodeReport(report)
	if err != nil {
		return errors.ArchiveError("gcs", err)
	}

	err = a.write(ctx, a.bucket, ObjectKey(a.prefix, report), data, map[string]string{
		"organization_id": report.OrganizationID,
		"model":           report.Model,
	})
	if err != nil {
		return errors.ArchiveError("gs://"+a.bucket, err)
	}
	return nil
}

// Close releases the storage client
func (a *GCSArchiver) Close() error {
	if a.close == nil {
		return nil
	}
	return a.close()
}
