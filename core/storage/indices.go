package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/minio/minio-go/v7"
)

// IndexStore keeps every content index as an object prefix inside one bucket.
type IndexStore struct {
	client Client
	bucket string
}

// NewIndexStore creates an index store over the given bucket.
func NewIndexStore(client Client, bucket string) *IndexStore {
	return &IndexStore{client: client, bucket: bucket}
}

// Bucket returns the bucket holding the indices.
func (s *IndexStore) Bucket() string {
	return s.bucket
}

// DeleteIndices removes every object stored under each index prefix.
// All indices are attempted; failures are joined into the returned error.
func (s *IndexStore) DeleteIndices(ctx context.Context, names []string) error {
	var errs []error
	for _, name := range names {
		if name == "" {
			continue
		}
		if err := s.deleteIndex(ctx, name); err != nil {
			errs = append(errs, fmt.Errorf("index %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

func (s *IndexStore) deleteIndex(ctx context.Context, name string) error {
	prefix := strings.TrimSuffix(name, "/") + "/"

	listCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var listErr error
	objects := make(chan minio.ObjectInfo)
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer close(objects)
		for obj := range s.client.ListObjects(listCtx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
			if obj.Err != nil {
				listErr = obj.Err
				return
			}
			select {
			case objects <- obj:
			case <-listCtx.Done():
				return
			}
		}
	}()

	var errs []error
	for rerr := range s.client.RemoveObjects(ctx, s.bucket, objects, minio.RemoveObjectsOptions{}) {
		errs = append(errs, fmt.Errorf("remove %s: %w", rerr.ObjectName, rerr.Err))
	}

	cancel()
	<-done
	if listErr != nil {
		errs = append(errs, fmt.Errorf("list: %w", listErr))
	}
	return errors.Join(errs...)
}
