// Package storage provides the object storage layer behind content indices.
//
// It wraps the MinIO Go client, which talks to AWS S3 as well as self-hosted
// MinIO. Each content index is a prefix inside one bucket, so deleting an index
// means listing the prefix and streaming the keys into RemoveObjects.
//
// # Client Interface
//
// Client is the narrow subset of the MinIO API the service needs; mocks live in
// core/storage/mocks.
//
// # Usage
//
//	client, err := storage.NewClient(cfg.Storage)
//	indices := storage.NewIndexStore(client, cfg.Storage.Bucket)
//	err = indices.DeleteIndices(ctx, []string{"search-docs"})
package storage
