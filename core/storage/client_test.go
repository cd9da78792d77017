package storage_test

import (
	"testing"

	"connector-service/core/storage"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ storage.Client = (*minio.Client)(nil)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name string
		cfg  storage.Config
	}{
		{"PlainEndpoint", storage.Config{Endpoint: "localhost:9000", Bucket: "content-indices"}},
		{"SchemeStripped", storage.Config{Endpoint: "http://localhost:9000"}},
		{"TLS", storage.Config{Endpoint: "https://s3.amazonaws.com", UseSSL: true, Region: "eu-west-1"}},
		{"DefaultTimeout", storage.Config{Endpoint: "localhost:9000", TimeoutSeconds: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.AccessKey = "indexer"
			tt.cfg.SecretKey = "indexer-secret"

			client, err := storage.NewClient(tt.cfg)
			require.NoError(t, err)
			assert.NotNil(t, client)
		})
	}
}

func TestNewClient_InvalidEndpoint(t *testing.T) {
	_, err := storage.NewClient(storage.Config{Endpoint: "local host:9000"})
	assert.ErrorContains(t, err, "failed to create minio client")
}
