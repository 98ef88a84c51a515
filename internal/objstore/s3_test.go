package objstore

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lakecat/internal/config"
	"lakecat/internal/domain"
)

func TestMapKeyError(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantNotFound bool
	}{
		{name: "no such key", err: &types.NoSuchKey{}, wantNotFound: true},
		{name: "head not found", err: &types.NotFound{}, wantNotFound: true},
		{name: "wrapped no such key", err: fmt.Errorf("operation error S3: %w", &types.NoSuchKey{}), wantNotFound: true},
		{name: "network fault", err: errors.New("connection reset")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapKeyError("read", "some/key", tt.err)

			var notFound *domain.ObjectNotFoundError
			var unavailable *domain.StoreUnavailableError
			if tt.wantNotFound {
				require.ErrorAs(t, got, &notFound)
				assert.Equal(t, "some/key", notFound.Key)
			} else {
				require.ErrorAs(t, got, &unavailable)
				assert.Equal(t, "read", unavailable.Op)
				assert.ErrorIs(t, got, tt.err)
			}
		})
	}
}

func TestEndpointURL(t *testing.T) {
	assert.Nil(t, endpointURL(&config.Config{}))

	cfg := &config.Config{S3Endpoint: aws.String("minio.internal:9000")}
	got := endpointURL(cfg)
	require.NotNil(t, got)
	assert.Equal(t, "https://minio.internal:9000", *got)
}
