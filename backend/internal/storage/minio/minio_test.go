package minio

import (
	"context"
	"testing"

	"github.com/poradna-dev/poradna/backend/internal/service"
	"github.com/poradna-dev/poradna/shared/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPublicURL(t *testing.T) {
	cfg := config.MinIO{Endpoint: "localhost:9000", Bucket: "poradna"}
	assert.Equal(t, "http://localhost:9000/poradna", defaultPublicURL(cfg))

	cfg.UseSSL = true
	assert.Equal(t, "https://localhost:9000/poradna", defaultPublicURL(cfg))
}

func TestResolveURL(t *testing.T) {
	s := &Storage{bucket: "poradna", publicURL: "https://cdn.poradna.cz/poradna"}

	u, err := s.ResolveURL(context.Background(), service.ObjectRef{Path: "questions/u1/thumbs/id1_rtg snímek_thumb.webp"})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.poradna.cz/poradna/questions/u1/thumbs/id1_rtg%20sn%C3%ADmek_thumb.webp", u)

	_, err = s.ResolveURL(context.Background(), service.ObjectRef{})
	assert.Error(t, err)
}
