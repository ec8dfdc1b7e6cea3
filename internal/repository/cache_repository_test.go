package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	appErrors "github.com/noah-isme/interviews-api/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, "interviews", nil)
	ctx := context.Background()

	var dest []string
	err := repo.Get(ctx, "schedules:list", &dest)
	assert.True(t, errors.Is(err, appErrors.ErrCacheMiss))
	assert.NoError(t, repo.Set(ctx, "schedules:list", []string{"a"}, time.Minute))
	assert.NoError(t, repo.DeleteByPattern(ctx, "schedules:*"))
	assert.NoError(t, repo.Delete(ctx, "schedules:list"))
	assert.NoError(t, repo.Close())
	assert.Equal(t, "interviews:schedules:list", repo.key("schedules:list"))
}
