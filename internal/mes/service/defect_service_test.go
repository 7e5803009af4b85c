package service

import (
	"context"
	"testing"

	"github.com/bitfantasy/nimo-mes/internal/mes/defect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefectSearchWithoutCache(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()
	svc := f.svcs.Defect

	all, err := svc.Search(ctx, defect.CategoryAll, "")
	require.NoError(t, err)
	assert.Len(t, all, len(defect.DefaultCodes()))

	dims, err := svc.Search(ctx, defect.CategoryDimension, "")
	require.NoError(t, err)
	for _, d := range dims {
		assert.Equal(t, defect.CategoryDimension, d.Category)
	}

	byCode, err := svc.Search(ctx, defect.CategoryAll, "wg001")
	require.NoError(t, err)
	require.Len(t, byCode, 1)
	assert.Equal(t, "def-wg001", byCode[0].ID)

	cats, err := svc.Categories(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, cats)
	assert.Equal(t, defect.CategoryAll, cats[0].Key)
	assert.Equal(t, len(all), cats[0].Count)

	// Invalidate is a no-op without redis.
	svc.Invalidate(ctx)
}
