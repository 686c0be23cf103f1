package promo

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

// funcLoader adapts a function into a Loader.
type funcLoader struct {
	loadFunc func(ctx context.Context, filePath string) (CodeSet, error)
}

func (m *funcLoader) Load(ctx context.Context, filePath string) (CodeSet, error) {
	if m.loadFunc != nil {
		return m.loadFunc(ctx, filePath)
	}
	return nil, errors.New("not implemented")
}

func TestFallbackLoader_S3Success(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	s3Set := buildSet(map[string]float64{"S3CODE123": 5.00})
	s3Loader := &funcLoader{
		loadFunc: func(ctx context.Context, filePath string) (CodeSet, error) {
			assert.Equal(t, "promos/test.gz", filePath, "S3 key should have prefix")
			return s3Set, nil
		},
	}

	fileLoader := &funcLoader{
		loadFunc: func(ctx context.Context, filePath string) (CodeSet, error) {
			t.Error("file loader should not be called when S3 succeeds")
			return nil, errors.New("should not be called")
		},
	}

	fallback := NewFallbackLoader(s3Loader, fileLoader, "promos/", true, logger)

	set, err := fallback.Load(ctx, "test.gz")
	assert.NoError(t, err)
	assert.NotNil(t, set)
	amount, ok := set.Lookup("S3CODE123")
	assert.True(t, ok)
	assert.Equal(t, 5.00, amount)
}

func TestFallbackLoader_S3FailsFallsBackToLocal(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	s3Loader := &funcLoader{
		loadFunc: func(ctx context.Context, filePath string) (CodeSet, error) {
			return nil, errors.New("S3 connection failed")
		},
	}

	localSet := buildSet(map[string]float64{"LOCALCODE1": 2.50})
	fileLoader := &funcLoader{
		loadFunc: func(ctx context.Context, filePath string) (CodeSet, error) {
			assert.Equal(t, "test.gz", filePath, "local file path should not have prefix")
			return localSet, nil
		},
	}

	fallback := NewFallbackLoader(s3Loader, fileLoader, "promos/", true, logger)

	set, err := fallback.Load(ctx, "test.gz")
	assert.NoError(t, err)
	assert.NotNil(t, set)
	_, ok := set.Lookup("LOCALCODE1")
	assert.True(t, ok)
}

func TestFallbackLoader_S3Disabled(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	s3Loader := &funcLoader{
		loadFunc: func(ctx context.Context, filePath string) (CodeSet, error) {
			t.Error("S3 loader should not be called when S3 is disabled")
			return nil, errors.New("should not be called")
		},
	}

	localSet := buildSet(map[string]float64{"LOCALCODE2": 1.00})
	fileLoader := &funcLoader{
		loadFunc: func(ctx context.Context, filePath string) (CodeSet, error) {
			assert.Equal(t, "test.gz", filePath)
			return localSet, nil
		},
	}

	fallback := NewFallbackLoader(s3Loader, fileLoader, "promos/", false, logger)

	set, err := fallback.Load(ctx, "test.gz")
	assert.NoError(t, err)
	assert.NotNil(t, set)
	_, ok := set.Lookup("LOCALCODE2")
	assert.True(t, ok)
}

func TestFallbackLoader_S3LoaderNil(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	localSet := buildSet(map[string]float64{"LOCALCODE3": 8.00})
	fileLoader := &funcLoader{
		loadFunc: func(ctx context.Context, filePath string) (CodeSet, error) {
			return localSet, nil
		},
	}

	// With no S3 loader configured, the local loader is used even when
	// S3 is nominally enabled.
	fallback := NewFallbackLoader(nil, fileLoader, "promos/", true, logger)

	set, err := fallback.Load(ctx, "test.gz")
	assert.NoError(t, err)
	assert.NotNil(t, set)
	_, ok := set.Lookup("LOCALCODE3")
	assert.True(t, ok)
}
