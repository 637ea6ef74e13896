package dataset

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ironsheep/shape-moments-mcp/internal/apperrors"
)

// Supplier yields the raw bytes of a reference dataset.
type Supplier interface {
	Bytes(ctx context.Context) ([]byte, error)
}

// StaticSupplier serves a dataset already held in memory.
type StaticSupplier []byte

func (s StaticSupplier) Bytes(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewDatasetUnavailableError("dataset read cancelled", err)
	}
	return s, nil
}

// FileSupplier reads a dataset from the local filesystem on every call.
type FileSupplier struct {
	Path string
}

func (s FileSupplier) Bytes(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewDatasetUnavailableError("dataset read cancelled", err)
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, apperrors.NewDatasetUnavailableError(fmt.Sprintf("cannot read dataset %s", s.Path), err)
	}
	return data, nil
}

func (s FileSupplier) String() string {
	return "file:" + s.Path
}

// Load fetches the dataset bytes from s and parses them, through cache when
// it is non-nil.
func Load(ctx context.Context, s Supplier, cache *Cache) (*Dataset, error) {
	if s == nil {
		return nil, apperrors.NewDatasetUnavailableError("no dataset configured", nil)
	}
	data, err := s.Bytes(ctx)
	if err != nil {
		var appErr *apperrors.Error
		if !errors.As(err, &appErr) {
			err = apperrors.NewDatasetUnavailableError("dataset supplier failed", err)
		}
		return nil, err
	}
	if cache != nil {
		return cache.Load(data), nil
	}
	return Parse(data), nil
}
