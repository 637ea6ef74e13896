package classifier

import (
	"context"

	"github.com/ironsheep/shape-moments-mcp/internal/dataset"
	"github.com/ironsheep/shape-moments-mcp/internal/imaging"
	"github.com/ironsheep/shape-moments-mcp/internal/logger"
)

// Service binds a Classifier to a default reference dataset source and an
// optional parsed-dataset cache.
type Service struct {
	classifier *Classifier
	dataset    dataset.Supplier
	cache      *dataset.Cache
}

// NewService creates a service. defaultDataset may be nil, in which case
// every call must name its own dataset. cache holds the parsed default
// dataset and may be nil to parse it on every call.
func NewService(c *Classifier, defaultDataset dataset.Supplier, cache *dataset.Cache) *Service {
	if c == nil {
		c = New()
	}
	return &Service{
		classifier: c,
		dataset:    defaultDataset,
		cache:      cache,
	}
}

// Classifier returns the classifier the service runs.
func (s *Service) Classifier() *Classifier {
	return s.classifier
}

// WithOptions returns a service sharing this one's dataset source and cache
// but running a classifier with opts applied.
func (s *Service) WithOptions(opts ...Option) *Service {
	if len(opts) == 0 {
		return s
	}
	cp := *s
	cp.classifier = s.classifier.With(opts...)
	return &cp
}

// Dataset loads the reference dataset from src, or from the default source
// when src is nil. Only the default source goes through the cache; a
// per-request dataset is parsed and released with the request.
func (s *Service) Dataset(ctx context.Context, src dataset.Supplier) (*dataset.Dataset, error) {
	cache := s.cache
	if src == nil {
		src = s.dataset
	} else {
		cache = nil
	}
	ds, err := dataset.Load(ctx, src, cache)
	if err != nil {
		logger.WithError(err).Warn("reference dataset unavailable")
		return nil, err
	}
	return ds, nil
}

// Classify loads the reference dataset and labels the shape in img.
func (s *Service) Classify(ctx context.Context, img imaging.PixelSupplier, src dataset.Supplier) (*Result, error) {
	ds, err := s.Dataset(ctx, src)
	if err != nil {
		return nil, err
	}
	return s.classifier.Classify(img, ds)
}

// Features computes the moment vectors of the shape in img.
func (s *Service) Features(img imaging.PixelSupplier) (*Features, error) {
	return s.classifier.Features(img)
}
