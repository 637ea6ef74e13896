package container

import (
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/shape-moments-mcp/internal/classifier"
	"github.com/ironsheep/shape-moments-mcp/internal/config"
	"github.com/ironsheep/shape-moments-mcp/internal/dataset"
	"github.com/ironsheep/shape-moments-mcp/internal/logger"
	"github.com/ironsheep/shape-moments-mcp/internal/transport"
)

// Container holds all application dependencies
type Container struct {
	config   *config.Config
	supplier dataset.Supplier
	cache    *dataset.Cache
	service  *classifier.Service
	handler  http.Handler
}

// NewContainer builds the dependency graph from cfg.
func NewContainer(cfg *config.Config) (*Container, error) {
	supplier, err := DatasetSupplier(cfg)
	if err != nil {
		return nil, err
	}

	var cache *dataset.Cache
	if cfg.DatasetCache {
		cache = dataset.NewCache()
	}

	c := classifier.New(
		classifier.WithMaskOptions(cfg.MaskOptions()),
		classifier.WithCanvasOptions(cfg.CanvasOptions()),
	)
	svc := classifier.NewService(c, supplier, cache)

	return &Container{
		config:   cfg,
		supplier: supplier,
		cache:    cache,
		service:  svc,
	}, nil
}

// DatasetSupplier returns the configured reference dataset source, or nil
// when none is configured. An Azure blob takes priority over a file path.
func DatasetSupplier(cfg *config.Config) (dataset.Supplier, error) {
	switch {
	case cfg.Azure.Enabled():
		s, err := dataset.NewAzureBlobSupplier(cfg.Azure.Account, cfg.Azure.Key, cfg.Azure.Container, cfg.Azure.Blob)
		if err != nil {
			return nil, fmt.Errorf("failed to configure azure dataset: %w", err)
		}
		logger.WithField("source", s.String()).Info("reference dataset configured")
		return s, nil
	case cfg.DatasetPath != "":
		s := dataset.FileSupplier{Path: cfg.DatasetPath}
		logger.WithField("source", s.String()).Info("reference dataset configured")
		return s, nil
	default:
		logger.Warn("no reference dataset configured; requests must supply their own")
		return nil, nil
	}
}

// Service returns the classification service.
func (c *Container) Service() *classifier.Service {
	return c.service
}

// Handler returns the HTTP handler, building it on first use.
func (c *Container) Handler() http.Handler {
	if c.handler == nil {
		c.handler = transport.NewHandler(c.service, c.config)
	}
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Fields describes the wiring for startup logs.
func (c *Container) Fields() logrus.Fields {
	source := "none"
	if s, ok := c.supplier.(fmt.Stringer); ok {
		source = s.String()
	}
	return logrus.Fields{
		"dataset":       source,
		"dataset_cache": c.cache != nil,
		"threshold":     c.config.Threshold,
		"polarity":      c.config.Polarity.String(),
		"close_radius":  c.config.CloseRadius,
		"max_dimension": c.config.MaxDimension,
	}
}
