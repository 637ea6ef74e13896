package classifier

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/shape-moments-mcp/internal/apperrors"
	"github.com/ironsheep/shape-moments-mcp/internal/dataset"
	"github.com/ironsheep/shape-moments-mcp/internal/detection"
	"github.com/ironsheep/shape-moments-mcp/internal/imaging"
	"github.com/ironsheep/shape-moments-mcp/internal/logger"
	"github.com/ironsheep/shape-moments-mcp/internal/moments"
)

// Candidate is the distance from the query to one reference entry.
type Candidate struct {
	Label    string  `json:"label"`
	Distance float64 `json:"distance"`
}

// Result is the outcome of a classification.
type Result struct {
	// Label of the nearest reference entry.
	Label string `json:"label"`

	// Distance is the Manhattan distance to that entry.
	Distance float64 `json:"distance"`

	// Index is the position of the nearest entry in the dataset.
	Index int `json:"index"`

	// Query is the normalized feature vector of the input.
	Query moments.Vector `json:"query"`

	// Candidates holds the distance to every entry, in dataset order.
	Candidates []Candidate `json:"candidates"`

	// EmptyMask is true when no shape was found in the input and the query
	// is the all-zero vector.
	EmptyMask bool `json:"empty_mask"`
}

// Nearest finds the dataset entry closest to query by Manhattan distance.
// The first entry with the lowest distance wins ties.
//
// An empty dataset is an error, never a default label.
func Nearest(query moments.Vector, ds *dataset.Dataset) (*Result, error) {
	if ds == nil || ds.Empty() {
		return nil, apperrors.NewDatasetEmptyError("reference dataset has no usable entries")
	}
	if !query.IsFinite() {
		return nil, apperrors.NewDegenerateMomentsError(fmt.Sprintf("query vector is not finite: %v", query))
	}

	res := &Result{
		Index:      -1,
		Query:      query,
		Candidates: make([]Candidate, 0, ds.Len()),
	}

	for i, e := range ds.Entries {
		d := moments.Manhattan(query, e.Vector)
		res.Candidates = append(res.Candidates, Candidate{Label: e.Label, Distance: d})

		logger.WithFields(logrus.Fields{
			"index":    i,
			"label":    e.Label,
			"distance": d,
		}).Debug("reference distance")

		if res.Index < 0 || d < res.Distance {
			res.Index = i
			res.Distance = d
			res.Label = e.Label
		}
	}

	return res, nil
}

// Features are the moment vectors at each stage of the pipeline.
type Features struct {
	// Raw holds the seven Hu invariants of the mask.
	Raw moments.Vector `json:"raw"`

	// Transformed is Raw after the signed log transform.
	Transformed moments.Vector `json:"transformed"`

	// Normalized is Transformed after per-vector normalization; this is
	// what distances are computed on.
	Normalized moments.Vector `json:"normalized"`

	// Area is the number of pixels in the mask (the zeroth moment).
	Area float64 `json:"area"`

	// CentroidX and CentroidY locate the mask's center of mass.
	CentroidX float64 `json:"centroid_x"`
	CentroidY float64 `json:"centroid_y"`

	// EmptyMask reports that no shape was found.
	EmptyMask bool `json:"empty_mask"`

	// Shape is the mask the features were computed from.
	Shape *detection.Shape `json:"-"`
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithMaskOptions sets the mask builder settings.
func WithMaskOptions(opts detection.MaskOptions) Option {
	return func(c *Classifier) {
		c.mask = opts
	}
}

// WithCanvasOptions sets cropping and downscaling applied before masking.
func WithCanvasOptions(opts imaging.CanvasOptions) Option {
	return func(c *Classifier) {
		c.canvas = opts
	}
}

// Classifier runs the full pipeline from pixels to label. It holds only
// configuration and is safe for concurrent use.
type Classifier struct {
	mask   detection.MaskOptions
	canvas imaging.CanvasOptions
}

// New creates a classifier with default mask settings and no preprocessing.
func New(opts ...Option) *Classifier {
	c := &Classifier{mask: detection.DefaultMaskOptions()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// With returns a copy of c with opts applied on top of its settings.
func (c *Classifier) With(opts ...Option) *Classifier {
	cp := *c
	for _, opt := range opts {
		opt(&cp)
	}
	return &cp
}

// MaskOptions returns the mask builder settings in use.
func (c *Classifier) MaskOptions() detection.MaskOptions {
	return c.mask
}

// CanvasOptions returns the preprocessing settings in use.
func (c *Classifier) CanvasOptions() imaging.CanvasOptions {
	return c.canvas
}

// Features computes the moment vectors of the shape in src.
func (c *Classifier) Features(src imaging.PixelSupplier) (*Features, error) {
	if src == nil {
		return nil, apperrors.NewImageFormatError("no image supplied", nil)
	}
	raw, err := src.Pixels()
	if err != nil {
		var appErr *apperrors.Error
		if !errors.As(err, &appErr) {
			err = apperrors.NewImageFormatError("pixel supplier failed", err)
		}
		return nil, err
	}

	canvas, err := imaging.Canvas(raw, c.canvas)
	if err != nil {
		return nil, err
	}

	shape := detection.BuildMask(canvas, c.mask)
	m := moments.Compute(shape.Mask)
	hu := moments.Hu(m)
	transformed := moments.LogTransform(hu)

	return &Features{
		Raw:         hu,
		Transformed: transformed,
		Normalized:  moments.Normalize(transformed),
		Area:        m.Spatial.M00,
		CentroidX:   m.CentroidX,
		CentroidY:   m.CentroidY,
		EmptyMask:   shape.Empty(),
		Shape:       shape,
	}, nil
}

// Classify labels the shape in src with its nearest reference entry.
//
// Errors:
//   - dataset empty: ds is nil or holds no entries
//   - image format: src cannot produce a supported pixel buffer
//   - degenerate moments: the query vector is not finite
func (c *Classifier) Classify(src imaging.PixelSupplier, ds *dataset.Dataset) (*Result, error) {
	if ds == nil || ds.Empty() {
		return nil, apperrors.NewDatasetEmptyError("reference dataset has no usable entries")
	}

	f, err := c.Features(src)
	if err != nil {
		return nil, err
	}
	if f.EmptyMask {
		logger.Debug("no shape found in input; classifying the zero vector")
	}

	res, err := Nearest(f.Normalized, ds)
	if err != nil {
		return nil, err
	}
	res.EmptyMask = f.EmptyMask

	logger.WithFields(logrus.Fields{
		"label":    res.Label,
		"distance": res.Distance,
		"entries":  ds.Len(),
	}).Info("shape classified")

	return res, nil
}
