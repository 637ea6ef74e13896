package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ironsheep/shape-moments-mcp/internal/apperrors"
	"github.com/ironsheep/shape-moments-mcp/internal/classifier"
	"github.com/ironsheep/shape-moments-mcp/internal/dataset"
	"github.com/ironsheep/shape-moments-mcp/internal/detection"
	"github.com/ironsheep/shape-moments-mcp/internal/imaging"
	"github.com/ironsheep/shape-moments-mcp/internal/logger"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "shape_classify").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// ToolErrorData is attached to tool failures so clients can branch on the
// error kind.
type ToolErrorData struct {
	Kind    apperrors.Kind `json:"kind"`
	Message string         `json:"message"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000
// (-32602 for invalid arguments) and the error kind in data.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		logger.WithError(err).WithField("tool", params.Name).Warn("tool execution failed")
		return s.errorResponse(req.ID, apperrors.RPCCode(err), "Tool execution failed", ToolErrorData{
			Kind:    apperrors.KindOf(err),
			Message: err.Error(),
		})
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies per-call preprocessing overrides on top of the server defaults
//  3. Loads images through the cache
//  4. Runs the classification pipeline up to the stage the tool reports
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "image_load":
		return s.handleImageLoad(args)
	case "shape_mask":
		return s.handleShapeMask(args)
	case "shape_features":
		return s.handleShapeFeatures(args)
	case "shape_classify":
		return s.handleShapeClassify(args)
	case "dataset_inspect":
		return s.handleDatasetInspect(args)
	default:
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown tool: %s", name), nil)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message string, data interface{}) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeArgs unmarshals tool arguments, reporting failures as validation errors.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return apperrors.NewValidationError("invalid arguments", err)
	}
	return nil
}

// === Image Information ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, apperrors.NewValidationError("path is required", nil)
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

// === Shape Tools ===

type shapeArgs struct {
	Path        string          `json:"path"`
	Threshold   *int            `json:"threshold,omitempty"`
	Polarity    string          `json:"polarity,omitempty"`
	CloseRadius *int            `json:"close_radius,omitempty"`
	Region      *imaging.Region `json:"region,omitempty"`
}

// serviceFor returns the server's service with any per-call overrides applied.
func (s *Server) serviceFor(a shapeArgs) (*classifier.Service, error) {
	if a.Path == "" {
		return nil, apperrors.NewValidationError("path is required", nil)
	}

	base := s.service.Classifier()
	mask := base.MaskOptions()
	canvas := base.CanvasOptions()
	var opts []classifier.Option

	if a.Threshold != nil || a.Polarity != "" || a.CloseRadius != nil {
		if a.Threshold != nil {
			if *a.Threshold < 0 || *a.Threshold > 255 {
				return nil, apperrors.NewValidationError(fmt.Sprintf("threshold must be within 0-255, got %d", *a.Threshold), nil)
			}
			mask.Threshold = uint8(*a.Threshold)
		}
		if a.Polarity != "" {
			p, err := detection.ParsePolarity(a.Polarity)
			if err != nil {
				return nil, err
			}
			mask.Polarity = p
		}
		if a.CloseRadius != nil {
			if *a.CloseRadius < 0 {
				return nil, apperrors.NewValidationError(fmt.Sprintf("close_radius must be >= 0, got %d", *a.CloseRadius), nil)
			}
			mask.CloseRadius = *a.CloseRadius
		}
		opts = append(opts, classifier.WithMaskOptions(mask))
	}
	if a.Region != nil {
		canvas.Region = a.Region
		opts = append(opts, classifier.WithCanvasOptions(canvas))
	}

	return s.service.WithOptions(opts...), nil
}

func (s *Server) handleShapeMask(args json.RawMessage) (interface{}, error) {
	var a shapeArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	svc, err := s.serviceFor(a)
	if err != nil {
		return nil, err
	}

	f, err := svc.Features(s.cache.File(a.Path))
	if err != nil {
		return nil, err
	}
	return detection.Render(f.Shape)
}

func (s *Server) handleShapeFeatures(args json.RawMessage) (interface{}, error) {
	var a shapeArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	svc, err := s.serviceFor(a)
	if err != nil {
		return nil, err
	}
	return svc.Features(s.cache.File(a.Path))
}

type shapeClassifyArgs struct {
	shapeArgs
	DatasetPath string `json:"dataset_path,omitempty"`
}

// ShapeClassifyResult is the shape_classify tool output.
type ShapeClassifyResult struct {
	*classifier.Result

	// Entries is the number of usable reference entries compared against.
	Entries int `json:"entries"`

	// SkippedRows is the number of dataset rows that were ignored.
	SkippedRows int `json:"skipped_rows"`
}

func (s *Server) handleShapeClassify(args json.RawMessage) (interface{}, error) {
	var a shapeClassifyArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	svc, err := s.serviceFor(a.shapeArgs)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	ds, err := svc.Dataset(ctx, datasetSource(a.DatasetPath))
	if err != nil {
		return nil, err
	}

	res, err := svc.Classifier().Classify(s.cache.File(a.Path), ds)
	if err != nil {
		return nil, err
	}
	return &ShapeClassifyResult{
		Result:      res,
		Entries:     ds.Len(),
		SkippedRows: len(ds.Skipped),
	}, nil
}

type datasetInspectArgs struct {
	DatasetPath string `json:"dataset_path,omitempty"`
}

// DatasetInspectResult is the dataset_inspect tool output.
type DatasetInspectResult struct {
	Labels  []string        `json:"labels"`
	Entries []dataset.Entry `json:"entries"`
	Skipped []dataset.Row   `json:"skipped"`
	Lines   int             `json:"lines"`
}

func (s *Server) handleDatasetInspect(args json.RawMessage) (interface{}, error) {
	var a datasetInspectArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	ds, err := s.service.Dataset(context.Background(), datasetSource(a.DatasetPath))
	if err != nil {
		return nil, err
	}
	return &DatasetInspectResult{
		Labels:  ds.Labels(),
		Entries: ds.Entries,
		Skipped: ds.Skipped,
		Lines:   ds.Lines,
	}, nil
}

// datasetSource maps an optional path argument to a supplier; nil selects
// the service default.
func datasetSource(path string) dataset.Supplier {
	if path == "" {
		return nil
	}
	return dataset.FileSupplier{Path: path}
}
