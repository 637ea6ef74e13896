package server

import (
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ironsheep/shape-moments-mcp/internal/apperrors"
	"github.com/ironsheep/shape-moments-mcp/internal/classifier"
	"github.com/ironsheep/shape-moments-mcp/internal/dataset"
)

// createTestImageFile creates a test image file and returns its path
func createTestImageFile(t *testing.T, width, height int, c color.Color) string {
	t.Helper()
	return createDrawingFile(t, width, height, c, nil)
}

// createDrawingFile paints a background, lets draw add strokes, and saves
// the result as a PNG in a temp dir.
func createDrawingFile(t *testing.T, width, height int, bg color.Color, draw func(img *image.RGBA)) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, bg)
		}
	}
	if draw != nil {
		draw(img)
	}

	tmpFile, err := os.CreateTemp(t.TempDir(), "handler-test-*.png")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer tmpFile.Close()

	if err := png.Encode(tmpFile, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}

	return tmpFile.Name()
}

func fillRect(img *image.RGBA, x1, y1, x2, y2 int, c color.Color) {
	for y := y1; y < y2; y++ {
		for x := x1; x < x2; x++ {
			img.Set(x, y, c)
		}
	}
}

func writeDataset(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shapes.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write dataset: %v", err)
	}
	return path
}

func callTool(t *testing.T, s *Server, name string, args map[string]interface{}) *MCPResponse {
	t.Helper()

	params := map[string]interface{}{
		"name":      name,
		"arguments": args,
	}
	paramsJSON, _ := json.Marshal(params)

	resp := s.handleRequest(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	})
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	return resp
}

// decodeResult extracts the JSON text content of a successful tool call.
func decodeResult(t *testing.T, resp *MCPResponse, v interface{}) {
	t.Helper()

	if resp.Error != nil {
		t.Fatalf("Unexpected error: %+v", resp.Error)
	}
	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	content, ok := result["content"].([]map[string]interface{})
	if !ok || len(content) != 1 {
		t.Fatalf("unexpected content: %v", result["content"])
	}
	text, _ := content[0]["text"].(string)
	if err := json.Unmarshal([]byte(text), v); err != nil {
		t.Fatalf("failed to decode tool result: %v\n%s", err, text)
	}
}

// expectToolError checks the JSON-RPC code and error kind of a failed call.
func expectToolError(t *testing.T, resp *MCPResponse, code int, kind apperrors.Kind) {
	t.Helper()

	if resp.Error == nil {
		t.Fatalf("expected error, got result %v", resp.Result)
	}
	if resp.Error.Code != code {
		t.Errorf("Error code: got %d, want %d", resp.Error.Code, code)
	}
	data, ok := resp.Error.Data.(ToolErrorData)
	if !ok {
		t.Fatalf("Error data: got %T, want ToolErrorData", resp.Error.Data)
	}
	if data.Kind != kind {
		t.Errorf("Error kind: got %q, want %q (%s)", data.Kind, kind, data.Message)
	}
}

const twoShapeDataset = "flat,5,5,5,5,5,5,5\nother,1,2,3,4,5,6,7\nbad,1\n"

func TestHandleToolsCall_ImageLoad(t *testing.T) {
	s := New(nil)
	imgPath := createTestImageFile(t, 100, 80, color.RGBA{255, 0, 0, 255})

	var info struct {
		Width       int    `json:"width"`
		Height      int    `json:"height"`
		Format      string `json:"format"`
		PixelFormat string `json:"pixel_format"`
	}
	decodeResult(t, callTool(t, s, "image_load", map[string]interface{}{"path": imgPath}), &info)

	if info.Width != 100 || info.Height != 80 {
		t.Errorf("dimensions: got %dx%d, want 100x80", info.Width, info.Height)
	}
	if info.Format != "png" || info.PixelFormat != "rgba8888" {
		t.Errorf("format: got %s/%s", info.Format, info.PixelFormat)
	}
}

func TestHandleToolsCall_NonExistentFile(t *testing.T) {
	s := New(nil)
	resp := callTool(t, s, "image_load", map[string]interface{}{"path": "/nonexistent/image.png"})
	expectToolError(t, resp, -32000, apperrors.KindImageFormat)
}

func TestHandleToolsCall_MissingPath(t *testing.T) {
	s := New(nil)
	for _, name := range []string{"image_load", "shape_mask", "shape_features", "shape_classify"} {
		t.Run(name, func(t *testing.T) {
			resp := callTool(t, s, name, map[string]interface{}{})
			expectToolError(t, resp, -32602, apperrors.KindValidation)
		})
	}
}

func TestHandleToolsCall_InvalidTool(t *testing.T) {
	s := New(nil)
	resp := callTool(t, s, "image_detect_rectangles", map[string]interface{}{})
	expectToolError(t, resp, -32602, apperrors.KindValidation)
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := New(nil)
	req := &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  json.RawMessage(`{invalid json}`),
	}

	resp := s.handleToolsCall(req)
	if resp.Error == nil {
		t.Fatal("Expected error for invalid params")
	}
	if resp.Error.Code != -32602 {
		t.Errorf("Error code: got %d, want -32602", resp.Error.Code)
	}
}

func TestHandleToolsCall_InvalidArgumentTypes(t *testing.T) {
	s := New(nil)
	resp := callTool(t, s, "shape_mask", map[string]interface{}{"path": 42})
	expectToolError(t, resp, -32602, apperrors.KindValidation)
}

func TestHandleToolsCall_ShapeMask(t *testing.T) {
	s := New(nil)
	imgPath := createDrawingFile(t, 100, 80, color.White, func(img *image.RGBA) {
		fillRect(img, 20, 30, 60, 50, color.Black)
	})

	var res struct {
		Width        int     `json:"width"`
		Height       int     `json:"height"`
		Found        bool    `json:"found"`
		FilledPixels int     `json:"filled_pixels"`
		ContourArea  float64 `json:"contour_area"`
		ImageBase64  string  `json:"image_base64"`
		MimeType     string  `json:"mime_type"`
	}
	decodeResult(t, callTool(t, s, "shape_mask", map[string]interface{}{"path": imgPath}), &res)

	if !res.Found || res.FilledPixels != 800 {
		t.Errorf("found = %v, filled = %d; want true, 800", res.Found, res.FilledPixels)
	}
	if res.Width != 100 || res.Height != 80 {
		t.Errorf("mask size = %dx%d", res.Width, res.Height)
	}
	if res.ImageBase64 == "" || res.MimeType != "image/png" {
		t.Error("expected an encoded PNG mask")
	}
}

func TestHandleToolsCall_ShapeMask_Overrides(t *testing.T) {
	s := New(nil)
	imgPath := createDrawingFile(t, 80, 80, color.Black, func(img *image.RGBA) {
		fillRect(img, 20, 20, 50, 60, color.White)
		fillRect(img, 60, 5, 75, 15, color.White)
	})

	tests := []struct {
		name       string
		args       map[string]interface{}
		wantFilled int
	}{
		{"light polarity", map[string]interface{}{"polarity": "light"}, 30 * 40},
		{"auto polarity", map[string]interface{}{"polarity": "auto"}, 30 * 40},
		{"region picks the small shape", map[string]interface{}{
			"polarity": "light",
			"region":   map[string]interface{}{"x1": 55, "y1": 0, "x2": 80, "y2": 18},
		}, 15 * 10},
		{"threshold above white finds nothing", map[string]interface{}{"polarity": "light", "threshold": 255}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.args["path"] = imgPath
			var res struct {
				FilledPixels int `json:"filled_pixels"`
			}
			decodeResult(t, callTool(t, s, "shape_mask", tt.args), &res)
			if res.FilledPixels != tt.wantFilled {
				t.Errorf("filled = %d, want %d", res.FilledPixels, tt.wantFilled)
			}
		})
	}
}

func TestHandleToolsCall_ShapeMask_InvalidOverrides(t *testing.T) {
	s := New(nil)
	imgPath := createTestImageFile(t, 20, 20, color.White)

	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"threshold too high", map[string]interface{}{"threshold": 256}},
		{"negative radius", map[string]interface{}{"close_radius": -1}},
		{"unknown polarity", map[string]interface{}{"polarity": "upside-down"}},
		{"region outside image", map[string]interface{}{
			"region": map[string]interface{}{"x1": 0, "y1": 0, "x2": 50, "y2": 10},
		}},
		{"empty region", map[string]interface{}{
			"region": map[string]interface{}{"x1": 5, "y1": 5, "x2": 5, "y2": 10},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.args["path"] = imgPath
			resp := callTool(t, s, "shape_mask", tt.args)
			expectToolError(t, resp, -32602, apperrors.KindValidation)
		})
	}
}

func TestHandleToolsCall_ShapeFeatures(t *testing.T) {
	s := New(nil)

	t.Run("blank", func(t *testing.T) {
		imgPath := createTestImageFile(t, 40, 40, color.White)
		var res struct {
			Raw       []float64 `json:"raw"`
			EmptyMask bool      `json:"empty_mask"`
		}
		decodeResult(t, callTool(t, s, "shape_features", map[string]interface{}{"path": imgPath}), &res)
		if !res.EmptyMask {
			t.Error("expected empty_mask")
		}
		if len(res.Raw) != 7 {
			t.Fatalf("raw has %d values, want 7", len(res.Raw))
		}
		for i, v := range res.Raw {
			if v != 0 {
				t.Errorf("raw[%d] = %v, want 0", i, v)
			}
		}
	})

	t.Run("rectangle", func(t *testing.T) {
		imgPath := createDrawingFile(t, 100, 100, color.White, func(img *image.RGBA) {
			fillRect(img, 20, 30, 60, 50, color.Black)
		})
		var res struct {
			Normalized []float64 `json:"normalized"`
			Area       float64   `json:"area"`
			CentroidX  float64   `json:"centroid_x"`
			EmptyMask  bool      `json:"empty_mask"`
		}
		decodeResult(t, callTool(t, s, "shape_features", map[string]interface{}{"path": imgPath}), &res)
		if res.EmptyMask || res.Area != 800 || res.CentroidX != 39.5 {
			t.Errorf("got %+v", res)
		}
		if len(res.Normalized) != 7 {
			t.Errorf("normalized has %d values, want 7", len(res.Normalized))
		}
	})
}

func TestHandleToolsCall_ShapeFeatures_RedrawnFile(t *testing.T) {
	s := New(nil)
	imgPath := createTestImageFile(t, 100, 100, color.White)

	type features struct {
		Area      float64 `json:"area"`
		EmptyMask bool    `json:"empty_mask"`
	}
	var first features
	decodeResult(t, callTool(t, s, "shape_features", map[string]interface{}{"path": imgPath}), &first)
	if !first.EmptyMask {
		t.Fatalf("first call: got %+v, want empty mask", first)
	}

	// Save a rectangle over the blank drawing under the same name.
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	fillRect(img, 0, 0, 100, 100, color.White)
	fillRect(img, 20, 30, 60, 50, color.Black)
	f, err := os.Create(imgPath)
	if err != nil {
		t.Fatalf("failed to rewrite drawing: %v", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		t.Fatalf("failed to encode drawing: %v", err)
	}
	f.Close()
	later := time.Now().Add(time.Hour)
	if err := os.Chtimes(imgPath, later, later); err != nil {
		t.Fatalf("Chtimes failed: %v", err)
	}

	var second features
	decodeResult(t, callTool(t, s, "shape_features", map[string]interface{}{"path": imgPath}), &second)
	if second.EmptyMask || second.Area != 800 {
		t.Errorf("second call: got %+v, want the redrawn 800 px rectangle", second)
	}
}

type classifyResult struct {
	Label       string  `json:"label"`
	Distance    float64 `json:"distance"`
	Index       int     `json:"index"`
	EmptyMask   bool    `json:"empty_mask"`
	Entries     int     `json:"entries"`
	SkippedRows int     `json:"skipped_rows"`
	Candidates  []struct {
		Label    string  `json:"label"`
		Distance float64 `json:"distance"`
	} `json:"candidates"`
}

func TestHandleToolsCall_ShapeClassify(t *testing.T) {
	s := New(nil)
	imgPath := createTestImageFile(t, 40, 40, color.White)
	dsPath := writeDataset(t, twoShapeDataset)

	var res classifyResult
	decodeResult(t, callTool(t, s, "shape_classify", map[string]interface{}{
		"path":         imgPath,
		"dataset_path": dsPath,
	}), &res)

	if res.Label != "flat" || res.Distance != 0 || res.Index != 0 {
		t.Errorf("got %s #%d at %v, want flat #0 at 0", res.Label, res.Index, res.Distance)
	}
	if !res.EmptyMask {
		t.Error("expected empty_mask for a blank canvas")
	}
	if res.Entries != 2 || res.SkippedRows != 1 {
		t.Errorf("entries = %d, skipped = %d; want 2, 1", res.Entries, res.SkippedRows)
	}
	if len(res.Candidates) != 2 || res.Candidates[1].Label != "other" {
		t.Errorf("candidates = %+v", res.Candidates)
	}
}

func TestHandleToolsCall_ShapeClassify_DefaultDataset(t *testing.T) {
	svc := classifier.NewService(nil, dataset.StaticSupplier(twoShapeDataset), dataset.NewCache())
	s := New(svc)
	imgPath := createTestImageFile(t, 40, 40, color.White)

	var res classifyResult
	decodeResult(t, callTool(t, s, "shape_classify", map[string]interface{}{"path": imgPath}), &res)
	if res.Label != "flat" {
		t.Errorf("label = %q, want flat", res.Label)
	}
}

func TestHandleToolsCall_ShapeClassify_Errors(t *testing.T) {
	s := New(nil)
	imgPath := createTestImageFile(t, 40, 40, color.White)

	tests := []struct {
		name string
		args map[string]interface{}
		kind apperrors.Kind
	}{
		{"no dataset configured", map[string]interface{}{"path": imgPath}, apperrors.KindDatasetUnavailable},
		{"missing dataset file", map[string]interface{}{
			"path": imgPath, "dataset_path": "/nonexistent/shapes.csv",
		}, apperrors.KindDatasetUnavailable},
		{"no usable rows", map[string]interface{}{
			"path": imgPath, "dataset_path": writeDataset(t, "square,1,2,3,4,5,6\n"),
		}, apperrors.KindDatasetEmpty},
		{"missing image", map[string]interface{}{
			"path": "/nonexistent/image.png", "dataset_path": writeDataset(t, twoShapeDataset),
		}, apperrors.KindImageFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := callTool(t, s, "shape_classify", tt.args)
			expectToolError(t, resp, -32000, tt.kind)
		})
	}
}

func TestHandleToolsCall_DatasetInspect(t *testing.T) {
	s := New(nil)
	dsPath := writeDataset(t, twoShapeDataset)

	var res struct {
		Labels  []string `json:"labels"`
		Entries []struct {
			Label  string    `json:"label"`
			Raw    []float64 `json:"raw"`
			Vector []float64 `json:"vector"`
		} `json:"entries"`
		Skipped []struct {
			Line   int    `json:"line"`
			Reason string `json:"reason"`
		} `json:"skipped"`
		Lines int `json:"lines"`
	}
	decodeResult(t, callTool(t, s, "dataset_inspect", map[string]interface{}{"dataset_path": dsPath}), &res)

	if len(res.Labels) != 2 || res.Labels[0] != "flat" || res.Labels[1] != "other" {
		t.Errorf("labels = %v", res.Labels)
	}
	if len(res.Entries) != 2 || len(res.Entries[1].Raw) != 7 || res.Entries[1].Raw[6] != 7 {
		t.Errorf("entries = %+v", res.Entries)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Line != 3 || res.Skipped[0].Reason != dataset.SkipWrongCount {
		t.Errorf("skipped = %+v", res.Skipped)
	}
	if res.Lines != 3 {
		t.Errorf("lines = %d, want 3", res.Lines)
	}
}

func TestHandleToolsCall_DatasetInspect_NoDataset(t *testing.T) {
	s := New(nil)
	resp := callTool(t, s, "dataset_inspect", nil)
	expectToolError(t, resp, -32000, apperrors.KindDatasetUnavailable)
}

func TestExecuteTool_UnknownTool(t *testing.T) {
	s := New(nil)
	_, err := s.executeTool("unknown_tool", json.RawMessage(`{}`))
	if err == nil {
		t.Error("Expected error for unknown tool")
	}
}

func TestExecuteTool_InvalidJSON(t *testing.T) {
	s := New(nil)
	_, err := s.executeTool("image_load", json.RawMessage(`{invalid}`))
	if apperrors.KindOf(err) != apperrors.KindValidation {
		t.Errorf("err = %v, want validation error", err)
	}
}
