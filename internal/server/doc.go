// Package server implements the MCP (Model Context Protocol) server for the
// shape classifier.
//
// This package provides a JSON-RPC 2.0 server that exposes the Hu-moment
// classification pipeline through the MCP protocol, so an assistant can ask
// which reference shape a hand-drawn sketch is closest to and inspect each
// stage of that decision.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - image_load: Load a drawing and report its metadata
//   - shape_mask: Return the filled shape mask as a PNG
//   - shape_features: Report raw, log-transformed and normalized Hu moments
//   - shape_classify: Label the drawing with its nearest reference shape
//   - dataset_inspect: List the entries and skipped rows of a dataset
//
// The shape tools accept optional threshold, polarity, close_radius and
// region arguments that override the server's mask settings for one call.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32602 for invalid arguments, -32000 for every other failure
//   - message: "Tool execution failed"
//   - data: {"kind": ..., "message": ...} where kind is one of image_format,
//     dataset_unavailable, dataset_empty, degenerate_moments, validation or
//     internal
//
// # Usage
//
//	svc := classifier.NewService(classifier.New(), dataset.FileSupplier{Path: "shapes.csv"}, dataset.NewCache())
//	if err := server.New(svc).Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
