package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/guangnotepad/guang/internal/config"
	"github.com/guangnotepad/guang/internal/document"
	"github.com/guangnotepad/guang/internal/errors"
	"github.com/guangnotepad/guang/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db  *sql.DB
	cfg *config.Config
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *sql.DB, cfg *config.Config) *Handlers {
	return &Handlers{db: db, cfg: cfg}
}

// Request types for each tool

// DetectRequest represents the arguments for document_detect.
type DetectRequest struct {
	Path string `json:"path"`
}

// ReadRequest represents the arguments for document_read.
type ReadRequest struct {
	Path        string `json:"path"`
	Encoding    string `json:"encoding,omitempty"`
	IncludeRuns bool   `json:"include_runs,omitempty"`
}

// WriteRequest represents the arguments for document_write.
type WriteRequest struct {
	Path      string         `json:"path"`
	Text      string         `json:"text"`
	Runs      []document.Run `json:"runs,omitempty"`
	Encoding  string         `json:"encoding,omitempty"`
	Overwrite bool           `json:"overwrite,omitempty"`
}

// ConvertRequest represents the arguments for document_convert.
type ConvertRequest struct {
	Source         string `json:"source"`
	Dest           string `json:"dest"`
	SourceEncoding string `json:"source_encoding,omitempty"`
	Encoding       string `json:"encoding,omitempty"`
	Overwrite      bool   `json:"overwrite,omitempty"`
}

// RenderRequest represents the arguments for document_render.
type RenderRequest struct {
	Path     string `json:"path"`
	Encoding string `json:"encoding,omitempty"`
	Literal  bool   `json:"literal,omitempty"`
}

// RecentRequest represents the arguments for document_recent.
type RecentRequest struct {
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// ForgetRequest represents the arguments for document_forget.
type ForgetRequest struct {
	ID   string `json:"id,omitempty"`
	Path string `json:"path,omitempty"`
}

// Handler implementations

// HandleDetect handles the document_detect tool call.
func (h *Handlers) HandleDetect(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DetectRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Detect(h.cfg, ops.DetectInput{Path: input.Path})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleRead handles the document_read tool call.
func (h *Handlers) HandleRead(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ReadRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Read(h.db, h.cfg, ops.ReadInput{
		Path:        input.Path,
		Encoding:    input.Encoding,
		IncludeRuns: input.IncludeRuns,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleWrite handles the document_write tool call.
func (h *Handlers) HandleWrite(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[WriteRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Write(h.db, h.cfg, ops.WriteInput{
		Path:      input.Path,
		Text:      input.Text,
		Runs:      input.Runs,
		Encoding:  input.Encoding,
		Overwrite: input.Overwrite,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleConvert handles the document_convert tool call.
func (h *Handlers) HandleConvert(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ConvertRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Convert(h.db, h.cfg, ops.ConvertInput{
		Source:         input.Source,
		Dest:           input.Dest,
		SourceEncoding: input.SourceEncoding,
		Encoding:       input.Encoding,
		Overwrite:      input.Overwrite,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleRender handles the document_render tool call.
func (h *Handlers) HandleRender(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RenderRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Render(h.cfg, ops.RenderInput{
		Path:     input.Path,
		Encoding: input.Encoding,
		Literal:  input.Literal,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleRecent handles the document_recent tool call.
func (h *Handlers) HandleRecent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RecentRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	limit := input.Limit
	if limit == 0 {
		limit = h.cfg.RecentLimit
	}
	result, err := ops.Recent(h.db, ops.RecentInput{Limit: limit, Offset: input.Offset})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleForget handles the document_forget tool call.
func (h *Handlers) HandleForget(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ForgetRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Forget(h.db, ops.ForgetInput{ID: input.ID, Path: input.Path})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Internal error details are not exposed.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	var gErr *errors.GuangError
	if stderrors.As(err, &gErr) {
		// err.Error() keeps any wrapper context around the structured error
		msg := gErr.Message
		switch {
		case gErr.Code == errors.ErrInternal:
			msg = "an internal error occurred"
		case err != error(gErr):
			msg = err.Error()
		}
		errorObj := map[string]any{
			"code":    gErr.Code,
			"message": msg,
		}
		if gErr.Code != errors.ErrInternal && gErr.Details != nil {
			errorObj["details"] = gErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    errors.ErrInternal,
				"message": "an internal error occurred",
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
