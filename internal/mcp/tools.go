package mcp

import "github.com/mark3labs/mcp-go/mcp"

var detectToolDef = mcp.NewTool("document_detect",
	mcp.WithDescription("Guess the charset of a .txt document without decoding it. "+
		"Falls back to the configured fallback encoding when detection is inconclusive."),
	mcp.WithString("path", mcp.Required(), mcp.Description("Path to a .txt or .rtf file")),
)

var readToolDef = mcp.NewTool("document_read",
	mcp.WithDescription("Read a .txt or .rtf document. Plain text is decoded with the given "+
		"encoding or a detected one; rich text can also return its styled runs."),
	mcp.WithString("path", mcp.Required(), mcp.Description("Path to a .txt or .rtf file")),
	mcp.WithString("encoding", mcp.Description("Charset for plain text, e.g. UTF-8, windows-1251, KOI8-R. Skips detection.")),
	mcp.WithBoolean("include_runs", mcp.Description("Return styled runs (start/end in characters)")),
)

var writeToolDef = mcp.NewTool("document_write",
	mcp.WithDescription("Create or replace a document. The format follows the extension. "+
		"Runs (rich text only) must cover the whole text without gaps."),
	mcp.WithString("path", mcp.Required(), mcp.Description("Destination .txt or .rtf path")),
	mcp.WithString("text", mcp.Required(), mcp.Description("Document text")),
	mcp.WithArray("runs",
		mcp.Description("Styled runs for .rtf: {start, end, style:{font_family, font_size, bold, italic, foreground, background}}"),
		mcp.Items(map[string]any{"type": "object"}),
	),
	mcp.WithString("encoding", mcp.Description("Charset for plain text (default: config default_encoding)")),
	mcp.WithBoolean("overwrite", mcp.Description("Replace an existing file")),
)

var convertToolDef = mcp.NewTool("document_convert",
	mcp.WithDescription("Copy a document to a new path, re-encoding plain text and converting "+
		"between .txt and .rtf as the extensions say. Converting to .txt drops styling."),
	mcp.WithString("source", mcp.Required(), mcp.Description("Source .txt or .rtf path")),
	mcp.WithString("dest", mcp.Required(), mcp.Description("Destination .txt or .rtf path")),
	mcp.WithString("source_encoding", mcp.Description("Charset of a plain source. Skips detection.")),
	mcp.WithString("encoding", mcp.Description("Charset for a plain destination")),
	mcp.WithBoolean("overwrite", mcp.Description("Replace an existing destination")),
)

var renderToolDef = mcp.NewTool("document_render",
	mcp.WithDescription("Render a document to HTML. Plain text is treated as Markdown unless literal is set; "+
		"rich text keeps its styling as inline CSS."),
	mcp.WithString("path", mcp.Required(), mcp.Description("Path to a .txt or .rtf file")),
	mcp.WithString("encoding", mcp.Description("Charset for plain text. Skips detection.")),
	mcp.WithBoolean("literal", mcp.Description("Render plain text verbatim inside <pre>")),
)

var recentToolDef = mcp.NewTool("document_recent",
	mcp.WithDescription("List recently opened or saved documents, newest first."),
	mcp.WithNumber("limit", mcp.Description("Max items (default 20, max 100)")),
	mcp.WithNumber("offset", mcp.Description("Items to skip")),
)

var forgetToolDef = mcp.NewTool("document_forget",
	mcp.WithDescription("Remove a document from the recent list by id or path. The file is not touched."),
	mcp.WithString("id", mcp.Description("Recent entry id")),
	mcp.WithString("path", mcp.Description("Document path")),
)
