package mcp

import "github.com/mark3labs/mcp-go/mcp"

// askQuestionTool defines the ask_question MCP tool.
var askQuestionTool = mcp.NewTool("ask_question",
	mcp.WithDescription("Ask a question about the qualification-accreditation domain. Returns a grounded answer with its source passages."),
	mcp.WithString("category",
		mcp.Required(),
		mcp.Description("Document category to answer from (e.g. accreditation, framework, faq)"),
	),
	mcp.WithString("question",
		mcp.Required(),
		mcp.Description("Natural language question"),
	),
	mcp.WithString("session_id",
		mcp.Description("Conversation session identifier; omit to start a new session"),
	),
)

// searchDocumentsTool defines the search_documents MCP tool.
var searchDocumentsTool = mcp.NewTool("search_documents",
	mcp.WithDescription("Semantically search one category's document passages without generating an answer."),
	mcp.WithString("category",
		mcp.Required(),
		mcp.Description("Document category to search"),
	),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language search query"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of passages to return"),
	),
)

// listCategoriesTool defines the list_categories MCP tool.
var listCategoriesTool = mcp.NewTool("list_categories",
	mcp.WithDescription("List the configured document categories."),
)
