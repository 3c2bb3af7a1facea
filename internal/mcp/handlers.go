package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/qualbot/qualbot/internal/vectordb"
)

// handleAskQuestion runs the full answering pipeline for an agent query.
func (s *Server) handleAskQuestion(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cat, err := request.RequireString("category")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: category"), nil
	}
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: question"), nil
	}

	sessionID := request.GetString("session_id", "")
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	answer, err := s.engine.Ask(ctx, sessionID, cat, question)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("ask failed: %v", err)), nil
	}

	var sb strings.Builder
	sb.WriteString(answer.Text)
	sb.WriteString(fmt.Sprintf("\n\n(session: %s, source: %s)", sessionID, answer.Source))
	if len(answer.Grounding) > 0 {
		sb.WriteString("\nGrounded on:")
		for _, g := range answer.Grounding {
			sb.WriteString(fmt.Sprintf("\n- %s (passage %d, similarity %.2f)", g.Passage.Document, g.Passage.Index+1, g.Similarity))
		}
	}

	return mcp.NewToolResultText(sb.String()), nil
}

// handleSearchDocuments performs bare retrieval over one category.
func (s *Server) handleSearchDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cat, err := request.RequireString("category")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: category"), nil
	}
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}
	limit := request.GetInt("limit", 0)

	results, err := s.engine.Search(ctx, cat, query, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	if len(results) == 0 {
		return mcp.NewToolResultText("No passages found. The category may not be ingested yet."), nil
	}

	return mcp.NewToolResultText(formatResults(results)), nil
}

// handleListCategories returns the configured category set.
func (s *Server) handleListCategories(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cats := s.engine.Registry().All()
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = string(c)
	}
	return mcp.NewToolResultText("Categories: " + strings.Join(names, ", ")), nil
}

// formatResults converts retrieval results into a rich text format for
// agent consumption.
func formatResults(results []vectordb.Result) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d passage(s):\n", len(results)))

	for i, r := range results {
		sb.WriteString(fmt.Sprintf("\n--- Passage %d ---\n", i+1))
		sb.WriteString(fmt.Sprintf("Document: %s (passage %d)\n", r.Passage.Document, r.Passage.Index+1))
		sb.WriteString(fmt.Sprintf("Similarity: %.1f%%\n\n", r.Similarity*100))
		sb.WriteString(r.Passage.Text)
		sb.WriteString("\n")
	}

	return sb.String()
}
