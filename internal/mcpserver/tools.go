package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// SearchInput is the input schema for the search_documents tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the question or phrase to search the ingested documents for"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"maximum number of chunks to return (default from config)"`
}

// SearchOutput is the output schema for the search_documents tool.
type SearchOutput struct {
	Results []SearchResult `json:"results"`
	Count   int            `json:"count"`
}

// SearchResult is a single retrieved chunk.
type SearchResult struct {
	DocumentName string  `json:"document_name"`
	Page         int     `json:"page"`
	Score        float32 `json:"score"`
	Content      string  `json:"content"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_documents",
		Description: "Search the ingested document corpus and return the most similar chunks",
	}, s.handleSearch)
}

func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	result, err := s.ragService.Query(ctx, input.Query, input.TopK)
	if err != nil {
		s.logger.Error("search_documents failed", "error", err)
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchResult, len(result.Matches)),
		Count:   len(result.Matches),
	}
	for i, m := range result.Matches {
		output.Results[i] = SearchResult{
			DocumentName: m.Chunk.Doc.Name,
			Page:         m.Chunk.PageNum,
			Score:        m.Score,
			Content:      m.Chunk.Content,
		}
	}
	return nil, output, nil
}
