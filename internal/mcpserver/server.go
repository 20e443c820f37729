// Package mcpserver exposes document retrieval to MCP clients over
// streamable HTTP, so agents can query the ingested corpus directly
// without going through the chat pipeline.
package mcpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/docchat-ai/docchat/internal/rag"
	"github.com/docchat-ai/docchat/pkg/logger_i"
)

const version = "1.0.0"

type Server struct {
	ragService rag.Service
	server     *mcp.Server
	logger     *logger_i.Logger
}

func NewServer(ragService rag.Service) *Server {
	s := &Server{
		ragService: ragService,
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "docchat",
			Version: version,
		}, nil),
		logger: logger_i.NewLogger("mcp_server"),
	}
	s.registerTools()
	return s
}

// RunHTTP serves MCP over streamable HTTP until ctx is cancelled.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	s.logger.Info("MCP server is listening at", "address", addr)
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
