// Package mcp provides an MCP (Model Context Protocol) server that lets
// clients run and compare simulations.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/robertpaananen/llpp/internal/constants"
	"github.com/robertpaananen/llpp/internal/logging"
	"github.com/robertpaananen/llpp/internal/ratelimit"
	"github.com/robertpaananen/llpp/internal/simulation"
	"github.com/robertpaananen/llpp/internal/trace"
)

// Upper bounds on a single tool call.
const (
	maxAgents = 10000
	maxTicks  = 10000
)

// Server wraps the MCP SDK server and the simulation runner.
type Server struct {
	server       *sdk.Server
	root         string
	runner       *simulation.Runner
	traces       *trace.Store
	toolLimiters ratelimit.ToolLimiters
	auditLogger  *AuditLogger
	logger       *slog.Logger
}

// Config holds server configuration.
type Config struct {
	Name     string // Server name (e.g., "llpp")
	Version  string // Server version
	Root     string // Directory scenario paths are confined to
	TraceDir string // Trace database directory; empty disables recording
	Workers  int    // Workers for the parallel strategies
	Logger   *slog.Logger
}

// NewServer creates a new MCP server with the llpp tools registered.
func NewServer(cfg *Config) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, &sdk.ServerOptions{
		InitializedHandler: func(ctx context.Context, req *sdk.InitializedRequest) {
			logger.Debug("mcp client initialized")
		},
	})

	runner := simulation.NewRunner()
	runner.Workers = cfg.Workers
	runner.Logger = logger

	s := &Server{
		server:       mcpServer,
		root:         cfg.Root,
		runner:       runner,
		toolLimiters: ratelimit.NewToolLimiters(),
		auditLogger:  NewAuditLogger(filepath.Join(cfg.Root, constants.DirName)),
		logger:       logger,
	}

	if cfg.TraceDir != "" {
		traces, err := trace.Open(cfg.TraceDir)
		if err != nil {
			s.auditLogger.Close()
			return nil, fmt.Errorf("failed to open trace store: %w", err)
		}
		s.traces = traces
	}

	s.registerTools()
	return s, nil
}

// Run starts the MCP server over stdio transport.
// This blocks until the client disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	notifySignals(sigChan)
	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	return s.server.Run(ctx, &sdk.StdioTransport{})
}

// Close releases the trace store and audit log.
func (s *Server) Close() error {
	var firstErr error
	if s.traces != nil {
		if err := s.traces.Close(); err != nil {
			firstErr = err
		}
	}
	if err := s.auditLogger.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
