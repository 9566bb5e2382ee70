package ingest

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/moltcities/pulse/kit"
)

// RegisterMCP registers all pulse tools on an MCP server.
func (svc *Service) RegisterMCP(srv *mcp.Server) {
	svc.registerSummary(srv)
	svc.registerLeaderboard(srv)
	svc.registerAgentHistory(srv)
	svc.registerJobStats(srv)
	svc.registerMoves(srv)
	svc.registerScrape(srv)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func decodeEmpty(r *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
	return &kit.MCPDecodeResult{Request: nil}, nil
}

func (svc *Service) registerSummary(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "pulse_summary",
		Description: "Get marketplace headline counts: agents, active, new in 24h, open and completed jobs",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(ctx context.Context, _ any) (any, error) {
		return svc.Summary(ctx)
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeEmpty)
}

func (svc *Service) registerLeaderboard(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "pulse_leaderboard",
		Description: "Get the top 50 agents by reputation",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(ctx context.Context, _ any) (any, error) {
		return svc.Leaderboard(ctx)
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeEmpty)
}

func (svc *Service) registerAgentHistory(srv *mcp.Server) {
	type req struct {
		AgentID string `json:"agent_id"`
	}

	tool := &mcp.Tool{
		Name:        "pulse_agent_history",
		Description: "Get an agent's reputation history, oldest first, up to 100 samples",
		InputSchema: inputSchema(map[string]any{
			"agent_id": map[string]any{"type": "string", "description": "Agent ID"},
		}, []string{"agent_id"}),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)
		if _, err := svc.GetAgent(ctx, p.AgentID); err != nil {
			return nil, err
		}
		return svc.AgentHistory(ctx, p.AgentID)
	}

	decode := func(r *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var p req
		if err := json.Unmarshal(r.Params.Arguments, &p); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &p}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

func (svc *Service) registerJobStats(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "pulse_job_stats",
		Description: "Get hourly job-market samples for the last 7 days, oldest first",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(ctx context.Context, _ any) (any, error) {
		return svc.JobStats(ctx)
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeEmpty)
}

func (svc *Service) registerMoves(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "pulse_moves",
		Description: "Get recent leaderboard rank moves, newest first, up to 20",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(ctx context.Context, _ any) (any, error) {
		return svc.Moves(ctx)
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeEmpty)
}

func (svc *Service) registerScrape(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "pulse_scrape",
		Description: "Run one ingestion cycle now: fetch agents and jobs, record history and rank moves",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(ctx context.Context, _ any) (any, error) {
		return svc.Scrape(ctx)
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeEmpty)
}
