// Package mcp exposes an engine as a Model Context Protocol server
// over stdio, so agent hosts can list, validate and run flows as
// tools. Run tools block until the flow stops, exactly like the HTTP
// host; a cancelled tool call pauses the run resumably.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/internal/presentation/graph"
	"github.com/aretw0/espalier/pkg/ports"
)

// RunReport is the structured payload the run and resume tools return.
type RunReport struct {
	RunID   string `json:"run_id,omitempty" jsonschema_description:"Handle for inspecting or resuming the run"`
	Outcome string `json:"outcome" jsonschema_description:"How the run ended: success, failure or paused"`
	Error   string `json:"error,omitempty" jsonschema_description:"Failure reason, when the run failed"`
}

// FlowList is the structured payload of the list_flows tool.
type FlowList struct {
	Flows []string `json:"flows"`
}

// RunList is the structured payload of the list_runs tool.
type RunList struct {
	Runs []string `json:"runs"`
}

// Server wraps an engine and exposes it as an MCP server.
type Server struct {
	engine    *espalier.Engine
	mcpServer *server.MCPServer
}

// NewServer creates the MCP server and registers the tool set.
func NewServer(engine *espalier.Engine) *Server {
	s := &Server{
		engine:    engine,
		mcpServer: server.NewMCPServer("espalier-mcp", strings.TrimSpace(espalier.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio serves on stdin/stdout until the stream closes.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_flows",
		mcp.WithDescription("List the flows available in the library."),
		mcp.WithOutputSchema[FlowList](),
	), mcp.NewStructuredToolHandler(s.handleListFlows))

	s.mcpServer.AddTool(mcp.NewTool("validate_flow",
		mcp.WithDescription("Statically analyze a flow and report findings by severity."),
		mcp.WithString("flow", mcp.Required(), mcp.Description("Flow name")),
		mcp.WithOutputSchema[validationSummary](),
	), mcp.NewStructuredToolHandler(s.handleValidateFlow))

	s.mcpServer.AddTool(mcp.NewTool("run_flow",
		mcp.WithDescription("Execute a flow and wait until it completes, fails or pauses. "+
			"Flows containing waits or delays block for their duration."),
		mcp.WithString("flow", mcp.Required(), mcp.Description("Flow name")),
		mcp.WithString("env", mcp.Description("JSON object of environment values to inject")),
		mcp.WithOutputSchema[RunReport](),
	), mcp.NewStructuredToolHandler(s.handleRunFlow))

	s.mcpServer.AddTool(mcp.NewTool("resume_run",
		mcp.WithDescription("Continue a paused or failed run from its stored position."),
		mcp.WithString("run_id", mcp.Required(), mcp.Description("Run handle from an earlier run_flow")),
		mcp.WithOutputSchema[RunReport](),
	), mcp.NewStructuredToolHandler(s.handleResumeRun))

	s.mcpServer.AddTool(mcp.NewTool("list_runs",
		mcp.WithDescription("List stored resumable runs."),
		mcp.WithOutputSchema[RunList](),
	), mcp.NewStructuredToolHandler(s.handleListRuns))

	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Render a flow's action tree as a Mermaid diagram."),
		mcp.WithString("flow", mcp.Required(), mcp.Description("Flow name")),
		mcp.WithOutputSchema[GraphResult](),
	), mcp.NewStructuredToolHandler(s.handleGetGraph))
}

// GraphResult is the structured payload of the get_graph tool.
type GraphResult struct {
	Flow    string `json:"flow"`
	Mermaid string `json:"mermaid" jsonschema_description:"Mermaid flowchart source"`
}

// validationSummary mirrors validation.Summary for the output schema,
// kept flat so the generated JSON schema stays readable in hosts.
type validationSummary struct {
	Flow      string            `json:"flow"`
	Valid     bool              `json:"valid" jsonschema_description:"False when any finding blocks execution"`
	Criticals int               `json:"criticals"`
	Errors    int               `json:"errors"`
	Warnings  int               `json:"warnings"`
	Issues    []validationIssue `json:"issues"`
}

type validationIssue struct {
	Severity string `json:"severity"`
	Path     string `json:"path,omitempty"`
	Action   string `json:"action,omitempty"`
	Message  string `json:"message"`
}

func (s *Server) handleGetGraph(_ context.Context, _ mcp.CallToolRequest, args map[string]any) (GraphResult, error) {
	name, _ := args["flow"].(string)
	flow, err := s.engine.LoadFlow(name)
	if err != nil {
		return GraphResult{}, fmt.Errorf("loading flow: %w", err)
	}
	return GraphResult{Flow: flow.Name(), Mermaid: graph.GenerateMermaid(flow, nil)}, nil
}

func (s *Server) handleListFlows(_ context.Context, _ mcp.CallToolRequest, _ map[string]any) (FlowList, error) {
	flows, err := s.engine.ListFlows()
	if err != nil {
		return FlowList{}, fmt.Errorf("listing flows: %w", err)
	}
	if flows == nil {
		flows = []string{}
	}
	return FlowList{Flows: flows}, nil
}

func (s *Server) handleValidateFlow(_ context.Context, _ mcp.CallToolRequest, args map[string]any) (validationSummary, error) {
	name, _ := args["flow"].(string)
	summary, err := s.engine.Validate(name)
	if err != nil {
		return validationSummary{}, fmt.Errorf("validating flow: %w", err)
	}

	out := validationSummary{
		Flow:      summary.Flow,
		Valid:     summary.IsValid(),
		Criticals: summary.Criticals,
		Errors:    summary.Errors,
		Warnings:  summary.Warnings,
		Issues:    make([]validationIssue, 0, len(summary.Issues)),
	}
	for _, issue := range summary.Issues {
		out.Issues = append(out.Issues, validationIssue{
			Severity: string(issue.Severity),
			Path:     issue.Path,
			Action:   issue.Action,
			Message:  issue.Message,
		})
	}
	return out, nil
}

func (s *Server) handleRunFlow(ctx context.Context, _ mcp.CallToolRequest, args map[string]any) (RunReport, error) {
	name, _ := args["flow"].(string)
	flow, err := s.engine.LoadFlow(name)
	if err != nil {
		return RunReport{}, fmt.Errorf("loading flow: %w", err)
	}

	if envStr, ok := args["env"].(string); ok && envStr != "" {
		env := map[string]any{}
		if err := json.Unmarshal([]byte(envStr), &env); err != nil {
			return RunReport{}, fmt.Errorf("parsing env: %w", err)
		}
		for key, value := range env {
			flow.Env.Set(key, value)
		}
	}

	res, err := s.engine.Execute(ctx, flow)
	if err != nil {
		return RunReport{}, err
	}
	return report(res), nil
}

func (s *Server) handleResumeRun(ctx context.Context, _ mcp.CallToolRequest, args map[string]any) (RunReport, error) {
	runID, _ := args["run_id"].(string)
	res, err := s.engine.Resume(ctx, runID)
	if err != nil {
		return RunReport{}, err
	}
	return report(res), nil
}

func (s *Server) handleListRuns(ctx context.Context, _ mcp.CallToolRequest, _ map[string]any) (RunList, error) {
	runs, err := s.engine.ListRuns(ctx)
	if err != nil {
		return RunList{}, fmt.Errorf("listing runs: %w", err)
	}
	if runs == nil {
		runs = []string{}
	}
	return RunList{Runs: runs}, nil
}

func report(res ports.RunResult) RunReport {
	out := RunReport{RunID: res.RunID, Outcome: string(res.Outcome.Code)}
	if res.Outcome.Err != nil {
		out.Error = res.Outcome.Err.Error()
	}
	return out
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("espalier://flows", "Flow Library",
		mcp.WithMIMEType("application/json"),
	), func(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		flows, err := s.engine.ListFlows()
		if err != nil {
			return nil, fmt.Errorf("listing flows: %w", err)
		}
		data, _ := json.Marshal(FlowList{Flows: flows})

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "espalier://flows",
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}
