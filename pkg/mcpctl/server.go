// Package mcpctl exposes the driver's control-plane surface over MCP:
// driver_status, last_metrics, run_cycles, set_throttle, request_abort,
// save_state, load_state (§3 domain stack; grounded on the teacher's
// pkg/mcp tool-registration idiom).
package mcpctl

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	mcpproto "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/mycelia-sim/ccdriver/pkg/driver"
	"github.com/mycelia-sim/ccdriver/pkg/kernel"
	"github.com/mycelia-sim/ccdriver/pkg/orchestrator"
)

const (
	toolStatus          = "driver_status"
	toolLastMetrics     = "last_metrics"
	toolRunCycles       = "run_cycles"
	toolSetThrottle     = "set_throttle"
	toolRequestAbort    = "request_abort"
	toolSaveState       = "save_state"
	toolLoadState       = "load_state"
	toolSnapshotSummary = "mycel_snapshot_summary"
)

// NewServer builds an MCP server exposing d's control-plane surface.
func NewServer(d *driver.Driver) *mcpserver.MCPServer {
	s := mcpserver.NewMCPServer(
		"mycelia-ccdriver-mcp",
		"1.0.0",
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithRecovery(),
	)
	registerTools(s, d)
	return s
}

// NewHandler wraps NewServer in a stateless streamable-HTTP handler, the
// same shape the teacher's pkg/mcp.NewHandler exposes.
func NewHandler(d *driver.Driver) http.Handler {
	s := NewServer(d)
	streamable := mcpserver.NewStreamableHTTPServer(s, mcpserver.WithStateLess(true))
	return http.HandlerFunc(streamable.ServeHTTP)
}

func registerTools(s *mcpserver.MCPServer, d *driver.Driver) {
	s.AddTool(mcpproto.NewTool(toolStatus,
		mcpproto.WithDescription("Report whether a gpu_index is initialized and its autonomous-cycle phase."),
		mcpproto.WithNumber("gpu_index", mcpproto.Required(), mcpproto.Description("Device slot index.")),
	), func(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
		args := req.GetArguments()
		gpu := getInt(args, "gpu_index", 0)
		initialized, phase := d.Status(gpu)
		return structuredResult("status", map[string]any{
			"initialized": initialized,
			"phase":       phaseName(phase),
			"session_id":  d.SessionID(),
		})
	})

	s.AddTool(mcpproto.NewTool(toolLastMetrics,
		mcpproto.WithDescription("Return the most recent profiled-enqueue metrics for a gpu_index."),
		mcpproto.WithNumber("gpu_index", mcpproto.Required(), mcpproto.Description("Device slot index.")),
	), func(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
		args := req.GetArguments()
		gpu := getInt(args, "gpu_index", 0)
		m, err := d.LastMetrics(gpu)
		if err != nil {
			return errResult(err.Error()), nil
		}
		return structuredResult("metrics", m)
	})

	s.AddTool(mcpproto.NewTool(toolRunCycles,
		mcpproto.WithDescription("Run mycel_agent_cycle: chain SubQG -> bridge -> Izhikevich -> agent -> Adam -> Hebbian -> mycel reinforce/diffuse for N cycles."),
		mcpproto.WithNumber("gpu_index", mcpproto.Required()),
		mcpproto.WithNumber("cycles", mcpproto.Required()),
		mcpproto.WithNumber("sensory_gain", mcpproto.Description("Defaults to 1.0.")),
		mcpproto.WithNumber("learning_rate", mcpproto.Description("Defaults to 0.01.")),
		mcpproto.WithNumber("dt", mcpproto.Description("Defaults to 0.1 (cycle_vram_organism's fixed dt).")),
	), func(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
		args := req.GetArguments()
		gpu := getInt(args, "gpu_index", 0)
		cycles := getInt(args, "cycles", 1)
		sensoryGain := getFloat(args, "sensory_gain", 1.0)
		learningRate := getFloat(args, "learning_rate", 0.01)
		dt := getFloat(args, "dt", 0.1)

		completed, err := d.RunCycles(gpu, cycles, float32(sensoryGain), float32(learningRate), float32(dt))
		if err != nil {
			return errResult(err.Error()), nil
		}
		return structuredResult("cycles completed", map[string]any{"completed": completed})
	})

	s.AddTool(mcpproto.NewTool(toolSetThrottle,
		mcpproto.WithDescription("Insert a host sleep (ms) after every profiled enqueue matching the throttle scope."),
		mcpproto.WithNumber("gpu_index", mcpproto.Required()),
		mcpproto.WithNumber("ms", mcpproto.Required()),
	), func(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
		args := req.GetArguments()
		gpu := getInt(args, "gpu_index", 0)
		ms := getInt(args, "ms", 0)
		if err := d.SetThrottle(gpu, ms, kernel.ThrottleScope{GPU: gpu}); err != nil {
			return errResult(err.Error()), nil
		}
		return structuredResult("throttle set", map[string]any{"gpu_index": gpu, "ms": ms})
	})

	s.AddTool(mcpproto.NewTool(toolRequestAbort,
		mcpproto.WithDescription("Set the abort flag; the next Hebbian-chunk or cycle boundary returns success with partial progress."),
		mcpproto.WithNumber("gpu_index", mcpproto.Required()),
	), func(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
		args := req.GetArguments()
		gpu := getInt(args, "gpu_index", 0)
		if err := d.RequestAbort(gpu); err != nil {
			return errResult(err.Error()), nil
		}
		return structuredResult("abort requested", map[string]any{"gpu_index": gpu})
	})

	s.AddTool(mcpproto.NewTool(toolSaveState,
		mcpproto.WithDescription("Save the full mycel state to path using the §4.11 binary layout."),
		mcpproto.WithNumber("gpu_index", mcpproto.Required()),
		mcpproto.WithString("path", mcpproto.Required()),
	), func(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
		args := req.GetArguments()
		gpu := getInt(args, "gpu_index", 0)
		path := getString(args, "path", "")
		if path == "" {
			return errResult("path is required"), nil
		}
		if err := d.SaveState(gpu, path); err != nil {
			return errResult(err.Error()), nil
		}
		return textResult(fmt.Sprintf("state saved to %s", path)), nil
	})

	s.AddTool(mcpproto.NewTool(toolLoadState,
		mcpproto.WithDescription("Load a mycel state from path, verifying magic/version before replacing state."),
		mcpproto.WithNumber("gpu_index", mcpproto.Required()),
		mcpproto.WithString("path", mcpproto.Required()),
	), func(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
		args := req.GetArguments()
		gpu := getInt(args, "gpu_index", 0)
		path := getString(args, "path", "")
		if path == "" {
			return errResult("path is required"), nil
		}
		if err := d.LoadState(gpu, path); err != nil {
			return errResult(err.Error()), nil
		}
		return textResult(fmt.Sprintf("state loaded from %s", path)), nil
	})

	s.AddTool(mcpproto.NewTool(toolSnapshotSummary,
		mcpproto.WithDescription("Return a msgpack-encoded aggregate summary (counts, mean nutrient/mood) of gpu_index's mycel state, base64-wrapped for transport."),
		mcpproto.WithNumber("gpu_index", mcpproto.Required()),
	), func(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
		args := req.GetArguments()
		gpu := getInt(args, "gpu_index", 0)
		b, err := d.MycelSnapshotSummary(gpu)
		if err != nil {
			return errResult(err.Error()), nil
		}
		return structuredResult("snapshot summary (msgpack, base64)", map[string]any{
			"msgpack_base64": base64.StdEncoding.EncodeToString(b),
		})
	})
}

func phaseName(p orchestrator.Phase) string {
	switch p {
	case orchestrator.PhaseRunning:
		return "running"
	case orchestrator.PhaseFinishing:
		return "finishing"
	default:
		return "idle"
	}
}

func textResult(text string) *mcpproto.CallToolResult {
	return &mcpproto.CallToolResult{
		Content: []mcpproto.Content{mcpproto.TextContent{Type: "text", Text: text}},
	}
}

func errResult(msg string) *mcpproto.CallToolResult {
	return &mcpproto.CallToolResult{
		Content: []mcpproto.Content{mcpproto.TextContent{Type: "text", Text: "Error: " + msg}},
		IsError: true,
	}
}

func structuredResult(summary string, data any) (*mcpproto.CallToolResult, error) {
	blob, err := json.Marshal(data)
	if err != nil {
		return errResult(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return &mcpproto.CallToolResult{
		Content: []mcpproto.Content{
			mcpproto.TextContent{Type: "text", Text: summary},
			mcpproto.TextContent{Type: "text", Text: string(blob)},
		},
	}, nil
}

func getString(args map[string]any, key, def string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return def
}

func getInt(args map[string]any, key string, def int) int {
	if v, ok := args[key].(float64); ok {
		return int(v)
	}
	return def
}

func getFloat(args map[string]any, key string, def float64) float64 {
	if v, ok := args[key].(float64); ok {
		return v
	}
	return def
}
