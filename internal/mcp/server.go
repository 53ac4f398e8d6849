// Package mcp provides the stdio MCP server that lets coding agents inspect
// the shipkit install they are running under.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/go-ports/shipkit/internal/buildinfo"
	"github.com/go-ports/shipkit/internal/history"
	"github.com/go-ports/shipkit/internal/install"
)

const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = 100
)

const statusDescription = `Report the shipkit install in the agent's configuration directory: installed version, when it was installed, how many files are tracked, which shipped files were edited locally or deleted, and whether a patch backup from the last upgrade is waiting to be reapplied. Call this before editing shipkit commands, agents or workflows.` //nolint:lll

const historyDescription = `List recent shipkit install, upgrade and uninstall runs, newest first.`

// Options configures the server.
type Options struct {
	// Target is the configuration directory reported on when a tool call
	// does not name one.
	Target string
	// HistoryPath is the history database. The tool reports no runs when
	// the file does not exist.
	HistoryPath string
}

// NewServer creates and registers all shipkit tools on a new MCP server.
// It is intentionally separate from Serve so that tests and other callers can
// obtain a fully configured server without committing to the stdio transport.
func NewServer(opts Options) *mcpserver.MCPServer {
	s := mcpserver.NewMCPServer("shipkit", buildinfo.Version)
	registerTools(s, opts)
	return s
}

// Serve starts the stdio MCP server, blocking until stdin closes or ctx is
// cancelled.
func Serve(ctx context.Context, opts Options) error {
	stdio := mcpserver.NewStdioServer(NewServer(opts))
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

// registerTools wires both MCP tools into the server.
func registerTools(s *mcpserver.MCPServer, opts Options) {
	s.AddTool(mcp.NewTool("shipkit_status",
		mcp.WithDescription(statusDescription),
		mcp.WithString("target",
			mcp.Description("Configuration directory to inspect. Defaults to the server's target."),
		),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleStatus(ctx, opts, req)
	})

	s.AddTool(mcp.NewTool("shipkit_history",
		mcp.WithDescription(historyDescription),
		mcp.WithNumber("limit",
			mcp.Description(fmt.Sprintf("Max runs (default %d, max %d)", defaultHistoryLimit, maxHistoryLimit)),
		),
		mcp.WithBoolean("all_targets",
			mcp.Description("Include runs against every target, not only the server's."),
		),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleHistory(ctx, opts, req)
	})
}

// ---------------------------------------------------------------------------
// Tool handlers
// ---------------------------------------------------------------------------

func handleStatus(_ context.Context, opts Options, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	target := req.GetString("target", "")
	if target == "" {
		target = opts.Target
	}

	st, err := install.Inspect(target)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	out := map[string]any{
		"target":     st.Target,
		"installed":  st.Installed,
		"version":    st.Version,
		"files":      st.Files,
		"modified":   st.Modified,
		"missing":    st.Missing,
		"statusline": st.StatusLine,
	}
	if st.InstalledAt != "" {
		out["installed_at"] = st.InstalledAt
	}
	if st.Patches != nil {
		out["patches"] = map[string]any{
			"from_version": st.Patches.FromVersion,
			"backed_up_at": st.Patches.BackedUpAt,
			"files":        st.Patches.Files,
			"hint":         "Run /shipkit:reapply-patches to merge local edits into the new release.",
		}
	}
	return jsonResult(out)
}

func handleHistory(_ context.Context, opts Options, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := clampLimit(req.GetInt("limit", defaultHistoryLimit))
	target := opts.Target
	if req.GetBool("all_targets", false) {
		target = ""
	}

	runs := make([]map[string]any, 0)
	if _, err := os.Stat(opts.HistoryPath); errors.Is(err, fs.ErrNotExist) {
		return jsonResult(map[string]any{"runs": runs})
	}

	db, err := history.Open(opts.HistoryPath)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	defer db.Close()

	list, err := db.List(limit, target)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	for _, r := range list {
		entry := map[string]any{
			"action": r.Action,
			"target": r.Target,
			"when":   formatWhen(r.CreatedAt),
			"files":  r.Files,
		}
		if r.Action == history.ActionInstall {
			entry["version"] = r.ToVersion
			entry["transition"] = r.Transition
			if r.FromVersion != "" {
				entry["from_version"] = r.FromVersion
			}
			entry["backed_up"] = r.BackedUp
		}
		entry["removed"] = r.Removed
		runs = append(runs, entry)
	}
	return jsonResult(map[string]any{"runs": runs})
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

// clampLimit maps non-positive limits to the default and caps the rest.
func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultHistoryLimit
	}
	return min(limit, maxHistoryLimit)
}

func formatWhen(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("Jan 02 15:04")
}
