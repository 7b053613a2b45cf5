// Package mcp provides the stdio MCP server exposing task tools for coding agents.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/go-ports/todo/internal/buildinfo"
	"github.com/go-ports/todo/internal/models"
	"github.com/go-ports/todo/internal/service"
	"github.com/go-ports/todo/internal/store"
)

const addDescription = `Add a task to the user's to-do list. Returns the created task with its assigned id.`

const listDescription = `List every task in insertion order with its id and done flag. Call this before todo_done or todo_remove to look up ids.`

const clearDescription = `Remove ALL tasks. This cannot be undone. Only call this when the user explicitly asks to clear the list.`

const historyDescription = `Show recent changes to the task list (add, done, remove, clear), newest first.`

// NewServer creates and registers all task tools on a new MCP server.
// It is separate from Serve so that tests can obtain a fully configured
// server without committing to the stdio transport.
func NewServer(svc *service.Service) *mcpserver.MCPServer {
	s := mcpserver.NewMCPServer("todo", buildinfo.Version,
		mcpserver.WithToolCapabilities(false),
	)
	registerTools(s, svc)
	return s
}

// Serve runs the MCP server over in/out, blocking until in closes or ctx is done.
func Serve(ctx context.Context, svc *service.Service, in io.Reader, out io.Writer) error {
	stdio := mcpserver.NewStdioServer(NewServer(svc))
	if err := stdio.Listen(ctx, in, out); err != nil && ctx.Err() == nil {
		return fmt.Errorf("mcp: %w", err)
	}
	return nil
}

// registerTools wires all task tools into the server.
func registerTools(s *mcpserver.MCPServer, svc *service.Service) {
	s.AddTool(mcp.NewTool("todo_add",
		mcp.WithDescription(addDescription),
		mcp.WithString("description",
			mcp.Description("What needs doing. Must not be blank."),
			mcp.Required(),
		),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleAdd(ctx, svc, req)
	})

	s.AddTool(mcp.NewTool("todo_list",
		mcp.WithDescription(listDescription),
		mcp.WithBoolean("pending_only",
			mcp.Description("Only return tasks that are not done (default false)."),
		),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleList(ctx, svc, req)
	})

	s.AddTool(mcp.NewTool("todo_done",
		mcp.WithDescription("Mark a task as done. Marking a done task again is a no-op."),
		mcp.WithNumber("id",
			mcp.Description("Task id as shown by todo_list."),
			mcp.Required(),
		),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleDone(ctx, svc, req)
	})

	s.AddTool(mcp.NewTool("todo_remove",
		mcp.WithDescription("Delete a task. Remaining tasks keep their ids."),
		mcp.WithNumber("id",
			mcp.Description("Task id as shown by todo_list."),
			mcp.Required(),
		),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleRemove(ctx, svc, req)
	})

	s.AddTool(mcp.NewTool("todo_clear",
		mcp.WithDescription(clearDescription),
	), func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleClear(ctx, svc)
	})

	s.AddTool(mcp.NewTool("todo_history",
		mcp.WithDescription(historyDescription),
		mcp.WithNumber("limit",
			mcp.Description("Max events (default from history.limit)."),
		),
		mcp.WithString("action",
			mcp.Description("Only return events of this action."),
			mcp.Enum(models.ValidActions...),
		),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleHistory(ctx, svc, req)
	})
}

// ---------------------------------------------------------------------------
// Tool handlers
// ---------------------------------------------------------------------------

func handleAdd(ctx context.Context, svc *service.Service, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	task, err := svc.Add(ctx, req.GetString("description", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(task)
}

func handleList(ctx context.Context, svc *service.Service, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tasks, err := svc.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	open := countOpen(tasks)
	total := len(tasks)
	if req.GetBool("pending_only", false) {
		tasks = pending(tasks)
	}
	return jsonResult(map[string]any{
		"total": total,
		"open":  open,
		"tasks": tasks,
	})
}

func handleDone(ctx context.Context, svc *service.Service, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := taskID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	task, err := svc.Complete(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(task)
}

func handleRemove(ctx context.Context, svc *service.Service, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := taskID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	task, err := svc.Remove(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(task)
}

func handleClear(ctx context.Context, svc *service.Service) (*mcp.CallToolResult, error) {
	n, err := svc.Clear(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"cleared": n})
}

func handleHistory(ctx context.Context, svc *service.Service, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	events, err := svc.History(ctx, req.GetInt("limit", 0), req.GetString("action", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{
		"showing": len(events),
		"events":  events,
	})
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// taskID reads the id argument, accepting a JSON number or a numeric string.
func taskID(req mcp.CallToolRequest) (int, error) {
	raw, ok := req.GetArguments()["id"]
	if !ok {
		return 0, fmt.Errorf("%w: missing task id", store.ErrInvalidInput)
	}
	switch v := raw.(type) {
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("%w: task id %v is not an integer", store.ErrInvalidInput, v)
		}
		return store.ParseID(strconv.Itoa(int(v)))
	case int:
		return store.ParseID(strconv.Itoa(v))
	case int64:
		return store.ParseID(strconv.FormatInt(v, 10))
	case json.Number:
		return store.ParseID(v.String())
	case string:
		return store.ParseID(v)
	default:
		return 0, fmt.Errorf("%w: task id %v is not a number", store.ErrInvalidInput, raw)
	}
}

func countOpen(tasks []models.Task) int {
	n := 0
	for _, t := range tasks {
		if !t.Done {
			n++
		}
	}
	return n
}

func pending(tasks []models.Task) []models.Task {
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if !t.Done {
			out = append(out, t)
		}
	}
	return out
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	var sb strings.Builder
	enc := json.NewEncoder(&sb)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(strings.TrimSuffix(sb.String(), "\n")), nil
}
