package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ldi/mission/internal/lifecycle"
	"github.com/ldi/mission/internal/tracker"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewServer creates a new MCP server exposing the task tracker as tools.
func NewServer(tr *tracker.Tracker) *server.MCPServer {
	s := server.NewMCPServer("Mission", "0.1.0")

	s.AddTool(mcp.NewTool("add_task",
		mcp.WithDescription("Create a task. Difficulty and icon are derived from the title and description."),
		mcp.WithString("text", mcp.Description("Task title"), mcp.Required()),
		mcp.WithString("description", mcp.Description("Task description")),
		mcp.WithString("due_date", mcp.Description("Due date (RFC 3339), omit for no deadline")),
	), addTaskHandler(tr))

	s.AddTool(mcp.NewTool("list_tasks",
		mcp.WithDescription("List tasks by lifecycle view (all|pending|active|completed|missed)."),
		mcp.WithString("filter", mcp.Description("Lifecycle filter (defaults to all)")),
	), listTasksHandler(tr))

	s.AddTool(mcp.NewTool("get_task",
		mcp.WithDescription("Get a single task by id."),
		mcp.WithString("id", mcp.Description("Task id"), mcp.Required()),
	), getTaskHandler(tr))

	s.AddTool(mcp.NewTool("toggle_task",
		mcp.WithDescription("Toggle a task's completion flag."),
		mcp.WithString("id", mcp.Description("Task id"), mcp.Required()),
	), toggleTaskHandler(tr))

	s.AddTool(mcp.NewTool("set_due_date",
		mcp.WithDescription("Change or clear a task's due date. Refused once completed or within 5 minutes of the current due date."),
		mcp.WithString("id", mcp.Description("Task id"), mcp.Required()),
		mcp.WithString("due_date", mcp.Description("New due date (RFC 3339), omit to clear")),
	), setDueDateHandler(tr))

	s.AddTool(mcp.NewTool("delete_task",
		mcp.WithDescription("Delete a task."),
		mcp.WithString("id", mcp.Description("Task id"), mcp.Required()),
	), deleteTaskHandler(tr))

	s.AddTool(mcp.NewTool("status",
		mcp.WithDescription("Summarize the task list per lifecycle state."),
	), statusHandler(tr))

	return s
}

// Serve starts the MCP server on stdio.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func addTaskHandler(tr *tracker.Tracker) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text := mcp.ParseString(request, "text", "")
		description := mcp.ParseString(request, "description", "")

		var due *time.Time
		if raw := mcp.ParseString(request, "due_date", ""); raw != "" {
			parsed, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("invalid due_date: %v", err)), nil
			}
			due = &parsed
		}

		t, err := tr.Add(ctx, text, description, due)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		data, err := json.Marshal(t)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}

func listTasksHandler(tr *tracker.Tracker) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		filter := lifecycle.Filter(mcp.ParseString(request, "filter", string(lifecycle.FilterAll)))
		if !filter.Valid() {
			return mcp.NewToolResultError(fmt.Sprintf("unknown filter: %s", filter)), nil
		}

		tasks := tr.List(filter)
		data, err := json.Marshal(map[string]interface{}{"tasks": tasks})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}

func getTaskHandler(tr *tracker.Tracker) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := mcp.ParseString(request, "id", "")

		t, err := tr.Get(id)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("task with id '%s' not found", id)), nil
		}

		data, err := json.Marshal(t)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}

func toggleTaskHandler(tr *tracker.Tracker) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := mcp.ParseString(request, "id", "")

		t, err := tr.Toggle(ctx, id)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		state := "pending"
		if t.Completed {
			state = "completed"
		}
		return mcp.NewToolResultText(fmt.Sprintf("Task '%s' is now %s", t.Text, state)), nil
	}
}

func setDueDateHandler(tr *tracker.Tracker) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := mcp.ParseString(request, "id", "")

		var due *time.Time
		if raw := mcp.ParseString(request, "due_date", ""); raw != "" {
			parsed, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("invalid due_date: %v", err)), nil
			}
			due = &parsed
		}

		if _, err := tr.SetDueDate(ctx, id, due); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText("Due date updated successfully"), nil
	}
}

func deleteTaskHandler(tr *tracker.Tracker) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := mcp.ParseString(request, "id", "")

		if err := tr.Delete(ctx, id); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText("Task deleted successfully"), nil
	}
}

func statusHandler(tr *tracker.Tracker) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		data, err := json.Marshal(tr.Counts())
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}
