package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/ldi/mission/internal/rules"
	"github.com/ldi/mission/internal/store"
	"github.com/ldi/mission/internal/tracker"
	"github.com/ldi/mission/pkg/models"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func newTestTracker(t *testing.T) *tracker.Tracker {
	t.Helper()

	st, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	ctx := context.Background()
	if err := st.Init(ctx); err != nil {
		t.Fatalf("Failed to initialize store: %v", err)
	}

	rs, err := rules.Load("")
	if err != nil {
		t.Fatalf("Failed to load rules: %v", err)
	}

	tr := tracker.New(st, rs)
	if err := tr.Load(ctx); err != nil {
		t.Fatalf("Failed to load tracker: %v", err)
	}
	return tr
}

func callTool(t *testing.T, s *server.MCPServer, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()

	tool := s.GetTool(name)
	if tool == nil {
		t.Fatalf("Tool %s not found", name)
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	result, err := tool.Handler(context.Background(), req)
	if err != nil {
		t.Fatalf("Handler %s failed: %v", name, err)
	}
	return result
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()

	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("Expected text content, got %T", result.Content[0])
	}
	return text.Text
}

func TestServerInitialization(t *testing.T) {
	tr := newTestTracker(t)
	s := NewServer(tr)
	stdio := server.NewStdioServer(s)

	r, w := io.Pipe()
	stdout := &bytes.Buffer{}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		errChan <- stdio.Listen(ctx, r, stdout)
	}()

	initReq := mcp.InitializeRequest{}
	initReq.Method = "initialize"
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}

	rawReq := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "initialize",
		"params":  initReq.Params,
	}

	data, err := json.Marshal(rawReq)
	if err != nil {
		t.Fatalf("Failed to marshal request: %v", err)
	}
	w.Write(data)
	w.Write([]byte("\n"))

	// Give it a moment to process
	time.Sleep(200 * time.Millisecond)

	if stdout.Len() == 0 {
		t.Fatal("Expected response from server, got none")
	}

	var resp struct {
		JSONRPC string `json:"jsonrpc"`
		ID      int    `json:"id"`
		Result  struct {
			ServerInfo struct {
				Name string `json:"name"`
			} `json:"serverInfo"`
		} `json:"result"`
	}

	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to unmarshal response: %v\nOutput: %s", err, stdout.String())
	}

	if resp.Result.ServerInfo.Name != "Mission" {
		t.Errorf("Expected server name Mission, got %v", resp.Result.ServerInfo.Name)
	}
}

func TestToolHandlers(t *testing.T) {
	tr := newTestTracker(t)
	s := NewServer(tr)

	var taskID string

	t.Run("add_task", func(t *testing.T) {
		result := callTool(t, s, "add_task", map[string]interface{}{
			"text": "call the dentist",
		})
		if result.IsError {
			t.Fatalf("Tool returned error: %v", result.Content[0])
		}

		var created models.Task
		if err := json.Unmarshal([]byte(resultText(t, result)), &created); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if created.Icon != "Phone" {
			t.Errorf("Expected derived icon Phone, got %s", created.Icon)
		}
		if created.Difficulty != models.DifficultyEasy {
			t.Errorf("Expected derived difficulty Easy, got %s", created.Difficulty)
		}
		taskID = created.ID
	})

	t.Run("add_task_empty_title", func(t *testing.T) {
		result := callTool(t, s, "add_task", map[string]interface{}{"text": "  "})
		if !result.IsError {
			t.Fatal("Expected error result for empty title")
		}
	})

	t.Run("add_task_bad_due_date", func(t *testing.T) {
		result := callTool(t, s, "add_task", map[string]interface{}{
			"text":     "file taxes",
			"due_date": "next tuesday",
		})
		if !result.IsError {
			t.Fatal("Expected error result for malformed due date")
		}
	})

	t.Run("list_tasks", func(t *testing.T) {
		result := callTool(t, s, "list_tasks", map[string]interface{}{"filter": "pending"})
		if result.IsError {
			t.Fatalf("Tool returned error: %v", result.Content[0])
		}

		var resp struct {
			Tasks []models.Task `json:"tasks"`
		}
		if err := json.Unmarshal([]byte(resultText(t, result)), &resp); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if len(resp.Tasks) != 1 {
			t.Errorf("Expected 1 pending task, got %d", len(resp.Tasks))
		}
	})

	t.Run("list_tasks_bad_filter", func(t *testing.T) {
		result := callTool(t, s, "list_tasks", map[string]interface{}{"filter": "bogus"})
		if !result.IsError {
			t.Fatal("Expected error result for unknown filter")
		}
	})

	t.Run("get_task", func(t *testing.T) {
		result := callTool(t, s, "get_task", map[string]interface{}{"id": taskID})
		if result.IsError {
			t.Fatalf("Tool returned error: %v", result.Content[0])
		}

		var task models.Task
		if err := json.Unmarshal([]byte(resultText(t, result)), &task); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if task.Text != "call the dentist" {
			t.Errorf("Expected task title, got %s", task.Text)
		}
	})

	t.Run("set_due_date_invalid", func(t *testing.T) {
		result := callTool(t, s, "set_due_date", map[string]interface{}{
			"id":       taskID,
			"due_date": "tomorrow",
		})
		if !result.IsError {
			t.Fatal("Expected error result for malformed due date")
		}
	})

	t.Run("toggle_task", func(t *testing.T) {
		result := callTool(t, s, "toggle_task", map[string]interface{}{"id": taskID})
		if result.IsError {
			t.Fatalf("Tool returned error: %v", result.Content[0])
		}

		task, err := tr.Get(taskID)
		if err != nil {
			t.Fatalf("Failed to get task: %v", err)
		}
		if !task.Completed {
			t.Error("Expected task completed after toggle")
		}
	})

	t.Run("set_due_date_locked", func(t *testing.T) {
		result := callTool(t, s, "set_due_date", map[string]interface{}{
			"id":       taskID,
			"due_date": time.Now().Add(48 * time.Hour).Format(time.RFC3339),
		})
		if !result.IsError {
			t.Fatal("Expected error result for completed task")
		}
	})

	t.Run("status", func(t *testing.T) {
		result := callTool(t, s, "status", map[string]interface{}{})
		if result.IsError {
			t.Fatalf("Tool returned error: %v", result.Content[0])
		}

		var counts struct {
			Total     int `json:"total"`
			Completed int `json:"completed"`
		}
		if err := json.Unmarshal([]byte(resultText(t, result)), &counts); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if counts.Total != 1 || counts.Completed != 1 {
			t.Errorf("Unexpected counts: total=%d completed=%d", counts.Total, counts.Completed)
		}
	})

	t.Run("delete_task", func(t *testing.T) {
		result := callTool(t, s, "delete_task", map[string]interface{}{"id": taskID})
		if result.IsError {
			t.Fatalf("Tool returned error: %v", result.Content[0])
		}

		result = callTool(t, s, "delete_task", map[string]interface{}{"id": taskID})
		if !result.IsError {
			t.Fatal("Expected error result for missing task")
		}
	})
}
