package guard

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jongio/demo-builder-core/fieldvalidate"
	"github.com/jongio/demo-builder-core/ratelimit"
	"github.com/jongio/demo-builder-core/sanitize"
)

// MCP tool names.
const (
	ToolValidate      = "validate"
	ToolValidateField = "validate_field"
	ToolSanitize      = "sanitize"
)

// ToolServer serves the checks as MCP tools. Calls are rate limited per tool
// name by a sliding-window limiter and rejected, not queued, when the window
// is full.
type ToolServer struct {
	checker *Checker
	limiter *ratelimit.Limiter
}

// NewToolServer creates a ToolServer. A nil limiter disables rate limiting.
func NewToolServer(checker *Checker, limiter *ratelimit.Limiter) *ToolServer {
	return &ToolServer{checker: checker, limiter: limiter}
}

// MCPServer builds an MCP server with every tool registered.
func (s *ToolServer) MCPServer(name, version string) *server.MCPServer {
	srv := server.NewMCPServer(name, version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	kinds := make([]string, 0, len(Kinds()))
	for _, k := range Kinds() {
		kinds = append(kinds, string(k))
	}

	srv.AddTool(mcp.NewTool(ToolValidate,
		mcp.WithDescription("Validate a value before it is used in a shell command, HTTP request or file path"),
		mcp.WithString("kind", mcp.Required(), mcp.Enum(kinds...), mcp.Description("Validator to run")),
		mcp.WithString("value", mcp.Required(), mcp.Description("Value to validate")),
	), s.handleValidate)

	fields := make([]string, 0, len(fieldvalidate.Fields()))
	for _, f := range fieldvalidate.Fields() {
		fields = append(fields, string(f))
	}

	srv.AddTool(mcp.NewTool(ToolValidateField,
		mcp.WithDescription("Live form feedback for a project setup field. Unknown fields are valid"),
		mcp.WithString("field", mcp.Required(), mcp.Description("Field name, e.g. "+strings.Join(fields, ", "))),
		mcp.WithString("value", mcp.Description("Current field value")),
	), s.handleValidateField)

	srv.AddTool(mcp.NewTool(ToolSanitize,
		mcp.WithDescription("Make an error message safe to log: strips paths, secrets and everything after the first line"),
		mcp.WithString("message", mcp.Required(), mcp.Description("Error message to sanitize")),
	), s.handleSanitize)

	return srv
}

// ServeStdio serves the tools over stdin and stdout until the input closes.
func (s *ToolServer) ServeStdio(name, version string) error {
	return server.ServeStdio(s.MCPServer(name, version))
}

func (s *ToolServer) checkRateLimit(tool string) error {
	if s.limiter == nil || s.limiter.Allow(tool) {
		return nil
	}
	return fmt.Errorf("rate limit exceeded for tool %q, please wait before retrying", tool)
}

func (s *ToolServer) handleValidate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.checkRateLimit(ToolValidate); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	args := GetArgsMap(request)
	kind, ok := GetStringParam(args, "kind")
	if !ok {
		return mcp.NewToolResultError("kind is required"), nil
	}
	value, ok := GetStringParam(args, "value")
	if !ok {
		return mcp.NewToolResultError("value is required"), nil
	}

	res, err := s.checker.Check(Kind(kind), value)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return MarshalToolResult(res)
}

func (s *ToolServer) handleValidateField(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.checkRateLimit(ToolValidateField); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	args := GetArgsMap(request)
	field, ok := GetStringParam(args, "field")
	if !ok {
		return mcp.NewToolResultError("field is required"), nil
	}
	value, _ := GetStringParam(args, "value")

	return MarshalToolResult(fieldvalidate.Validate(field, value))
}

func (s *ToolServer) handleSanitize(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.checkRateLimit(ToolSanitize); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	message, ok := GetStringParam(GetArgsMap(request), "message")
	if !ok {
		return mcp.NewToolResultError("message is required"), nil
	}
	return MarshalToolResult(map[string]string{"message": sanitize.String(message)})
}

// GetArgsMap extracts the arguments map from an MCP tool call request.
// Returns an empty map if arguments are nil or not a map.
func GetArgsMap(request mcp.CallToolRequest) map[string]interface{} {
	if request.Params.Arguments != nil {
		if m, ok := request.Params.Arguments.(map[string]interface{}); ok {
			return m
		}
	}
	return map[string]interface{}{}
}

// GetStringParam extracts a string parameter from the arguments map.
// Returns the value and whether it was found and is a string.
func GetStringParam(args map[string]interface{}, key string) (string, bool) {
	val, ok := args[key]
	if !ok {
		return "", false
	}
	s, ok := val.(string)
	return s, ok
}

// MarshalToolResult marshals any value to JSON and returns it as an MCP tool result.
func MarshalToolResult(data interface{}) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return mcp.NewToolResultError("failed to marshal result: " + err.Error()), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}
