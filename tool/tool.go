// Package tool implements the function calling subsystem that lets agents
// invoke structured capabilities (HTTP fetches, file reads, document-store
// writes) with schema-validated arguments and consistent error handling.
//
// Tools come in two side-effect classes. Pure-fetch tools (price lookups)
// are safely retryable and need no deduplication. Effectful-once tools
// (store_crop_analysis) must be idempotent and signal turn termination via
// ToolContext.EndTurn after completing, on both the "wrote" and the
// "already existed" paths.
package tool

import (
	"fmt"

	"github.com/KrishimitraAgent/KrishimitraBackend/core"
	"github.com/KrishimitraAgent/KrishimitraBackend/internal/util"
)

// Tool defines the interface for extending agent capabilities with external
// functions.
//
// Tool implementations should:
//   - Provide clear, descriptive names (snake_case) and descriptions
//   - Define a proper JSON schema for parameters
//   - Be safe for concurrent use
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description returns a human-readable description of what this tool
	// does. It is provided to the capability to guide tool selection.
	Description() string

	// Parameters returns a JSON schema describing the expected input format.
	Parameters() map[string]interface{}

	// Call executes the tool with validated arguments and a ToolContext
	// giving access to session state, artifacts and orchestration signals.
	Call(toolCtx *core.ToolContext, args map[string]interface{}) (interface{}, error)
}

// ValidationError represents parameter validation errors with detailed
// information.
type ValidationError = util.ValidationError

// ToolError represents errors that occur during tool execution. Codes used
// in this backend: VALIDATION_ERROR, EXECUTION_ERROR, NETWORK_ERROR,
// PERSISTENCE_ERROR.
type ToolError struct {
	Tool    string      `json:"tool"`              // Name of the tool that failed
	Message string      `json:"message"`           // Error message
	Code    string      `json:"code"`              // Error code for categorization
	Details interface{} `json:"details,omitempty"` // Additional error details
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Message: message,
		Code:    code,
	}
}

// IsFatal reports whether the error must abort the whole turn rather than be
// returned to the capability as a narratable failed tool result. Only
// persistence failures on the effectful-once path are fatal.
func (e *ToolError) IsFatal() bool { return e.Code == "PERSISTENCE_ERROR" }
