package tools

import "context"

// Tool is a capability exposed to the calling agent. Execute never returns
// domain failures as Go errors: they are encoded in the JSON result so the
// agent can read them.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]interface{}
	Execute(ctx context.Context, args map[string]interface{}) (string, error)
}

// ToolDefinition is the schema a tool advertises to the agent.
type ToolDefinition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// Definition builds the advertised schema of t.
func Definition(t Tool) ToolDefinition {
	return ToolDefinition{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters:  t.Parameters(),
	}
}
