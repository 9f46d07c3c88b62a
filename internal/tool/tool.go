// Package tool maps tool names to schema-described capabilities the model
// may request.
package tool

import (
	"context"
	"fmt"
	"regexp"

	"github.com/opencoder/chatcore/internal/schema"
)

var nameRE = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidateName rejects tool names the wire format cannot carry.
func ValidateName(name string) error {
	if !nameRE.MatchString(name) {
		return fmt.Errorf("invalid tool name %q", name)
	}
	return nil
}

// Tool is one named capability. Schema must be an object at the top level;
// Exec receives the already-validated argument object and returns the text
// sent back to the model. Execution failures are reported through the error
// and end up in a tool-result message, never as a fatal orchestrator error.
type Tool struct {
	Name               string
	Description        string
	Schema             schema.Param
	RequiresPermission bool
	Limit              OutputLimit
	Exec               func(ctx context.Context, args map[string]any) (string, error)
}
