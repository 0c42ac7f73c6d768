package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Hook Errors (H001-H019)
	// ============================================

	"H001": {
		Category:   CategoryHooks,
		Message:    "Hook order changed between renders",
		Detail:     "The hook called at this slot has a different kind than the hook recorded at the same position on the previous render.",
		Suggestion: "Call hooks unconditionally, in the same order, on every render.",
	},
	"H002": {
		Category:   CategoryHooks,
		Message:    "Hook count changed between renders",
		Detail:     "The render called more or fewer hooks than the previous render of the same instance. Hooks were probably skipped behind a condition or an early return.",
		Suggestion: "Move conditions inside the hook callbacks instead of around the hook calls.",
	},
	"H003": {
		Category:   CategoryHooks,
		Message:    "State setter called after unmount",
		Detail:     "The instance owning this state has been torn down; the update was dropped.",
		Suggestion: "Cancel timers and subscriptions in the effect cleanup that started them.",
	},
	"H004": {
		Category:   CategoryHooks,
		Message:    "Dependency list length changed",
		Detail:     "An effect or memo received a dependency list with a different length than on the previous render. It is treated as changed.",
		Suggestion: "Pass dependency lists of a fixed length.",
	},
	"H005": {
		Category:   CategoryHooks,
		Message:    "Instance is not renderable",
		Detail:     "The instance is unknown, already unmounted, or is in the middle of another render pass.",
	},

	// ============================================
	// Effect Errors (H020-H039)
	// ============================================

	"H020": {
		Category:   CategoryEffect,
		Message:    "Effect execution failed",
		Detail:     "An effect setup or cleanup function panicked. The scheduler recovered and continued with the remaining effects.",
		Suggestion: "Return errors through state instead of panicking inside effects.",
	},

	// ============================================
	// Context Errors (H040-H059)
	// ============================================

	"H040": {
		Category:   CategoryContext,
		Message:    "No provider for required context",
		Detail:     "The context was created without a default value and no ancestor instance provides it.",
		Suggestion: "Render a Provide call for this context in an ancestor, or create the context with a default.",
	},
	"H041": {
		Category: CategoryContext,
		Message:  "Instance does not provide this context",
	},

	// ============================================
	// Config Errors (C001-C019)
	// ============================================

	"C001": {
		Category: CategoryConfig,
		Message:  "Invalid configuration file",
		Detail:   "The configuration file could not be parsed as YAML.",
	},
	"C002": {
		Category:   CategoryConfig,
		Message:    "Invalid configuration value",
		Suggestion: "Check the value against the documented options.",
	},
	"C003": {
		Category:   CategoryConfig,
		Message:    "Configuration file not found",
		Suggestion: "Run 'hookrt config init' to write a default hookrt.yaml.",
	},

	// ============================================
	// CLI Errors (C020-C039)
	// ============================================

	"C020": {
		Category: CategoryCLI,
		Message:  "Devtools server failed",
	},
	"C021": {
		Category:   CategoryCLI,
		Message:    "Unknown error code",
		Suggestion: "Run 'hookrt errors' to list the registered codes.",
	},
}

// GetAllCodes returns all registered error codes in sorted order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	tmpl, ok := registry[code]
	return tmpl, ok
}

// Register adds or replaces an error template.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
