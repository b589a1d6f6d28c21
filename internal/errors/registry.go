package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Severity Severity
	Message  string
	Detail   string
	DocURL   string
}

const docBase = "https://reactor.vango.dev/docs/errors/"

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Runtime (R001-R009)
	// ============================================

	"R001": {
		Category: CategoryRuntime,
		Severity: SeverityWarning,
		Message:  "Mutation of a read-only target ignored",
		Detail:   "The target is wrapped read-only. The write was dropped and reported as successful so strict call sites keep working.",
		DocURL:   docBase + "R001",
	},
	"R002": {
		Category: CategoryScheduler,
		Severity: SeverityError,
		Message:  "Maximum recursive updates exceeded",
		Detail:   "A job kept re-scheduling itself within one flush, usually because an effect writes state it also reads. The job was dropped for this flush.",
		DocURL:   docBase + "R002",
	},
	"R003": {
		Category: CategoryRuntime,
		Severity: SeverityWarning,
		Message:  "Value cannot be made reactive",
		Detail:   "Only Record, List, Map and Set (or an existing wrapper) can be wrapped. The value was returned unchanged.",
		DocURL:   docBase + "R003",
	},
	"R004": {
		Category: CategoryWatch,
		Severity: SeverityWarning,
		Message:  "Invalid watch flush mode",
		Detail:   `Flush must be "pre", "post" or "sync". The watcher falls back to "sync".`,
		DocURL:   docBase + "R004",
	},
	"R005": {
		Category: CategoryWatch,
		Severity: SeverityWarning,
		Message:  "Invalid watch source",
		Detail:   "A watch source must be a func() any, a ref, a computed, a wrapper or a raw container. The watcher will never fire.",
		DocURL:   docBase + "R005",
	},

	// ============================================
	// Config (C001-C009)
	// ============================================

	"C001": {
		Category: CategoryConfig,
		Severity: SeverityError,
		Message:  "Failed to load configuration",
		Detail:   "The configuration file could not be read or decoded.",
		DocURL:   docBase + "C001",
	},
	"C002": {
		Category: CategoryConfig,
		Severity: SeverityError,
		Message:  "Invalid configuration",
		Detail:   "A configuration value is out of range.",
		DocURL:   docBase + "C002",
	},

	// ============================================
	// Scenario (S001-S009)
	// ============================================

	"S001": {
		Category: CategoryScenario,
		Severity: SeverityError,
		Message:  "Failed to parse scenario",
		Detail:   "The scenario file is not valid YAML or does not match the scenario schema.",
		DocURL:   docBase + "S001",
	},
	"S002": {
		Category: CategoryScenario,
		Severity: SeverityError,
		Message:  "Unknown scenario path",
		Detail:   "A step or effect refers to a path that does not resolve to a value in the state.",
		DocURL:   docBase + "S002",
	},
	"S003": {
		Category: CategoryScenario,
		Severity: SeverityError,
		Message:  "Invalid scenario step",
		Detail:   "Each step must contain exactly one action: set, delete, add, push, pop, length, read or tick.",
		DocURL:   docBase + "S003",
	},
}

// GetAllCodes returns every registered code, sorted.
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
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
