package common

import (
	"encoding/json"
	"os"
)

// Outcome is the machine-readable result a subcommand emits in --ci mode.
type Outcome struct {
	OK      bool     `json:"ok"`
	Task    string   `json:"task"`
	Details []string `json:"details,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// EmitOutcome writes one task's outcome as indented JSON on stdout. Success
// is inferred from err.
func EmitOutcome(task string, details []string, err error) {
	out := Outcome{OK: err == nil, Task: task, Details: details}
	if err != nil {
		out.Error = err.Error()
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(out)
}
