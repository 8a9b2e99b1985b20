package entity

import (
	"encoding/json"
	"strings"
)

const redacted = "***"

// RedactArguments masks the values of a tool call's "variables" object.
// Variables carry credentials, so logs and replay files get the names only.
func RedactArguments(args string) string {
	if !strings.Contains(args, `"variables"`) {
		return args
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(args), &fields); err != nil {
		return `{"variables":"` + redacted + `"}`
	}
	raw, ok := fields["variables"]
	if !ok {
		return args
	}

	var vars map[string]json.RawMessage
	if err := json.Unmarshal(raw, &vars); err != nil || vars == nil {
		fields["variables"] = json.RawMessage(`"` + redacted + `"`)
	} else {
		masked := make(map[string]string, len(vars))
		for name := range vars {
			masked[name] = redacted
		}
		b, _ := json.Marshal(masked)
		fields["variables"] = b
	}

	out, err := json.Marshal(fields)
	if err != nil {
		return `{"variables":"` + redacted + `"}`
	}
	return string(out)
}
