package agent

import "encoding/json"

// parseIfJSON promotes a string that parses as JSON to its native value,
// leaving plain text untouched (mirrors engine/mockengine's same rule for
// LLM/script strategy outputs).
func parseIfJSON(text string) any {
	var parsed any
	if err := json.Unmarshal([]byte(text), &parsed); err == nil {
		return parsed
	}
	return text
}
