package tools

import (
	"fmt"
	"strings"
)

// smellMarkers are substrings that each count as one issue when present.
var smellMarkers = []string{"TODO", "print(", "global "}

// DetectSmells counts how many smell markers occur in code. Each marker
// counts once no matter how often it appears.
func DetectSmells(code string) int {
	issues := 0
	for _, marker := range smellMarkers {
		if strings.Contains(code, marker) {
			issues++
		}
	}
	return issues
}

// detectSmellsTool wraps DetectSmells as a Tool taking the code string.
func detectSmellsTool(args ...any) (map[string]any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("detect_smells: want 1 argument, got %d", len(args))
	}
	code, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("detect_smells: want string argument, got %T", args[0])
	}
	return map[string]any{"issues": DetectSmells(code)}, nil
}
