package ai

import (
	"fmt"
	"strings"
)

// BuildPrompt wraps the user's intent in the strict-JSON generation contract.
// The model must answer with a single JSON object matching draftSchema below.
func BuildPrompt(userPrompt string) string {
	return fmt.Sprintf(`You are an expert product designer and form architect.

Generate a COMPLETE, REALISTIC form configuration in valid JSON only, based
strictly on the following user intent:

%q

Rules:
1. Output ONLY valid JSON, no markdown and no commentary.
2. The JSON must match this schema exactly:
{
  "title": "string",
  "description": "string",
  "fields": [
    {
      "label": "string",
      "type": "text | textarea | email | number | date | mcq | checkbox | dropdown | slider",
      "required": true,
      "options": ["string"],
      "min": 1,
      "max": 5
    }
  ]
}
3. "options" is required only for mcq, checkbox and dropdown; minimum 3
   realistic options unless logically fewer.
4. "min" and "max" are required only for slider; choose sensible ranges.
5. Use a mix of field types: email for contact details, textarea for feedback,
   dropdown for long option lists, slider for ratings.
6. If a file upload is implied, request a link instead.
7. No trailing commas; every field carries all properties its type requires.`,
		strings.TrimSpace(userPrompt))
}
