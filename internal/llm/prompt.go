package llm

import (
	"strings"
)

const promptTemplate = `You are an expert algorithm analyst.
Analyze the Time and Space complexity of the following code.

Return ONLY a JSON object in this exact format, with no markdown formatting:
{
    "time_complexity": "O(...)",
    "space_complexity": "O(...)",
    "explanation": "One sentence reason.",
    "time_confidence": "high | medium | low",
    "space_confidence": "high | medium | low"
}

Code:
`

// BuildPrompt embeds code verbatim into the analysis instructions.
func BuildPrompt(code string) string {
	var b strings.Builder
	b.Grow(len(promptTemplate) + len(code) + 1)
	b.WriteString(promptTemplate)
	b.WriteString(code)
	b.WriteString("\n")
	return b.String()
}

var fenceReplacer = strings.NewReplacer("```json", "", "```", "")

// CleanOutput strips markdown code fences the model sometimes wraps its JSON
// in. The result is not checked for being valid JSON.
func CleanOutput(text string) string {
	return strings.TrimSpace(fenceReplacer.Replace(text))
}
