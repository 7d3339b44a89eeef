package corpus

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/codelinechef/AI-Query-ChatBot/internal/models"
)

var endpointRe = regexp.MustCompile(`/api/v\d+/\S+`)

// ExtractAPIInfo parses a matched document into a structured API description:
// the endpoint path, the request payload and response body found in its code
// blocks, and a curl example. Fields that cannot be parsed stay empty.
func ExtractAPIInfo(doc models.Document) models.APIInfo {
	info := models.APIInfo{Name: doc.Title}
	if info.Name == "" {
		info.Name = "Unknown API"
	}

	info.Endpoint = endpointRe.FindString(doc.Content)

	for _, code := range codeBlocks(doc) {
		lower := strings.ToLower(code)
		switch {
		case info.RequiredPayload == nil && (strings.Contains(lower, "post") || strings.Contains(lower, "request")):
			info.RequiredPayload = firstJSONObject(code)
		case info.ResponseBody == nil && (strings.Contains(lower, "response") || strings.Contains(lower, "return")):
			info.ResponseBody = firstJSONObject(code)
		}
		if info.Example == "" && strings.Contains(lower, "curl") {
			info.Example = code
		}
	}

	return info
}

func codeBlocks(doc models.Document) []string {
	raw, ok := doc.Metadata["code_blocks"].(string)
	if !ok || raw == "" {
		return nil
	}
	var blocks []string
	if err := json.Unmarshal([]byte(raw), &blocks); err != nil {
		return nil
	}
	return blocks
}

// firstJSONObject returns the first balanced {...} substring of text that
// parses as a JSON object.
func firstJSONObject(text string) map[string]interface{} {
	for start := 0; start < len(text); start++ {
		if text[start] != '{' {
			continue
		}
		depth := 0
		inString := false
		for i := start; i < len(text); i++ {
			switch c := text[i]; {
			case inString:
				if c == '\\' {
					i++
				} else if c == '"' {
					inString = false
				}
			case c == '"':
				inString = true
			case c == '{':
				depth++
			case c == '}':
				depth--
				if depth == 0 {
					var obj map[string]interface{}
					if err := json.Unmarshal([]byte(text[start:i+1]), &obj); err == nil {
						return obj
					}
					i = len(text) // candidate rejected, resume outer scan
				}
			}
		}
	}
	return nil
}
