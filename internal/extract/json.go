// Package extract turns free-form capability output into validated records.
// Every entry point tolerates markdown fences, JSON embedded in prose and
// outright garbage; none of them returns an error.
package extract

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

var (
	fencePattern         = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*\\n?(.*?)\\s*```$")
	trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)
)

// StripCodeFence removes a ```json ... ``` or ``` ... ``` wrapper around the
// whole text.
func StripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	if matches := fencePattern.FindStringSubmatch(trimmed); len(matches) > 1 {
		return strings.TrimSpace(matches[1])
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimPrefix(trimmed, "json")
	trimmed = strings.TrimSuffix(trimmed, "```")
	return strings.TrimSpace(trimmed)
}

// DecodeArray runs the fence / direct / slice ladder for a list target and
// returns the object elements. ok is false when no array could be decoded.
func DecodeArray(text string) ([]map[string]any, bool) {
	var decoded []any
	if !decodeLadder(text, '[', ']', &decoded) {
		return nil, false
	}
	objects := make([]map[string]any, 0, len(decoded))
	for _, element := range decoded {
		if object, isObject := element.(map[string]any); isObject {
			objects = append(objects, object)
		}
	}
	return objects, true
}

// DecodeObject is the object-shaped counterpart of DecodeArray.
func DecodeObject(text string) (map[string]any, bool) {
	var decoded map[string]any
	if !decodeLadder(text, '{', '}', &decoded) {
		return nil, false
	}
	return decoded, decoded != nil
}

func decodeLadder(text string, open, close byte, target any) bool {
	cleaned := StripCodeFence(text)
	if cleaned == "" {
		return false
	}
	if tryDecode(cleaned, target) {
		return true
	}

	start := strings.IndexByte(cleaned, open)
	end := strings.LastIndexByte(cleaned, close)
	if start < 0 || end <= start {
		return false
	}
	return tryDecode(cleaned[start:end+1], target)
}

func tryDecode(candidate string, target any) bool {
	if json.Unmarshal([]byte(candidate), target) == nil {
		return true
	}
	repaired := trailingCommaPattern.ReplaceAllString(candidate, "$1")
	if repaired == candidate {
		return false
	}
	return json.Unmarshal([]byte(repaired), target) == nil
}

// hasString reports whether key is present with a non-blank string value.
func hasString(object map[string]any, key string) bool {
	return stringField(object, key) != ""
}

func stringField(object map[string]any, key string) string {
	switch value := object[key].(type) {
	case string:
		return strings.TrimSpace(value)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(value)
	default:
		return ""
	}
}

var numberPattern = regexp.MustCompile(`-?\d+(?:[.,]\d+)?`)

// numberField is a best-effort numeric parse; anything unusable is 0.
func numberField(object map[string]any, key string) float64 {
	switch value := object[key].(type) {
	case float64:
		return value
	case string:
		return parseNumber(value)
	default:
		return 0
	}
}

func parseNumber(text string) float64 {
	cleaned := strings.ReplaceAll(strings.TrimSpace(text), " ", "")
	if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return parsed
	}
	// "1,200" or "$85/night"
	match := numberPattern.FindString(strings.ReplaceAll(cleaned, ",", ""))
	if match == "" {
		return 0
	}
	parsed, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	return parsed
}

func intField(object map[string]any, key string) int {
	return int(numberField(object, key))
}

// amountField is numberField for money: costs and prices are never negative.
func amountField(object map[string]any, key string) float64 {
	return max(numberField(object, key), 0)
}
