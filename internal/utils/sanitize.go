package utils

import (
	"encoding/json"
	"html"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/SAP-F-2025/wellbeing-service/internal/models"
	"github.com/microcosm-cc/bluemonday"
)

const (
	DefaultMaxTextLength    = 100
	UniversityMaxTextLength = 200
	MaxAge                  = 150
)

// suspiciousPatterns are rejected anywhere in a submitted document, keys included.
var suspiciousPatterns = []string{
	"<script",
	"javascript:",
	"onerror=",
	"onclick=",
	"eval(",
	"alert(",
}

var textPolicy = bluemonday.StrictPolicy()

// SanitizeString drops markup (script bodies included) and angle brackets,
// trims and truncates to maxLength runes.
func SanitizeString(s string, maxLength int) string {
	cleaned := html.UnescapeString(textPolicy.Sanitize(s))
	cleaned = strings.NewReplacer("<", "", ">", "").Replace(cleaned)
	cleaned = strings.TrimSpace(cleaned)

	if maxLength > 0 {
		if runes := []rune(cleaned); len(runes) > maxLength {
			cleaned = strings.TrimSpace(string(runes[:maxLength]))
		}
	}
	return cleaned
}

// SanitizeText accepts any decoded JSON value; non-strings become "".
func SanitizeText(v any, maxLength int) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return SanitizeString(s, maxLength)
}

// SanitizeAge reads the leading integer of a number or string and clamps it
// to [0,150]. Anything unreadable is 0.
func SanitizeAge(v any) int {
	var n int
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0
		}
		n = int(math.Trunc(math.Max(math.Min(t, MaxAge+1), -1)))
	case json.Number:
		n = leadingInt(t.String())
	case string:
		n = leadingInt(t)
	case int:
		n = t
	default:
		return 0
	}
	return min(max(n, 0), MaxAge)
}

func leadingInt(s string) int {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		// overflow: the sign decides which bound we clamp to
		if s[0] == '-' {
			return 0
		}
		return MaxAge
	}
	return n
}

// SanitizeScore returns the number behind v, or 0.
func SanitizeScore(v any) float64 {
	if f, ok := toNumber(v); ok {
		return f
	}
	return 0
}

// SanitizeAnswers keeps numeric answers in [0,10] and treats "" or null as
// "not relevant". Any other value is dropped. Keys are backend question ids
// and pass through unchanged.
func SanitizeAnswers(raw map[string]any) map[string]models.AnswerValue {
	out := make(map[string]models.AnswerValue, len(raw))
	for key, v := range raw {
		if v == nil {
			out[key] = models.NotRelevantAnswer()
			continue
		}
		if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
			out[key] = models.NotRelevantAnswer()
			continue
		}
		if f, ok := toNumber(v); ok && f >= 0 && f <= 10 {
			out[key] = models.NumericAnswer(f)
		}
	}
	return out
}

func toNumber(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case int:
		f = float64(t)
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// FindSuspiciousContent walks a decoded JSON document and returns the first
// blocked pattern found in any key or string value.
func FindSuspiciousContent(doc any) (string, bool) {
	switch t := doc.(type) {
	case string:
		return matchSuspicious(t)
	case map[string]any:
		for k, v := range t {
			if p, ok := matchSuspicious(k); ok {
				return p, true
			}
			if p, ok := FindSuspiciousContent(v); ok {
				return p, true
			}
		}
	case []any:
		for _, v := range t {
			if p, ok := FindSuspiciousContent(v); ok {
				return p, true
			}
		}
	}
	return "", false
}

func matchSuspicious(s string) (string, bool) {
	lower := strings.ToLower(s)
	for _, p := range suspiciousPatterns {
		if strings.Contains(lower, p) {
			return p, true
		}
	}
	return "", false
}

// SanitizePersonalInfo builds the respondent block from a decoded personalInfo
// object. Unknown keys are ignored.
func SanitizePersonalInfo(raw map[string]any) models.PersonalInfo {
	return models.PersonalInfo{
		Nickname:   SanitizeText(raw["nickname"], DefaultMaxTextLength),
		Age:        SanitizeAge(raw["age"]),
		Gender:     SanitizeText(raw["gender"], DefaultMaxTextLength),
		Country:    SanitizeText(raw["country"], DefaultMaxTextLength),
		University: SanitizeText(raw["university"], UniversityMaxTextLength),
		Faculty:    SanitizeText(raw["faculty"], DefaultMaxTextLength),
		Major:      SanitizeText(raw["major"], DefaultMaxTextLength),
	}
}
