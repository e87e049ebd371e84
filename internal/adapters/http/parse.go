package http

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	distancePart = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(km|m)\b`)
	durationPart = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(hours?|hrs?|h|mins?|minutes?|secs?|seconds?|s)\b`)
)

// parseDistance accepts meters as a number or numeric string, or display text
// such as "7.9 km" or "850 m". A nil value is absent, not an error.
func parseDistance(v any) (*float64, bool) {
	return parseQuantity(v, distancePart, func(unit string) float64 {
		if strings.EqualFold(unit, "km") {
			return 1000
		}
		return 1
	})
}

// parseDuration accepts seconds as a number or numeric string, or display text
// such as "13 mins" or "1 hour 5 mins".
func parseDuration(v any) (*float64, bool) {
	return parseQuantity(v, durationPart, func(unit string) float64 {
		switch u := strings.ToLower(unit); {
		case strings.HasPrefix(u, "h"):
			return 3600
		case strings.HasPrefix(u, "m"):
			return 60
		default:
			return 1
		}
	})
}

func parseQuantity(v any, parts *regexp.Regexp, scale func(unit string) float64) (*float64, bool) {
	if v == nil {
		return nil, true
	}
	if f, ok := toFloat(v); ok {
		return &f, true
	}
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return nil, false
	}

	matches := parts.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return nil, false
	}
	var total float64
	for _, m := range matches {
		n, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return nil, false
		}
		total += n * scale(m[2])
	}
	return &total, true
}

// toFloat reads a JSON number or numeric string.
func toFloat(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case int:
		f = float64(t)
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = n
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
