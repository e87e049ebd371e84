package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/yosuke-furukawa/json5/encoding/json5"

	"github.com/samirrijal/zimroute/internal/core/domain"
	"github.com/samirrijal/zimroute/internal/core/ports"
	"github.com/samirrijal/zimroute/internal/pkg/metrics"
)

// DefaultLocale is used when neither the service nor the request sets one.
var DefaultLocale = domain.LocaleContext{
	Region:      "Zimbabwe",
	City:        "Harare",
	TransitTerm: "Kombi",
}

// InsightService turns route facts into travel advice.
type InsightService struct {
	gen    ports.TextGenerator
	locale domain.LocaleContext
	now    func() time.Time
}

// NewInsightService creates a new InsightService. gen may be nil, in which
// case every result is Unavailable.
func NewInsightService(gen ports.TextGenerator, locale domain.LocaleContext) *InsightService {
	return &InsightService{gen: gen, locale: withLocaleDefaults(locale), now: time.Now}
}

// Generate always returns a result; provider failures become Unavailable.
func (s *InsightService) Generate(ctx context.Context, req domain.InsightRequest) domain.InsightResult {
	if req.Now.IsZero() {
		req.Now = s.now()
	}
	if req.Locale == (domain.LocaleContext{}) {
		req.Locale = s.locale
	}

	res := s.generate(ctx, req)
	metrics.InsightResults.WithLabelValues(string(res.Kind)).Inc()
	return res
}

func (s *InsightService) generate(ctx context.Context, req domain.InsightRequest) domain.InsightResult {
	if s.gen == nil {
		return domain.UnavailableResult("insight provider is not configured")
	}

	text, err := s.gen.Generate(ctx, BuildInsightPrompt(req))
	if err != nil {
		reason := "insight provider call failed: " + redactSecrets(err.Error())
		slog.ErrorContext(ctx, "insight generation failed", "error", reason)
		return domain.UnavailableResult(reason)
	}
	if strings.TrimSpace(text) == "" {
		return domain.UnavailableResult("insight provider returned an empty response")
	}

	res := ParseInsight(text)
	if res.Kind == domain.InsightPlainText {
		slog.DebugContext(ctx, "insight response was not structured, keeping plain text")
	}
	return res
}

// BuildInsightPrompt renders the prompt for req. It is deterministic for fixed inputs.
func BuildInsightPrompt(req domain.InsightRequest) string {
	loc := withLocaleDefaults(req.Locale)
	tz := loc.Location
	if tz == nil {
		tz = time.UTC
	}

	mode := string(req.Mode)
	if mode == "" {
		mode = string(domain.ModeDriving)
	}
	if req.Mode.IsPublicTransit() {
		mode = loc.TransitTerm
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are a %s transportation expert giving route advice for travel in and around %s.\n", loc.Region, loc.City)
	fmt.Fprintf(&b, "Analyze this route from %s to %s.\n\n", labelOr(req.OriginLabel, "the origin"), labelOr(req.DestinationLabel, "the destination"))
	b.WriteString("Route details:\n")
	fmt.Fprintf(&b, "- Distance: %s\n", formatDistance(req.DistanceMeters))
	fmt.Fprintf(&b, "- Duration: %s\n", formatDuration(req.DurationSeconds))
	fmt.Fprintf(&b, "- Transport: %s\n", mode)
	fmt.Fprintf(&b, "- Local time: %s\n", req.Now.In(tz).Format("2006-01-02 03:04 PM"))
	if loc.Preferences != "" {
		fmt.Fprintf(&b, "- User preferences: %s\n", loc.Preferences)
	}
	b.WriteString("\nGive concise, friendly, local advice (at most 3 tips, no introduction):\n")
	b.WriteString(modeAdvice(req.Mode, loc))
	b.WriteString("Mention weather only if rain or flooding is likely to affect the route. Suggest alternatives only when congestion is likely.\n\n")
	b.WriteString("Respond with a single JSON object with keys: safety_rating (integer 1-5, 5 safest), ")
	b.WriteString("alternatives (list of strings), tips (list of strings), weather_impact (string), kombi_stops (list of strings). ")
	b.WriteString("Use an empty list or empty string for anything not applicable.\n")
	return b.String()
}

func modeAdvice(mode domain.TravelMode, loc domain.LocaleContext) string {
	switch {
	case mode.IsPublicTransit():
		return fmt.Sprintf("- For %s travel: name the known ranks and stops, typical fares and the peak hours to avoid (7-8am, 4-6pm).\n", strings.ToLower(loc.TransitTerm))
	case mode == domain.ModeWalking:
		return "- For walking: point out areas to avoid, especially after dark, and keep valuables hidden.\n"
	case mode == domain.ModeBicycling:
		return "- For cycling: note roads without shoulders, heavy kombi traffic and poor surfaces.\n"
	default:
		return fmt.Sprintf("- For driving: note congestion hot spots, road quality and parking in the %s CBD.\n", loc.City)
	}
}

func formatDistance(m *float64) string {
	if m == nil || math.IsNaN(*m) || math.IsInf(*m, 0) {
		return "unknown distance"
	}
	return strconv.FormatFloat(*m/1000, 'f', 1, 64) + " km"
}

func formatDuration(s *float64) string {
	if s == nil || math.IsNaN(*s) || math.IsInf(*s, 0) {
		return "unknown duration"
	}
	return strconv.Itoa(int(math.Round(*s/60))) + " minutes"
}

func labelOr(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func withLocaleDefaults(l domain.LocaleContext) domain.LocaleContext {
	if l.Region == "" {
		l.Region = DefaultLocale.Region
	}
	if l.City == "" {
		l.City = DefaultLocale.City
	}
	if l.TransitTerm == "" {
		l.TransitTerm = DefaultLocale.TransitTerm
	}
	return l
}

// ParseInsight classifies generator output. A JSON object, optionally inside a
// markdown code fence, becomes Structured; anything else is kept verbatim as PlainText.
func ParseInsight(text string) domain.InsightResult {
	body := stripCodeFence(text)

	var obj map[string]any
	if err := json.Unmarshal([]byte(body), &obj); err != nil || obj == nil {
		obj = nil
		if err := json5.Unmarshal([]byte(body), &obj); err != nil || obj == nil {
			return domain.PlainTextResult(text)
		}
	}
	return domain.StructuredResult(normalizeInsight(obj))
}

func normalizeInsight(obj map[string]any) domain.StructuredInsight {
	return domain.StructuredInsight{
		SafetyRating:  toRating(obj["safety_rating"]),
		Alternatives:  toStrings(obj["alternatives"]),
		Tips:          toStrings(obj["tips"]),
		WeatherImpact: toString(obj["weather_impact"]),
		KombiStops:    toStrings(obj["kombi_stops"]),
	}
}

func toRating(v any) *int {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	r := int(math.Round(f))
	return &r
}

func toStrings(v any) []string {
	out := []string{}
	switch x := v.(type) {
	case []any:
		for _, item := range x {
			if s := toString(item); s != "" {
				out = append(out, s)
			}
		}
	case string:
		if x != "" {
			out = append(out, x)
		}
	}
	return out
}

func toString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

func stripCodeFence(text string) string {
	t := strings.TrimSpace(text)
	if !strings.HasPrefix(t, "```") {
		return t
	}
	t = strings.TrimPrefix(t, "```")
	if nl := strings.IndexByte(t, '\n'); nl >= 0 {
		t = t[nl+1:] // drop the language tag line
	}
	t = strings.TrimSpace(t)
	return strings.TrimSpace(strings.TrimSuffix(t, "```"))
}

var secretParam = regexp.MustCompile(`(?i)((?:api_?key|key|token|secret)=)[^&\s"]+`)

func redactSecrets(s string) string {
	return secretParam.ReplaceAllString(s, "${1}REDACTED")
}
