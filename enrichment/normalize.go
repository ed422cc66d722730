package enrichment

import (
	"log/slog"
	"strings"

	"github.com/poiesic/secondbrain/core"
)

// Normalize converts a parsed classification into its persisted form.
// Category and mood are trimmed and upper-cased. Missing, non-string or
// unknown values fall back to OTHER and NEUTRAL; a missing or non-string
// summary becomes "". Fallbacks for values the model did send are logged
// at Warn on logger, which may be nil.
func Normalize(raw *RawClassification, logger *slog.Logger) core.Classification {
	if logger == nil {
		logger = slog.Default()
	}
	if raw == nil {
		raw = &RawClassification{}
	}

	category := core.CategoryOther
	if s, ok := stringValue(raw.Category); ok {
		if c, err := core.ParseCategory(s); err == nil {
			category = c
		} else {
			logger.Warn("unknown category, defaulting", "category", s, "default", category)
		}
	} else if raw.Category != nil {
		logger.Warn("category is not a string, defaulting", "category", raw.Category, "default", category)
	}

	mood := core.MoodNeutral
	if s, ok := stringValue(raw.Mood); ok {
		if m, err := core.ParseMood(s); err == nil {
			mood = m
		} else {
			logger.Warn("unknown mood, defaulting", "mood", s, "default", mood)
		}
	} else if raw.Mood != nil {
		logger.Warn("mood is not a string, defaulting", "mood", raw.Mood, "default", mood)
	}

	summary, _ := stringValue(raw.Summary)

	return core.Classification{
		Category: category,
		Mood:     mood,
		Summary:  summary,
	}
}

// stringValue returns v trimmed when it is a non-blank string.
func stringValue(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}
