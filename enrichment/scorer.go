package enrichment

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/poiesic/secondbrain/ai"
	"github.com/poiesic/secondbrain/core"
	"github.com/poiesic/secondbrain/storage"
)

// Opinion is a parsed boldness assessment.
type Opinion struct {
	Boldness    core.Boldness
	Explanation *string
	Confidence  *int
}

// ParseOpinion decodes scorer output. Code fences are removed wherever they
// appear. The boldness must name one of the four levels; explanation and
// confidence are optional and dropped when malformed.
func ParseOpinion(raw string) (*Opinion, error) {
	fields, err := decodeObject(stripAllFences(raw))
	if err != nil {
		return nil, err
	}

	label, _ := fields["boldness"].(string)
	boldness, err := core.ParseBoldness(label)
	if err != nil {
		return nil, err
	}

	opinion := &Opinion{Boldness: boldness}
	if s, ok := stringValue(fields["explanation"]); ok {
		opinion.Explanation = &s
	}
	opinion.Confidence = confidenceValue(fields["confidence"])
	return opinion, nil
}

// confidenceValue accepts whole numbers and numeric strings from 0 to 100.
func confidenceValue(v any) *int {
	var n int
	switch c := v.(type) {
	case float64:
		if c != math.Trunc(c) {
			return nil
		}
		n = int(c)
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(c))
		if err != nil {
			return nil
		}
		n = parsed
	default:
		return nil
	}
	if n < 0 || n > 100 {
		return nil
	}
	return &n
}

// OpinionScorer rates how contrarian a media opinion is.
// Model and parse failures are logged and leave the message unscored;
// only a failed write of a successful score is returned.
type OpinionScorer struct {
	model  ai.ChatModel
	scores storage.MediaScoreRepository
	logger *slog.Logger
}

var _ Scorer = (*OpinionScorer)(nil)

// NewOpinionScorer creates an OpinionScorer.
func NewOpinionScorer(model ai.ChatModel, scores storage.MediaScoreRepository, logger *slog.Logger) *OpinionScorer {
	if logger == nil {
		logger = slog.Default()
	}
	return &OpinionScorer{
		model:  model,
		scores: scores,
		logger: logger.With("component", "opinion-scorer"),
	}
}

// Score asks the scorer model about content and upserts the result for messageID.
func (s *OpinionScorer) Score(ctx context.Context, messageID, content string) error {
	raw, err := s.model.Complete(ctx, OpinionPrompt, content)
	if err != nil {
		s.logger.Error("opinion scoring request failed", "message", messageID, "err", err)
		return nil
	}

	opinion, err := ParseOpinion(raw)
	if err != nil {
		s.logger.Warn("discarding opinion score", "message", messageID, "response", raw, "err", err)
		return nil
	}

	score := &core.MediaScore{
		MessageID:   messageID,
		Boldness:    opinion.Boldness,
		Explanation: opinion.Explanation,
		Confidence:  opinion.Confidence,
	}
	if err := s.scores.UpsertMediaScore(ctx, score); err != nil {
		return fmt.Errorf("store media score: %w", err)
	}

	s.logger.Debug("scored opinion", "message", messageID, "boldness", opinion.Boldness)
	return nil
}
