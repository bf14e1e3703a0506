package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"promptdesk-backend/internal/jsonrepair"
	"promptdesk-backend/internal/llm"
	"promptdesk-backend/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	maxCandidates   = 50
	minKeywordRunes = 3
)

// RecommendService scores candidates against free-text preferences.
type RecommendService struct {
	gens   GeneratorSource
	logger *zap.Logger
}

func NewRecommendService(gens GeneratorSource, logger *zap.Logger) *RecommendService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecommendService{gens: gens, logger: logger.Named("recommend")}
}

// Score returns one score per candidate, highest first. Candidates the
// provider skipped are scored by keyword overlap.
func (s *RecommendService) Score(ctx context.Context, orgID uuid.UUID, req models.RecommendRequest) (*models.RecommendResponse, error) {
	req.Preferences = strings.TrimSpace(req.Preferences)
	if req.Preferences == "" {
		return nil, fmt.Errorf("%w: preferences are required", ErrValidation)
	}
	if len(req.Candidates) == 0 || len(req.Candidates) > maxCandidates {
		return nil, fmt.Errorf("%w: between 1 and %d candidates are required", ErrValidation, maxCandidates)
	}
	order := make(map[string]int, len(req.Candidates))
	for i, c := range req.Candidates {
		if strings.TrimSpace(c.ID) == "" {
			return nil, fmt.Errorf("%w: candidate %d has no id", ErrValidation, i)
		}
		if _, dup := order[c.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate candidate id %q", ErrValidation, c.ID)
		}
		order[c.ID] = i
	}

	var llmScores map[string]models.RecommendationScore
	out, err := generateLive(ctx, s.gens.For(ctx, orgID), llm.Request{
		System:      "You rank items for a user. Reply with JSON only.",
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: recommendPrompt(req)}},
		JSON:        true,
		Temperature: 0.2,
	})
	if err == nil {
		llmScores, err = ParseScores(out.Text, order)
	}
	if err != nil {
		s.logger.Warn("Recommendation scoring failed, using keyword overlap", zap.Error(err))
	}

	scores := make([]models.RecommendationScore, 0, len(req.Candidates))
	for _, c := range req.Candidates {
		if sc, ok := llmScores[c.ID]; ok {
			scores = append(scores, sc)
			continue
		}
		scores = append(scores, KeywordScore(req.Preferences, c))
	}
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return order[scores[i].ID] < order[scores[j].ID]
	})

	source := models.SourceMixed
	switch len(llmScores) {
	case 0:
		source = models.SourceFallback
	case len(req.Candidates):
		source = models.SourceLLM
	}
	return &models.RecommendResponse{Scores: scores, Source: source}, nil
}

func recommendPrompt(req models.RecommendRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "User preferences: %s\n\nCandidates:\n", req.Preferences)
	for _, c := range req.Candidates {
		fmt.Fprintf(&b, "- id=%s; title=%s", c.ID, c.Title)
		if c.Description != "" {
			fmt.Fprintf(&b, "; description=%s", c.Description)
		}
		if len(c.Tags) > 0 {
			fmt.Fprintf(&b, "; tags=%s", strings.Join(c.Tags, ", "))
		}
		b.WriteByte('\n')
	}
	b.WriteString(`Score how well each candidate matches the preferences from 0 to 100. Reply with a JSON array of objects with the keys "id", "score" and "reason".`)
	return b.String()
}

type rawScore struct {
	ID     looseString `json:"id"`
	Score  looseString `json:"score"`
	Reason string      `json:"reason"`
}

// ParseScores repairs a provider reply and keeps one clamped score per known
// id. Unknown ids and unreadable scores are dropped.
func ParseScores(text string, known map[string]int) (map[string]models.RecommendationScore, error) {
	repaired, err := jsonrepair.Repair(text)
	if err != nil {
		return nil, err
	}
	var raws []rawScore
	if err := json.Unmarshal([]byte(repaired), &raws); err != nil {
		var wrapped struct {
			Scores          []rawScore `json:"scores"`
			Recommendations []rawScore `json:"recommendations"`
		}
		if err := json.Unmarshal([]byte(repaired), &wrapped); err != nil {
			return nil, fmt.Errorf("decode scores: %w", err)
		}
		raws = append(wrapped.Scores, wrapped.Recommendations...)
	}

	out := make(map[string]models.RecommendationScore, len(raws))
	for _, r := range raws {
		id := strings.TrimSpace(string(r.ID))
		if _, ok := known[id]; !ok {
			continue
		}
		if _, dup := out[id]; dup {
			continue
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(string(r.Score)), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			continue
		}
		out[id] = models.RecommendationScore{
			ID:     id,
			Score:  clampFloat(math.Round(f), 0, 100),
			Reason: strings.TrimSpace(r.Reason),
		}
	}
	return out, nil
}

// KeywordScore is the Jaccard similarity, times 100, of the words of at
// least three letters in the preferences and in the candidate's title,
// description and tags.
func KeywordScore(preferences string, c models.RecommendCandidate) models.RecommendationScore {
	prefs := keywordSet(preferences)
	cand := keywordSet(c.Title + " " + c.Description + " " + strings.Join(c.Tags, " "))

	var shared []string
	for w := range prefs {
		if cand[w] {
			shared = append(shared, w)
		}
	}
	sort.Strings(shared)
	union := len(prefs) + len(cand) - len(shared)

	score := 0
	if union > 0 {
		score = int(math.Round(float64(len(shared)) / float64(union) * 100))
	}
	reason := "No keyword overlap with the preferences"
	if len(shared) > 0 {
		if len(shared) > 5 {
			shared = shared[:5]
		}
		reason = "Shares keywords: " + strings.Join(shared, ", ")
	}
	return models.RecommendationScore{ID: c.ID, Score: score, Reason: reason}
}

func keywordSet(s string) map[string]bool {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]bool, len(words))
	for _, w := range words {
		if len([]rune(w)) >= minKeywordRunes {
			set[w] = true
		}
	}
	return set
}
