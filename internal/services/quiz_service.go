package services

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"regexp"
	"strconv"
	"strings"

	"promptdesk-backend/internal/export"
	"promptdesk-backend/internal/jsonrepair"
	"promptdesk-backend/internal/llm"
	"promptdesk-backend/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultQuizQuestions = 5
	maxQuizQuestions     = 20
	maxExportQuestions   = 200
)

var quizDifficulties = map[string]bool{"easy": true, "medium": true, "hard": true}

// QuizService generates multiple-choice quizzes.
type QuizService struct {
	gens   GeneratorSource
	logger *zap.Logger
}

func NewQuizService(gens GeneratorSource, logger *zap.Logger) *QuizService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuizService{gens: gens, logger: logger.Named("quiz")}
}

// Generate returns exactly the requested number of questions, taking what
// the provider got right and filling the rest from the science bank.
func (s *QuizService) Generate(ctx context.Context, orgID uuid.UUID, req models.QuizRequest) (*models.QuizResponse, error) {
	req.Topic = strings.TrimSpace(req.Topic)
	req.SubTopic = strings.TrimSpace(req.SubTopic)
	if req.Topic == "" {
		return nil, fmt.Errorf("%w: topic is required", ErrValidation)
	}
	switch {
	case req.NumQuestions == 0:
		req.NumQuestions = defaultQuizQuestions
	case req.NumQuestions < 1:
		req.NumQuestions = 1
	case req.NumQuestions > maxQuizQuestions:
		req.NumQuestions = maxQuizQuestions
	}
	req.Difficulty = strings.ToLower(strings.TrimSpace(req.Difficulty))
	if req.Difficulty == "" {
		req.Difficulty = "medium"
	}
	if !quizDifficulties[req.Difficulty] {
		return nil, fmt.Errorf("%w: difficulty must be easy, medium or hard", ErrValidation)
	}

	resp := &models.QuizResponse{Topic: req.Topic, SubTopic: req.SubTopic, Difficulty: req.Difficulty}

	var questions []models.Question
	out, err := generateLive(ctx, s.gens.For(ctx, orgID), llm.Request{
		System:      "You are a teacher who writes accurate multiple-choice quizzes. Reply with JSON only.",
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: quizPrompt(req)}},
		JSON:        true,
		Temperature: 0.7,
	})
	if err != nil {
		s.logger.Warn("Quiz generation failed, using question bank", zap.String("topic", req.Topic), zap.Error(err))
	} else {
		resp.Provider = out.Provider
		questions, err = ParseQuestions(out.Text)
		if err != nil {
			s.logger.Warn("Quiz reply unusable", zap.String("provider", out.Provider), zap.Error(err))
		}
	}

	if len(questions) > req.NumQuestions {
		questions = questions[:req.NumQuestions]
	}
	fromLLM := len(questions)
	questions = fillFromBank(questions, req.NumQuestions, req.Topic)

	switch {
	case fromLLM == req.NumQuestions:
		resp.Source = models.SourceLLM
	case fromLLM == 0:
		resp.Source = models.SourceFallback
		resp.Provider = ""
	default:
		resp.Source = models.SourceMixed
	}
	resp.Questions = questions
	return resp, nil
}

// Export renders questions as an xlsx workbook.
func (s *QuizService) Export(req models.QuizExportRequest) ([]byte, error) {
	if len(req.Questions) == 0 {
		return nil, fmt.Errorf("%w: questions are required", ErrValidation)
	}
	if len(req.Questions) > maxExportQuestions {
		return nil, fmt.Errorf("%w: at most %d questions can be exported", ErrValidation, maxExportQuestions)
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = "Quiz"
	}
	return export.QuizWorkbook(title, req.Questions)
}

func quizPrompt(req models.QuizRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write %d %s multiple-choice questions about %s", req.NumQuestions, req.Difficulty, req.Topic)
	if req.SubTopic != "" {
		fmt.Fprintf(&b, ", focusing on %s", req.SubTopic)
	}
	b.WriteString(".\nEach question has exactly four options and one correct answer.\n")
	b.WriteString(`Reply with a JSON array of objects with the keys "question_text", "options", "correct_answer" and "explanation". `)
	b.WriteString(`"correct_answer" must repeat the text of the correct option.`)
	return b.String()
}

// looseString accepts a JSON string or number.
type looseString string

func (l *looseString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*l = looseString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*l = looseString(n.String())
	return nil
}

type rawQuestion struct {
	QuestionText  string      `json:"question_text"`
	Question      string      `json:"question"`
	Options       []string    `json:"options"`
	CorrectAnswer looseString `json:"correct_answer"`
	Answer        looseString `json:"answer"`
	Explanation   string      `json:"explanation"`
}

// ParseQuestions repairs a provider reply and keeps the valid questions. The
// reply may be an array or an object with a "questions" array.
func ParseQuestions(text string) ([]models.Question, error) {
	repaired, err := jsonrepair.Repair(text)
	if err != nil {
		return nil, err
	}
	var raws []rawQuestion
	if err := json.Unmarshal([]byte(repaired), &raws); err != nil {
		var wrapped struct {
			Questions []rawQuestion `json:"questions"`
		}
		if err := json.Unmarshal([]byte(repaired), &wrapped); err != nil {
			return nil, fmt.Errorf("decode questions: %w", err)
		}
		raws = wrapped.Questions
	}

	out := make([]models.Question, 0, len(raws))
	for _, rq := range raws {
		if q, ok := normalizeQuestion(rq); ok {
			out = append(out, q)
		}
	}
	return out, nil
}

var optionLabel = regexp.MustCompile(`^[A-Da-d][\).:]\s+`)

func normalizeQuestion(rq rawQuestion) (models.Question, bool) {
	text := strings.TrimSpace(rq.QuestionText)
	if text == "" {
		text = strings.TrimSpace(rq.Question)
	}
	if text == "" {
		return models.Question{}, false
	}
	options := make([]string, 0, len(rq.Options))
	for _, o := range rq.Options {
		o = strings.TrimSpace(optionLabel.ReplaceAllString(strings.TrimSpace(o), ""))
		if o != "" {
			options = append(options, o)
		}
	}
	if len(options) < 2 {
		return models.Question{}, false
	}
	answer := string(rq.CorrectAnswer)
	if strings.TrimSpace(answer) == "" {
		answer = string(rq.Answer)
	}
	correct, ok := resolveAnswer(strings.TrimSpace(answer), options)
	if !ok {
		return models.Question{}, false
	}
	return models.Question{
		QuestionText:  text,
		Options:       options,
		CorrectAnswer: correct,
		Explanation:   strings.TrimSpace(rq.Explanation),
	}, true
}

// resolveAnswer maps an answer given as option text, a letter A to D or a
// 1-based index to the option text.
func resolveAnswer(answer string, options []string) (string, bool) {
	if answer == "" {
		return "", false
	}
	for _, o := range options {
		if strings.EqualFold(o, answer) {
			return o, true
		}
	}
	if len(answer) == 1 {
		c := answer[0] | 0x20
		if c >= 'a' && c <= 'd' {
			if i := int(c - 'a'); i < len(options) {
				return options[i], true
			}
			return "", false
		}
	}
	if n, err := strconv.Atoi(answer); err == nil {
		if n >= 1 && n <= len(options) {
			return options[n-1], true
		}
		return "", false
	}
	if loc := optionLabel.FindStringIndex(answer); loc != nil {
		return resolveAnswer(answer[:1], options)
	}
	return "", false
}

// fillFromBank tops questions up to n from the bank, starting at a position
// derived from the topic and skipping questions already present.
func fillFromBank(questions []models.Question, n int, topic string) []models.Question {
	if len(questions) >= n {
		return questions
	}
	seen := make(map[string]bool, len(questions))
	for _, q := range questions {
		seen[strings.ToLower(q.QuestionText)] = true
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(topic)))
	start := int(h.Sum32() % uint32(len(scienceBank)))
	for i := 0; i < len(scienceBank) && len(questions) < n; i++ {
		q := scienceBank[(start+i)%len(scienceBank)]
		if seen[strings.ToLower(q.QuestionText)] {
			continue
		}
		q.Options = append([]string(nil), q.Options...)
		questions = append(questions, q)
	}
	return questions
}
