package handlers

import (
	"context"
	"net/http"

	"promptdesk-backend/internal/export"
	"promptdesk-backend/internal/models"
	"promptdesk-backend/pkg/httputil"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type QuizService interface {
	Generate(ctx context.Context, orgID uuid.UUID, req models.QuizRequest) (*models.QuizResponse, error)
	Export(req models.QuizExportRequest) ([]byte, error)
}

type CalendarService interface {
	Plan(ctx context.Context, orgID uuid.UUID, req models.CalendarRequest) (*models.CalendarResponse, error)
}

// StudyHandlers serves the quiz and revision calendar generators.
type StudyHandlers struct {
	quiz     QuizService
	calendar CalendarService
	logger   *zap.Logger
}

func NewStudyHandlers(quiz QuizService, calendar CalendarService, logger *zap.Logger) *StudyHandlers {
	return &StudyHandlers{quiz: quiz, calendar: calendar, logger: nopIfNil(logger).Named("study_handler")}
}

// HandleGenerateQuiz handles POST /v1/quiz.
func (h *StudyHandlers) HandleGenerateQuiz(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgFromContext(w, r)
	if !ok {
		return
	}
	var req models.QuizRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	quiz, err := h.quiz.Generate(r.Context(), orgID, req)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to generate quiz")
		return
	}
	httputil.RespondJSON(w, http.StatusOK, quiz)
}

// HandleExportQuiz handles POST /v1/quiz/export and returns an xlsx sheet.
func (h *StudyHandlers) HandleExportQuiz(w http.ResponseWriter, r *http.Request) {
	if _, ok := orgFromContext(w, r); !ok {
		return
	}
	var req models.QuizExportRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	body, err := h.quiz.Export(req)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to export quiz")
		return
	}
	attachment(w, export.ContentType, "quiz.xlsx", body)
}

// HandlePlanCalendar handles POST /v1/calendar.
func (h *StudyHandlers) HandlePlanCalendar(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgFromContext(w, r)
	if !ok {
		return
	}
	var req models.CalendarRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	plan, err := h.calendar.Plan(r.Context(), orgID, req)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to plan calendar")
		return
	}
	httputil.RespondJSON(w, http.StatusOK, plan)
}
