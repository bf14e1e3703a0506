package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"promptdesk-backend/internal/jsonrepair"
	"promptdesk-backend/internal/llm"
	"promptdesk-backend/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	dateLayout         = "2006-01-02"
	defaultPlanDays    = 7
	maxPlanDays        = 60
	maxSessionsPerDay  = 4
	defaultSessionMins = 60
	minSessionMins     = 15
	maxSessionMins     = 240
)

// CalendarService builds study plans.
type CalendarService struct {
	gens   GeneratorSource
	logger *zap.Logger
	now    func() time.Time
}

func NewCalendarService(gens GeneratorSource, logger *zap.Logger) *CalendarService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalendarService{gens: gens, logger: logger.Named("calendar"), now: time.Now}
}

// Plan asks the provider for a schedule and keeps the events that fall in
// the requested range. With no usable event the fixed four-phase plan is
// returned.
func (s *CalendarService) Plan(ctx context.Context, orgID uuid.UUID, req models.CalendarRequest) (*models.CalendarResponse, error) {
	req.Topic = strings.TrimSpace(req.Topic)
	req.SubTopic = strings.TrimSpace(req.SubTopic)
	if req.Topic == "" {
		return nil, fmt.Errorf("%w: topic is required", ErrValidation)
	}

	start := s.now().UTC().Truncate(24 * time.Hour)
	if req.StartDate != "" {
		d, err := time.Parse(dateLayout, req.StartDate)
		if err != nil {
			return nil, fmt.Errorf("%w: startDate must be YYYY-MM-DD", ErrValidation)
		}
		start = d
	}
	req.StartDate = start.Format(dateLayout)
	req.Days = clampDefault(req.Days, defaultPlanDays, 1, maxPlanDays)
	req.SessionsPerDay = clampDefault(req.SessionsPerDay, 1, 1, maxSessionsPerDay)
	end := start.AddDate(0, 0, req.Days-1)

	resp := &models.CalendarResponse{
		Topic:     req.Topic,
		StartDate: req.StartDate,
		EndDate:   end.Format(dateLayout),
	}

	out, err := generateLive(ctx, s.gens.For(ctx, orgID), llm.Request{
		System:      "You are a study coach who writes realistic study calendars. Reply with JSON only.",
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: calendarPrompt(req, end)}},
		JSON:        true,
		Temperature: 0.5,
	})
	if err == nil {
		events, perr := ParseEvents(out.Text, start, end, req.Days*req.SessionsPerDay)
		if perr == nil && len(events) > 0 {
			resp.Events = events
			resp.Source = models.SourceLLM
			resp.Provider = out.Provider
			return resp, nil
		}
		err = perr
		if err == nil {
			err = fmt.Errorf("no events within %s..%s", resp.StartDate, resp.EndDate)
		}
	}
	s.logger.Warn("Calendar generation failed, using fixed plan", zap.String("topic", req.Topic), zap.Error(err))

	resp.Events = fallbackPlan(req.Topic, req.SubTopic, start, req.Days, req.SessionsPerDay)
	resp.Source = models.SourceFallback
	return resp, nil
}

func calendarPrompt(req models.CalendarRequest, end time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Plan a study calendar for %s", req.Topic)
	if req.SubTopic != "" {
		fmt.Fprintf(&b, " (%s)", req.SubTopic)
	}
	fmt.Fprintf(&b, " from %s to %s with %d session(s) per day.\n", req.StartDate, end.Format(dateLayout), req.SessionsPerDay)
	b.WriteString(`Reply with a JSON array of events with the keys "date" (YYYY-MM-DD), "title", "description" and "duration_minutes".`)
	return b.String()
}

type rawEvent struct {
	Date            string      `json:"date"`
	Title           string      `json:"title"`
	Description     string      `json:"description"`
	DurationMinutes looseString `json:"duration_minutes"`
}

// ParseEvents repairs a provider reply and keeps at most limit events dated
// within start..end, sorted by date.
func ParseEvents(text string, start, end time.Time, limit int) ([]models.CalendarEvent, error) {
	repaired, err := jsonrepair.Repair(text)
	if err != nil {
		return nil, err
	}
	var raws []rawEvent
	if err := json.Unmarshal([]byte(repaired), &raws); err != nil {
		var wrapped struct {
			Events []rawEvent `json:"events"`
		}
		if err := json.Unmarshal([]byte(repaired), &wrapped); err != nil {
			return nil, fmt.Errorf("decode events: %w", err)
		}
		raws = wrapped.Events
	}

	events := make([]models.CalendarEvent, 0, len(raws))
	for _, r := range raws {
		d, err := time.Parse(dateLayout, strings.TrimSpace(r.Date))
		if err != nil || d.Before(start) || d.After(end) {
			continue
		}
		title := strings.TrimSpace(r.Title)
		if title == "" {
			continue
		}
		events = append(events, models.CalendarEvent{
			Date:            d.Format(dateLayout),
			Title:           title,
			Description:     strings.TrimSpace(r.Description),
			DurationMinutes: sessionMinutes(r.DurationMinutes),
		})
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].Date < events[j].Date })
	if len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

func sessionMinutes(n looseString) int {
	f, err := strconv.ParseFloat(strings.TrimSpace(string(n)), 64)
	if err != nil || f <= 0 || math.IsInf(f, 0) {
		return defaultSessionMins
	}
	return clampFloat(f, minSessionMins, maxSessionMins)
}

var studyPhases = []struct {
	name        string
	description string
}{
	{"Introduction", "Survey the key ideas of %s and note what you want to learn."},
	{"Core concepts", "Study the central concepts of %s in depth and summarise them in your own words."},
	{"Practice", "Work through exercises on %s and check your answers."},
	{"Review", "Review your notes on %s and test yourself on the hardest points."},
}

// fallbackPlan cycles through the study phases, one phase per day.
func fallbackPlan(topic, subTopic string, start time.Time, days, sessions int) []models.CalendarEvent {
	subject := topic
	if subTopic != "" {
		subject = topic + " (" + subTopic + ")"
	}
	events := make([]models.CalendarEvent, 0, days*sessions)
	for day := 0; day < days; day++ {
		phase := studyPhases[day%len(studyPhases)]
		date := start.AddDate(0, 0, day).Format(dateLayout)
		for session := 1; session <= sessions; session++ {
			title := fmt.Sprintf("%s: %s", phase.name, topic)
			if sessions > 1 {
				title = fmt.Sprintf("%s (session %d)", title, session)
			}
			events = append(events, models.CalendarEvent{
				Date:            date,
				Title:           title,
				Description:     fmt.Sprintf(phase.description, subject),
				DurationMinutes: defaultSessionMins,
			})
		}
	}
	return events
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}

// clampFloat clamps f to lo..hi before truncating it to an int, so values
// beyond the int range land on the nearest bound.
func clampFloat(f float64, lo, hi int) int {
	return int(math.Max(float64(lo), math.Min(float64(hi), f)))
}

// clampDefault replaces zero with def, then clamps to lo..hi.
func clampDefault(v, def, lo, hi int) int {
	if v == 0 {
		v = def
	}
	return clamp(v, lo, hi)
}
