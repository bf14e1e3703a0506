package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"promptdesk-backend/internal/export"
	"promptdesk-backend/internal/models"
	"promptdesk-backend/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultTimeRange = 7 * 24 * time.Hour
	maxTimeRange     = 366 * 24 * time.Hour
	maxProjectLength = 200
)

var (
	ErrTimerRunning   = errors.New("a timer is already running")
	ErrNoRunningTimer = errors.New("no timer is running")
)

// TimeRange is a half-open interval [From, To).
type TimeRange struct {
	From time.Time
	To   time.Time
}

// TimeTrackService runs one timer per user and reports on tracked time.
type TimeTrackService struct {
	store  store.Store
	logger *zap.Logger
	now    func() time.Time
}

func NewTimeTrackService(s store.Store, logger *zap.Logger) *TimeTrackService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimeTrackService{store: s, logger: logger.Named("timetrack"), now: time.Now}
}

// Start opens a timer. It fails with ErrTimerRunning if one is open.
func (s *TimeTrackService) Start(ctx context.Context, orgID, userID uuid.UUID, req models.StartTimerRequest) (*models.TimeEntryResponse, error) {
	project := strings.TrimSpace(req.Project)
	if project == "" {
		return nil, fmt.Errorf("%w: project is required", ErrValidation)
	}
	if utf8.RuneCountInString(project) > maxProjectLength {
		return nil, fmt.Errorf("%w: project name is too long", ErrValidation)
	}
	entry := &models.TimeEntry{
		ID:             uuid.New(),
		OrganizationID: orgID,
		UserID:         userID,
		Project:        project,
		Task:           strings.TrimSpace(req.Task),
		StartedAt:      s.now().UTC(),
	}
	if err := s.store.StartTimeEntry(ctx, entry); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrTimerRunning
		}
		return nil, fmt.Errorf("failed to start timer: %w", err)
	}
	s.logger.Debug("Timer started", zap.Stringer("user_id", userID), zap.String("project", project))
	resp := models.ToTimeEntryResponse(entry)
	return &resp, nil
}

// Stop closes the running timer.
func (s *TimeTrackService) Stop(ctx context.Context, orgID, userID uuid.UUID) (*models.TimeEntryResponse, error) {
	entry, err := s.store.StopTimeEntry(ctx, orgID, userID, s.now().UTC())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNoRunningTimer
		}
		return nil, fmt.Errorf("failed to stop timer: %w", err)
	}
	resp := models.ToTimeEntryResponse(entry)
	return &resp, nil
}

// Current returns the running timer with its elapsed time.
func (s *TimeTrackService) Current(ctx context.Context, orgID, userID uuid.UUID) (*models.TimeEntryResponse, error) {
	entry, err := s.store.GetRunningTimeEntry(ctx, orgID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNoRunningTimer
		}
		return nil, fmt.Errorf("failed to get running timer: %w", err)
	}
	s.fillElapsed(entry)
	resp := models.ToTimeEntryResponse(entry)
	return &resp, nil
}

// ParseRange reads from and to as RFC 3339 timestamps or YYYY-MM-DD dates.
// A date-only to includes that whole day. Missing bounds default to the last
// seven days.
func (s *TimeTrackService) ParseRange(from, to string) (TimeRange, error) {
	var r TimeRange
	var err error
	r.To = s.now().UTC()
	if to != "" {
		if r.To, err = parseBound(to, true); err != nil {
			return r, err
		}
	}
	r.From = r.To.Add(-defaultTimeRange)
	if from != "" {
		if r.From, err = parseBound(from, false); err != nil {
			return r, err
		}
	}
	if !r.From.Before(r.To) {
		return r, fmt.Errorf("%w: from must be before to", ErrValidation)
	}
	if r.To.Sub(r.From) > maxTimeRange {
		return r, fmt.Errorf("%w: range cannot exceed 366 days", ErrValidation)
	}
	return r, nil
}

func parseBound(v string, end bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), nil
	}
	d, err := time.Parse(dateLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is neither RFC 3339 nor YYYY-MM-DD", ErrValidation, v)
	}
	if end {
		d = d.AddDate(0, 0, 1)
	}
	return d, nil
}

// Entries lists the entries started within r, oldest first. Running
// entries report their elapsed time.
func (s *TimeTrackService) Entries(ctx context.Context, orgID, userID uuid.UUID, r TimeRange) ([]models.TimeEntryResponse, error) {
	entries, err := s.entries(ctx, orgID, userID, r)
	if err != nil {
		return nil, err
	}
	out := make([]models.TimeEntryResponse, 0, len(entries))
	for i := range entries {
		out = append(out, models.ToTimeEntryResponse(&entries[i]))
	}
	return out, nil
}

// Summary totals the entries of r per project, largest first.
func (s *TimeTrackService) Summary(ctx context.Context, orgID, userID uuid.UUID, r TimeRange) (*models.TimeSummaryResponse, error) {
	entries, err := s.entries(ctx, orgID, userID, r)
	if err != nil {
		return nil, err
	}
	return Summarize(entries, r), nil
}

// Export renders the entries of r as an xlsx workbook.
func (s *TimeTrackService) Export(ctx context.Context, orgID, userID uuid.UUID, r TimeRange) ([]byte, error) {
	entries, err := s.entries(ctx, orgID, userID, r)
	if err != nil {
		return nil, err
	}
	return export.TimeEntriesWorkbook(entries, time.UTC)
}

// Summarize groups entries by project.
func Summarize(entries []models.TimeEntry, r TimeRange) *models.TimeSummaryResponse {
	byProject := make(map[string]*models.ProjectTotal)
	resp := &models.TimeSummaryResponse{From: r.From, To: r.To, Projects: []models.ProjectTotal{}}
	for _, e := range entries {
		t, ok := byProject[e.Project]
		if !ok {
			t = &models.ProjectTotal{Project: e.Project}
			byProject[e.Project] = t
		}
		t.Seconds += e.DurationSeconds
		t.Entries++
		resp.TotalSeconds += e.DurationSeconds
	}
	for _, t := range byProject {
		resp.Projects = append(resp.Projects, *t)
	}
	sort.Slice(resp.Projects, func(i, j int) bool {
		a, b := resp.Projects[i], resp.Projects[j]
		if a.Seconds != b.Seconds {
			return a.Seconds > b.Seconds
		}
		return a.Project < b.Project
	})
	return resp
}

func (s *TimeTrackService) entries(ctx context.Context, orgID, userID uuid.UUID, r TimeRange) ([]models.TimeEntry, error) {
	entries, err := s.store.ListTimeEntries(ctx, orgID, userID, r.From, r.To)
	if err != nil {
		return nil, fmt.Errorf("failed to list time entries: %w", err)
	}
	for i := range entries {
		s.fillElapsed(&entries[i])
	}
	return entries, nil
}

func (s *TimeTrackService) fillElapsed(e *models.TimeEntry) {
	if e.EndedAt == nil {
		e.DurationSeconds = max(0, int64(s.now().Sub(e.StartedAt)/time.Second))
	}
}
