package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Where a feature response came from.
const (
	SourceLLM      = "llm"
	SourceFallback = "fallback"
	SourceMixed    = "mixed"
)

// --- Quiz ---

// Question is one multiple-choice quiz question.
type Question struct {
	QuestionText  string   `json:"question_text"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation,omitempty"`
}

type QuizRequest struct {
	Topic        string `json:"topic"`
	SubTopic     string `json:"subTopic"`
	NumQuestions int    `json:"numQuestions"`
	Difficulty   string `json:"difficulty"`
}

type QuizResponse struct {
	Topic      string     `json:"topic"`
	SubTopic   string     `json:"subTopic,omitempty"`
	Difficulty string     `json:"difficulty"`
	Questions  []Question `json:"questions"`
	Source     string     `json:"source"`
	Provider   string     `json:"provider,omitempty"`
}

type QuizExportRequest struct {
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

// --- Calendar ---

type CalendarRequest struct {
	Topic          string `json:"topic"`
	SubTopic       string `json:"subTopic"`
	StartDate      string `json:"startDate"` // YYYY-MM-DD
	Days           int    `json:"days"`
	SessionsPerDay int    `json:"sessionsPerDay"`
}

type CalendarEvent struct {
	Date            string `json:"date"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	DurationMinutes int    `json:"duration_minutes"`
}

type CalendarResponse struct {
	Topic     string          `json:"topic"`
	StartDate string          `json:"startDate"`
	EndDate   string          `json:"endDate"`
	Events    []CalendarEvent `json:"events"`
	Source    string          `json:"source"`
	Provider  string          `json:"provider,omitempty"`
}

// --- Free text generation ---

type GenerateRequest struct {
	Prompt      string  `json:"prompt"`
	System      string  `json:"system,omitempty"`
	JSON        bool    `json:"json,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"maxTokens,omitempty"`
}

type GenerateResponse struct {
	Text     string          `json:"text,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
	Provider string          `json:"provider"`
	Model    string          `json:"model,omitempty"`
	Cached   bool            `json:"cached,omitempty"`
}

// --- Recommendations ---

type RecommendCandidate struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

type RecommendRequest struct {
	Preferences string               `json:"preferences"`
	Candidates  []RecommendCandidate `json:"candidates"`
}

type RecommendationScore struct {
	ID     string `json:"id"`
	Score  int    `json:"score"`
	Reason string `json:"reason"`
}

type RecommendResponse struct {
	Scores []RecommendationScore `json:"scores"`
	Source string                `json:"source"`
}

// --- SEO ---

type SEOAnalyzeRequest struct {
	URL     string `json:"url,omitempty"`
	Content string `json:"content,omitempty"`
	Title   string `json:"title,omitempty"`
}

// PageFacts are the measurable on-page signals of a document.
type PageFacts struct {
	URL              string `json:"url,omitempty"`
	Title            string `json:"title"`
	MetaDescription  string `json:"meta_description"`
	Canonical        string `json:"canonical,omitempty"`
	H1Count          int    `json:"h1_count"`
	H2Count          int    `json:"h2_count"`
	WordCount        int    `json:"word_count"`
	ImageCount       int    `json:"image_count"`
	ImagesWithoutAlt int    `json:"images_without_alt"`
	InternalLinks    int    `json:"internal_links"`
	ExternalLinks    int    `json:"external_links"`
	HasRobotsTxt     bool   `json:"has_robots_txt"`
	HasSitemap       bool   `json:"has_sitemap"`
}

type SEOReport struct {
	Score           int       `json:"score"`
	Summary         string    `json:"summary"`
	Strengths       []string  `json:"strengths"`
	Issues          []string  `json:"issues"`
	Recommendations []string  `json:"recommendations"`
	Facts           PageFacts `json:"facts"`
	Source          string    `json:"source"`
	Provider        string    `json:"provider,omitempty"`
}

// --- Weather ---

type WeatherCurrent struct {
	Temperature float64   `json:"temperature"`
	FeelsLike   float64   `json:"feels_like"`
	Humidity    int       `json:"humidity"`
	WindSpeed   float64   `json:"wind_speed"`
	Description string    `json:"description"`
	Icon        string    `json:"icon,omitempty"`
	Time        time.Time `json:"time"`
}

type ForecastPoint struct {
	Time        time.Time `json:"time"`
	Temperature float64   `json:"temperature"`
	Humidity    int       `json:"humidity"`
	Description string    `json:"description"`
}

type WeatherChart struct {
	Labels       []string  `json:"labels"`
	Temperatures []float64 `json:"temperatures"`
	Humidity     []int     `json:"humidity"`
}

type DailySummary struct {
	Date string  `json:"date"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

type WeatherReport struct {
	City          string          `json:"city"`
	Country       string          `json:"country,omitempty"`
	Units         string          `json:"units"`
	Current       WeatherCurrent  `json:"current"`
	Forecast      []ForecastPoint `json:"forecast"`
	Chart         WeatherChart    `json:"chart"`
	Daily         []DailySummary  `json:"daily"`
	Insight       string          `json:"insight,omitempty"`
	InsightSource string          `json:"insight_source,omitempty"`
	Cached        bool            `json:"cached,omitempty"`
}

// --- Lost and found ---

type ItemType string

const (
	ItemTypeLost  ItemType = "lost"
	ItemTypeFound ItemType = "found"
)

// Opposite is the type a reporter is looking for: someone who lost an item
// wants found reports and vice versa.
func (t ItemType) Opposite() ItemType {
	if t == ItemTypeFound {
		return ItemTypeLost
	}
	return ItemTypeFound
}

func (t ItemType) Valid() bool { return t == ItemTypeLost || t == ItemTypeFound }

type CreateItemRequest struct {
	Description string   `json:"description"`
	City        string   `json:"city"`
	Category    string   `json:"category"`
	Brand       string   `json:"brand,omitempty"`
	Model       string   `json:"model,omitempty"`
	Color       string   `json:"color,omitempty"`
	Type        ItemType `json:"type"`
	Condition   string   `json:"condition,omitempty"`
}

type ItemResponse struct {
	ID          uuid.UUID `json:"id"`
	Description string    `json:"description"`
	City        string    `json:"city"`
	Category    string    `json:"category"`
	Brand       string    `json:"brand,omitempty"`
	Model       string    `json:"model,omitempty"`
	Color       string    `json:"color,omitempty"`
	Type        ItemType  `json:"type"`
	Condition   string    `json:"condition,omitempty"`
	PostDate    time.Time `json:"postdate"`
}

func ToItemResponse(it *LostItem) ItemResponse {
	return ItemResponse{
		ID:          it.ID,
		Description: it.Description,
		City:        it.City,
		Category:    it.Category,
		Brand:       it.Brand,
		Model:       it.Model,
		Color:       it.Color,
		Type:        it.Type,
		Condition:   it.Condition,
		PostDate:    it.PostDate,
	}
}

// ItemQuery is what the lost-and-found bot understood from a message.
// Empty fields do not filter.
type ItemQuery struct {
	City     string   `json:"city,omitempty"`
	Category string   `json:"category,omitempty"`
	Item     string   `json:"item,omitempty"`
	Color    string   `json:"color,omitempty"`
	Brand    string   `json:"brand,omitempty"`
	Type     ItemType `json:"type,omitempty"`
}

type LostFoundChatRequest struct {
	Message string `json:"message"`
}

type LostFoundChatResponse struct {
	Reply    string         `json:"reply"`
	Language string         `json:"language"`
	Intent   string         `json:"intent"`
	Query    *ItemQuery     `json:"query,omitempty"`
	Items    []ItemResponse `json:"items,omitempty"`
	Source   string         `json:"source,omitempty"`
}

// --- Time tracking ---

type StartTimerRequest struct {
	Project string `json:"project"`
	Task    string `json:"task,omitempty"`
}

type TimeEntryResponse struct {
	ID              uuid.UUID  `json:"id"`
	Project         string     `json:"project"`
	Task            string     `json:"task,omitempty"`
	StartedAt       time.Time  `json:"started_at"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	DurationSeconds int64      `json:"duration_seconds"`
	Running         bool       `json:"running"`
}

func ToTimeEntryResponse(e *TimeEntry) TimeEntryResponse {
	return TimeEntryResponse{
		ID:              e.ID,
		Project:         e.Project,
		Task:            e.Task,
		StartedAt:       e.StartedAt,
		EndedAt:         e.EndedAt,
		DurationSeconds: e.DurationSeconds,
		Running:         e.EndedAt == nil,
	}
}

type ProjectTotal struct {
	Project string `json:"project"`
	Seconds int64  `json:"seconds"`
	Entries int    `json:"entries"`
}

type TimeSummaryResponse struct {
	From         time.Time      `json:"from"`
	To           time.Time      `json:"to"`
	Projects     []ProjectTotal `json:"projects"`
	TotalSeconds int64          `json:"total_seconds"`
}
