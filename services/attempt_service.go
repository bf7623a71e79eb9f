package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"quizmaster/models"

	"gorm.io/gorm"
)

type AttemptService struct {
	db    *gorm.DB
	cache *ViewCache
}

func NewAttemptService(db *gorm.DB, cache *ViewCache) *AttemptService {
	return &AttemptService{db: db, cache: cache}
}

// Actor identifies the caller for access-policy decisions.
type Actor struct {
	ID   uint
	Role string
}

func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

type SubmitAttemptRequest struct {
	QuizID uint `json:"quiz_id" binding:"required"`
	// Answers maps question id (encoded as text on the wire) to the
	// selected option. Values arrive as strings or JSON numbers.
	Answers map[string]interface{} `json:"answers" binding:"required"`
}

// AttemptView is the wire shape of a single attempt with resolved names.
type AttemptView struct {
	ID         uint    `json:"id"`
	UserID     uint    `json:"user_id"`
	QuizID     uint    `json:"quiz_id"`
	Timestamp  string  `json:"timestamp"`
	TotalScore float64 `json:"total_score"`
	MaxScore   float64 `json:"max_score"`
	Percentage float64 `json:"percentage"`
	UserName   string  `json:"user_name,omitempty"`
	QuizTitle  string  `json:"quiz_title,omitempty"`
}

type Pagination struct {
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Total   int64 `json:"total"`
	Pages   int   `json:"pages"`
	HasNext bool  `json:"has_next"`
	HasPrev bool  `json:"has_prev"`
}

type AttemptList struct {
	Attempts   []AttemptView `json:"attempts"`
	Pagination Pagination    `json:"pagination"`
}

type UserAttemptList struct {
	UserID     uint          `json:"user_id"`
	UserName   string        `json:"user_name"`
	Attempts   []AttemptView `json:"attempts"`
	Pagination Pagination    `json:"pagination"`
}

type ListAttemptsFilter struct {
	UserID  uint // 0 means no filter
	QuizID  uint // 0 means no filter
	Page    int
	PerPage int
}

const DefaultPerPage = 10

// ScoreQuiz computes the score for a set of submitted answers. It is a pure
// function: a missing answer, an answer for a question outside the quiz, or
// an answer that does not parse as an integer simply counts as incorrect.
func ScoreQuiz(questions []models.Question, answers map[string]interface{}) (totalScore, maxScore, percentage float64, err error) {
	if len(questions) == 0 {
		return 0, 0, 0, ErrInvalidQuiz
	}

	maxScore = float64(len(questions))

	for _, question := range questions {
		raw, ok := answers[strconv.FormatUint(uint64(question.ID), 10)]
		if !ok {
			continue
		}
		selected, ok := parseOption(raw)
		if !ok {
			continue
		}
		if selected == question.CorrectOption {
			totalScore++
		}
	}

	if maxScore > 0 {
		percentage = round2(totalScore / maxScore * 100)
	}

	return totalScore, maxScore, percentage, nil
}

// parseOption accepts the option encodings JSON can produce: a string,
// a number, or an integer. Anything else is not a valid selection.
func parseOption(raw interface{}) (int, bool) {
	switch v := raw.(type) {
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, false
		}
		return n, true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int(v), true
	case int:
		return v, true
	default:
		return 0, false
	}
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// SubmitAttempt scores the submission and persists it as a new immutable
// attempt. Scoring is deterministic, so a client retry of the same
// submission produces the same score.
func (s *AttemptService) SubmitAttempt(userID uint, req *SubmitAttemptRequest) (*models.QuizAttempt, error) {
	var quiz models.Quiz
	if err := s.db.Preload("Questions").First(&quiz, req.QuizID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if !quiz.IsActive {
		return nil, ErrInactiveQuiz
	}

	totalScore, maxScore, percentage, err := ScoreQuiz(quiz.Questions, req.Answers)
	if err != nil {
		return nil, err
	}

	attempt := models.QuizAttempt{
		UserID:     userID,
		QuizID:     quiz.ID,
		Timestamp:  time.Now(),
		TotalScore: totalScore,
		MaxScore:   maxScore,
		Percentage: percentage,
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Create(&attempt).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("database error: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	s.cache.InvalidatePrefix(context.Background(), attemptCachePrefix, statsCachePrefix)

	return &attempt, nil
}

// CanAccessAttempt decides whether the actor may read a single attempt.
// Reads are owner-only: an admin is denied another user's attempt here,
// even though admin list and stats views span all users. Changing that
// would change what existing clients observe, so it stays as is.
func CanAccessAttempt(actor Actor, attempt *models.QuizAttempt) bool {
	if actor.IsAdmin() && attempt.UserID != actor.ID {
		return false
	}
	return attempt.UserID == actor.ID
}

func (s *AttemptService) GetAttempt(actor Actor, attemptID uint) (*AttemptView, error) {
	var attempt models.QuizAttempt
	if err := s.db.Preload("User").Preload("Quiz").First(&attempt, attemptID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if !CanAccessAttempt(actor, &attempt) {
		return nil, ErrAccessDenied
	}

	view := newAttemptView(&attempt)
	return &view, nil
}

// ListAttempts returns a page of attempts, newest first. Non-admin callers
// are always scoped to their own attempts; the user filter is honored for
// admins only.
func (s *AttemptService) ListAttempts(actor Actor, filter ListAttemptsFilter) (*AttemptList, error) {
	normalizePaging(&filter)

	userID := filter.UserID
	if !actor.IsAdmin() {
		userID = actor.ID
	}

	cacheKey := fmt.Sprintf("%slist:user=%d:quiz=%d:page=%d:per=%d",
		attemptCachePrefix, userID, filter.QuizID, filter.Page, filter.PerPage)
	var cached AttemptList
	if s.cache.Get(context.Background(), cacheKey, &cached) {
		return &cached, nil
	}

	query := s.db.Model(&models.QuizAttempt{})
	if userID != 0 {
		query = query.Where("user_id = ?", userID)
	}
	if filter.QuizID != 0 {
		query = query.Where("quiz_id = ?", filter.QuizID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	var attempts []models.QuizAttempt
	if err := query.
		Preload("User").
		Preload("Quiz").
		Order("timestamp DESC").
		Offset((filter.Page - 1) * filter.PerPage).
		Limit(filter.PerPage).
		Find(&attempts).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	list := AttemptList{
		Attempts:   newAttemptViews(attempts),
		Pagination: newPagination(filter.Page, filter.PerPage, total),
	}

	s.cache.Set(context.Background(), cacheKey, &list, ListCacheTTL)

	return &list, nil
}

// ListUserAttempts returns one user's attempts, newest first. The same
// owner-only read policy as single-attempt lookup applies.
func (s *AttemptService) ListUserAttempts(actor Actor, targetUserID uint, filter ListAttemptsFilter) (*UserAttemptList, error) {
	if actor.ID != targetUserID {
		return nil, ErrAccessDenied
	}

	var user models.User
	if err := s.db.First(&user, targetUserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	filter.UserID = targetUserID
	normalizePaging(&filter)

	cacheKey := fmt.Sprintf("%suser:%d:quiz=%d:page=%d:per=%d",
		attemptCachePrefix, targetUserID, filter.QuizID, filter.Page, filter.PerPage)
	var cached UserAttemptList
	if s.cache.Get(context.Background(), cacheKey, &cached) {
		return &cached, nil
	}

	query := s.db.Model(&models.QuizAttempt{}).Where("user_id = ?", targetUserID)
	if filter.QuizID != 0 {
		query = query.Where("quiz_id = ?", filter.QuizID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	var attempts []models.QuizAttempt
	if err := query.
		Preload("Quiz").
		Order("timestamp DESC").
		Offset((filter.Page - 1) * filter.PerPage).
		Limit(filter.PerPage).
		Find(&attempts).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	list := UserAttemptList{
		UserID:     user.ID,
		UserName:   user.Email,
		Attempts:   newAttemptViews(attempts),
		Pagination: newPagination(filter.Page, filter.PerPage, total),
	}

	s.cache.Set(context.Background(), cacheKey, &list, ListCacheTTL)

	return &list, nil
}

// DeleteAttempt removes one attempt. Admin-only; gated at the route.
func (s *AttemptService) DeleteAttempt(attemptID uint) error {
	var attempt models.QuizAttempt
	if err := s.db.First(&attempt, attemptID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("database error: %w", err)
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Delete(&models.QuizAttempt{}, attemptID).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("database error: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("database error: %w", err)
	}

	s.cache.InvalidatePrefix(context.Background(), attemptCachePrefix, statsCachePrefix)

	return nil
}

// FetchAttemptsForExport loads a user's full attempt history, newest first,
// with quiz, chapter, and subject resolved for the CSV columns.
func (s *AttemptService) FetchAttemptsForExport(userID uint) ([]models.QuizAttempt, error) {
	var attempts []models.QuizAttempt
	err := s.db.Where("user_id = ?", userID).
		Preload("Quiz").
		Preload("Quiz.Chapter").
		Preload("Quiz.Chapter.Subject").
		Order("timestamp DESC").
		Find(&attempts).Error
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return attempts, nil
}

func normalizePaging(filter *ListAttemptsFilter) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PerPage < 1 {
		filter.PerPage = DefaultPerPage
	}
}

func newPagination(page, perPage int, total int64) Pagination {
	pages := int((total + int64(perPage) - 1) / int64(perPage))
	return Pagination{
		Page:    page,
		PerPage: perPage,
		Total:   total,
		Pages:   pages,
		HasNext: int64(page*perPage) < total,
		HasPrev: page > 1,
	}
}

func newAttemptView(attempt *models.QuizAttempt) AttemptView {
	return AttemptView{
		ID:         attempt.ID,
		UserID:     attempt.UserID,
		QuizID:     attempt.QuizID,
		Timestamp:  attempt.Timestamp.Format(time.RFC3339),
		TotalScore: attempt.TotalScore,
		MaxScore:   attempt.MaxScore,
		Percentage: attempt.Percentage,
		UserName:   attempt.User.Email,
		QuizTitle:  attempt.Quiz.Title,
	}
}

func newAttemptViews(attempts []models.QuizAttempt) []AttemptView {
	views := make([]AttemptView, 0, len(attempts))
	for i := range attempts {
		views = append(views, newAttemptView(&attempts[i]))
	}
	return views
}
