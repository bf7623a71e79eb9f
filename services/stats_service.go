package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"quizmaster/models"

	"gorm.io/gorm"
)

type StatsService struct {
	db    *gorm.DB
	cache *ViewCache
}

func NewStatsService(db *gorm.DB, cache *ViewCache) *StatsService {
	return &StatsService{db: db, cache: cache}
}

// SubjectStatsReport summarizes attempts grouped by subject name.
type SubjectStatsReport struct {
	SubjectTopScores map[string]float64 `json:"subject_top_scores"`
	SubjectAttempts  map[string]int     `json:"subject_attempts"`
	TotalAttempts    int                `json:"total_attempts"`
}

type QuizStats struct {
	AttemptCount      int     `json:"attempt_count"`
	AveragePercentage float64 `json:"average_percentage"`
}

// GlobalStatsReport is the admin-wide aggregate over all attempts.
type GlobalStatsReport struct {
	TotalAttempts     int                `json:"total_attempts"`
	AveragePercentage float64            `json:"average_percentage"`
	BestAttempt       *AttemptView       `json:"best_attempt,omitempty"`
	RecentAttempts    []AttemptView      `json:"recent_attempts"`
	PerQuiz           map[uint]QuizStats `json:"per_quiz"`
}

type UserStatAttempt struct {
	ID          uint   `json:"id"`
	Timestamp   string `json:"timestamp"`
	SubjectName string `json:"subject_name"`
}

type UserStatsReport struct {
	UserID   uint              `json:"user_id"`
	UserName string            `json:"user_name"`
	Attempts []UserStatAttempt `json:"attempts"`
}

type SubjectPerformance struct {
	Attempts   int
	TotalScore float64
	MaxScore   float64
	Percentage float64
}

// PerformanceSummary feeds the emailed performance report.
type PerformanceSummary struct {
	TotalAttempts     int
	TotalScore        float64
	MaxPossibleScore  float64
	AveragePercentage float64
	BySubject         map[string]SubjectPerformance
}

const recentAttemptLimit = 10

// SubjectStats computes per-subject top scores and attempt counts over a
// single bulk fetch, so the report never mixes attempts from different
// points in time.
func (s *StatsService) SubjectStats() (*SubjectStatsReport, error) {
	cacheKey := statsCachePrefix + "subjects"
	var cached SubjectStatsReport
	if s.cache.Get(context.Background(), cacheKey, &cached) {
		return &cached, nil
	}

	attempts, err := s.fetchAttemptsSnapshot()
	if err != nil {
		return nil, err
	}

	report := SubjectStatsReport{
		SubjectTopScores: make(map[string]float64),
		SubjectAttempts:  make(map[string]int),
		TotalAttempts:    len(attempts),
	}

	for i := range attempts {
		subjectName := attempts[i].Quiz.Chapter.Subject.Name

		top, seen := report.SubjectTopScores[subjectName]
		if !seen || attempts[i].Percentage > top {
			report.SubjectTopScores[subjectName] = attempts[i].Percentage
		}
		report.SubjectAttempts[subjectName]++
	}

	s.cache.Set(context.Background(), cacheKey, &report, StatsCacheTTL)

	return &report, nil
}

// GlobalStats computes the admin dashboard aggregate from one snapshot:
// total count, unweighted mean percentage, best attempt, the ten most
// recent attempts, and per-quiz counts and means. Among equally scored
// best attempts the earliest created one wins; strict comparison against
// the id-ordered snapshot keeps that stable.
func (s *StatsService) GlobalStats() (*GlobalStatsReport, error) {
	cacheKey := statsCachePrefix + "global"
	var cached GlobalStatsReport
	if s.cache.Get(context.Background(), cacheKey, &cached) {
		return &cached, nil
	}

	attempts, err := s.fetchAttemptsSnapshot()
	if err != nil {
		return nil, err
	}

	report := GlobalStatsReport{
		TotalAttempts:  len(attempts),
		RecentAttempts: []AttemptView{},
		PerQuiz:        make(map[uint]QuizStats),
	}

	var sumPercentage float64
	var best *models.QuizAttempt
	perQuizSum := make(map[uint]float64)
	perQuizCount := make(map[uint]int)

	for i := range attempts {
		attempt := &attempts[i]
		sumPercentage += attempt.Percentage

		if best == nil || attempt.Percentage > best.Percentage {
			best = attempt
		}

		perQuizSum[attempt.QuizID] += attempt.Percentage
		perQuizCount[attempt.QuizID]++
	}

	if len(attempts) > 0 {
		report.AveragePercentage = round2(sumPercentage / float64(len(attempts)))
	}
	if best != nil {
		view := newAttemptView(best)
		report.BestAttempt = &view
	}

	for quizID, count := range perQuizCount {
		report.PerQuiz[quizID] = QuizStats{
			AttemptCount:      count,
			AveragePercentage: round2(perQuizSum[quizID] / float64(count)),
		}
	}

	recent := make([]models.QuizAttempt, len(attempts))
	copy(recent, attempts)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].Timestamp.After(recent[j].Timestamp)
	})
	if len(recent) > recentAttemptLimit {
		recent = recent[:recentAttemptLimit]
	}
	report.RecentAttempts = newAttemptViews(recent)

	s.cache.Set(context.Background(), cacheKey, &report, StatsCacheTTL)

	return &report, nil
}

// UserStats lists one user's attempts, newest first, with the subject each
// quiz belongs to. Owner-only, like single-attempt reads.
func (s *StatsService) UserStats(actor Actor, targetUserID uint) (*UserStatsReport, error) {
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

	var attempts []models.QuizAttempt
	err := s.db.Where("user_id = ?", targetUserID).
		Preload("Quiz").
		Preload("Quiz.Chapter").
		Preload("Quiz.Chapter.Subject").
		Order("timestamp DESC").
		Find(&attempts).Error
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	report := UserStatsReport{
		UserID:   user.ID,
		UserName: user.Email,
		Attempts: make([]UserStatAttempt, 0, len(attempts)),
	}

	for i := range attempts {
		report.Attempts = append(report.Attempts, UserStatAttempt{
			ID:          attempts[i].ID,
			Timestamp:   attempts[i].Timestamp.Format(time.RFC3339),
			SubjectName: attempts[i].Quiz.Chapter.Subject.Name,
		})
	}

	return &report, nil
}

// PerformanceSince aggregates one user's attempts from the given time on,
// for the periodic performance report email. The overall average weighs
// each question equally, not each attempt.
func (s *StatsService) PerformanceSince(userID uint, since time.Time) (*PerformanceSummary, error) {
	var attempts []models.QuizAttempt
	err := s.db.Where("user_id = ? AND timestamp >= ?", userID, since).
		Preload("Quiz").
		Preload("Quiz.Chapter").
		Preload("Quiz.Chapter.Subject").
		Find(&attempts).Error
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	summary := PerformanceSummary{
		TotalAttempts: len(attempts),
		BySubject:     make(map[string]SubjectPerformance),
	}

	for i := range attempts {
		attempt := &attempts[i]
		summary.TotalScore += attempt.TotalScore
		summary.MaxPossibleScore += attempt.MaxScore

		subjectName := attempt.Quiz.Chapter.Subject.Name
		perf := summary.BySubject[subjectName]
		perf.Attempts++
		perf.TotalScore += attempt.TotalScore
		perf.MaxScore += attempt.MaxScore
		summary.BySubject[subjectName] = perf
	}

	if summary.MaxPossibleScore > 0 {
		summary.AveragePercentage = round2(summary.TotalScore / summary.MaxPossibleScore * 100)
	}
	for subjectName, perf := range summary.BySubject {
		if perf.MaxScore > 0 {
			perf.Percentage = round2(perf.TotalScore / perf.MaxScore * 100)
		}
		summary.BySubject[subjectName] = perf
	}

	return &summary, nil
}

// fetchAttemptsSnapshot bulk-loads every attempt with quiz, chapter, and
// subject resolved, in creation order.
func (s *StatsService) fetchAttemptsSnapshot() ([]models.QuizAttempt, error) {
	var attempts []models.QuizAttempt
	err := s.db.
		Preload("User").
		Preload("Quiz").
		Preload("Quiz.Chapter").
		Preload("Quiz.Chapter.Subject").
		Order("id ASC").
		Find(&attempts).Error
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return attempts, nil
}
