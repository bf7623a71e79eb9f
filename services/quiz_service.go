package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quizmaster/models"

	"gorm.io/gorm"
)

type QuizService struct {
	db    *gorm.DB
	cache *ViewCache
}

func NewQuizService(db *gorm.DB, cache *ViewCache) *QuizService {
	return &QuizService{db: db, cache: cache}
}

type CreateQuizRequest struct {
	Title        string `json:"title" binding:"required"`
	ChapterID    uint   `json:"chapter_id" binding:"required"`
	DateOfQuiz   string `json:"date_of_quiz" binding:"required"` // RFC 3339
	TimeDuration int    `json:"time_duration" binding:"required,min=1"`
	Remarks      string `json:"remarks"`
	IsActive     *bool  `json:"is_active"`
}

type UpdateQuizRequest struct {
	Title        string  `json:"title"`
	ChapterID    uint    `json:"chapter_id"`
	DateOfQuiz   string  `json:"date_of_quiz"`
	TimeDuration int     `json:"time_duration"`
	Remarks      *string `json:"remarks"`
	IsActive     *bool   `json:"is_active"`
}

type CreateQuestionRequest struct {
	QuestionStatement string `json:"question_statement" binding:"required"`
	Option1           string `json:"option1" binding:"required"`
	Option2           string `json:"option2" binding:"required"`
	Option3           string `json:"option3" binding:"required"`
	Option4           string `json:"option4" binding:"required"`
	CorrectOption     int    `json:"correct_option" binding:"required"`
}

func (s *QuizService) CreateQuiz(req *CreateQuizRequest) (*models.Quiz, error) {
	var chapter models.Chapter
	if err := s.db.First(&chapter, req.ChapterID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	dateOfQuiz, err := parseQuizDate(req.DateOfQuiz)
	if err != nil {
		return nil, err
	}

	quiz := models.Quiz{
		Title:        req.Title,
		ChapterID:    req.ChapterID,
		DateOfQuiz:   dateOfQuiz,
		TimeDuration: req.TimeDuration,
		Remarks:      req.Remarks,
		IsActive:     true,
	}
	if req.IsActive != nil {
		quiz.IsActive = *req.IsActive
	}

	if err := s.db.Create(&quiz).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	return s.GetQuizByID(quiz.ID)
}

func (s *QuizService) GetQuizzes() ([]models.Quiz, error) {
	var quizzes []models.Quiz
	err := s.db.
		Preload("Chapter").
		Preload("Chapter.Subject").
		Preload("Questions").
		Order("date_of_quiz DESC").
		Find(&quizzes).Error
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return quizzes, nil
}

func (s *QuizService) GetQuizByID(quizID uint) (*models.Quiz, error) {
	var quiz models.Quiz
	err := s.db.
		Preload("Chapter").
		Preload("Chapter.Subject").
		Preload("Questions").
		First(&quiz, quizID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &quiz, nil
}

func (s *QuizService) UpdateQuiz(quizID uint, req *UpdateQuizRequest) (*models.Quiz, error) {
	quiz, err := s.GetQuizByID(quizID)
	if err != nil {
		return nil, err
	}

	if req.Title != "" {
		quiz.Title = req.Title
	}
	if req.ChapterID != 0 {
		var chapter models.Chapter
		if err := s.db.First(&chapter, req.ChapterID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNotFound
			}
			return nil, fmt.Errorf("database error: %w", err)
		}
		quiz.ChapterID = req.ChapterID
	}
	if req.DateOfQuiz != "" {
		dateOfQuiz, err := parseQuizDate(req.DateOfQuiz)
		if err != nil {
			return nil, err
		}
		quiz.DateOfQuiz = dateOfQuiz
	}
	if req.TimeDuration != 0 {
		quiz.TimeDuration = req.TimeDuration
	}
	if req.Remarks != nil {
		quiz.Remarks = *req.Remarks
	}
	if req.IsActive != nil {
		quiz.IsActive = *req.IsActive
	}

	if err := s.db.Save(quiz).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	s.cache.InvalidatePrefix(context.Background(), attemptCachePrefix, statsCachePrefix)

	return s.GetQuizByID(quiz.ID)
}

// ToggleActivation flips a quiz's active flag. Cached attempt and stats
// views include quiz data, so they are evicted before this returns.
func (s *QuizService) ToggleActivation(quizID uint) (*models.Quiz, error) {
	quiz, err := s.GetQuizByID(quizID)
	if err != nil {
		return nil, err
	}

	quiz.IsActive = !quiz.IsActive
	if err := s.db.Model(&models.Quiz{ID: quiz.ID}).Update("is_active", quiz.IsActive).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	s.cache.InvalidatePrefix(context.Background(), attemptCachePrefix, statsCachePrefix)

	return quiz, nil
}

// DeleteQuiz removes a quiz together with its questions and attempts in one
// transaction, so a partial delete is never observable.
func (s *QuizService) DeleteQuiz(quizID uint) error {
	if _, err := s.GetQuizByID(quizID); err != nil {
		return err
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Where("quiz_id = ?", quizID).Delete(&models.QuizAttempt{}).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("database error: %w", err)
	}
	if err := tx.Where("quiz_id = ?", quizID).Delete(&models.Question{}).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("database error: %w", err)
	}
	if err := tx.Delete(&models.Quiz{}, quizID).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("database error: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("database error: %w", err)
	}

	s.cache.InvalidatePrefix(context.Background(), attemptCachePrefix, statsCachePrefix)

	return nil
}

func (s *QuizService) GetQuestions(quizID uint) ([]models.Question, error) {
	if _, err := s.GetQuizByID(quizID); err != nil {
		return nil, err
	}

	var questions []models.Question
	if err := s.db.Where("quiz_id = ?", quizID).Order("id ASC").Find(&questions).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return questions, nil
}

func (s *QuizService) CreateQuestion(quizID uint, req *CreateQuestionRequest) (*models.Question, error) {
	if _, err := s.GetQuizByID(quizID); err != nil {
		return nil, err
	}

	if req.CorrectOption < 1 || req.CorrectOption > 4 {
		return nil, fmt.Errorf("%w: correct_option must be between 1 and 4", ErrInvalidInput)
	}

	question := models.Question{
		QuizID:            quizID,
		QuestionStatement: req.QuestionStatement,
		Option1:           req.Option1,
		Option2:           req.Option2,
		Option3:           req.Option3,
		Option4:           req.Option4,
		CorrectOption:     req.CorrectOption,
	}

	if err := s.db.Create(&question).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	return &question, nil
}

func (s *QuizService) UpdateQuestion(quizID, questionID uint, req *CreateQuestionRequest) (*models.Question, error) {
	var question models.Question
	if err := s.db.Where("id = ? AND quiz_id = ?", questionID, quizID).First(&question).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if req.CorrectOption < 1 || req.CorrectOption > 4 {
		return nil, fmt.Errorf("%w: correct_option must be between 1 and 4", ErrInvalidInput)
	}

	question.QuestionStatement = req.QuestionStatement
	question.Option1 = req.Option1
	question.Option2 = req.Option2
	question.Option3 = req.Option3
	question.Option4 = req.Option4
	question.CorrectOption = req.CorrectOption

	if err := s.db.Save(&question).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	return &question, nil
}

func (s *QuizService) DeleteQuestion(quizID, questionID uint) error {
	var question models.Question
	if err := s.db.Where("id = ? AND quiz_id = ?", questionID, quizID).First(&question).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("database error: %w", err)
	}

	if err := s.db.Delete(&question).Error; err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	return nil
}

// parseQuizDate accepts RFC 3339 or the shorter datetime-local form the
// admin UI posts.
func parseQuizDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02T15:04", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date_of_quiz must be RFC 3339 or YYYY-MM-DDTHH:MM", ErrInvalidInput)
	}
	return t, nil
}
