package services

import (
	"context"
	"errors"
	"fmt"

	"quizmaster/models"

	"gorm.io/gorm"
)

type SubjectService struct {
	db    *gorm.DB
	cache *ViewCache
}

func NewSubjectService(db *gorm.DB, cache *ViewCache) *SubjectService {
	return &SubjectService{db: db, cache: cache}
}

type CreateSubjectRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type CreateChapterRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

func (s *SubjectService) CreateSubject(req *CreateSubjectRequest) (*models.Subject, error) {
	var existing models.Subject
	if err := s.db.Where("name = ?", req.Name).First(&existing).Error; err == nil {
		return nil, fmt.Errorf("%w: subject %q already exists", ErrInvalidInput, req.Name)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("database error: %w", err)
	}

	subject := models.Subject{Name: req.Name, Description: req.Description}
	if err := s.db.Create(&subject).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &subject, nil
}

func (s *SubjectService) GetSubjects() ([]models.Subject, error) {
	var subjects []models.Subject
	if err := s.db.Preload("Chapters").Order("name ASC").Find(&subjects).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return subjects, nil
}

func (s *SubjectService) GetSubjectByID(subjectID uint) (*models.Subject, error) {
	var subject models.Subject
	if err := s.db.Preload("Chapters").First(&subject, subjectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &subject, nil
}

func (s *SubjectService) UpdateSubject(subjectID uint, req *CreateSubjectRequest) (*models.Subject, error) {
	subject, err := s.GetSubjectByID(subjectID)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		subject.Name = req.Name
	}
	if req.Description != "" {
		subject.Description = req.Description
	}

	if err := s.db.Save(subject).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	// Stats views are keyed by subject name, so a rename makes them stale.
	s.cache.InvalidatePrefix(context.Background(), statsCachePrefix)

	return subject, nil
}

// DeleteSubject removes a subject and everything under it: chapters,
// quizzes, questions, and attempts, all in one transaction.
func (s *SubjectService) DeleteSubject(subjectID uint) error {
	subject, err := s.GetSubjectByID(subjectID)
	if err != nil {
		return err
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	for _, chapter := range subject.Chapters {
		if err := deleteChapterTree(tx, chapter.ID); err != nil {
			tx.Rollback()
			return err
		}
	}

	if err := tx.Delete(&models.Subject{}, subjectID).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("database error: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("database error: %w", err)
	}

	s.cache.InvalidatePrefix(context.Background(), attemptCachePrefix, statsCachePrefix)

	return nil
}

func (s *SubjectService) GetChapters(subjectID uint) ([]models.Chapter, error) {
	if _, err := s.GetSubjectByID(subjectID); err != nil {
		return nil, err
	}

	var chapters []models.Chapter
	if err := s.db.Where("subject_id = ?", subjectID).Order("name ASC").Find(&chapters).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return chapters, nil
}

func (s *SubjectService) GetChapterByID(subjectID, chapterID uint) (*models.Chapter, error) {
	var chapter models.Chapter
	err := s.db.Where("id = ? AND subject_id = ?", chapterID, subjectID).First(&chapter).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &chapter, nil
}

func (s *SubjectService) CreateChapter(subjectID uint, req *CreateChapterRequest) (*models.Chapter, error) {
	if _, err := s.GetSubjectByID(subjectID); err != nil {
		return nil, err
	}

	var existing models.Chapter
	if err := s.db.Where("name = ? AND subject_id = ?", req.Name, subjectID).First(&existing).Error; err == nil {
		return nil, fmt.Errorf("%w: chapter %q already exists", ErrInvalidInput, req.Name)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("database error: %w", err)
	}

	chapter := models.Chapter{
		SubjectID:   subjectID,
		Name:        req.Name,
		Description: req.Description,
	}
	if err := s.db.Create(&chapter).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &chapter, nil
}

func (s *SubjectService) UpdateChapter(subjectID, chapterID uint, req *CreateChapterRequest) (*models.Chapter, error) {
	chapter, err := s.GetChapterByID(subjectID, chapterID)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		chapter.Name = req.Name
	}
	if req.Description != "" {
		chapter.Description = req.Description
	}

	if err := s.db.Save(chapter).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return chapter, nil
}

func (s *SubjectService) DeleteChapter(subjectID, chapterID uint) error {
	if _, err := s.GetChapterByID(subjectID, chapterID); err != nil {
		return err
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := deleteChapterTree(tx, chapterID); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("database error: %w", err)
	}

	s.cache.InvalidatePrefix(context.Background(), attemptCachePrefix, statsCachePrefix)

	return nil
}

// deleteChapterTree removes a chapter and its quizzes, questions, and
// attempts inside the caller's transaction.
func deleteChapterTree(tx *gorm.DB, chapterID uint) error {
	var quizIDs []uint
	if err := tx.Model(&models.Quiz{}).Where("chapter_id = ?", chapterID).Pluck("id", &quizIDs).Error; err != nil {
		return fmt.Errorf("database error: %w", err)
	}

	if len(quizIDs) > 0 {
		if err := tx.Where("quiz_id IN ?", quizIDs).Delete(&models.QuizAttempt{}).Error; err != nil {
			return fmt.Errorf("database error: %w", err)
		}
		if err := tx.Where("quiz_id IN ?", quizIDs).Delete(&models.Question{}).Error; err != nil {
			return fmt.Errorf("database error: %w", err)
		}
		if err := tx.Where("chapter_id = ?", chapterID).Delete(&models.Quiz{}).Error; err != nil {
			return fmt.Errorf("database error: %w", err)
		}
	}

	if err := tx.Delete(&models.Chapter{}, chapterID).Error; err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	return nil
}
