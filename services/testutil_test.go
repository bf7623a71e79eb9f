package services

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"quizmaster/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func intKey(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Subject{},
		&models.Chapter{},
		&models.Quiz{},
		&models.Question{},
		&models.QuizAttempt{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

func createUser(t *testing.T, db *gorm.DB, email, role string) *models.User {
	t.Helper()

	user := models.User{
		Email:    email,
		Password: "not-a-real-hash",
		FullName: email,
		Role:     role,
		Active:   true,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", email, err)
	}
	return &user
}

func createQuizTree(t *testing.T, db *gorm.DB, subjectName, chapterName, quizTitle string) *models.Quiz {
	t.Helper()

	subject := models.Subject{Name: subjectName}
	if err := db.Create(&subject).Error; err != nil {
		t.Fatalf("failed to create subject: %v", err)
	}

	chapter := models.Chapter{SubjectID: subject.ID, Name: chapterName}
	if err := db.Create(&chapter).Error; err != nil {
		t.Fatalf("failed to create chapter: %v", err)
	}

	quiz := models.Quiz{
		Title:        quizTitle,
		ChapterID:    chapter.ID,
		DateOfQuiz:   time.Now(),
		TimeDuration: 30,
		IsActive:     true,
	}
	if err := db.Create(&quiz).Error; err != nil {
		t.Fatalf("failed to create quiz: %v", err)
	}
	return &quiz
}

func addQuestion(t *testing.T, db *gorm.DB, quizID uint, correctOption int) *models.Question {
	t.Helper()

	question := models.Question{
		QuizID:            quizID,
		QuestionStatement: "statement",
		Option1:           "a",
		Option2:           "b",
		Option3:           "c",
		Option4:           "d",
		CorrectOption:     correctOption,
	}
	if err := db.Create(&question).Error; err != nil {
		t.Fatalf("failed to create question: %v", err)
	}
	return &question
}

func createAttempt(t *testing.T, db *gorm.DB, userID, quizID uint, percentage float64, timestamp time.Time) *models.QuizAttempt {
	t.Helper()

	attempt := models.QuizAttempt{
		UserID:     userID,
		QuizID:     quizID,
		Timestamp:  timestamp,
		TotalScore: percentage / 100,
		MaxScore:   1,
		Percentage: percentage,
	}
	if err := db.Create(&attempt).Error; err != nil {
		t.Fatalf("failed to create attempt: %v", err)
	}
	return &attempt
}
