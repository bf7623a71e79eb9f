package jobs

import (
	"context"
	"log"
	"time"

	"quizmaster/models"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// Scheduler fans scheduled work out as queue jobs: one reminder or report
// job per user, so a single failed send never blocks the rest.
type Scheduler struct {
	cron  *cron.Cron
	db    *gorm.DB
	queue Queue
}

func NewScheduler(db *gorm.DB, queue Queue) *Scheduler {
	return &Scheduler{
		cron:  cron.New(),
		db:    db,
		queue: queue,
	}
}

func (s *Scheduler) Start() error {
	// Daily reminders at 20:00, monthly reports on the 1st at midnight.
	if _, err := s.cron.AddFunc("0 20 * * *", s.enqueueQuizReminders); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("0 0 1 * *", s.enqueuePerformanceReports); err != nil {
		return err
	}

	s.cron.Start()
	log.Println("Scheduler started")
	return nil
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}

// enqueueQuizReminders queues a reminder job per active user covering the
// active quizzes scheduled today or tomorrow.
func (s *Scheduler) enqueueQuizReminders() {
	now := time.Now()
	startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	endOfTomorrow := startOfToday.AddDate(0, 0, 2)

	var quizzes []models.Quiz
	err := s.db.Where("date_of_quiz >= ? AND date_of_quiz < ? AND is_active = ?", startOfToday, endOfTomorrow, true).
		Find(&quizzes).Error
	if err != nil {
		log.Printf("Failed to load upcoming quizzes: %v", err)
		return
	}
	if len(quizzes) == 0 {
		log.Println("No upcoming quizzes found for reminders")
		return
	}

	quizIDs := make([]uint, 0, len(quizzes))
	for i := range quizzes {
		quizIDs = append(quizIDs, quizzes[i].ID)
	}

	var users []models.User
	if err := s.db.Where("active = ?", true).Find(&users).Error; err != nil {
		log.Printf("Failed to load active users: %v", err)
		return
	}

	reminderCount := 0
	for i := range users {
		payload := QuizReminderPayload{UserID: users[i].ID, QuizIDs: quizIDs}
		if _, err := s.queue.Enqueue(context.Background(), TypeQuizReminder, payload); err != nil {
			log.Printf("Failed to enqueue reminder for user %d: %v", users[i].ID, err)
			continue
		}
		reminderCount++
	}
	log.Printf("Enqueued %d quiz reminders", reminderCount)
}

func (s *Scheduler) enqueuePerformanceReports() {
	var users []models.User
	if err := s.db.Where("active = ?", true).Find(&users).Error; err != nil {
		log.Printf("Failed to load active users: %v", err)
		return
	}

	reportCount := 0
	for i := range users {
		payload := PerformanceReportPayload{UserID: users[i].ID}
		if _, err := s.queue.Enqueue(context.Background(), TypePerformanceReport, payload); err != nil {
			log.Printf("Failed to enqueue performance report for user %d: %v", users[i].ID, err)
			continue
		}
		reportCount++
	}
	log.Printf("Enqueued %d performance reports", reportCount)
}
