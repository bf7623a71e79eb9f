package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"quizmaster/mailer"
	"quizmaster/models"
	"quizmaster/services"

	"gorm.io/gorm"
)

type ExportAttemptsPayload struct {
	UserID uint `json:"user_id"`
}

type QuizReminderPayload struct {
	UserID  uint   `json:"user_id"`
	QuizIDs []uint `json:"quiz_ids"`
}

type PerformanceReportPayload struct {
	UserID uint `json:"user_id"`
}

// Sender is the outbound mail dependency of the worker.
type Sender interface {
	Send(to, subject, htmlBody string, attachments ...mailer.Attachment) error
}

// Worker consumes jobs and executes them. A failed job is logged and
// dropped; every handler regenerates its output from current state, so a
// redelivered job sends a duplicate email at worst.
type Worker struct {
	queue    Queue
	db       *gorm.DB
	mail     Sender
	attempts *services.AttemptService
	stats    *services.StatsService
}

func NewWorker(queue Queue, db *gorm.DB, mail Sender, attempts *services.AttemptService, stats *services.StatsService) *Worker {
	return &Worker{
		queue:    queue,
		db:       db,
		mail:     mail,
		attempts: attempts,
		stats:    stats,
	}
}

func (w *Worker) Run(ctx context.Context) {
	log.Println("Job worker started")

	for {
		select {
		case <-ctx.Done():
			log.Println("Job worker stopped")
			return
		default:
		}

		job, err := w.queue.Dequeue(ctx, 5*time.Second)
		if err != nil {
			if ctx.Err() != nil {
				log.Println("Job worker stopped")
				return
			}
			log.Printf("Failed to dequeue job: %v", err)
			time.Sleep(time.Second)
			continue
		}
		if job == nil {
			continue
		}

		if err := w.Handle(ctx, job); err != nil {
			log.Printf("Job %s (%s) failed: %v", job.ID, job.Type, err)
		}
	}
}

func (w *Worker) Handle(ctx context.Context, job *Job) error {
	switch job.Type {
	case TypeExportAttemptsCSV:
		var payload ExportAttemptsPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return fmt.Errorf("bad payload: %w", err)
		}
		return w.exportAttemptsCSV(payload.UserID)
	case TypeQuizReminder:
		var payload QuizReminderPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return fmt.Errorf("bad payload: %w", err)
		}
		return w.sendQuizReminder(payload.UserID, payload.QuizIDs)
	case TypePerformanceReport:
		var payload PerformanceReportPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return fmt.Errorf("bad payload: %w", err)
		}
		return w.sendPerformanceReport(payload.UserID)
	default:
		return fmt.Errorf("unknown job type %q", job.Type)
	}
}

func (w *Worker) exportAttemptsCSV(userID uint) error {
	var user models.User
	if err := w.db.First(&user, userID).Error; err != nil {
		return fmt.Errorf("user %d not found: %w", userID, err)
	}

	attempts, err := w.attempts.FetchAttemptsForExport(userID)
	if err != nil {
		return err
	}
	if len(attempts) == 0 {
		log.Printf("No quiz attempts found for %s, skipping export", user.Email)
		return nil
	}

	csvData, err := services.BuildAttemptsCSV(attempts)
	if err != nil {
		return err
	}

	body := "<p>Hello,</p><p>Please find your quiz attempts history attached in the CSV file.</p>"
	return w.mail.Send(user.Email, "Your Quiz Attempts Export", body, mailer.Attachment{
		Name: "quiz_attempts.csv",
		MIME: "text/csv",
		Data: csvData,
	})
}

func (w *Worker) sendQuizReminder(userID uint, quizIDs []uint) error {
	var user models.User
	if err := w.db.First(&user, userID).Error; err != nil {
		return fmt.Errorf("user %d not found: %w", userID, err)
	}

	var quizzes []models.Quiz
	if err := w.db.Where("id IN ?", quizIDs).
		Preload("Chapter").
		Preload("Chapter.Subject").
		Find(&quizzes).Error; err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if len(quizzes) == 0 {
		return nil
	}

	var quizList strings.Builder
	for i := range quizzes {
		quiz := &quizzes[i]
		fmt.Fprintf(&quizList, `<li><strong>%s</strong><br>Subject: %s<br>Chapter: %s<br>Date: %s<br>Duration: %d minutes</li><br>`,
			quiz.Title,
			quiz.Chapter.Subject.Name,
			quiz.Chapter.Name,
			quiz.DateOfQuiz.Format("2006-01-02 15:04"),
			quiz.TimeDuration,
		)
	}

	body := fmt.Sprintf(`<html><body>
<h2>Quiz Reminder</h2>
<p>Hello %s,</p>
<p>This is a friendly reminder about the following upcoming quizzes:</p>
<ul>%s</ul>
<p>Don't forget to prepare and participate!</p>
<p>Best regards,<br>Quiz Master Team</p>
</body></html>`, user.FullName, quizList.String())

	return w.mail.Send(user.Email, "Quiz Reminder - Upcoming Quizzes", body)
}

func (w *Worker) sendPerformanceReport(userID uint) error {
	var user models.User
	if err := w.db.First(&user, userID).Error; err != nil {
		return fmt.Errorf("user %d not found: %w", userID, err)
	}

	summary, err := w.stats.PerformanceSince(userID, time.Now().AddDate(0, 0, -30))
	if err != nil {
		return err
	}

	var body string
	if summary.TotalAttempts == 0 {
		body = fmt.Sprintf(`<html><body>
<h2>Monthly Performance Report</h2>
<p>Hello %s,</p>
<p>We haven't seen you taking any quizzes in the last month.</p>
<p>Why not give it a try? Check out our latest quizzes!</p>
<p>Best regards,<br>Quiz Master Team</p>
</body></html>`, user.FullName)
	} else {
		var rows strings.Builder
		for subjectName, perf := range summary.BySubject {
			fmt.Fprintf(&rows, "<tr><td>%s</td><td>%d</td><td>%.1f%%</td></tr>", subjectName, perf.Attempts, perf.Percentage)
		}

		body = fmt.Sprintf(`<html><body>
<h2>Monthly Performance Report</h2>
<p>Hello %s,</p>
<p>Here's your performance summary for the last month:</p>
<h3>Overall Statistics</h3>
<ul>
<li>Total Quizzes Attempted: %d</li>
<li>Average Score: %.1f%%</li>
<li>Total Points: %g/%g</li>
</ul>
<h3>Subject-wise Performance</h3>
<table border="1"><tr><th>Subject</th><th>Attempts</th><th>Average</th></tr>%s</table>
<p>Best regards,<br>Quiz Master Team</p>
</body></html>`,
			user.FullName,
			summary.TotalAttempts,
			summary.AveragePercentage,
			summary.TotalScore,
			summary.MaxPossibleScore,
			rows.String(),
		)
	}

	return w.mail.Send(user.Email, "Monthly Performance Report", body)
}
