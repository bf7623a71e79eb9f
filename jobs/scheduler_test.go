package jobs

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"quizmaster/models"

	"gorm.io/gorm"
)

func drainQueue(t *testing.T, queue *MemoryQueue) []*Job {
	t.Helper()

	var jobs []*Job
	for {
		job, err := queue.Dequeue(context.Background(), 50*time.Millisecond)
		if err != nil {
			t.Fatalf("Dequeue failed: %v", err)
		}
		if job == nil {
			return jobs
		}
		jobs = append(jobs, job)
	}
}

func seedScheduleFixture(t *testing.T, db *gorm.DB) (active1, active2, inactive models.User, dueIDs map[uint]bool) {
	t.Helper()

	active1 = models.User{Email: "a@example.com", Password: "x", FullName: "A", Role: models.RoleUser, Active: true}
	active2 = models.User{Email: "b@example.com", Password: "x", FullName: "B", Role: models.RoleUser, Active: true}
	inactive = models.User{Email: "c@example.com", Password: "x", FullName: "C", Role: models.RoleUser, Active: false}
	for _, u := range []*models.User{&active1, &active2, &inactive} {
		if err := db.Create(u).Error; err != nil {
			t.Fatal(err)
		}
	}
	// GORM omits zero-valued fields that carry a default tag from the
	// INSERT, so force the flag off with a column-level update.
	if err := db.Model(&inactive).Update("active", false).Error; err != nil {
		t.Fatal(err)
	}

	subject := models.Subject{Name: "Math"}
	if err := db.Create(&subject).Error; err != nil {
		t.Fatal(err)
	}
	chapter := models.Chapter{SubjectID: subject.ID, Name: "Algebra"}
	if err := db.Create(&chapter).Error; err != nil {
		t.Fatal(err)
	}

	now := time.Now()
	makeQuiz := func(title string, date time.Time, isActive bool) models.Quiz {
		quiz := models.Quiz{Title: title, ChapterID: chapter.ID, DateOfQuiz: date, TimeDuration: 30, IsActive: isActive}
		if err := db.Create(&quiz).Error; err != nil {
			t.Fatal(err)
		}
		if !isActive {
			if err := db.Model(&quiz).Update("is_active", false).Error; err != nil {
				t.Fatal(err)
			}
		}
		return quiz
	}

	today := makeQuiz("Today", now, true)
	tomorrow := makeQuiz("Tomorrow", now.AddDate(0, 0, 1), true)
	makeQuiz("Next Week", now.AddDate(0, 0, 7), true)
	makeQuiz("Yesterday", now.AddDate(0, 0, -1), true)
	makeQuiz("Inactive Today", now, false)

	return active1, active2, inactive, map[uint]bool{today.ID: true, tomorrow.ID: true}
}

func TestEnqueueQuizRemindersFanOut(t *testing.T) {
	_, _, db, queue := newWorkerTestEnv(t)
	active1, active2, inactive, dueIDs := seedScheduleFixture(t, db)

	sched := NewScheduler(db, queue)
	sched.enqueueQuizReminders()

	jobs := drainQueue(t, queue)
	if len(jobs) != 2 {
		t.Fatalf("enqueued %d jobs, want 2 (one per active user)", len(jobs))
	}

	seen := map[uint]bool{}
	for _, job := range jobs {
		if job.Type != TypeQuizReminder {
			t.Fatalf("job type = %q, want %q", job.Type, TypeQuizReminder)
		}
		var payload QuizReminderPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			t.Fatalf("bad payload: %v", err)
		}
		seen[payload.UserID] = true

		if len(payload.QuizIDs) != len(dueIDs) {
			t.Fatalf("payload carries %d quizzes, want %d: %v", len(payload.QuizIDs), len(dueIDs), payload.QuizIDs)
		}
		for _, quizID := range payload.QuizIDs {
			if !dueIDs[quizID] {
				t.Errorf("quiz %d outside the today/tomorrow window was enqueued", quizID)
			}
		}
	}

	if !seen[active1.ID] || !seen[active2.ID] {
		t.Errorf("reminders sent to %v, want both active users", seen)
	}
	if seen[inactive.ID] {
		t.Error("reminder enqueued for a deactivated user")
	}
}

func TestEnqueueQuizRemindersNoUpcomingQuizzes(t *testing.T) {
	_, _, db, queue := newWorkerTestEnv(t)

	user := models.User{Email: "a@example.com", Password: "x", FullName: "A", Role: models.RoleUser, Active: true}
	if err := db.Create(&user).Error; err != nil {
		t.Fatal(err)
	}

	sched := NewScheduler(db, queue)
	sched.enqueueQuizReminders()

	if jobs := drainQueue(t, queue); len(jobs) != 0 {
		t.Errorf("enqueued %d jobs with no upcoming quizzes, want 0", len(jobs))
	}
}

func TestEnqueuePerformanceReportsFanOut(t *testing.T) {
	_, _, db, queue := newWorkerTestEnv(t)
	active1, active2, inactive, _ := seedScheduleFixture(t, db)

	sched := NewScheduler(db, queue)
	sched.enqueuePerformanceReports()

	jobs := drainQueue(t, queue)
	if len(jobs) != 2 {
		t.Fatalf("enqueued %d jobs, want 2 (one per active user)", len(jobs))
	}

	seen := map[uint]bool{}
	for _, job := range jobs {
		if job.Type != TypePerformanceReport {
			t.Fatalf("job type = %q, want %q", job.Type, TypePerformanceReport)
		}
		var payload PerformanceReportPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			t.Fatalf("bad payload: %v", err)
		}
		seen[payload.UserID] = true
	}

	if !seen[active1.ID] || !seen[active2.ID] {
		t.Errorf("reports enqueued for %v, want both active users", seen)
	}
	if seen[inactive.ID] {
		t.Error("report enqueued for a deactivated user")
	}
}
