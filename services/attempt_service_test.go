package services

import (
	"errors"
	"testing"
	"time"

	"quizmaster/models"
)

func TestSubmitAttemptScoresAndPersists(t *testing.T) {
	db := newTestDB(t)
	svc := NewAttemptService(db, nil)

	user := createUser(t, db, "student@example.com", models.RoleUser)
	quiz := createQuizTree(t, db, "Math", "Algebra", "Quiz 1")
	q1 := addQuestion(t, db, quiz.ID, 1)
	q2 := addQuestion(t, db, quiz.ID, 2)
	q3 := addQuestion(t, db, quiz.ID, 3)
	q4 := addQuestion(t, db, quiz.ID, 4)

	attempt, err := svc.SubmitAttempt(user.ID, &SubmitAttemptRequest{
		QuizID: quiz.ID,
		Answers: map[string]interface{}{
			intKey(q1.ID): "1",
			intKey(q2.ID): "2",
			intKey(q3.ID): "9",
			intKey(q4.ID): nil,
		},
	})
	if err != nil {
		t.Fatalf("SubmitAttempt failed: %v", err)
	}

	if attempt.TotalScore != 2 || attempt.MaxScore != 4 || attempt.Percentage != 50.00 {
		t.Errorf("got (%v, %v, %v), want (2, 4, 50.00)",
			attempt.TotalScore, attempt.MaxScore, attempt.Percentage)
	}

	var stored models.QuizAttempt
	if err := db.First(&stored, attempt.ID).Error; err != nil {
		t.Fatalf("attempt not persisted: %v", err)
	}
	if stored.Percentage != 50.00 {
		t.Errorf("stored percentage = %v, want 50.00", stored.Percentage)
	}
}

func TestSubmitAttemptErrors(t *testing.T) {
	db := newTestDB(t)
	svc := NewAttemptService(db, nil)

	user := createUser(t, db, "student@example.com", models.RoleUser)

	t.Run("quiz not found", func(t *testing.T) {
		_, err := svc.SubmitAttempt(user.ID, &SubmitAttemptRequest{
			QuizID:  9999,
			Answers: map[string]interface{}{},
		})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("quiz without questions", func(t *testing.T) {
		quiz := createQuizTree(t, db, "Empty", "None", "Empty Quiz")
		_, err := svc.SubmitAttempt(user.ID, &SubmitAttemptRequest{
			QuizID:  quiz.ID,
			Answers: map[string]interface{}{},
		})
		if !errors.Is(err, ErrInvalidQuiz) {
			t.Fatalf("err = %v, want ErrInvalidQuiz", err)
		}
	})

	t.Run("inactive quiz", func(t *testing.T) {
		quiz := createQuizTree(t, db, "Inactive", "None", "Inactive Quiz")
		addQuestion(t, db, quiz.ID, 1)
		if err := db.Model(quiz).Update("is_active", false).Error; err != nil {
			t.Fatalf("failed to deactivate quiz: %v", err)
		}

		_, err := svc.SubmitAttempt(user.ID, &SubmitAttemptRequest{
			QuizID:  quiz.ID,
			Answers: map[string]interface{}{},
		})
		if !errors.Is(err, ErrInactiveQuiz) {
			t.Fatalf("err = %v, want ErrInactiveQuiz", err)
		}
	})
}

func TestCanAccessAttempt(t *testing.T) {
	tests := []struct {
		name    string
		actor   Actor
		ownerID uint
		want    bool
	}{
		{"owner reads own attempt", Actor{ID: 1, Role: models.RoleUser}, 1, true},
		{"non-admin denied another user's attempt", Actor{ID: 1, Role: models.RoleUser}, 2, false},
		{"admin reads own attempt", Actor{ID: 3, Role: models.RoleAdmin}, 3, true},
		{"admin denied another user's attempt", Actor{ID: 3, Role: models.RoleAdmin}, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempt := &models.QuizAttempt{UserID: tt.ownerID}
			if got := CanAccessAttempt(tt.actor, attempt); got != tt.want {
				t.Errorf("CanAccessAttempt = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetAttemptEnforcesPolicy(t *testing.T) {
	db := newTestDB(t)
	svc := NewAttemptService(db, nil)

	owner := createUser(t, db, "owner@example.com", models.RoleUser)
	other := createUser(t, db, "other@example.com", models.RoleUser)
	admin := createUser(t, db, "admin@example.com", models.RoleAdmin)
	quiz := createQuizTree(t, db, "Math", "Algebra", "Quiz 1")
	attempt := createAttempt(t, db, owner.ID, quiz.ID, 80, time.Now())

	if _, err := svc.GetAttempt(Actor{ID: owner.ID, Role: owner.Role}, attempt.ID); err != nil {
		t.Errorf("owner read failed: %v", err)
	}

	if _, err := svc.GetAttempt(Actor{ID: other.ID, Role: other.Role}, attempt.ID); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("non-admin cross-user read: err = %v, want ErrAccessDenied", err)
	}

	if _, err := svc.GetAttempt(Actor{ID: admin.ID, Role: admin.Role}, attempt.ID); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("admin cross-user read: err = %v, want ErrAccessDenied", err)
	}

	if _, err := svc.GetAttempt(Actor{ID: owner.ID, Role: owner.Role}, 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing attempt: err = %v, want ErrNotFound", err)
	}
}

func TestListAttemptsOrderingAndPagination(t *testing.T) {
	db := newTestDB(t)
	svc := NewAttemptService(db, nil)

	user := createUser(t, db, "student@example.com", models.RoleUser)
	quiz := createQuizTree(t, db, "Math", "Algebra", "Quiz 1")

	base := time.Now()
	for i := 0; i < 5; i++ {
		createAttempt(t, db, user.ID, quiz.ID, float64(10*i), base.Add(-time.Duration(i)*time.Minute))
	}

	list, err := svc.ListAttempts(Actor{ID: user.ID, Role: models.RoleUser}, ListAttemptsFilter{Page: 1, PerPage: 2})
	if err != nil {
		t.Fatalf("ListAttempts failed: %v", err)
	}

	if len(list.Attempts) != 2 {
		t.Fatalf("got %d attempts, want 2", len(list.Attempts))
	}
	for i := 1; i < len(list.Attempts); i++ {
		if list.Attempts[i].Timestamp > list.Attempts[i-1].Timestamp {
			t.Errorf("attempts not ordered newest first")
		}
	}

	p := list.Pagination
	if p.Total != 5 || p.Pages != 3 {
		t.Errorf("pagination total/pages = %d/%d, want 5/3", p.Total, p.Pages)
	}
	if !p.HasNext || p.HasPrev {
		t.Errorf("page 1 of 3: has_next=%v has_prev=%v", p.HasNext, p.HasPrev)
	}

	last, err := svc.ListAttempts(Actor{ID: user.ID, Role: models.RoleUser}, ListAttemptsFilter{Page: 3, PerPage: 2})
	if err != nil {
		t.Fatalf("ListAttempts page 3 failed: %v", err)
	}
	if len(last.Attempts) != 1 {
		t.Errorf("page 3 has %d attempts, want 1", len(last.Attempts))
	}
	if last.Pagination.HasNext || !last.Pagination.HasPrev {
		t.Errorf("page 3 of 3: has_next=%v has_prev=%v", last.Pagination.HasNext, last.Pagination.HasPrev)
	}
}

func TestListAttemptsScoping(t *testing.T) {
	db := newTestDB(t)
	svc := NewAttemptService(db, nil)

	alice := createUser(t, db, "alice@example.com", models.RoleUser)
	bob := createUser(t, db, "bob@example.com", models.RoleUser)
	admin := createUser(t, db, "admin@example.com", models.RoleAdmin)
	quiz := createQuizTree(t, db, "Math", "Algebra", "Quiz 1")

	createAttempt(t, db, alice.ID, quiz.ID, 50, time.Now())
	createAttempt(t, db, bob.ID, quiz.ID, 70, time.Now())

	// A non-admin is always scoped to their own attempts, even when
	// asking for someone else's.
	list, err := svc.ListAttempts(Actor{ID: alice.ID, Role: models.RoleUser}, ListAttemptsFilter{UserID: bob.ID})
	if err != nil {
		t.Fatalf("ListAttempts failed: %v", err)
	}
	for _, attempt := range list.Attempts {
		if attempt.UserID != alice.ID {
			t.Errorf("non-admin saw attempt of user %d", attempt.UserID)
		}
	}

	// An admin sees everything, and the user filter is honored.
	all, err := svc.ListAttempts(Actor{ID: admin.ID, Role: models.RoleAdmin}, ListAttemptsFilter{})
	if err != nil {
		t.Fatalf("admin ListAttempts failed: %v", err)
	}
	if all.Pagination.Total != 2 {
		t.Errorf("admin total = %d, want 2", all.Pagination.Total)
	}

	filtered, err := svc.ListAttempts(Actor{ID: admin.ID, Role: models.RoleAdmin}, ListAttemptsFilter{UserID: bob.ID})
	if err != nil {
		t.Fatalf("admin filtered ListAttempts failed: %v", err)
	}
	if filtered.Pagination.Total != 1 || filtered.Attempts[0].UserID != bob.ID {
		t.Errorf("admin user filter not applied")
	}
}

func TestListUserAttemptsPolicy(t *testing.T) {
	db := newTestDB(t)
	svc := NewAttemptService(db, nil)

	alice := createUser(t, db, "alice@example.com", models.RoleUser)
	admin := createUser(t, db, "admin@example.com", models.RoleAdmin)
	quiz := createQuizTree(t, db, "Math", "Algebra", "Quiz 1")
	createAttempt(t, db, alice.ID, quiz.ID, 50, time.Now())

	list, err := svc.ListUserAttempts(Actor{ID: alice.ID, Role: alice.Role}, alice.ID, ListAttemptsFilter{})
	if err != nil {
		t.Fatalf("owner ListUserAttempts failed: %v", err)
	}
	if list.UserName != alice.Email || len(list.Attempts) != 1 {
		t.Errorf("unexpected list: user=%s attempts=%d", list.UserName, len(list.Attempts))
	}

	if _, err := svc.ListUserAttempts(Actor{ID: admin.ID, Role: admin.Role}, alice.ID, ListAttemptsFilter{}); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("admin cross-user: err = %v, want ErrAccessDenied", err)
	}
}

func TestDeleteAttempt(t *testing.T) {
	db := newTestDB(t)
	svc := NewAttemptService(db, nil)

	user := createUser(t, db, "student@example.com", models.RoleUser)
	quiz := createQuizTree(t, db, "Math", "Algebra", "Quiz 1")
	attempt := createAttempt(t, db, user.ID, quiz.ID, 80, time.Now())

	if err := svc.DeleteAttempt(attempt.ID); err != nil {
		t.Fatalf("DeleteAttempt failed: %v", err)
	}

	var count int64
	db.Model(&models.QuizAttempt{}).Count(&count)
	if count != 0 {
		t.Errorf("attempt count = %d after delete, want 0", count)
	}

	if err := svc.DeleteAttempt(attempt.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: err = %v, want ErrNotFound", err)
	}
}

func TestDeleteQuizCascadesAttempts(t *testing.T) {
	db := newTestDB(t)
	quizSvc := NewQuizService(db, nil)

	user := createUser(t, db, "student@example.com", models.RoleUser)
	quiz := createQuizTree(t, db, "Math", "Algebra", "Quiz 1")
	addQuestion(t, db, quiz.ID, 1)
	createAttempt(t, db, user.ID, quiz.ID, 80, time.Now())
	createAttempt(t, db, user.ID, quiz.ID, 90, time.Now())

	if err := quizSvc.DeleteQuiz(quiz.ID); err != nil {
		t.Fatalf("DeleteQuiz failed: %v", err)
	}

	var attempts, questions int64
	db.Model(&models.QuizAttempt{}).Where("quiz_id = ?", quiz.ID).Count(&attempts)
	db.Model(&models.Question{}).Where("quiz_id = ?", quiz.ID).Count(&questions)
	if attempts != 0 || questions != 0 {
		t.Errorf("after quiz delete: attempts=%d questions=%d, want 0/0", attempts, questions)
	}
}
