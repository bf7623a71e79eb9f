package services

import (
	"errors"
	"testing"

	"quizmaster/models"
)

func fourQuestionQuiz() []models.Question {
	return []models.Question{
		{ID: 1, QuizID: 1, CorrectOption: 1},
		{ID: 2, QuizID: 1, CorrectOption: 2},
		{ID: 3, QuizID: 1, CorrectOption: 3},
		{ID: 4, QuizID: 1, CorrectOption: 4},
	}
}

func TestScoreQuiz(t *testing.T) {
	tests := []struct {
		name           string
		questions      []models.Question
		answers        map[string]interface{}
		wantTotal      float64
		wantMax        float64
		wantPercentage float64
	}{
		{
			name:      "partial credit with bad and missing answers",
			questions: fourQuestionQuiz(),
			answers: map[string]interface{}{
				"1": "1",
				"2": "2",
				"3": "9",
				"4": nil,
			},
			wantTotal:      2,
			wantMax:        4,
			wantPercentage: 50.00,
		},
		{
			name:           "all correct",
			questions:      fourQuestionQuiz(),
			answers:        map[string]interface{}{"1": "1", "2": "2", "3": "3", "4": "4"},
			wantTotal:      4,
			wantMax:        4,
			wantPercentage: 100.00,
		},
		{
			name:           "no answers submitted",
			questions:      fourQuestionQuiz(),
			answers:        map[string]interface{}{},
			wantTotal:      0,
			wantMax:        4,
			wantPercentage: 0,
		},
		{
			name:      "answer for foreign question is ignored",
			questions: fourQuestionQuiz(),
			answers: map[string]interface{}{
				"1":   "1",
				"999": "1",
			},
			wantTotal:      1,
			wantMax:        4,
			wantPercentage: 25.00,
		},
		{
			name:      "non-integer answers count as wrong",
			questions: fourQuestionQuiz(),
			answers: map[string]interface{}{
				"1": "abc",
				"2": "",
				"3": 3.5,
				"4": []string{"4"},
			},
			wantTotal:      0,
			wantMax:        4,
			wantPercentage: 0,
		},
		{
			name:      "numeric JSON answers are accepted",
			questions: fourQuestionQuiz(),
			answers: map[string]interface{}{
				"1": float64(1),
				"2": 2,
			},
			wantTotal:      2,
			wantMax:        4,
			wantPercentage: 50.00,
		},
		{
			name: "percentage rounds to two decimals",
			questions: []models.Question{
				{ID: 1, CorrectOption: 1},
				{ID: 2, CorrectOption: 1},
				{ID: 3, CorrectOption: 1},
			},
			answers:        map[string]interface{}{"1": "1"},
			wantTotal:      1,
			wantMax:        3,
			wantPercentage: 33.33,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total, max, percentage, err := ScoreQuiz(tt.questions, tt.answers)
			if err != nil {
				t.Fatalf("ScoreQuiz returned error: %v", err)
			}
			if total != tt.wantTotal {
				t.Errorf("total = %v, want %v", total, tt.wantTotal)
			}
			if max != tt.wantMax {
				t.Errorf("max = %v, want %v", max, tt.wantMax)
			}
			if percentage != tt.wantPercentage {
				t.Errorf("percentage = %v, want %v", percentage, tt.wantPercentage)
			}
			if total < 0 || total > max {
				t.Errorf("total %v outside [0, %v]", total, max)
			}
		})
	}
}

func TestScoreQuizEmptyQuiz(t *testing.T) {
	_, _, _, err := ScoreQuiz(nil, map[string]interface{}{"1": "1"})
	if !errors.Is(err, ErrInvalidQuiz) {
		t.Fatalf("err = %v, want ErrInvalidQuiz", err)
	}
}

func TestScoreQuizDeterministic(t *testing.T) {
	questions := fourQuestionQuiz()
	answers := map[string]interface{}{"1": "1", "2": "3", "3": "3"}

	total1, max1, pct1, err1 := ScoreQuiz(questions, answers)
	total2, max2, pct2, err2 := ScoreQuiz(questions, answers)

	if err1 != nil || err2 != nil {
		t.Fatalf("unexpected errors: %v, %v", err1, err2)
	}
	if total1 != total2 || max1 != max2 || pct1 != pct2 {
		t.Errorf("repeated scoring differs: (%v,%v,%v) vs (%v,%v,%v)",
			total1, max1, pct1, total2, max2, pct2)
	}
}
