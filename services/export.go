package services

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"quizmaster/models"
)

// BuildAttemptsCSV renders a user's attempt history as CSV. Attempts are
// written in the order given; callers pass them newest first. Quiz, chapter,
// and subject must be preloaded on each attempt.
func BuildAttemptsCSV(attempts []models.QuizAttempt) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	header := []string{
		"Quiz Title", "Subject", "Chapter", "Date Attempted",
		"Score", "Max Score", "Percentage", "Quiz Remarks",
	}
	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for i := range attempts {
		attempt := &attempts[i]
		row := []string{
			attempt.Quiz.Title,
			attempt.Quiz.Chapter.Subject.Name,
			attempt.Quiz.Chapter.Name,
			attempt.Timestamp.Format("2006-01-02 15:04:05"),
			fmt.Sprintf("%g", attempt.TotalScore),
			fmt.Sprintf("%g", attempt.MaxScore),
			fmt.Sprintf("%.2f%%", attempt.Percentage),
			attempt.Quiz.Remarks,
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV: %w", err)
	}

	return buf.Bytes(), nil
}
