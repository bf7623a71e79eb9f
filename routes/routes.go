package routes

import (
	"net/http"

	"quizmaster/handlers"
	"quizmaster/middleware"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	router *gin.Engine,
	authHandler *handlers.AuthHandler,
	subjectHandler *handlers.SubjectHandler,
	quizHandler *handlers.QuizHandler,
	attemptHandler *handlers.AttemptHandler,
	statsHandler *handlers.StatsHandler,
	jwtSecret string,
) {
	// API routes
	api := router.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}

		// Protected routes
		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware(jwtSecret))
		{
			// User profile
			protected.GET("/auth/profile", authHandler.GetProfile)

			// Subject and chapter administration
			subjects := protected.Group("/subjects")
			{
				subjects.GET("", subjectHandler.GetSubjects)
				subjects.GET("/:id", subjectHandler.GetSubjectByID)
				subjects.GET("/:id/chapters", subjectHandler.GetChapters)
				subjects.GET("/:id/chapters/:chapterId", subjectHandler.GetChapterByID)

				adminSubjects := subjects.Group("")
				adminSubjects.Use(middleware.RequireAdmin())
				{
					adminSubjects.POST("", subjectHandler.CreateSubject)
					adminSubjects.PUT("/:id", subjectHandler.UpdateSubject)
					adminSubjects.DELETE("/:id", subjectHandler.DeleteSubject)
					adminSubjects.POST("/:id/chapters", subjectHandler.CreateChapter)
					adminSubjects.PUT("/:id/chapters/:chapterId", subjectHandler.UpdateChapter)
					adminSubjects.DELETE("/:id/chapters/:chapterId", subjectHandler.DeleteChapter)
				}
			}

			// Quiz and question administration
			quizzes := protected.Group("/quizzes")
			{
				quizzes.GET("", quizHandler.GetQuizzes)
				quizzes.GET("/:id", quizHandler.GetQuizByID)
				quizzes.GET("/:id/questions", quizHandler.GetQuestions)

				adminQuizzes := quizzes.Group("")
				adminQuizzes.Use(middleware.RequireAdmin())
				{
					adminQuizzes.POST("", quizHandler.CreateQuiz)
					adminQuizzes.PUT("/:id", quizHandler.UpdateQuiz)
					adminQuizzes.PUT("/:id/activate", quizHandler.ToggleActivation)
					adminQuizzes.DELETE("/:id", quizHandler.DeleteQuiz)
					adminQuizzes.POST("/:id/questions", quizHandler.CreateQuestion)
					adminQuizzes.PUT("/:id/questions/:questionId", quizHandler.UpdateQuestion)
					adminQuizzes.DELETE("/:id/questions/:questionId", quizHandler.DeleteQuestion)
				}
			}

			// Quiz attempts
			attempts := protected.Group("/quiz-attempts")
			{
				attempts.POST("", attemptHandler.SubmitAttempt)
				attempts.GET("", attemptHandler.ListAttempts)
				attempts.POST("/export", attemptHandler.ExportAttempts)
				attempts.GET("/stats", middleware.RequireAdmin(), statsHandler.GetSubjectStats)
				attempts.GET("/stats/global", middleware.RequireAdmin(), statsHandler.GetGlobalStats)
				attempts.GET("/:id", attemptHandler.GetAttempt)
				attempts.DELETE("/:id", middleware.RequireAdmin(), attemptHandler.DeleteAttempt)
			}

			// Per-user views
			users := protected.Group("/users")
			{
				users.GET("", middleware.RequireAdmin(), authHandler.ListUsers)
				users.PUT("/:id/deactivate", middleware.RequireAdmin(), authHandler.DeactivateUser)
				users.GET("/:id/quiz-attempts", attemptHandler.ListUserAttempts)
				users.GET("/:id/stats", statsHandler.GetUserStats)
			}
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
