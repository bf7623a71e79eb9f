package main

import (
	"context"
	"errors"
	"log"

	"quizmaster/config"
	"quizmaster/handlers"
	"quizmaster/jobs"
	"quizmaster/mailer"
	"quizmaster/middleware"
	"quizmaster/models"
	"quizmaster/routes"
	"quizmaster/services"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate database models
	err = db.AutoMigrate(
		&models.User{},
		&models.Subject{},
		&models.Chapter{},
		&models.Quiz{},
		&models.Question{},
		&models.QuizAttempt{},
	)
	if err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	if err := seedAdmin(db); err != nil {
		log.Fatal("Failed to seed admin user:", err)
	}

	// Initialize Redis
	redisClient := config.InitRedis(cfg)
	cache := services.NewViewCache(redisClient)

	// Initialize services
	authService := services.NewAuthService(db, cfg.JWTSecret)
	subjectService := services.NewSubjectService(db, cache)
	quizService := services.NewQuizService(db, cache)
	attemptService := services.NewAttemptService(db, cache)
	statsService := services.NewStatsService(db, cache)

	// Background jobs: queue, worker, and cron fan-out
	queue := jobs.NewRedisQueue(redisClient)
	mail := mailer.New(cfg.SMTP)
	worker := jobs.NewWorker(queue, db, mail, attemptService, statsService)
	go worker.Run(context.Background())

	scheduler := jobs.NewScheduler(db, queue)
	if err := scheduler.Start(); err != nil {
		log.Fatal("Failed to start scheduler:", err)
	}
	defer scheduler.Stop()

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	subjectHandler := handlers.NewSubjectHandler(subjectService)
	quizHandler := handlers.NewQuizHandler(quizService)
	attemptHandler := handlers.NewAttemptHandler(attemptService, queue)
	statsHandler := handlers.NewStatsHandler(statsService)

	// Setup Gin router
	router := gin.Default()

	// Add CORS middleware
	router.Use(middleware.CORS())

	// Setup routes
	routes.SetupRoutes(router, authHandler, subjectHandler, quizHandler, attemptHandler, statsHandler, cfg.JWTSecret)

	// Start server
	log.Printf("Server starting on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

// seedAdmin creates the initial admin account when none exists.
func seedAdmin(db *gorm.DB) error {
	adminEmail := "admin@quizmaster.com"

	var existing models.User
	err := db.Where("email = ?", adminEmail).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte("admin@1234"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := models.User{
		Email:    adminEmail,
		Password: string(hashed),
		FullName: "Quiz Master",
		Role:     models.RoleAdmin,
		Active:   true,
	}

	if err := db.Create(&admin).Error; err != nil {
		return err
	}

	log.Printf("Seeded admin user %s", adminEmail)
	return nil
}
