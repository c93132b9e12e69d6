package main

import (
	"log"
	"os"

	"money-coach-be/internal/model"
	"money-coach-be/pkg/database"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn, true)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Step 1: Setting up extensions...")
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto;`).Error; err != nil {
		log.Printf("Warn: Failed to create pgcrypto extension: %v. Continuing...", err)
	}

	log.Println("Step 2: Running AutoMigrate...")
	models := []interface{}{
		&model.Understanding{},
		&model.OnboardingProfile{},
		&model.FocusArea{},
		&model.FocusAreaReflection{},
		&model.CoachingSession{},
		&model.Message{},
		&model.Briefing{},
		&model.SuggestionSet{},
		&model.RewireCard{},
		&model.Win{},
		&model.SimProfile{},
		&model.SimulatorRun{},
	}
	if err := db.AutoMigrate(models...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	log.Println("Step 3: Creating constraints...")
	postMigrationSQL := []string{
		// At most one active session per user in each realm.
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_sessions_one_active
		 ON coaching_sessions (realm, user_id) WHERE status = 'active';`,
	}
	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute post-migration SQL: %v", err)
		}
	}

	log.Println("Success: Database migration completed.")
}
