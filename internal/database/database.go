package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/joho/godotenv/autoload"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/loopinhq/loopin/internal/models"
)

type Database struct {
	DB *sql.DB
}

// NewDatabase opens a raw connection for schema bootstrap and health probes.
func NewDatabase() (*Database, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_SSLMODE"),
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	log.Println("✅ Database connected successfully")

	return &Database{DB: db}, nil
}

func (d *Database) Close() error {
	return d.DB.Close()
}

// Initialize creates the necessary tables
func (d *Database) Initialize() error {
	schema := `
    CREATE TABLE IF NOT EXISTS profiles (
        id VARCHAR(36) PRIMARY KEY,
        email VARCHAR(100) UNIQUE NOT NULL,
        password VARCHAR(255) NOT NULL,
        display_name VARCHAR(50),
        avatar_url TEXT,
        bio TEXT,
        role VARCHAR(20) DEFAULT 'user',
        created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
        updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS threads (
        id VARCHAR(36) PRIMARY KEY,
        title VARCHAR(300) NOT NULL,
        content TEXT NOT NULL,
        user_id VARCHAR(36) REFERENCES profiles(id),
        is_anonymous BOOLEAN DEFAULT FALSE,
        image_url TEXT,
        category VARCHAR(50),
        tags TEXT,
        is_pinned BOOLEAN DEFAULT FALSE,
        is_locked BOOLEAN DEFAULT FALSE,
        view_count INTEGER DEFAULT 0,
        post_count INTEGER DEFAULT 0,
        upvotes INTEGER DEFAULT 0,
        downvotes INTEGER DEFAULT 0,
        vote_score INTEGER DEFAULT 0,
        follow_count INTEGER DEFAULT 0,
        created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
        updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
        last_post_at TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS posts (
        id VARCHAR(36) PRIMARY KEY,
        thread_id VARCHAR(36) REFERENCES threads(id),
        content TEXT NOT NULL,
        user_id VARCHAR(36) REFERENCES profiles(id),
        parent_id VARCHAR(36) REFERENCES posts(id),
        is_anonymous BOOLEAN DEFAULT FALSE,
        image_url TEXT,
        upvotes INTEGER DEFAULT 0,
        downvotes INTEGER DEFAULT 0,
        vote_score INTEGER DEFAULT 0,
        created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS votes (
        id VARCHAR(36) PRIMARY KEY,
        user_id VARCHAR(36) REFERENCES profiles(id),
        thread_id VARCHAR(36) REFERENCES threads(id),
        post_id VARCHAR(36) REFERENCES posts(id),
        vote_type INTEGER CHECK (vote_type IN (-1, 1)),
        created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
        updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
        UNIQUE(user_id, thread_id),
        UNIQUE(user_id, post_id)
    );

    CREATE TABLE IF NOT EXISTS thread_follows (
        id VARCHAR(36) PRIMARY KEY,
        user_id VARCHAR(36) REFERENCES profiles(id),
        thread_id VARCHAR(36) REFERENCES threads(id),
        created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
        UNIQUE(user_id, thread_id)
    );
    `

	_, err := d.DB.Exec(schema)
	if err != nil {
		return fmt.Errorf("error creating tables: %w", err)
	}

	log.Println("✅ Database tables created/verified")
	return nil
}

// Service represents a service that interacts with a database.
type Service interface {
	// Health returns a map of health status information.
	// The keys and values in the map are service-specific.
	Health() map[string]string

	// Close terminates the database connection.
	// It returns an error if the connection cannot be closed.
	Close() error
	GetDB() *gorm.DB
}

type service struct {
	db *gorm.DB
}

var dbInstance *service

// dialector picks the GORM driver from DATABASE_URL when set
// (postgres:// or sqlite:// prefix), otherwise falls back to the
// discrete DB_* environment variables.
func dialector() gorm.Dialector {
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		switch {
		case strings.HasPrefix(dbURL, "postgres://"):
			return postgres.Open(dbURL)
		case strings.HasPrefix(dbURL, "sqlite://"):
			return sqlite.Open(strings.TrimPrefix(dbURL, "sqlite://"))
		default:
			log.Fatalf("Invalid DATABASE_URL prefix. Must start with 'postgres://' or 'sqlite://'")
		}
	}

	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_SSLMODE"),
	)
	return postgres.Open(dsn)
}

func New() Service {
	// Reuse Connection
	if dbInstance != nil {
		return dbInstance
	}

	// With discrete DB_* variables the raw bootstrap connection creates the
	// schema before GORM connects. A DATABASE_URL deployment relies on
	// AutoMigrate alone.
	if os.Getenv("DATABASE_URL") == "" {
		bootstrap, err := NewDatabase()
		if err != nil {
			log.Fatalf("Failed to connect for schema bootstrap: %v", err)
		}
		if err := bootstrap.Initialize(); err != nil {
			log.Fatalf("Failed to initialize database schema: %v", err)
		}
		if err := bootstrap.Close(); err != nil {
			log.Printf("closing bootstrap connection: %v", err)
		}
	}

	// Configure GORM logger
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	db, err := gorm.Open(dialector(), &gorm.Config{
		Logger: gormLogger,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})

	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	log.Println("✅ Database connected successfully")

	if err := Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	log.Println("✅ Database migrations completed")

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get database instance: %v", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	dbInstance = &service{
		db: db,
	}

	return dbInstance
}

// Migrate auto-migrates every entity table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Profile{},
		&models.Thread{},
		&models.Post{},
		&models.Vote{},
		&models.ThreadFollow{},
	)
}

func (s *service) GetDB() *gorm.DB {
	return s.db
}

// Health checks the health of the database connection by pinging the database.
func (s *service) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stats := make(map[string]string)

	// Get underlying SQL DB
	sqlDB, err := s.db.DB()
	if err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db error: %v", err)
		return stats
	}

	// Ping the database
	err = sqlDB.PingContext(ctx)
	if err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		return stats
	}

	// Database is up
	stats["status"] = "up"
	stats["message"] = "It's healthy"

	// Get database stats
	dbStats := sqlDB.Stats()
	stats["open_connections"] = fmt.Sprintf("%d", dbStats.OpenConnections)
	stats["in_use"] = fmt.Sprintf("%d", dbStats.InUse)
	stats["idle"] = fmt.Sprintf("%d", dbStats.Idle)

	return stats
}

// Close closes the database connection.
func (s *service) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}

	log.Println("Disconnected from database")
	return sqlDB.Close()
}
