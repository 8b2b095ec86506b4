package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// OpenSQLite opens the Crawl Record utility's durable SQLite
// database at path, reading CRAWL_RECORD_DB_PATH if path is empty. WAL mode
// and a busy timeout are embedded in the DSN so every pooled connection
// picks them up.
func OpenSQLite(path string) *sql.DB {
	if path == "" {
		path = os.Getenv("CRAWL_RECORD_DB_PATH")
	}
	if path == "" {
		path = "crawl_record.db"
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(30000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)", path)
	if !strings.HasSuffix(path, ".db") {
		dsn = fmt.Sprintf("file:%s.db?_pragma=busy_timeout(30000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		log.Fatalf("failed to open crawl record database: %v", err)
	}
	db.SetMaxOpenConns(1) // modernc.org/sqlite serializes writers; one conn avoids SQLITE_BUSY churn.

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping crawl record database: %v", err)
	}

	slog.Info("crawl record database opened", slog.String("path", path))
	return db
}
