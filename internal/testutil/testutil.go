package testutil

import (
	"context"
	"fmt"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/noit/research-api/internal/api"
	"github.com/noit/research-api/internal/config"
	"github.com/noit/research-api/internal/logging"
	"github.com/noit/research-api/internal/orchestrator"
	"github.com/noit/research-api/internal/repository"
	"github.com/noit/research-api/internal/repository/sqlstore"
	"github.com/noit/research-api/internal/service"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB is a migrated database for one test. It is an in-memory sqlite
// database unless TEST_POSTGRES=1, in which case a PostgreSQL testcontainer
// is started.
type TestDB struct {
	Container testcontainers.Container
	DB        *gorm.DB
	DSN       string
}

// NewTestDB creates a database and registers its cleanup on t.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	if os.Getenv("TEST_POSTGRES") == "1" {
		return NewPostgresTestDB(t)
	}
	return NewSQLiteTestDB(t)
}

// NewSQLiteTestDB creates a private in-memory sqlite database.
func NewSQLiteTestDB(t *testing.T) *TestDB {
	t.Helper()

	name := strings.ReplaceAll(uuid.NewString(), "-", "")
	dsn := fmt.Sprintf("sqlite://file:test_%s?mode=memory&cache=shared", name)

	db := open(t, dsn)

	// A shared-cache memory database lives as long as one connection does;
	// a single connection also avoids table lock errors.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	testDB := &TestDB{DB: db, DSN: dsn}
	t.Cleanup(testDB.Cleanup)
	return testDB
}

// NewPostgresTestDB creates a new PostgreSQL testcontainer and returns a connection
func NewPostgresTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	container, err := tcPostgres.Run(ctx,
		"postgres:15-alpine",
		tcPostgres.WithDatabase("test_noit"),
		tcPostgres.WithUsername("test"),
		tcPostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	testDB := &TestDB{
		Container: container,
		DB:        open(t, dsn),
		DSN:       dsn,
	}
	t.Cleanup(testDB.Cleanup)
	return testDB
}

func open(t *testing.T, dsn string) *gorm.DB {
	t.Helper()

	dialector, err := sqlstore.Dialector(dsn)
	if err != nil {
		t.Fatalf("failed to build dialector: %v", err)
	}

	db, err := gorm.Open(dialector, sqlstore.Config(logger.Silent))
	if err != nil {
		t.Fatalf("failed to connect to database: %v", err)
	}

	if err := sqlstore.Migrate(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return db
}

// Cleanup closes the connection and terminates the container, if any.
func (tdb *TestDB) Cleanup() {
	if tdb.DB != nil {
		sqlstore.Close(tdb.DB)
	}
	if tdb.Container != nil {
		tdb.Container.Terminate(context.Background())
	}
}

// Truncate clears all tables for test isolation
func (tdb *TestDB) Truncate(t *testing.T) {
	t.Helper()

	if tdb.DB.Dialector.Name() == "postgres" {
		if err := tdb.DB.Exec("TRUNCATE TABLE queries, users RESTART IDENTITY CASCADE").Error; err != nil {
			t.Fatalf("failed to truncate tables: %v", err)
		}
		return
	}

	for _, table := range []string{"queries", "users"} {
		if err := tdb.DB.Exec(fmt.Sprintf("DELETE FROM %s", table)).Error; err != nil {
			t.Fatalf("failed to truncate %s: %v", table, err)
		}
	}
}

// TestConfig returns a configuration suitable for testing
func TestConfig() *config.Config {
	return &config.Config{
		Port:               "0", // Random port
		Environment:        "test",
		FrontendOrigins:    []string{"http://localhost:8080"},
		JWTSecret:          "test-jwt-secret-key-for-testing-only",
		JWTExpirationHours: 1,
		BcryptCost:         bcrypt.MinCost,
		AuthRatePerMinute:  0, // unlimited
		DefaultModel:       "test-model",
		AnswerTimeout:      5 * time.Second,
		LogLevel:           "error",
		LogFormat:          "text",
	}
}

// TestServer holds all components for integration testing
type TestServer struct {
	Server       *httptest.Server
	DB           *TestDB
	Repos        *repository.Repositories
	Services     *service.Services
	Orchestrator orchestrator.Orchestrator
	Config       *config.Config
}

// ServerOption customizes NewTestServer.
type ServerOption func(*serverOptions)

type serverOptions struct {
	cfg  *config.Config
	orch orchestrator.Orchestrator
}

// WithConfig replaces the test configuration.
func WithConfig(cfg *config.Config) ServerOption {
	return func(o *serverOptions) { o.cfg = cfg }
}

// WithOrchestrator replaces the echo orchestrator.
func WithOrchestrator(orch orchestrator.Orchestrator) ServerOption {
	return func(o *serverOptions) { o.orch = orch }
}

// NewTestServer creates a complete test server with all dependencies
func NewTestServer(t *testing.T, opts ...ServerOption) *TestServer {
	t.Helper()

	o := serverOptions{cfg: TestConfig(), orch: orchestrator.Echo{}}
	for _, opt := range opts {
		opt(&o)
	}

	testDB := NewTestDB(t)
	log := logging.Discard()

	repos := sqlstore.NewRepositories(testDB.DB)
	services := service.NewServices(repos, o.cfg, o.orch, log)
	router := api.NewRouter(services, o.cfg, log)

	server := httptest.NewServer(router)

	ts := &TestServer{
		Server:       server,
		DB:           testDB,
		Repos:        repos,
		Services:     services,
		Orchestrator: o.orch,
		Config:       o.cfg,
	}

	t.Cleanup(func() {
		server.Close()
	})

	return ts
}

// BaseURL returns the test server's base URL
func (ts *TestServer) BaseURL() string {
	return ts.Server.URL
}

// URL returns the full URL for a root-mounted path
func (ts *TestServer) URL(path string) string {
	return ts.Server.URL + path
}

// APIURL returns the full versioned API URL for a given path
func (ts *TestServer) APIURL(path string) string {
	return fmt.Sprintf("%s/api/v1%s", ts.Server.URL, path)
}
