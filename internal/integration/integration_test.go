package integration

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"pyq-analyzer/internal/app"
	"pyq-analyzer/internal/config"
	"pyq-analyzer/internal/domain"
	"pyq-analyzer/internal/fetch"
	"pyq-analyzer/internal/infra/postgres"
	pgmigrations "pyq-analyzer/internal/infra/postgres/migrations"
	redispaper "pyq-analyzer/internal/infra/redis"
)

const samplePaper = `1. Define a rational number with one example. [1 mark]
2. Calculate the median of the given frequency distribution. [3 marks]
3. Prove that root 5 is irrational. [4 marks]
`

func TestAnalyzeEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	applyMigrations(t, ctx, pgURL)

	// Fake paper source: serves 2019 and 2020, 404s 2021.
	requests := 0
	paperServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		year, _ := strconv.Atoi(strings.TrimSuffix(filepath.Base(r.URL.Path), ".txt"))
		if year == 2021 {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, samplePaper)
	}))
	defer paperServer.Close()

	cfg := config.Config{}
	cfg.Subject.Code = "maths10"
	cfg.Subject.Name = "Mathematics"
	cfg.Subject.URLTemplate = paperServer.URL + "/{year}.txt"
	cfg.Years = []int{2019, 2020, 2021}
	cfg.Output.Path = filepath.Join(t.TempDir(), "report.json")

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	fetcher := fetch.NewHTTPFetcher(10*time.Second, "")
	loader := fetch.NewTemplateLoader(fetcher, cfg.PaperURL)
	papers := redispaper.NewPaperCache(redisClient, loader, cfg.Subject.Code, 5*time.Minute)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()
	store := postgres.NewReportStore(pool)

	analyzer := app.NewAnalyzer(cfg, papers, store)
	rep, err := analyzer.Analyze(ctx, nil)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(rep.Years) != 3 || rep.PerYear[2021].TotalQuestions != 0 {
		t.Fatalf("unexpected report: years=%v", rep.Years)
	}

	// Papers were cached in redis: a second run fetches nothing new for the
	// successful years.
	before := requests
	if _, err := analyzer.Analyze(ctx, nil); err != nil {
		t.Fatalf("second analyze: %v", err)
	}
	if requests != before+1 { // only the failing 2021 fetch repeats
		t.Fatalf("expected cached papers, got %d extra requests", requests-before)
	}

	// Both runs are archived; the latest one comes back intact.
	archived, err := store.LoadLatest(ctx, cfg.Subject.Code)
	if err != nil {
		t.Fatalf("load latest: %v", err)
	}
	if archived.SubjectCode != "maths10" || len(archived.Years) != 3 {
		t.Fatalf("unexpected archived report: %+v", archived)
	}
	if archived.DifficultyTrend[domain.DifficultyHard][0] != 1 {
		t.Fatalf("unexpected archived trend: %v", archived.DifficultyTrend)
	}

	if _, err := store.LoadLatest(ctx, "absent-subject"); err != domain.ErrReportNotFound {
		t.Fatalf("expected ErrReportNotFound, got %v", err)
	}
}

func applyMigrations(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "pyq",
			"POSTGRES_PASSWORD": "pyqpass",
			"POSTGRES_DB":       "pyqdb",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("pg host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://pyq:pyqpass@%s:%s/pyqdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
