// jobmate-posting-service
//
// Job posting backend for employers.
// Exposes a REST API used by the Gateway to implement:
//   - the creation wizard (step catalog, validation, preview, AI assist)
//   - draft persistence and the posting lifecycle
//     (publish, pause, resume, archive, delete)
//   - the entitlement gate (token balance and plan quota)
//   - candidate search over published postings
//
// Publishing debits tokens in the same transaction as the status change.
// Publishes EVENT_JOB_STATUS_CHANGED to Redis for Gateway SSE forward.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"google.golang.org/grpc"

	"jobmate/posting-service/internal/assist"
	"jobmate/posting-service/internal/config"
	"jobmate/posting-service/internal/db"
	"jobmate/posting-service/internal/entitlement"
	"jobmate/posting-service/internal/events"
	"jobmate/posting-service/internal/grpcserver"
	"jobmate/posting-service/internal/logging"
	"jobmate/posting-service/internal/posting"
	"jobmate/posting-service/internal/scheduler"
	"jobmate/posting-service/internal/search"
	"jobmate/posting-service/internal/store"
)

const version = "1.0.0"

func main() {
	// ── Config ──────────────────────────────────────────────────────────────
	if err := godotenv.Load(); err != nil {
		log.Println("[posting-service] No .env file, using process environment")
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[posting-service] Config error: %v", err)
	}
	logging.Setup(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── PostgreSQL ───────────────────────────────────────────────────────────
	log.Println("[posting-service] Connecting to PostgreSQL…")
	pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[posting-service] PostgreSQL: %v", err)
	}
	defer pool.Close()
	if err := db.EnsureSchema(ctx, pool); err != nil {
		log.Fatalf("[posting-service] PostgreSQL: %v", err)
	}
	log.Println("[posting-service] PostgreSQL connected ✓")

	// ── Redis ────────────────────────────────────────────────────────────────
	log.Println("[posting-service] Connecting to Redis…")
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("[posting-service] Redis: %v", err)
	}
	defer rdb.Close()
	log.Println("[posting-service] Redis connected ✓")

	// ── Domain wiring ────────────────────────────────────────────────────────
	gate := entitlement.NewCachedGate(
		entitlement.NewPostgresSource(pool, cfg.TokensPerPost),
		rdb, cfg.EntitlementCacheTTL,
	)
	opts := []posting.ServiceOption{
		posting.WithEvents(events.NewRedisPublisher(rdb)),
		posting.WithInvalidator(gate),
	}

	var index *search.Index
	if cfg.ElasticsearchURL != "" {
		log.Println("[posting-service] Connecting to Elasticsearch…")
		index, err = search.NewIndex([]string{cfg.ElasticsearchURL}, cfg.ElasticsearchIndex)
		if err != nil {
			log.Fatalf("[posting-service] Elasticsearch: %v", err)
		}
		if err := index.EnsureIndex(ctx); err != nil {
			log.Fatalf("[posting-service] Elasticsearch: %v", err)
		}
		opts = append(opts, posting.WithIndexer(index))
		log.Println("[posting-service] Elasticsearch connected ✓")
	} else {
		log.Println("[posting-service] ELASTICSEARCH_URL not set, candidate search disabled")
	}

	var assistant posting.Assistant
	if cfg.GeminiAPIKey != "" {
		gen, err := assist.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			log.Fatalf("[posting-service] Gemini: %v", err)
		}
		assistant = assist.NewClient(gen)
	} else {
		log.Println("[posting-service] GEMINI_API_KEY not set, content assist disabled")
	}

	svc := posting.NewService(store.NewPostgres(pool), gate, opts...)

	// ── Featured sweep ───────────────────────────────────────────────────────
	sched := scheduler.New(svc, cfg.FeaturedSweepSpec)
	if err := sched.Start(ctx); err != nil {
		log.Fatalf("[posting-service] Scheduler: %v", err)
	}
	defer sched.Stop()

	// ── gRPC server ──────────────────────────────────────────────────────────
	rpc := grpcserver.NewServer(svc, map[string]grpcserver.Check{
		"postgres": pool.Ping,
		"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	})
	gs := grpc.NewServer()
	rpc.Register(gs)
	go rpc.WatchHealth(ctx, 15*time.Second)

	lis, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.GRPCPort))
	if err != nil {
		log.Fatalf("[posting-service] gRPC listen: %v", err)
	}
	go func() {
		log.Printf("[posting-service] gRPC listening on :%s", cfg.GRPCPort)
		if err := gs.Serve(lis); err != nil {
			log.Fatalf("[posting-service] gRPC server error: %v", err)
		}
	}()

	// ── HTTP server ──────────────────────────────────────────────────────────
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)

	posting.NewHandler(svc, assistant).RegisterRoutes(mux)
	if index != nil {
		search.NewHandler(index).RegisterRoutes(mux)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second, // assist calls wait on the model
	}

	go func() {
		log.Printf("[posting-service] v%s listening on :%s", version, cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[posting-service] HTTP server error: %v", err)
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[posting-service] Shutting down…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[posting-service] Shutdown error: %v", err)
	}
	gs.GracefulStop()
	cancel()
	log.Println("[posting-service] Stopped.")
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"service": "posting-service",
		"version": version,
	})
}
