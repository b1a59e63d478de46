package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	_ "github.com/jackc/pgx/v5/stdlib"

	"balancegrid/internal/audit"
	"balancegrid/internal/auth"
	bgapp "balancegrid/internal/balancegroup/application"
	balancegroup "balancegrid/internal/balancegroup/domain"
	bgmemory "balancegrid/internal/balancegroup/infrastructure/memory"
	bgpostgres "balancegrid/internal/balancegroup/infrastructure/postgres"
	bginterfaces "balancegrid/internal/balancegroup/interfaces"
	"balancegrid/internal/config"
	"balancegrid/internal/eventing"
	"balancegrid/internal/eventing/eventbus"
	eventingmemory "balancegrid/internal/eventing/infrastructure/memory"
	eventingpostgres "balancegrid/internal/eventing/infrastructure/postgres"
	"balancegrid/internal/logging"
	"balancegrid/internal/observability/metrics"
	settlementapp "balancegrid/internal/settlement/application"
	settlement "balancegrid/internal/settlement/domain"
	settlementmemory "balancegrid/internal/settlement/infrastructure/memory"
	settlementpostgres "balancegrid/internal/settlement/infrastructure/postgres"
	settlementinterfaces "balancegrid/internal/settlement/interfaces"
	tenantapp "balancegrid/internal/tenant/application"
	tenantevents "balancegrid/internal/tenant/application/events"
	tenant "balancegrid/internal/tenant/domain"
	tenantmemory "balancegrid/internal/tenant/infrastructure/memory"
	tenantpostgres "balancegrid/internal/tenant/infrastructure/postgres"
	tenantinterfaces "balancegrid/internal/tenant/interfaces"
	txapp "balancegrid/internal/transaction/application"
	txevents "balancegrid/internal/transaction/application/events"
	transaction "balancegrid/internal/transaction/domain"
	txmemory "balancegrid/internal/transaction/infrastructure/memory"
	txpostgres "balancegrid/internal/transaction/infrastructure/postgres"
	txinterfaces "balancegrid/internal/transaction/interfaces"
	"balancegrid/internal/validation"
	validationinterfaces "balancegrid/internal/validation/interfaces"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	var (
		db             *sql.DB
		tenantRepo     tenant.Repository
		groupRepo      balancegroup.Repository
		txRepo         transaction.Repository
		entryRepo      settlement.Repository
		outboxStore    interface {
			eventing.OutboxWriter
			eventing.OutboxStore
		}
		processedStore eventing.ProcessedStore
		dlqStore       eventing.DLQStore
	)

	if cfg.PostgresDSN != "" {
		db, err = sql.Open("pgx", cfg.PostgresDSN)
		if err != nil {
			logger.Fatal("db open failed", zap.Error(err))
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			logger.Fatal("db ping failed", zap.Error(err))
		}
		metrics.RegisterDBMetrics(db, logger)

		tenantRepo = tenantpostgres.NewTenantRepository(db)
		groupRepo = bgpostgres.NewGroupRepository(db)
		txRepo = txpostgres.NewTransactionRepository(db)
		entryRepo = settlementpostgres.NewEntryRepository(db)
		outboxStore = eventingpostgres.NewOutboxStore(db)
		processedStore = eventingpostgres.NewProcessedStore(db)
		dlqStore = eventingpostgres.NewDLQStore(db)
	} else {
		logger.Warn("no postgres dsn configured, using in-memory stores")
		tenantRepo = tenantmemory.NewTenantRepository()
		groupRepo = bgmemory.NewGroupRepository()
		txRepo = txmemory.NewTransactionRepository()
		entryRepo = settlementmemory.NewEntryRepository()
		outboxStore = eventingmemory.NewOutboxStore()
		processedStore = eventingmemory.NewProcessedStore()
	}

	baseBus := eventbus.NewInMemoryBus()
	registry := eventing.NewRegistry()
	registry.Register(txevents.TransactionFinalized{})
	registry.Register(tenantevents.TenantCreated{})
	registry.Register(tenantevents.TenantStatusChanged{})

	publisher := eventing.NewPublisher(outboxStore, "", logger)
	dispatcher := eventing.NewDispatcher(baseBus, outboxStore, registry, dlqStore)

	validator, err := validation.NewValidator(groupRepo)
	if err != nil {
		logger.Fatal("validator error", zap.Error(err))
	}
	tenantService, err := tenantapp.NewService(tenantRepo, publisher)
	if err != nil {
		logger.Fatal("tenant service error", zap.Error(err))
	}
	groupService, err := bgapp.NewService(groupRepo, validator)
	if err != nil {
		logger.Fatal("balance group service error", zap.Error(err))
	}
	txService, err := txapp.NewService(txRepo, groupRepo, publisher)
	if err != nil {
		logger.Fatal("transaction service error", zap.Error(err))
	}
	calculator, err := settlementapp.NewCalculatorService(entryRepo, txService, groupRepo)
	if err != nil {
		logger.Fatal("calculator error", zap.Error(err))
	}

	consumer, err := settlementinterfaces.NewTransactionFinalizedConsumer(calculator, logger)
	if err != nil {
		logger.Fatal("consumer error", zap.Error(err))
	}
	consumer.Register(baseBus, processedStore)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go eventing.RunDispatcher(ctx, dispatcher, cfg.Dispatcher.Interval(), cfg.Dispatcher.Batch, logger)

	auditLogger := audit.NewZapLogger(logger)
	tenantHandler, err := tenantinterfaces.NewTenantHandler(tenantService, auditLogger)
	if err != nil {
		logger.Fatal("tenant handler error", zap.Error(err))
	}
	groupHandler, err := bginterfaces.NewGroupHandler(groupService, auditLogger)
	if err != nil {
		logger.Fatal("balance group handler error", zap.Error(err))
	}
	txHandler, err := txinterfaces.NewTransactionHandler(txService, auditLogger)
	if err != nil {
		logger.Fatal("transaction handler error", zap.Error(err))
	}
	settlementHandler, err := settlementinterfaces.NewSettlementHandler(calculator, auditLogger)
	if err != nil {
		logger.Fatal("settlement handler error", zap.Error(err))
	}
	validationHandler, err := validationinterfaces.NewValidationHandler(validator)
	if err != nil {
		logger.Fatal("validation handler error", zap.Error(err))
	}

	mux := http.NewServeMux()
	mux.Handle("/api/v1/tenants", tenantHandler)
	mux.Handle("/api/v1/tenants/", tenantHandler)
	mux.Handle("/api/v1/balance-groups", groupHandler)
	mux.Handle("/api/v1/balance-groups/", groupHandler)
	mux.Handle("/api/v1/transactions", txHandler)
	mux.Handle("/api/v1/transactions/", txHandler)
	mux.Handle("/api/v1/settlements", settlementHandler)
	mux.Handle("/api/v1/settlements/", settlementHandler)
	mux.Handle("/api/v1/validate/", validationHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	policy := auth.NewDefaultPolicy(nil, map[string]auth.Role{
		"/api/v1/tenants": auth.RoleAdmin,
	})
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)
	handler := observeMiddleware(authMiddleware.Wrap(mux), logger)

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: handler}
	go func() {
		logger.Info("http listening", zap.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown error", zap.Error(err))
	}
}

func observeMiddleware(next http.Handler, logger *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		elapsed := time.Since(start)
		metrics.ObserveHTTPRequest(routeLabel(r.URL.Path), r.Method, strconv.Itoa(resp.status), elapsed)
		logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", resp.status),
			zap.Duration("elapsed", elapsed),
		)
	})
}

// routeLabel collapses paths to their first three segments so metric
// cardinality stays bounded.
func routeLabel(path string) string {
	segments := strings.SplitN(strings.TrimPrefix(path, "/"), "/", 4)
	if len(segments) > 3 {
		segments = segments[:3]
	}
	return "/" + strings.Join(segments, "/")
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
