// cmd/worker-manager/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	awsx "subsidy-wizard/internal/common/aws"
	"subsidy-wizard/internal/common/camunda"
	"subsidy-wizard/internal/common/config"
	"subsidy-wizard/internal/common/database"
	"subsidy-wizard/internal/common/logger"
	"subsidy-wizard/internal/common/mailer"
	"subsidy-wizard/internal/common/observability"
	"subsidy-wizard/internal/common/zoho"
	"subsidy-wizard/internal/wizard/backend"
	"subsidy-wizard/internal/wizard/tenant"

	bss "subsidy-wizard/internal/workers/application/build-signing-session"
	car "subsidy-wizard/internal/workers/application/create-application-record"
	pfd "subsidy-wizard/internal/workers/application/prepare-form-data"
	sn "subsidy-wizard/internal/workers/application/send-notification"
	vad "subsidy-wizard/internal/workers/application/validate-application-data"
	ccs "subsidy-wizard/internal/workers/crm/crm-contact-sync"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "console").Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{"service": "worker-manager"})

	zapLog.Info("Starting worker manager...", zap.String("environment", cfg.App.Environment))

	if err := config.ValidateWorkers(cfg); err != nil {
		zapLog.Fatal("invalid worker configuration", zap.Error(err))
	}

	obs, err := observability.New("worker-manager", observability.WithSampleRatio(cfg.Tracing.SampleRatio))
	if err != nil {
		zapLog.Fatal("observability setup failed", zap.Error(err))
	}

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	zeebe, err := camunda.Connect(ctx, cfg.Camunda, camunda.DefaultRetryConfig, log)
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = camunda.Retry(ctx, camunda.RetryConfig{MaxRetries: 15, BaseDelay: 2 * time.Second, MaxDelay: 30 * time.Second},
		log, "PostgreSQL connection", func(ctx context.Context) error {
			client, err := database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			if err := client.Ping(ctx); err != nil {
				client.Close()
				return err
			}
			pg = client
			return nil
		})
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init External Service Clients ---
	tenants := tenant.RegistryFromConfig(cfg.Tenants)
	backendClient := backend.NewClient(cfg.Backend, log)

	var crm ccs.ContactUpserter
	if cfg.Integrations.Zoho.AuthToken != "" {
		crm = zoho.NewCRMClient(cfg.Integrations.Zoho.BaseURL, cfg.Integrations.Zoho.AuthToken,
			config.GetDuration(config.GetWorkerConfig(cfg, ccs.TaskType).Timeout))
	} else {
		zapLog.Warn("Zoho CRM not configured, contact sync runs disabled")
	}

	senders := sn.Senders{}
	aws := cfg.Integrations.AWS
	if aws.SES.Enabled || aws.SNS.Enabled {
		awsCfg, err := awsx.LoadConfig(ctx, aws.Region)
		if err != nil {
			zapLog.Fatal("load AWS config", zap.Error(err))
		}
		if aws.SES.Enabled {
			from := aws.SES.FromEmail
			if from == "" {
				from = cfg.Notifications.Email.FromEmail
			}
			senders.SES = awsx.NewSESClientFromConfig(awsCfg, from)
		}
		if aws.SNS.Enabled {
			senders.Staff = awsx.NewSNSClientFromConfig(awsCfg, aws.SNS.DefaultSMSSenderID)
		}
	}
	smtp := cfg.Integrations.SMTP
	if smtpMailer, err := mailer.New(mailer.Config{
		Host:     smtp.Host,
		Port:     smtp.Port,
		Username: smtp.Username,
		Password: smtp.Password,
		UseTLS:   smtp.UseTLS,
		From:     smtp.DefaultFrom,
	}); err == nil {
		senders.SMTP = smtpMailer
	} else {
		zapLog.Info("SMTP fallback not configured", zap.Error(err))
	}

	zapLog.Info("All external service clients initialized")

	// --- Register workers ---
	workers := camunda.NewRegistry(zeebe.Zeebe(), log)
	timeout := func(taskType string) time.Duration {
		return config.GetDuration(config.GetWorkerConfig(cfg, taskType).Timeout)
	}

	vadCfg := vad.LoadConfig()
	vadCfg.Timeout = timeout(vad.TaskType)
	workers.Start(vad.TaskType, config.GetWorkerConfig(cfg, vad.TaskType),
		vad.NewHandler(vadCfg, log).Handle)

	pfdCfg := pfd.LoadConfig()
	pfdCfg.Timeout = timeout(pfd.TaskType)
	workers.Start(pfd.TaskType, config.GetWorkerConfig(cfg, pfd.TaskType),
		pfd.NewHandler(pfdCfg, tenants, log).Handle)

	carCfg := car.LoadConfig()
	carCfg.Timeout = timeout(car.TaskType)
	workers.Start(car.TaskType, config.GetWorkerConfig(cfg, car.TaskType),
		car.NewHandler(carCfg, pg.GetDB(), log).Handle)

	bssCfg := bss.LoadConfig()
	bssCfg.Timeout = timeout(bss.TaskType)
	if registered, err := tenants.Lookup(cfg.Tenants.Configured); err == nil {
		bssCfg.PublicBaseURL = registered.PublicBaseURL
	}
	workers.Start(bss.TaskType, config.GetWorkerConfig(cfg, bss.TaskType),
		bss.NewHandler(bssCfg, tenants, backendClient, pg.GetDB(), log).Handle)

	ccsCfg := ccs.DefaultConfig()
	ccsCfg.Timeout = timeout(ccs.TaskType)
	crmHandler, err := ccs.NewHandler(ccsCfg, crm, log)
	if err != nil {
		zapLog.Fatal("failed to create crm-contact-sync handler", zap.Error(err))
	}
	workers.Start(ccs.TaskType, config.GetWorkerConfig(cfg, ccs.TaskType), crmHandler.Handle)

	snCfg := sn.LoadConfig()
	snCfg.Timeout = timeout(sn.TaskType)
	snCfg.EmailEnabled = cfg.Notifications.Email.Enabled
	snCfg.SMSEnabled = cfg.Notifications.SMS.Enabled
	snCfg.StaffPhone = cfg.Notifications.SMS.StaffPhone
	snCfg.StaffTopicARN = aws.SNS.TopicARN
	workers.Start(sn.TaskType, config.GetWorkerConfig(cfg, sn.TaskType),
		sn.NewHandler(snCfg, tenants, senders, pg.GetDB(), log).Handle)

	zapLog.Info("Workers registered", zap.Strings("taskTypes", workers.TaskTypes()))

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy", nil)
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		checkCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		checks := map[string]string{"postgres": "ok", "zeebe": "ok"}
		status := http.StatusOK
		if err := pg.Ping(checkCtx); err != nil {
			checks["postgres"] = err.Error()
			status = http.StatusServiceUnavailable
		}
		if err := zeebe.HealthCheck(checkCtx); err != nil {
			checks["zeebe"] = err.Error()
			status = http.StatusServiceUnavailable
		}
		label := "ready"
		if status != http.StatusOK {
			label = "not ready"
		}
		writeStatus(w, status, label, checks)
	})
	mux.Handle("/metrics", promhttp.Handler())

	healthServer := &http.Server{
		Addr:              cfg.HTTP.HealthAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", healthServer.Addr))
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	workers.Close()

	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down observability", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func writeStatus(w http.ResponseWriter, code int, status string, checks map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	body := map[string]interface{}{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	}
	if checks != nil {
		body["checks"] = checks
	}
	_ = json.NewEncoder(w).Encode(body)
}
