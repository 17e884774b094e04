package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	assignmentHandler "frontdesk/internal/assignment/handler"
	assignmentService "frontdesk/internal/assignment/service"
	attendanceHandler "frontdesk/internal/attendance/handler"
	attendanceService "frontdesk/internal/attendance/service"
	claimHandler "frontdesk/internal/claim/handler"
	claimMetrics "frontdesk/internal/claim/metrics"
	claimService "frontdesk/internal/claim/service"
	memberHandler "frontdesk/internal/member/handler"
	memberService "frontdesk/internal/member/service"
	opService "frontdesk/internal/operator/service"
	"frontdesk/internal/operator/token"
	overrideHandler "frontdesk/internal/override/handler"
	overrideMetrics "frontdesk/internal/override/metrics"
	overrideService "frontdesk/internal/override/service"
	"frontdesk/internal/platform/config"
	"frontdesk/internal/platform/httpserver"
	"frontdesk/internal/platform/logger"
	"frontdesk/internal/platform/metrics"
	reportingHandler "frontdesk/internal/reporting/handler"
	reportingMetrics "frontdesk/internal/reporting/metrics"
	reportingService "frontdesk/internal/reporting/service"
	httptransport "frontdesk/internal/transport/http"
	id "frontdesk/pkg/domain"
	"frontdesk/pkg/platform/audit/publishers/compliance"
)

// main wires configuration, stores and services, serves HTTP, and shuts down
// on SIGINT or SIGTERM. Business logic lives in the internal service packages.
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "frontdesk:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close()

	session, err := sessionID(cfg, log)
	if err != nil {
		return err
	}

	claimsMetrics := claimMetrics.New(nil)
	registry := claimService.New(st.claimTx, st.claims, st.members,
		claimService.WithLogger(log),
		claimService.WithMetrics(claimsMetrics),
	)
	assignment := assignmentService.New(st.lists, registry, st.members,
		assignmentService.WithLogger(log),
	)
	attendance := attendanceService.New(registry, st.members, session, cfg.Claims.BulkRevokeConfirmationCode,
		attendanceService.WithLogger(log),
		attendanceService.WithMetrics(claimsMetrics),
	)
	publisher := compliance.New(st.audit,
		compliance.WithLogger(log),
		compliance.WithMetrics(compliance.NewMetrics(nil)),
	)
	override := overrideService.New(assignment, attendance, registry, publisher, st.audit,
		overrideService.WithLogger(log),
		overrideService.WithMetrics(overrideMetrics.New(nil)),
	)
	reporting := reportingService.New(registry, st.members, st.lists, session,
		reportingService.WithLogger(log),
		reportingService.WithMetrics(reportingMetrics.New(nil)),
	)
	members := memberService.New(st.members, registry, memberService.WithLogger(log))

	tokens := token.NewService(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer, cfg.Auth.JWTAudience)
	resolver := opService.NewResolver(tokens, st.operators, opService.WithLogger(log))

	if st.inMemory {
		if err := seedDev(ctx, st, tokens, log); err != nil {
			return fmt.Errorf("seed dev data: %w", err)
		}
	}

	router := httptransport.NewRouter(httptransport.Config{
		Logger:         log,
		Metrics:        metrics.New(nil),
		Resolver:       resolver,
		RequestTimeout: cfg.Server.RequestTimeout,
		HealthChecks:   st.health,
		Handlers: []httptransport.Registrar{
			memberHandler.New(members, log),
			claimHandler.New(assignment, attendance, registry, log),
			overrideHandler.New(override, log),
			assignmentHandler.New(assignment, log),
			attendanceHandler.New(attendance, log),
			reportingHandler.New(reporting, log),
		},
	})

	srv := httpserver.New(cfg.Server.Addr, router, cfg.Server.ReadHeaderTimeout)
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting frontdesk",
			"addr", cfg.Server.Addr,
			"env", cfg.Env,
			"in_memory", st.inMemory,
			"assembly_session_id", uuid.UUID(session).String(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// sessionID is the configured assembly session, or a fresh one in dev.
// Config validation already requires it outside dev.
func sessionID(cfg *config.Config, log *slog.Logger) (id.SessionID, error) {
	if cfg.Claims.AssemblySessionID == "" {
		session := id.SessionID(uuid.New())
		log.Warn("no assembly session configured, using a generated one", "assembly_session_id", session.String())
		return session, nil
	}
	return id.ParseSessionID(cfg.Claims.AssemblySessionID)
}
