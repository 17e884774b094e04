package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	assignmentModels "frontdesk/internal/assignment/models"
	assignmentService "frontdesk/internal/assignment/service"
	assignmentStore "frontdesk/internal/assignment/store"
	claimService "frontdesk/internal/claim/service"
	claimStore "frontdesk/internal/claim/store"
	memberModels "frontdesk/internal/member/models"
	memberStore "frontdesk/internal/member/store"
	opModels "frontdesk/internal/operator/models"
	opStore "frontdesk/internal/operator/store"
	"frontdesk/internal/platform/config"
	"frontdesk/internal/platform/postgres"
	"frontdesk/internal/platform/redis"
	httptransport "frontdesk/internal/transport/http"
	id "frontdesk/pkg/domain"
	audit "frontdesk/pkg/platform/audit"
	auditMemory "frontdesk/pkg/platform/audit/store/memory"
	auditPostgres "frontdesk/pkg/platform/audit/store/postgres"
)

type listStore interface {
	assignmentService.ListStore
	ListAll(ctx context.Context) ([]*assignmentModels.List, error)
}

type operatorStore interface {
	Put(ctx context.Context, op *opModels.Operator) error
	FindByID(ctx context.Context, operatorID id.OperatorID) (*opModels.Operator, error)
}

// memberSeeder writes members in dev mode only; production members come from
// the registry import.
type memberSeeder interface {
	memberStore.Directory
	Put(ctx context.Context, m *memberModels.Member) error
}

type stores struct {
	inMemory  bool
	claims    claimService.Store
	claimTx   claimService.ClaimStoreTx
	members   memberStore.Directory
	seeder    memberSeeder
	lists     listStore
	operators operatorStore
	audit     audit.Store
	health    map[string]httptransport.HealthCheck
	closers   []func() error
	log       *slog.Logger
}

func (s *stores) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			s.log.Warn("close failed", "error", err)
		}
	}
}

// openStores selects Postgres when DATABASE_URL is set and in-memory stores
// otherwise, then puts the optional Redis lookup cache in front of the
// member directory.
func openStores(ctx context.Context, cfg *config.Config, log *slog.Logger) (*stores, error) {
	st := &stores{
		health: make(map[string]httptransport.HealthCheck),
		log:    log,
	}

	if cfg.DB.URL == "" {
		claims := claimStore.NewInMemoryStore()
		directory := memberStore.NewInMemoryDirectory()
		st.inMemory = true
		st.claims = claims
		st.claimTx = claimService.NewShardedTx(claims, cfg.Claims.TxTimeout)
		st.members = directory
		st.seeder = directory
		st.lists = assignmentStore.NewInMemoryListStore()
		st.operators = opStore.NewInMemoryStore()
		st.audit = auditMemory.NewInMemoryStore()
	} else {
		db, err := postgres.Open(ctx, cfg.DB)
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, db.Close)
		if cfg.DB.ApplySchema {
			if err := postgres.ApplySchema(ctx, db); err != nil {
				st.close()
				return nil, err
			}
		}
		claims := claimStore.NewPostgresStore(db)
		st.claims = claims
		st.claimTx = claimService.NewPostgresTx(db, claims, cfg.Claims.TxTimeout)
		st.members = memberStore.NewPostgresDirectory(db)
		st.lists = assignmentStore.NewPostgresListStore(db)
		st.operators = opStore.NewPostgresStore(db)
		st.audit = auditPostgres.New(db)
		st.health["postgres"] = pingDB(db)
	}

	client, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		st.close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	if client != nil {
		st.closers = append(st.closers, client.Close)
		st.members = memberStore.NewCachedDirectory(st.members, client.Client,
			memberStore.WithLookupTTL(cfg.Redis.LookupTTL),
			memberStore.WithCacheLogger(log),
		)
		st.health["redis"] = client.Health
	}
	return st, nil
}

func pingDB(db *sql.DB) httptransport.HealthCheck {
	return func(ctx context.Context) error {
		return db.PingContext(ctx)
	}
}
