package store

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"frontdesk/internal/member/models"
	id "frontdesk/pkg/domain"
)

var lookupCacheResults = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "frontdesk_member_lookup_cache_total",
	Help: "Member lookup cache results by outcome (hit, miss, error)",
}, []string{"outcome"})

const (
	lookupKeyPrefix  = "frontdesk:member:lookup:"
	defaultLookupTTL = 10 * time.Minute
)

// Directory is the full read surface the cache decorates.
type Directory interface {
	Lookups
	FindMember(ctx context.Context, q string) (*models.Member, error)
	Exists(ctx context.Context, memberID id.MemberID) (bool, error)
	GetFlags(ctx context.Context, memberID id.MemberID) (models.Flags, error)
	GetFlagsBatch(ctx context.Context, ids []id.MemberID) (map[id.MemberID]models.Flags, error)
	FindByIDs(ctx context.Context, ids []id.MemberID) (map[id.MemberID]*models.Member, error)
}

// CachedDirectory remembers which member a search key resolved to. Only the
// key-to-id mapping is cached; the member row, and therefore its flags, is
// always read from the backing directory. Redis failures degrade to a
// direct lookup.
type CachedDirectory struct {
	Directory
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

type CachedOption func(*CachedDirectory)

func WithLookupTTL(ttl time.Duration) CachedOption {
	return func(c *CachedDirectory) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func WithCacheLogger(logger *slog.Logger) CachedOption {
	return func(c *CachedDirectory) {
		c.logger = logger
	}
}

func NewCachedDirectory(next Directory, client *redis.Client, opts ...CachedOption) *CachedDirectory {
	c := &CachedDirectory{
		Directory: next,
		client:    client,
		ttl:       defaultLookupTTL,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// FindMember checks the cached key-to-id mapping before running the full
// lookup chain.
func (c *CachedDirectory) FindMember(ctx context.Context, q string) (*models.Member, error) {
	q, ok := models.NormalizeQuery(q)
	if !ok {
		return nil, ErrNotFound
	}
	key := lookupKeyPrefix + strings.ToLower(q)

	cached, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		if u, perr := uuid.Parse(cached); perr == nil {
			m, ferr := c.Directory.FindByID(ctx, id.MemberID(u))
			if ferr == nil {
				lookupCacheResults.WithLabelValues("hit").Inc()
				return m, nil
			}
			if !errors.Is(ferr, ErrNotFound) {
				return nil, ferr
			}
		}
		// Stale mapping: the member was removed or the value is garbage.
		_ = c.client.Del(ctx, key).Err()
	case errors.Is(err, redis.Nil):
	default:
		lookupCacheResults.WithLabelValues("error").Inc()
		c.logger.WarnContext(ctx, "member lookup cache read failed", "error", err)
	}

	lookupCacheResults.WithLabelValues("miss").Inc()
	m, err := c.Directory.FindMember(ctx, q)
	if err != nil {
		return nil, err
	}
	if err := c.client.Set(ctx, key, m.ID.String(), c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "member lookup cache write failed", "error", err)
	}
	return m, nil
}
