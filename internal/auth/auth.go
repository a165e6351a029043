// Package auth decides whether an operator may use privileged menu actions.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fines/internal/cache"
	"fines/internal/ledger"
)

// Role is the operator's access level.
type Role int

const (
	Viewer Role = iota
	Admin
)

func (r Role) String() string {
	if r == Admin {
		return "admin"
	}
	return "viewer"
}

func (r Role) IsAdmin() bool { return r == Admin }

// Provider answers whether a user is an administrator.
type Provider interface {
	IsAdmin(ctx context.Context, userID int64) (bool, error)
}

// StaticProvider is the allow-list configured at startup.
type StaticProvider struct {
	ids map[int64]struct{}
}

func NewStaticProvider(ids []int64) *StaticProvider {
	p := &StaticProvider{ids: make(map[int64]struct{}, len(ids))}
	for _, id := range ids {
		p.ids[id] = struct{}{}
	}
	return p
}

func (p *StaticProvider) IsAdmin(_ context.Context, userID int64) (bool, error) {
	_, ok := p.ids[userID]
	return ok, nil
}

// Len reports how many ids are configured.
func (p *StaticProvider) Len() int { return len(p.ids) }

// DirectoryProvider consults the admins table through a short-lived cache.
type DirectoryProvider struct {
	dir   ledger.AdminDirectory
	cache *cache.LRUCache[int64, bool]
}

const directoryCacheSize = 1024

// NewDirectoryProvider caches lookups for ttl. A zero ttl disables caching.
func NewDirectoryProvider(dir ledger.AdminDirectory, ttl time.Duration) *DirectoryProvider {
	p := &DirectoryProvider{dir: dir}
	if ttl > 0 {
		p.cache = cache.NewLRUCache[int64, bool](directoryCacheSize, ttl)
	}
	return p
}

func (p *DirectoryProvider) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	if p.cache != nil {
		if ok, hit := p.cache.Get(userID); hit {
			return ok, nil
		}
	}
	ok, err := p.dir.IsAdmin(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("lookup admin %d: %w", userID, err)
	}
	if p.cache != nil {
		p.cache.Set(userID, ok)
	}
	return ok, nil
}

// CleanExpired lets a cache.Manager sweep the lookup cache. It is a no-op
// when caching is disabled.
func (p *DirectoryProvider) CleanExpired() int {
	if p.cache == nil {
		return 0
	}
	return p.cache.CleanExpired()
}

// Resolver combines providers; any provider granting admin wins.
type Resolver struct {
	providers []Provider
	logger    *slog.Logger
}

func NewResolver(logger *slog.Logger, providers ...Provider) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{providers: providers, logger: logger}
}

// Resolve returns Viewer together with the provider errors when no provider
// granted admin and at least one failed, so callers fail closed.
func (r *Resolver) Resolve(ctx context.Context, userID int64) (Role, error) {
	var errs []error
	for _, p := range r.providers {
		ok, err := p.IsAdmin(ctx, userID)
		if err != nil {
			r.logger.WarnContext(ctx, "Admin provider failed", "operator_id", userID, "error", err)
			errs = append(errs, err)
			continue
		}
		if ok {
			return Admin, nil
		}
	}
	return Viewer, errors.Join(errs...)
}
