package profile

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Resolver looks up display profiles. Resolve never fails: lookups that miss
// or error return a placeholder so lists still render.
type Resolver struct {
	repo  Repository
	cache Cache // nil if Redis disabled
}

// NewResolver creates profile resolver. repo and cache may be nil.
func NewResolver(repo Repository, cache Cache) *Resolver {
	return &Resolver{repo: repo, cache: cache}
}

// Resolve returns the profile of id, expected to act in role.
func (r *Resolver) Resolve(ctx context.Context, id, role string) Profile {
	if id == "" {
		return Placeholder(id, role)
	}

	if r.cache != nil {
		p, err := r.cache.Get(ctx, id)
		if err != nil {
			log.Warn().Err(err).Str("profile_id", id).Msg("Profile cache read failed")
		} else if p != nil {
			return *p
		}
	}

	if r.repo == nil {
		return Placeholder(id, role)
	}

	p, err := r.repo.GetByID(ctx, id)
	if err != nil {
		log.Warn().Err(err).Str("profile_id", id).Msg("Profile lookup failed")
		return Placeholder(id, role)
	}
	if p == nil {
		return Placeholder(id, role)
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, p); err != nil {
			log.Warn().Err(err).Str("profile_id", id).Msg("Profile cache write failed")
		}
	}
	return *p
}
