// Package auth implements the navigation-time admin check. The guard decodes
// the stored token without verifying it, so its verdict is a UI routing hint
// only; the REST services behind the bridge enforce authorization for real.
package auth

import (
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/unihelp/admin-bridge/session"
	"github.com/unihelp/admin-bridge/token"
	"github.com/unihelp/admin-bridge/users"
)

// Decision is the guard's verdict. It is always a navigation outcome; the
// guard never surfaces an error to the caller.
type Decision struct {
	Allowed  bool
	Redirect string        // error route when not allowed
	Cleared  bool          // whether the stored credentials were wiped
	Profile  users.Profile // populated when allowed
}

// Guard checks the stored session before every protected navigation.
type Guard struct {
	store      session.Store
	errorRoute string
	nowTime    func() time.Time // injectable for testing
}

// GuardOption configures a Guard.
type GuardOption func(*Guard)

// WithNowTime sets the now time function (primarily for testing).
func WithNowTime(nowFunc func() time.Time) GuardOption {
	return func(g *Guard) {
		g.nowTime = nowFunc
	}
}

// NewGuard creates a Guard that redirects failures to errorRoute.
func NewGuard(store session.Store, errorRoute string, options ...GuardOption) (*Guard, error) {
	if store == nil {
		return nil, errors.New("[NewGuard] session store is required")
	}
	if errorRoute == "" {
		return nil, errors.New("[NewGuard] error route is required")
	}

	g := &Guard{
		store:      store,
		errorRoute: errorRoute,
		nowTime:    time.Now,
	}
	for _, opt := range options {
		opt(g)
	}
	return g, nil
}

// Check applies the admission sequence:
//
//  1. both token and user must be present, otherwise clear and redirect;
//  2. the token payload must decode (unverified) and carry exp;
//  3. exp, widened to milliseconds, must not be in the past;
//  4. the user blob must parse and carry the ADMIN role.
//
// Steps 1-3 failing wipes the stored credentials. A role mismatch alone
// redirects without clearing: the identity may still be valid for non-admin
// areas. Check never panics outward; any failure becomes a redirect.
func (g *Guard) Check() (decision Decision) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("guard check panicked, treating session as invalid")
			decision = g.denyAndClear()
		}
	}()

	current, err := g.store.Get()
	if err != nil {
		log.Warn().Err(err).Msg("session store read failed")
		return g.denyAndClear()
	}
	if !current.Complete() {
		return g.denyAndClear()
	}

	claims, err := token.Decode(current.Token)
	if err != nil {
		return g.denyAndClear()
	}
	if claims.Expired(g.nowTime()) {
		return g.denyAndClear()
	}

	profile, err := users.ParseProfile(current.User)
	if err != nil {
		return g.denyAndClear()
	}
	if !profile.IsAdmin() {
		// Credentials stay: only the role check failed.
		return Decision{Redirect: g.errorRoute}
	}

	return Decision{Allowed: true, Profile: profile}
}

func (g *Guard) denyAndClear() Decision {
	if err := g.store.Clear(); err != nil {
		log.Warn().Err(err).Msg("failed to clear session store")
	}
	return Decision{Redirect: g.errorRoute, Cleared: true}
}
