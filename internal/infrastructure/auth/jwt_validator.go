package auth

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

// PrincipalClaims represent the subset of JWT claims we care about.
type PrincipalClaims struct {
	Subject   string
	Issuer    string
	Email     string
	ExpiresAt time.Time
}

// JWTValidator validates bearer tokens issued by the identity provider.
type JWTValidator struct {
	issuer    string
	audience  string
	clockSkew time.Duration
	logger    zerolog.Logger
	keyfunc   jwt.Keyfunc
	jwks      *keyfunc.JWKS
	lastErr   atomic.Value // stores lastErrWrap
}

// lastErrWrap avoids storing a bare nil in atomic.Value.
type lastErrWrap struct{ Err error }

const (
	jwksInitialRetryInterval   = time.Second
	jwksInitialRetryMaxBackoff = 10 * time.Second
	jwksInitialRetryTimeout    = 2 * time.Minute
)

// NewJWTValidator fetches the JWKS (retrying with backoff) and keeps it refreshed.
func NewJWTValidator(ctx context.Context, jwksURL, issuer, audience string, refreshEvery, clockSkew time.Duration, logger zerolog.Logger) (*JWTValidator, error) {
	if jwksURL == "" {
		return nil, errors.New("jwks url is required")
	}

	v := &JWTValidator{issuer: issuer, audience: audience, clockSkew: clockSkew, logger: logger}
	v.lastErr.Store(lastErrWrap{})

	options := keyfunc.Options{
		Ctx: ctx,
		RefreshErrorHandler: func(err error) {
			v.lastErr.Store(lastErrWrap{Err: err})
			if err != nil {
				v.logger.Error().Err(err).Msg("jwks refresh failed")
			}
		},
		RefreshInterval:   refreshEvery,
		RefreshUnknownKID: true,
	}

	backoff := jwksInitialRetryInterval
	deadline := time.Now().Add(jwksInitialRetryTimeout)
	for attempt := 1; ; attempt++ {
		jwks, err := keyfunc.Get(jwksURL, options)
		if err == nil {
			v.jwks = jwks
			v.keyfunc = jwks.Keyfunc
			return v, nil
		}

		logger.Warn().Err(err).Str("jwks_url", jwksURL).Int("attempt", attempt).Msg("initial jwks fetch failed, retrying")
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("fetch jwks: %w", ctx.Err())
		case <-time.After(backoff):
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("fetch jwks: %w", err)
		}
		backoff = min(backoff*2, jwksInitialRetryMaxBackoff)
	}
}

// NewStaticJWTValidator validates against a fixed key function.
func NewStaticJWTValidator(kf jwt.Keyfunc, issuer, audience string, clockSkew time.Duration, logger zerolog.Logger) *JWTValidator {
	v := &JWTValidator{issuer: issuer, audience: audience, clockSkew: clockSkew, logger: logger, keyfunc: kf}
	v.lastErr.Store(lastErrWrap{})
	return v
}

// Validate parses and validates the given JWT returning principal claims.
func (v *JWTValidator) Validate(_ context.Context, rawToken string) (*PrincipalClaims, error) {
	if v.keyfunc == nil {
		return nil, errors.New("jwks not initialised")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(v.issuer),
		jwt.WithLeeway(v.clockSkew),
		jwt.WithExpirationRequired(),
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	claims := jwt.MapClaims{}
	token, err := jwt.NewParser(opts...).ParseWithClaims(rawToken, claims, v.keyfunc)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	sub, _ := claims.GetSubject()
	if sub == "" {
		return nil, errors.New("sub claim missing")
	}
	iss, _ := claims.GetIssuer()
	email, _ := claims["email"].(string)

	principal := &PrincipalClaims{Subject: sub, Issuer: iss, Email: email}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		principal.ExpiresAt = exp.Time
	}
	return principal, nil
}

// Ready indicates whether signing keys are loaded and the last refresh succeeded.
func (v *JWTValidator) Ready() bool {
	if v.keyfunc == nil {
		return false
	}
	if wrap, ok := v.lastErr.Load().(lastErrWrap); ok && wrap.Err != nil {
		return false
	}
	return true
}

// Close stops the background JWKS refresh.
func (v *JWTValidator) Close() {
	if v.jwks != nil {
		v.jwks.EndBackground()
	}
}
