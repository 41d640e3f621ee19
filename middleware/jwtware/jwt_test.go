package jwtware_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/mock"

	"github.com/goliatone/go-accounts/middleware/jwtware"
)

type stubClaims struct {
	subject string
	userID  string
	email   string
	role    string
}

func (c stubClaims) Subject() string { return c.subject }
func (c stubClaims) UserID() string  { return c.userID }
func (c stubClaims) Email() string   { return c.email }
func (c stubClaims) Role() string    { return c.role }

func (c stubClaims) HasRole(role string) bool { return c.role == role }

func (c stubClaims) IsAtLeast(minRole string) bool {
	rank := map[string]int{"viewer": 0, "user": 1, "admin": 2}
	have, ok := rank[c.role]
	if !ok {
		return false
	}
	want, ok := rank[minRole]
	if !ok {
		return false
	}
	return have >= want
}

type stubValidator struct {
	claims jwtware.AuthClaims
	err    error
}

func (v stubValidator) Validate(tokenString string) (jwtware.AuthClaims, error) {
	return v.claims, v.err
}

func memberClaims() stubClaims {
	return stubClaims{
		subject: "12345",
		userID:  "12345",
		email:   "person@example.com",
		role:    "user",
	}
}

func runMiddleware(cfg jwtware.Config, ctx router.Context) error {
	next := func(c router.Context) error { return nil }
	return jwtware.New(cfg)(next)(ctx)
}

func TestJWTWare_BasicHeaderExtraction(t *testing.T) {
	cfg := jwtware.Config{
		TokenValidator: stubValidator{claims: memberClaims()},
		ErrorHandler: func(c router.Context, err error) error {
			return err
		},
	}

	ctx := router.NewMockContext()
	ctx.HeadersM["Authorization"] = "Bearer valid-token"
	ctx.On("GetString", "Authorization", "").Return("Bearer valid-token")
	ctx.On("Locals", "user", mock.Anything).Return(nil)

	if err := runMiddleware(cfg, ctx); err != nil {
		t.Fatalf("unexpected error for valid token: %v", err)
	}
	if !ctx.NextCalled {
		t.Errorf("expected Next to be invoked on success")
	}

	// missing header
	ctx = router.NewMockContext()
	ctx.On("GetString", "Authorization", "").Return("")

	err := runMiddleware(cfg, ctx)
	if err == nil {
		t.Fatal("expected error for missing token, got nil")
	}
	if !errors.Is(err, jwtware.ErrJWTMissingOrMalformed) {
		t.Errorf("expected missing token error, got: %v", err)
	}

	// wrong scheme
	ctx = router.NewMockContext()
	ctx.On("GetString", "Authorization", "").Return("Basic dXNlcjpwYXNz")

	err = runMiddleware(cfg, ctx)
	if !errors.Is(err, jwtware.ErrJWTMissingOrMalformed) {
		t.Errorf("expected missing token error for wrong scheme, got: %v", err)
	}
}

func TestJWTWare_ValidatorErrorPropagates(t *testing.T) {
	rejected := errors.New("token is expired")

	cfg := jwtware.Config{
		TokenValidator: stubValidator{err: rejected},
		ErrorHandler: func(c router.Context, err error) error {
			return err
		},
	}

	ctx := router.NewMockContext()
	ctx.HeadersM["Authorization"] = "Bearer expired-token"
	ctx.On("GetString", "Authorization", "").Return("Bearer expired-token")

	err := runMiddleware(cfg, ctx)
	if !errors.Is(err, rejected) {
		t.Fatalf("expected validator error, got: %v", err)
	}
}

func TestJWTWare_RoleChecks(t *testing.T) {
	tests := []struct {
		name      string
		cfg       jwtware.Config
		wantError bool
	}{
		{
			name: "required role match",
			cfg:  jwtware.Config{RequiredRole: "user"},
		},
		{
			name:      "required role mismatch",
			cfg:       jwtware.Config{RequiredRole: "admin"},
			wantError: true,
		},
		{
			name: "minimum role satisfied",
			cfg:  jwtware.Config{MinimumRole: "viewer"},
		},
		{
			name:      "minimum role not met",
			cfg:       jwtware.Config{MinimumRole: "admin"},
			wantError: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := tc.cfg
			cfg.TokenValidator = stubValidator{claims: memberClaims()}
			cfg.ErrorHandler = func(c router.Context, err error) error {
				return err
			}

			ctx := router.NewMockContext()
			ctx.HeadersM["Authorization"] = "Bearer valid-token"
			ctx.On("GetString", "Authorization", "").Return("Bearer valid-token")
			ctx.On("Locals", "user", mock.Anything).Return(nil).Maybe()

			err := runMiddleware(cfg, ctx)
			if tc.wantError {
				if !errors.Is(err, jwtware.ErrInsufficientRole) {
					t.Errorf("expected insufficient role error, got: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})
	}
}

// customPathMock overrides Path() from the base MockContext.
type customPathMock struct {
	*router.MockContext
	pathOverride string
}

func (m *customPathMock) Path() string {
	return m.pathOverride
}

func TestJWTWare_FilterFunction(t *testing.T) {
	cfg := jwtware.Config{
		TokenValidator: stubValidator{claims: memberClaims()},
		Filter: func(ctx router.Context) bool {
			return ctx.Path() == "/public"
		},
	}

	ctx := &customPathMock{
		MockContext:  router.NewMockContext(),
		pathOverride: "/public",
	}

	if err := runMiddleware(cfg, ctx); err != nil {
		t.Fatalf("expected no error because Filter should skip, got %v", err)
	}
	if !ctx.NextCalled {
		t.Errorf("expected Next() to be invoked due to Filter skip")
	}
}

func TestJWTWare_CustomTokenLookup(t *testing.T) {
	cfg := jwtware.Config{
		TokenValidator: stubValidator{claims: memberClaims()},
		TokenLookup:    "query:token,param:jwt,cookie:jwt_cookie",
		ErrorHandler: func(c router.Context, err error) error {
			return err
		},
	}

	// query parameter
	ctx := router.NewMockContext()
	ctx.QueriesM["token"] = "query-token"
	ctx.On("Locals", "user", mock.Anything).Return(nil)

	if err := runMiddleware(cfg, ctx); err != nil {
		t.Fatalf("expected no error for query token, got %v", err)
	}

	// URL parameter
	ctx = router.NewMockContext()
	ctx.ParamsM["jwt"] = "param-token"
	ctx.On("Locals", "user", mock.Anything).Return(nil)

	if err := runMiddleware(cfg, ctx); err != nil {
		t.Fatalf("expected no error for param token, got %v", err)
	}

	// cookie
	ctx = router.NewMockContext()
	ctx.CookiesM["jwt_cookie"] = "cookie-token"
	ctx.On("Locals", "user", mock.Anything).Return(nil)

	if err := runMiddleware(cfg, ctx); err != nil {
		t.Fatalf("expected no error for cookie token, got %v", err)
	}

	// nothing anywhere
	ctx = router.NewMockContext()
	if err := runMiddleware(cfg, ctx); err == nil {
		t.Fatal("expected error when no token present, got nil")
	}
}

func TestJWTWare_ClaimsStoredInLocals(t *testing.T) {
	claims := memberClaims()

	cfg := jwtware.Config{
		TokenValidator: stubValidator{claims: claims},
		ContextKey:     "auth_claims",
	}

	ctx := router.NewMockContext()
	ctx.HeadersM["Authorization"] = "Bearer valid-token"
	ctx.On("GetString", "Authorization", "").Return("Bearer valid-token")
	ctx.On("Locals", "auth_claims", mock.Anything).Return(nil)

	if err := runMiddleware(cfg, ctx); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	ctx.AssertCalled(t, "Locals", "auth_claims", claims)
}

func TestGetDefaultConfig(t *testing.T) {
	cfg := jwtware.GetDefaultConfig(jwtware.Config{
		TokenValidator: stubValidator{},
	})

	if cfg.ContextKey != "user" {
		t.Errorf("expected default context key 'user', got %q", cfg.ContextKey)
	}
	if cfg.AuthScheme != "Bearer" {
		t.Errorf("expected default auth scheme 'Bearer', got %q", cfg.AuthScheme)
	}
	if !strings.HasPrefix(cfg.TokenLookup, "header:") {
		t.Errorf("expected default header token lookup, got %q", cfg.TokenLookup)
	}
	if cfg.SuccessHandler == nil || cfg.ErrorHandler == nil {
		t.Error("expected default success and error handlers to be set")
	}
}

func TestGetExtractors(t *testing.T) {
	extractors := jwtware.GetExtractors("header:Authorization,query:jwt,param:token,cookie:session, malformed")
	if len(extractors) != 4 {
		t.Fatalf("expected 4 extractors, got %d", len(extractors))
	}
}
