package social

import (
	"fmt"

	accounts "github.com/goliatone/go-accounts"
	"github.com/goliatone/go-router"
)

// Controller mounts the OAuth2 login flow: a redirect endpoint that
// sends the browser to the provider, and a callback endpoint that
// exchanges the code, verifies the profile, and signs the account in
// through the external login handler.
type Controller struct {
	Logger       accounts.Logger
	Routes       *ControllerRoutes
	ErrorHandler router.ErrorHandler

	providers map[string]SocialProvider
	states    StateManager
	login     *accounts.ExternalLoginHandler
}

// ControllerRoutes holds the mount paths
type ControllerRoutes struct {
	Begin    string
	Callback string
}

type ControllerOption func(*Controller) *Controller

// WithProvider registers a provider under its name
func WithProvider(provider SocialProvider) ControllerOption {
	return func(c *Controller) *Controller {
		c.providers[provider.Name()] = provider
		return c
	}
}

// WithStateManager sets the state codec
func WithStateManager(states StateManager) ControllerOption {
	return func(c *Controller) *Controller {
		c.states = states
		return c
	}
}

// WithLoginHandler sets the external login handler
func WithLoginHandler(login *accounts.ExternalLoginHandler) ControllerOption {
	return func(c *Controller) *Controller {
		c.login = login
		return c
	}
}

// WithLogger sets the controller logger
func WithLogger(logger accounts.Logger) ControllerOption {
	return func(c *Controller) *Controller {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func NewController(opts ...ControllerOption) *Controller {
	c := &Controller{
		providers: map[string]SocialProvider{},
		Routes: &ControllerRoutes{
			Begin:    "/auth/social/:provider",
			Callback: "/auth/social/:provider/callback",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.states == nil {
		panic("Missing StateManager in social controller...")
	}

	if c.login == nil {
		panic("Missing ExternalLoginHandler in social controller...")
	}

	return c
}

// RegisterRoutes mounts the controller on a router
func RegisterRoutes[T any](app router.Router[T], opts ...ControllerOption) {
	controller := NewController(opts...)

	app.Get(controller.Routes.Begin, controller.Begin).SetName("social.begin")
	app.Get(controller.Routes.Callback, controller.Callback).SetName("social.callback")
}

// Begin redirects the browser to the provider's consent screen. The
// PKCE verifier travels inside the encrypted state so the callback can
// complete the exchange without server side session storage.
func (c *Controller) Begin(ctx router.Context) error {
	provider, ok := c.providers[ctx.Param("provider")]
	if !ok {
		return c.renderError(ctx, ErrProviderNotFound)
	}

	verifier, err := GenerateCodeVerifier()
	if err != nil {
		return c.renderError(ctx, err)
	}

	encoded, err := c.states.Encode(&OAuthState{
		Provider:     provider.Name(),
		CodeVerifier: verifier,
		RedirectURL:  ctx.Query("redirect_url", ""),
	})
	if err != nil {
		return c.renderError(ctx, err)
	}

	authURL := provider.AuthCodeURL(encoded,
		WithPKCE(ComputeCodeChallenge(verifier), "S256"),
	)

	return ctx.Redirect(authURL, router.StatusFound)
}

// Callback completes the flow and responds with the session token.
func (c *Controller) Callback(ctx router.Context) error {
	provider, ok := c.providers[ctx.Param("provider")]
	if !ok {
		return c.renderError(ctx, ErrProviderNotFound)
	}

	if errCode := ctx.Query("error", ""); errCode != "" {
		return ctx.JSON(router.StatusUnauthorized, map[string]string{
			"error":             errCode,
			"error_description": ctx.Query("error_description", ""),
		})
	}

	state, err := c.states.Decode(ctx.Query("state", ""))
	if err != nil {
		return c.renderError(ctx, err)
	}

	if state.Provider != provider.Name() {
		return c.renderError(ctx, ErrInvalidState)
	}

	code := ctx.Query("code", "")
	if code == "" {
		return c.renderError(ctx, ErrInvalidState)
	}

	token, err := provider.Exchange(ctx.Context(), code, WithCodeVerifier(state.CodeVerifier))
	if err != nil {
		c.logError("token exchange failed", provider.Name(), err)
		return c.renderError(ctx, ErrTokenExchangeFailed)
	}

	profile, err := provider.UserInfo(ctx.Context(), token)
	if err != nil {
		c.logError("user info fetch failed", provider.Name(), err)
		return c.renderError(ctx, ErrUserInfoFailed)
	}

	var result *accounts.LoginResult

	msg := accounts.ExternalLoginMessage{
		Provider:      profile.Provider,
		ExternalID:    profile.ProviderUserID,
		Email:         profile.Email,
		Name:          profile.Name,
		Avatar:        profile.AvatarURL,
		EmailVerified: profile.EmailVerified,
		OnResponse: func(r *accounts.LoginResult) {
			result = r
		},
	}

	if err := c.login.Execute(ctx.Context(), msg); err != nil {
		c.logError("external login failed", provider.Name(), err)
		return c.renderError(ctx, err)
	}

	if state.RedirectURL != "" {
		return ctx.Redirect(
			fmt.Sprintf("%s#access_token=%s", state.RedirectURL, result.AccessToken),
			router.StatusFound,
		)
	}

	return ctx.JSON(router.StatusOK, result)
}

func (c *Controller) renderError(ctx router.Context, err error) error {
	if c.ErrorHandler != nil {
		return c.ErrorHandler(ctx, err)
	}
	return accounts.RenderError(ctx, err)
}

func (c *Controller) logError(msg, provider string, err error) {
	if c.Logger != nil {
		c.Logger.Error(msg, "provider", provider, "error", err)
	}
}
