package accounts

import (
	"fmt"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// AccountsControllerRoutes holds the route paths the controller mounts
type AccountsControllerRoutes struct {
	Register       string
	Login          string
	Logout         string
	ForgotPassword string
	ResetPassword  string
	ChangePassword string
	Profile        string
	Accounts       string
}

// AccountsController exposes the account lifecycle as a JSON API
type AccountsController struct {
	Debug        bool
	Logger       Logger
	Repo         RepositoryManager
	Routes       *AccountsControllerRoutes
	Auther       *RouteAuthenticator
	Service      *AccountService
	Register     *RegisterAccountHandler
	Login        *LoginHandler
	Forgot       *ForgotPasswordHandler
	Reset        *ResetPasswordHandler
	Change       *ChangePasswordHandler
	ErrorHandler router.ErrorHandler
}

type AccountsControllerOption func(*AccountsController) *AccountsController

func NewAccountsController(opts ...AccountsControllerOption) *AccountsController {
	c := &AccountsController{
		Logger:       defLogger{},
		ErrorHandler: RenderError,
		Routes: &AccountsControllerRoutes{
			Register:       "/auth/register",
			Login:          "/auth/login",
			Logout:         "/auth/logout",
			ForgotPassword: "/auth/password/forgot",
			ResetPassword:  "/auth/password/reset",
			ChangePassword: "/auth/password/change",
			Profile:        "/me",
			Accounts:       "/accounts",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in accounts controller...")
	}

	if c.Auther == nil {
		panic("Missing RouteAuthenticator in accounts controller...")
	}

	return c
}

func WithControllerLogger(logger Logger) AccountsControllerOption {
	return func(c *AccountsController) *AccountsController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithControllerDebug(debug bool) AccountsControllerOption {
	return func(c *AccountsController) *AccountsController {
		c.Debug = debug
		return c
	}
}

func WithControllerRepo(repo RepositoryManager) AccountsControllerOption {
	return func(c *AccountsController) *AccountsController {
		c.Repo = repo
		return c
	}
}

func WithControllerAuther(auther *RouteAuthenticator) AccountsControllerOption {
	return func(c *AccountsController) *AccountsController {
		c.Auther = auther
		return c
	}
}

func WithControllerService(service *AccountService) AccountsControllerOption {
	return func(c *AccountsController) *AccountsController {
		c.Service = service
		return c
	}
}

func WithControllerHandlers(
	register *RegisterAccountHandler,
	login *LoginHandler,
	forgot *ForgotPasswordHandler,
	reset *ResetPasswordHandler,
	change *ChangePasswordHandler,
) AccountsControllerOption {
	return func(c *AccountsController) *AccountsController {
		c.Register = register
		c.Login = login
		c.Forgot = forgot
		c.Reset = reset
		c.Change = change
		return c
	}
}

// RegisterAccountRoutes mounts the controller on a router
func RegisterAccountRoutes[T any](app router.Router[T], cfg Config, opts ...AccountsControllerOption) {
	controller := NewAccountsController(opts...)

	protected := controller.Auther.ProtectedRoute(cfg, controller.Auther.MakeAuthErrorHandler(false))
	admin := controller.Auther.AdminRoute(cfg, controller.Auther.MakeAuthErrorHandler(false))

	app.Post(controller.Routes.Register, controller.RegisterPost).SetName("register.post")
	app.Post(controller.Routes.Login, controller.LoginPost).SetName("sign-in.post")
	app.Post(controller.Routes.Logout, controller.LogoutPost).SetName("sign-out.post")

	app.Post(controller.Routes.ForgotPassword, controller.ForgotPasswordPost).SetName("pwd-forgot.post")
	app.Post(controller.Routes.ResetPassword, controller.ResetPasswordPost).SetName("pwd-reset.post")
	app.Post(controller.Routes.ChangePassword, controller.ChangePasswordPost, protected).SetName("pwd-change.post")

	app.Get(controller.Routes.Profile, controller.ProfileShow, protected).SetName("profile.get")
	app.Put(controller.Routes.Profile, controller.ProfileUpdate, protected).SetName("profile.put")

	app.Get(controller.Routes.Accounts, controller.AccountsList, admin).SetName("accounts.list")
	app.Get(fmt.Sprintf("%s/:id", controller.Routes.Accounts), controller.AccountShow, admin).SetName("accounts.get")
	app.Put(fmt.Sprintf("%s/:id", controller.Routes.Accounts), controller.AccountUpdate, admin).SetName("accounts.put")
	app.Delete(fmt.Sprintf("%s/:id", controller.Routes.Accounts), controller.AccountDelete, admin).SetName("accounts.delete")
}

// RegisterRequest payload
type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Phone    string `json:"phone_number,omitempty"`
}

// Validate payload
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Name, validation.Required),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 72)),
	)
}

func (a *AccountsController) RegisterPost(ctx router.Context) error {
	payload := RegisterRequest{}
	if err := ctx.Bind(&payload); err != nil {
		return a.ErrorHandler(ctx, ErrUnableToDecodePayload)
	}

	if a.Debug {
		fmt.Println(print.MaybePrettyJSON(payload))
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	var result *LoginResult

	msg := RegisterAccountMessage{
		Email:    payload.Email,
		Name:     payload.Name,
		Password: payload.Password,
		Phone:    payload.Phone,
		OnResponse: func(r *LoginResult) {
			result = r
		},
	}

	if err := a.Register.Execute(ctx.Context(), msg); err != nil {
		a.Logger.Error("registration failed", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusCreated, result)
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate payload
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *AccountsController) LoginPost(ctx router.Context) error {
	payload := LoginRequest{}
	if err := ctx.Bind(&payload); err != nil {
		return a.ErrorHandler(ctx, ErrUnableToDecodePayload)
	}

	if err := payload.Validate(); err != nil {
		// payload shape errors map to the same generic response as a
		// wrong password
		return a.ErrorHandler(ctx, ErrInvalidCredentials)
	}

	var result *LoginResult

	msg := LoginMessage{
		Email:    payload.Email,
		Password: payload.Password,
		OnResponse: func(r *LoginResult) {
			result = r
		},
	}

	if err := a.Login.Execute(ctx.Context(), msg); err != nil {
		a.Logger.Error("login failed", "email", payload.Email)
		return a.ErrorHandler(ctx, err)
	}

	if a.Debug {
		fmt.Println(print.MaybePrettyJSON(result))
	}

	return ctx.JSON(router.StatusOK, result)
}

func (a *AccountsController) LogoutPost(ctx router.Context) error {
	a.Auther.Logout(ctx)
	return ctx.JSON(router.StatusOK, map[string]any{"success": true})
}

// ForgotPasswordRequest payload
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// Validate payload
func (r ForgotPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

func (a *AccountsController) ForgotPasswordPost(ctx router.Context) error {
	payload := ForgotPasswordRequest{}
	if err := ctx.Bind(&payload); err != nil {
		return a.ErrorHandler(ctx, ErrUnableToDecodePayload)
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	var result *ForgotPasswordResponse

	msg := ForgotPasswordMessage{
		Email: payload.Email,
		OnResponse: func(r *ForgotPasswordResponse) {
			result = r
		},
	}

	if err := a.Forgot.Execute(ctx.Context(), msg); err != nil {
		a.Logger.Error("forgot password failed", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, result)
}

// ResetPasswordRequest payload
type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// Validate payload
func (r ResetPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required),
		validation.Field(&r.NewPassword, validation.Required, validation.Length(8, 72)),
	)
}

func (a *AccountsController) ResetPasswordPost(ctx router.Context) error {
	payload := ResetPasswordRequest{}
	if err := ctx.Bind(&payload); err != nil {
		return a.ErrorHandler(ctx, ErrUnableToDecodePayload)
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	msg := ResetPasswordMessage{
		Token:       payload.Token,
		NewPassword: payload.NewPassword,
	}

	if err := a.Reset.Execute(ctx.Context(), msg); err != nil {
		a.Logger.Error("password reset failed", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{"success": true})
}

// ChangePasswordRequest payload
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// Validate payload
func (r ChangePasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.OldPassword, validation.Required),
		validation.Field(&r.NewPassword, validation.Required, validation.Length(8, 72)),
	)
}

func (a *AccountsController) ChangePasswordPost(ctx router.Context) error {
	claims, ok := GetRouterClaims(ctx, a.Auther.cfg.GetContextKey())
	if !ok {
		return a.ErrorHandler(ctx, ErrMissingClaims)
	}

	payload := ChangePasswordRequest{}
	if err := ctx.Bind(&payload); err != nil {
		return a.ErrorHandler(ctx, ErrUnableToDecodePayload)
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	msg := ChangePasswordMessage{
		AccountID:   claims.UserID(),
		OldPassword: payload.OldPassword,
		NewPassword: payload.NewPassword,
	}

	if err := a.Change.Execute(ctx.Context(), msg); err != nil {
		a.Logger.Error("change password failed", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{"success": true})
}

func (a *AccountsController) ProfileShow(ctx router.Context) error {
	claims, ok := GetRouterClaims(ctx, a.Auther.cfg.GetContextKey())
	if !ok {
		return a.ErrorHandler(ctx, ErrMissingClaims)
	}

	profile, err := a.Service.GetProfile(ctx.Context(), claims, claims.UserID())
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, profile)
}

func (a *AccountsController) ProfileUpdate(ctx router.Context) error {
	claims, ok := GetRouterClaims(ctx, a.Auther.cfg.GetContextKey())
	if !ok {
		return a.ErrorHandler(ctx, ErrMissingClaims)
	}

	payload := ProfileUpdate{}
	if err := ctx.Bind(&payload); err != nil {
		return a.ErrorHandler(ctx, ErrUnableToDecodePayload)
	}

	profile, err := a.Service.UpdateProfile(ctx.Context(), claims, claims.UserID(), payload)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, profile)
}

func (a *AccountsController) AccountsList(ctx router.Context) error {
	claims, ok := GetRouterClaims(ctx, a.Auther.cfg.GetContextKey())
	if !ok {
		return a.ErrorHandler(ctx, ErrMissingClaims)
	}

	filter := ListFilter{
		Role:   UserRole(ctx.Query("role", "")),
		Status: AccountStatus(ctx.Query("status", "")),
		Limit:  queryInt(ctx, "limit", 50),
		Offset: queryInt(ctx, "offset", 0),
	}

	records, err := a.Service.ListAccounts(ctx.Context(), claims, filter)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"items": records,
		"count": len(records),
	})
}

func queryInt(ctx router.Context, key string, def int) int {
	raw := ctx.Query(key, "")
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return val
}

func (a *AccountsController) AccountShow(ctx router.Context) error {
	claims, ok := GetRouterClaims(ctx, a.Auther.cfg.GetContextKey())
	if !ok {
		return a.ErrorHandler(ctx, ErrMissingClaims)
	}

	record, err := a.Service.GetAccount(ctx.Context(), claims, ctx.Param("id"))
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, record)
}

func (a *AccountsController) AccountUpdate(ctx router.Context) error {
	claims, ok := GetRouterClaims(ctx, a.Auther.cfg.GetContextKey())
	if !ok {
		return a.ErrorHandler(ctx, ErrMissingClaims)
	}

	payload := AdminUpdate{}
	if err := ctx.Bind(&payload); err != nil {
		return a.ErrorHandler(ctx, ErrUnableToDecodePayload)
	}

	record, err := a.Service.UpdateAccount(ctx.Context(), claims, ctx.Param("id"), payload)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, record)
}

func (a *AccountsController) AccountDelete(ctx router.Context) error {
	claims, ok := GetRouterClaims(ctx, a.Auther.cfg.GetContextKey())
	if !ok {
		return a.ErrorHandler(ctx, ErrMissingClaims)
	}

	if err := a.Service.DeleteAccount(ctx.Context(), claims, ctx.Param("id")); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{"success": true})
}
