package accounts

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
)

// LoginMessage authenticates an email and password pair.
type LoginMessage struct {
	Email      string                    `json:"email"`
	Password   string                    `json:"password"`
	OnResponse func(result *LoginResult) `json:"-"`
}

// Type identifier of LoginMessage
func (e LoginMessage) Type() string { return "auth.login" }

// Validate payload
func (e LoginMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Email, validation.Required, is.Email),
		validation.Field(&e.Password, validation.Required),
	)
}

// LoginHandler runs the credential check through the authenticator and
// assembles the session response. All credential failures surface as
// the same invalid credentials error.
type LoginHandler struct {
	repo   RepositoryManager
	auther *Auther
	logger Logger
}

// NewLoginHandler will create a new login handler
func NewLoginHandler(repo RepositoryManager, auther *Auther) *LoginHandler {
	return &LoginHandler{
		repo:   repo,
		auther: auther,
		logger: defLogger{},
	}
}

// WithLogger sets the handler logger
func (h *LoginHandler) WithLogger(logger Logger) *LoginHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// Execute handles a LoginMessage
func (h *LoginHandler) Execute(ctx context.Context, event LoginMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "login cancelled")
	default:
		return h.execute(ctx, event)
	}
}

func (h *LoginHandler) execute(ctx context.Context, event LoginMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if err := event.Validate(); err != nil {
		// a malformed payload can never match an account, keep the
		// response indistinguishable from a wrong password
		h.logger.Debug("login payload failed validation", "error", err)
		return ErrInvalidCredentials
	}

	email := NormalizeEmail(event.Email)

	token, err := h.auther.Login(ctx, email, event.Password)
	if err != nil {
		return err
	}

	account, err := h.repo.Accounts().GetByEmail(ctx, email)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "could not load account after login")
	}

	if event.OnResponse != nil {
		event.OnResponse(&LoginResult{
			AccessToken: token,
			Account:     account.Public(),
		})
	}

	return nil
}
