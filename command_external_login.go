package accounts

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// ExternalLoginMessage signs in an identity asserted by an external
// provider. The message carries the provider's claims, already
// verified upstream; this handler only decides how they map onto a
// local account.
type ExternalLoginMessage struct {
	Provider      string                    `json:"provider"`
	ExternalID    string                    `json:"external_id"`
	Email         string                    `json:"email"`
	Name          string                    `json:"name"`
	Avatar        string                    `json:"avatar,omitempty"`
	EmailVerified bool                      `json:"email_verified"`
	OnResponse    func(result *LoginResult) `json:"-"`
}

// Type identifier of ExternalLoginMessage
func (e ExternalLoginMessage) Type() string { return "auth.external.login" }

// Validate payload
func (e ExternalLoginMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Provider, validation.Required),
		validation.Field(&e.ExternalID, validation.Required),
		validation.Field(&e.Email, validation.Required, is.Email),
	)
}

// ExternalLoginHandler resolves the provider identity to an account:
// first by external ID, then by merging into an existing email
// account, finally by creating a fresh account with no password.
// Merging by email requires the provider's email_verified claim since
// the provider is the trust anchor for email ownership.
type ExternalLoginHandler struct {
	repo     RepositoryManager
	auther   *Auther
	activity ActivitySink
	logger   Logger
}

// NewExternalLoginHandler will create a new external login handler
func NewExternalLoginHandler(repo RepositoryManager, auther *Auther) *ExternalLoginHandler {
	return &ExternalLoginHandler{
		repo:     repo,
		auther:   auther,
		activity: noopActivitySink{},
		logger:   defLogger{},
	}
}

// WithActivitySink sets the activity sink
func (h *ExternalLoginHandler) WithActivitySink(sink ActivitySink) *ExternalLoginHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

// WithLogger sets the handler logger
func (h *ExternalLoginHandler) WithLogger(logger Logger) *ExternalLoginHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// Execute handles an ExternalLoginMessage
func (h *ExternalLoginHandler) Execute(ctx context.Context, event ExternalLoginMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "external login cancelled")
	default:
		return h.execute(ctx, event)
	}
}

func (h *ExternalLoginHandler) execute(ctx context.Context, event ExternalLoginMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid external login payload").
			WithTextCode("INVALID_PAYLOAD")
	}

	email := NormalizeEmail(event.Email)

	var account *Account

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		account, err = h.resolveAccountTx(ctx, tx, event, email)
		return err
	})

	if err != nil {
		var rich *goerrors.Error
		if goerrors.As(err, &rich) {
			return rich
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "external login failed")
	}

	token, err := h.auther.TokenForIdentity(ctx, NewIdentityFromAccount(account))
	if err != nil {
		return err
	}

	if err := h.repo.Accounts().TrackSuccessfulLogin(ctx, account); err != nil {
		h.logger.Error("could not track external login", "id", account.ID, "error", err)
	}

	h.activity.Record(ctx, ActivityEvent{
		EventType: ActivityEventExternalLogin,
		Actor:     ActorRef{ID: account.ID.String(), Email: account.Email},
		AccountID: account.ID.String(),
		Metadata: map[string]any{
			"provider": event.Provider,
		},
		OccurredAt: time.Now(),
	})

	if event.OnResponse != nil {
		event.OnResponse(&LoginResult{
			AccessToken: token,
			Account:     account.Public(),
		})
	}

	return nil
}

func (h *ExternalLoginHandler) resolveAccountTx(ctx context.Context, tx bun.Tx, event ExternalLoginMessage, email string) (*Account, error) {
	accounts := h.repo.Accounts()

	linked, err := accounts.GetByExternalIDTx(ctx, tx, event.ExternalID)
	if err != nil && !repository.IsRecordNotFound(err) {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "external id lookup failed")
	}

	if linked != nil {
		return h.refreshProfileTx(ctx, tx, linked, event)
	}

	existing, err := accounts.GetByEmailTx(ctx, tx, email)
	if err != nil && !repository.IsRecordNotFound(err) {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "account lookup failed")
	}

	if existing != nil {
		if !event.EmailVerified {
			return nil, ErrExternalEmailUnverified
		}
		existing.ExternalID = event.ExternalID
		return h.refreshProfileTx(ctx, tx, existing, event)
	}

	record := &Account{
		Email:         email,
		Name:          event.Name,
		Avatar:        event.Avatar,
		ExternalID:    event.ExternalID,
		EmailVerified: event.EmailVerified,
		Role:          RoleUser,
		Status:        StatusActive,
	}

	created, err := accounts.CreateTx(ctx, tx, record)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not create account")
	}

	return created, nil
}

func (h *ExternalLoginHandler) refreshProfileTx(ctx context.Context, tx bun.Tx, account *Account, event ExternalLoginMessage) (*Account, error) {
	if event.Name != "" {
		account.Name = event.Name
	}
	if event.Avatar != "" {
		account.Avatar = event.Avatar
	}
	if event.EmailVerified {
		account.EmailVerified = true
	}

	updated, err := h.repo.Accounts().UpdateTx(ctx, tx, account)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not update account")
	}

	return updated, nil
}
