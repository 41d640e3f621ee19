package accounts

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// ResetPasswordMessage redeems a reset token for a new password.
type ResetPasswordMessage struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
	OnResponse  func() `json:"-"`
}

// Type identifier of ResetPasswordMessage
func (e ResetPasswordMessage) Type() string { return "auth.password.reset" }

// Validate payload
func (e ResetPasswordMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Token, validation.Required),
		validation.Field(&e.NewPassword, validation.Required, validation.Length(8, 72)),
	)
}

// ResetPasswordHandler redeems the token inside a transaction. The
// actual consumption is a compare and swap keyed on the token digest,
// so two concurrent redemptions of the same token can never both
// succeed. Unknown, expired and already used tokens all map to the
// same invalid token error.
type ResetPasswordHandler struct {
	repo     RepositoryManager
	mailer   Mailer
	activity ActivitySink
	logger   Logger
	now      func() time.Time
}

// NewResetPasswordHandler will create a new reset password handler
func NewResetPasswordHandler(repo RepositoryManager) *ResetPasswordHandler {
	return &ResetPasswordHandler{
		repo:     repo,
		activity: noopActivitySink{},
		logger:   defLogger{},
		now:      time.Now,
	}
}

// WithMailer sets the confirmation mailer
func (h *ResetPasswordHandler) WithMailer(mailer Mailer) *ResetPasswordHandler {
	h.mailer = mailer
	return h
}

// WithActivitySink sets the activity sink
func (h *ResetPasswordHandler) WithActivitySink(sink ActivitySink) *ResetPasswordHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

// WithLogger sets the handler logger
func (h *ResetPasswordHandler) WithLogger(logger Logger) *ResetPasswordHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// WithClock overrides the expiry clock, used in tests
func (h *ResetPasswordHandler) WithClock(now func() time.Time) *ResetPasswordHandler {
	if now != nil {
		h.now = now
	}
	return h
}

// Execute handles a ResetPasswordMessage
func (h *ResetPasswordHandler) Execute(ctx context.Context, event ResetPasswordMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "password reset cancelled")
	default:
		return h.execute(ctx, event)
	}
}

func (h *ResetPasswordHandler) execute(ctx context.Context, event ResetPasswordMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if err := event.Validate(); err != nil {
		if event.Token == "" {
			return ErrResetTokenInvalid
		}
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid reset payload").
			WithTextCode("INVALID_PAYLOAD")
	}

	digest := HashResetToken(event.Token)

	var account *Account

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		found, err := h.repo.Accounts().GetByResetTokenHashTx(ctx, tx, digest)
		if err != nil {
			if IsNotFound(err) {
				return ErrResetTokenInvalid
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "reset token lookup failed")
		}

		if found.ResetTokenExpiresAt == nil || found.ResetTokenExpiresAt.Before(h.now()) {
			return ErrResetTokenInvalid
		}

		hash, err := HashPassword(event.NewPassword)
		if err != nil {
			return err
		}

		if err := h.repo.Accounts().ConsumeResetTokenTx(ctx, tx, digest, hash); err != nil {
			return err
		}

		account = found

		return nil
	})

	if err != nil {
		var rich *goerrors.Error
		if goerrors.As(err, &rich) {
			return rich
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "password reset failed")
	}

	if h.mailer != nil {
		if err := h.mailer.SendPasswordChanged(ctx, account.Email, account.Name); err != nil {
			h.logger.Error("password changed email delivery failed", "email", account.Email, "error", err)
		}
	}

	h.activity.Record(ctx, ActivityEvent{
		EventType:  ActivityEventPasswordReset,
		Actor:      ActorRef{ID: account.ID.String(), Email: account.Email},
		AccountID:  account.ID.String(),
		OccurredAt: h.now(),
	})

	if event.OnResponse != nil {
		event.OnResponse()
	}

	return nil
}
