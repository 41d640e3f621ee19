package accounts

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ChangePasswordMessage rotates the password of a logged in account.
type ChangePasswordMessage struct {
	AccountID   string `json:"-"`
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
	OnResponse  func() `json:"-"`
}

// Type identifier of ChangePasswordMessage
func (e ChangePasswordMessage) Type() string { return "auth.password.change" }

// Validate payload
func (e ChangePasswordMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.AccountID, validation.Required, is.UUIDv4),
		validation.Field(&e.OldPassword, validation.Required),
		validation.Field(&e.NewPassword, validation.Required, validation.Length(8, 72)),
	)
}

// ChangePasswordHandler verifies the current password before swapping
// in the new hash. External only accounts have no password to verify
// and are rejected.
type ChangePasswordHandler struct {
	repo     RepositoryManager
	mailer   Mailer
	activity ActivitySink
	logger   Logger
}

// NewChangePasswordHandler will create a new change password handler
func NewChangePasswordHandler(repo RepositoryManager) *ChangePasswordHandler {
	return &ChangePasswordHandler{
		repo:     repo,
		activity: noopActivitySink{},
		logger:   defLogger{},
	}
}

// WithMailer sets the confirmation mailer
func (h *ChangePasswordHandler) WithMailer(mailer Mailer) *ChangePasswordHandler {
	h.mailer = mailer
	return h
}

// WithActivitySink sets the activity sink
func (h *ChangePasswordHandler) WithActivitySink(sink ActivitySink) *ChangePasswordHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

// WithLogger sets the handler logger
func (h *ChangePasswordHandler) WithLogger(logger Logger) *ChangePasswordHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// Execute handles a ChangePasswordMessage
func (h *ChangePasswordHandler) Execute(ctx context.Context, event ChangePasswordMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "change password cancelled")
	default:
		return h.execute(ctx, event)
	}
}

func (h *ChangePasswordHandler) execute(ctx context.Context, event ChangePasswordMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid change password payload").
			WithTextCode("INVALID_PAYLOAD")
	}

	accountID, err := uuid.Parse(event.AccountID)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid account id").
			WithTextCode("INVALID_PAYLOAD")
	}

	var account *Account

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		found, err := h.repo.Accounts().GetByIDTx(ctx, tx, event.AccountID)
		if err != nil {
			if IsNotFound(err) {
				return ErrAccountNotFound
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "account lookup failed")
		}

		if !found.HasPassword() {
			return ErrPasswordUnset
		}

		if err := ComparePasswordAndHash(event.OldPassword, found.PasswordHash); err != nil {
			return ErrPasswordMismatch
		}

		hash, err := HashPassword(event.NewPassword)
		if err != nil {
			return err
		}

		if err := h.repo.Accounts().SetPasswordTx(ctx, tx, accountID, hash); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not update password")
		}

		account = found

		return nil
	})

	if err != nil {
		var rich *goerrors.Error
		if goerrors.As(err, &rich) {
			return rich
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "change password failed")
	}

	if h.mailer != nil {
		if err := h.mailer.SendPasswordChanged(ctx, account.Email, account.Name); err != nil {
			h.logger.Error("password changed email delivery failed", "email", account.Email, "error", err)
		}
	}

	h.activity.Record(ctx, ActivityEvent{
		EventType:  ActivityEventPasswordChanged,
		Actor:      ActorRef{ID: account.ID.String(), Email: account.Email},
		AccountID:  account.ID.String(),
		OccurredAt: time.Now(),
	})

	if event.OnResponse != nil {
		event.OnResponse()
	}

	return nil
}
