package accounts

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
)

// ResetAcknowledgement is the response body for every forgot password
// request. It is byte identical whether or not the email matched an
// account so the endpoint cannot be used to enumerate registered users.
const ResetAcknowledgement = "If the email exists in our system, you will receive password reset instructions shortly."

// ForgotPasswordResponse carries the uniform acknowledgement.
type ForgotPasswordResponse struct {
	Acknowledgement string `json:"message"`
}

// ForgotPasswordMessage starts the password reset flow for an email.
type ForgotPasswordMessage struct {
	Email      string                               `json:"email"`
	OnResponse func(result *ForgotPasswordResponse) `json:"-"`
}

// Type identifier of ForgotPasswordMessage
func (e ForgotPasswordMessage) Type() string { return "auth.password.forgot" }

// Validate payload
func (e ForgotPasswordMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Email, validation.Required, is.Email),
	)
}

// ForgotPasswordHandler issues a single use reset token and mails the
// plaintext token to the account. Only the SHA-256 digest is persisted;
// issuing a new token replaces any previous one.
type ForgotPasswordHandler struct {
	repo     RepositoryManager
	mailer   Mailer
	activity ActivitySink
	logger   Logger
	now      func() time.Time
}

// NewForgotPasswordHandler will create a new forgot password handler
func NewForgotPasswordHandler(repo RepositoryManager, mailer Mailer) *ForgotPasswordHandler {
	return &ForgotPasswordHandler{
		repo:     repo,
		mailer:   mailer,
		activity: noopActivitySink{},
		logger:   defLogger{},
		now:      time.Now,
	}
}

// WithActivitySink sets the activity sink
func (h *ForgotPasswordHandler) WithActivitySink(sink ActivitySink) *ForgotPasswordHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

// WithLogger sets the handler logger
func (h *ForgotPasswordHandler) WithLogger(logger Logger) *ForgotPasswordHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// WithClock overrides the expiry clock, used in tests
func (h *ForgotPasswordHandler) WithClock(now func() time.Time) *ForgotPasswordHandler {
	if now != nil {
		h.now = now
	}
	return h
}

// Execute handles a ForgotPasswordMessage
func (h *ForgotPasswordHandler) Execute(ctx context.Context, event ForgotPasswordMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "forgot password cancelled")
	default:
		return h.execute(ctx, event)
	}
}

func (h *ForgotPasswordHandler) execute(ctx context.Context, event ForgotPasswordMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid forgot password payload").
			WithTextCode("INVALID_PAYLOAD")
	}

	email := NormalizeEmail(event.Email)

	account, err := h.repo.Accounts().GetByEmail(ctx, email)
	if err != nil {
		if IsNotFound(err) {
			// acknowledge without revealing that the email is unknown
			h.logger.Debug("reset requested for unknown email", "email", email)
			h.respond(event)
			return nil
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "account lookup failed")
	}

	plain, digest, err := GenerateResetToken()
	if err != nil {
		return err
	}

	expiresAt := ResetTokenExpiry(h.now())

	if err := h.repo.Accounts().SetResetToken(ctx, account.ID, digest, expiresAt); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "could not persist reset token")
	}

	if h.mailer == nil {
		return ErrMailDelivery
	}

	// the token only exists in this email, delivery failure is fatal
	// here unlike the advisory mails elsewhere
	if err := h.mailer.SendPasswordReset(ctx, account.Email, account.Name, plain); err != nil {
		h.logger.Error("reset email delivery failed", "email", account.Email, "error", err)
		return ErrMailDelivery
	}

	h.activity.Record(ctx, ActivityEvent{
		EventType:  ActivityEventResetRequested,
		Actor:      ActorRef{ID: account.ID.String(), Email: account.Email},
		AccountID:  account.ID.String(),
		OccurredAt: h.now(),
	})

	h.respond(event)

	return nil
}

func (h *ForgotPasswordHandler) respond(event ForgotPasswordMessage) {
	if event.OnResponse != nil {
		event.OnResponse(&ForgotPasswordResponse{
			Acknowledgement: ResetAcknowledgement,
		})
	}
}
