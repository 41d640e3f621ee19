package accounts

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/nyaruka/phonenumbers"
	"github.com/uptrace/bun"
)

// RegisterAccountMessage creates a password account and logs it in.
type RegisterAccountMessage struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Phone    string `json:"phone_number,omitempty"`
	// UseHashid derives the account ID deterministically from the email
	// instead of a random UUID. Useful for idempotent imports.
	UseHashid  bool                      `json:"-"`
	OnResponse func(result *LoginResult) `json:"-"`
}

// Type identifier of RegisterAccountMessage
func (e RegisterAccountMessage) Type() string { return "account.register" }

// Validate payload
func (e RegisterAccountMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Email, validation.Required, is.Email),
		validation.Field(&e.Name, validation.Required),
		validation.Field(&e.Password, validation.Required, validation.Length(8, 72)),
	)
}

// RegisterAccountHandler creates the account inside a transaction,
// sends a best effort welcome email, and issues the initial session
// token so registration doubles as the first login.
type RegisterAccountHandler struct {
	repo     RepositoryManager
	auther   *Auther
	mailer   Mailer
	activity ActivitySink
	logger   Logger
	region   string
}

// NewRegisterAccountHandler will create a new register handler
func NewRegisterAccountHandler(repo RepositoryManager, auther *Auther) *RegisterAccountHandler {
	return &RegisterAccountHandler{
		repo:     repo,
		auther:   auther,
		activity: noopActivitySink{},
		logger:   defLogger{},
		region:   "US",
	}
}

// WithMailer sets the welcome mailer
func (h *RegisterAccountHandler) WithMailer(mailer Mailer) *RegisterAccountHandler {
	h.mailer = mailer
	return h
}

// WithActivitySink sets the activity sink
func (h *RegisterAccountHandler) WithActivitySink(sink ActivitySink) *RegisterAccountHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

// WithLogger sets the handler logger
func (h *RegisterAccountHandler) WithLogger(logger Logger) *RegisterAccountHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// WithDefaultRegion sets the region used to parse national phone numbers
func (h *RegisterAccountHandler) WithDefaultRegion(region string) *RegisterAccountHandler {
	if region != "" {
		h.region = region
	}
	return h
}

// Execute handles a RegisterAccountMessage
func (h *RegisterAccountHandler) Execute(ctx context.Context, event RegisterAccountMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "register cancelled")
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterAccountHandler) execute(ctx context.Context, event RegisterAccountMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid registration payload").
			WithTextCode("INVALID_PAYLOAD")
	}

	email := NormalizeEmail(event.Email)

	phone := ""
	if event.Phone != "" {
		normalized, err := h.normalizePhone(event.Phone)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid phone number").
				WithTextCode("INVALID_PHONE")
		}
		phone = normalized
	}

	var account *Account

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		existing, err := h.repo.Accounts().GetByEmailTx(ctx, tx, email)
		if err != nil && !repository.IsRecordNotFound(err) {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "account lookup failed")
		}

		if existing != nil {
			return ErrEmailTaken
		}

		hash, err := HashPassword(event.Password)
		if err != nil {
			return err
		}

		account = &Account{
			Email:        email,
			Name:         event.Name,
			PasswordHash: hash,
			Phone:        phone,
			Role:         RoleUser,
			Status:       StatusActive,
		}

		if event.UseHashid {
			if id, herr := hashid.NewUUID(email); herr == nil {
				account.ID = id
			} else {
				h.logger.Warn("hashid derivation failed, falling back to random id", "error", herr)
			}
		}

		account, err = h.repo.Accounts().CreateTx(ctx, tx, account)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not create account")
		}

		return nil
	})

	if err != nil {
		var rich *goerrors.Error
		if goerrors.As(err, &rich) {
			return rich
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "registration failed")
	}

	if h.mailer != nil {
		if err := h.mailer.SendWelcome(ctx, account.Email, account.Name); err != nil {
			h.logger.Error("welcome email delivery failed", "email", account.Email, "error", err)
		}
	}

	token, err := h.auther.TokenForIdentity(ctx, NewIdentityFromAccount(account))
	if err != nil {
		return err
	}

	if err := h.repo.Accounts().TrackSuccessfulLogin(ctx, account); err != nil {
		h.logger.Error("could not track initial login", "id", account.ID, "error", err)
	}

	h.activity.Record(ctx, ActivityEvent{
		EventType:  ActivityEventRegistered,
		Actor:      ActorRef{ID: account.ID.String(), Email: account.Email},
		AccountID:  account.ID.String(),
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

func (h *RegisterAccountHandler) normalizePhone(raw string) (string, error) {
	num, err := phonenumbers.Parse(raw, h.region)
	if err != nil {
		return "", err
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", goerrors.New("phone number is not valid", goerrors.CategoryValidation)
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}
