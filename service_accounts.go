package accounts

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/nyaruka/phonenumbers"
	"github.com/uptrace/bun"
)

// ProfileUpdate carries the fields an account holder may change on
// their own record. Nil pointers leave the field untouched.
type ProfileUpdate struct {
	Name   *string `json:"name,omitempty"`
	Avatar *string `json:"avatar,omitempty"`
	Phone  *string `json:"phone_number,omitempty"`
}

// AdminUpdate extends ProfileUpdate with the fields only an admin may
// touch.
type AdminUpdate struct {
	ProfileUpdate
	Role   *UserRole      `json:"role,omitempty"`
	Status *AccountStatus `json:"status,omitempty"`
}

// Validate the admin update payload
func (u AdminUpdate) Validate() error {
	return validation.ValidateStruct(&u,
		validation.Field(&u.Role, validation.By(func(value interface{}) error {
			role, ok := value.(*UserRole)
			if !ok || role == nil {
				return nil
			}
			if !role.IsValid() {
				return goerrors.New("unknown role", goerrors.CategoryValidation)
			}
			return nil
		})),
		validation.Field(&u.Status, validation.By(func(value interface{}) error {
			status, ok := value.(*AccountStatus)
			if !ok || status == nil {
				return nil
			}
			if !status.IsValid() {
				return goerrors.New("unknown status", goerrors.CategoryValidation)
			}
			return nil
		})),
	)
}

// ListFilter narrows an admin account listing.
type ListFilter struct {
	Role   UserRole
	Status AccountStatus
	Limit  int
	Offset int
}

// AccountService exposes the profile and administration operations.
// Every method takes the caller's claims and runs them through the
// authorization table before touching the record.
type AccountService struct {
	repo     RepositoryManager
	activity ActivitySink
	logger   Logger
	region   string
}

// NewAccountService will create a new account service
func NewAccountService(repo RepositoryManager) *AccountService {
	return &AccountService{
		repo:     repo,
		activity: noopActivitySink{},
		logger:   defLogger{},
		region:   "US",
	}
}

// WithActivitySink sets the activity sink
func (s *AccountService) WithActivitySink(sink ActivitySink) *AccountService {
	s.activity = normalizeActivitySink(sink)
	return s
}

// WithLogger sets the service logger
func (s *AccountService) WithLogger(logger Logger) *AccountService {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithDefaultRegion sets the region used to parse national phone numbers
func (s *AccountService) WithDefaultRegion(region string) *AccountService {
	if region != "" {
		s.region = region
	}
	return s
}

// GetProfile returns the sanitized record of an account. Holders can
// read their own, admins can read anyone's.
func (s *AccountService) GetProfile(ctx context.Context, caller AuthClaims, id string) (*PublicAccount, error) {
	if err := Authorize(caller, OpGetProfile, id); err != nil {
		return nil, err
	}
	return s.loadPublic(ctx, id)
}

// UpdateProfile applies a holder initiated update to an account.
func (s *AccountService) UpdateProfile(ctx context.Context, caller AuthClaims, id string, update ProfileUpdate) (*PublicAccount, error) {
	if err := Authorize(caller, OpUpdateProfile, id); err != nil {
		return nil, err
	}

	account, err := s.applyUpdate(ctx, id, update)
	if err != nil {
		return nil, err
	}

	out := account.Public()
	return &out, nil
}

// GetAccount is the admin read of any record.
func (s *AccountService) GetAccount(ctx context.Context, caller AuthClaims, id string) (*PublicAccount, error) {
	if err := Authorize(caller, OpGetAccount, id); err != nil {
		return nil, err
	}
	return s.loadPublic(ctx, id)
}

// ListAccounts returns sanitized records matching the filter, admin only.
func (s *AccountService) ListAccounts(ctx context.Context, caller AuthClaims, filter ListFilter) ([]PublicAccount, error) {
	if err := Authorize(caller, OpListAccounts, ""); err != nil {
		return nil, err
	}

	criteria := func(q *bun.SelectQuery) *bun.SelectQuery {
		if filter.Role != "" {
			q = q.Where("?TableAlias.user_role = ?", filter.Role)
		}
		if filter.Status != "" {
			q = q.Where("?TableAlias.status = ?", filter.Status)
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
		return q
	}

	records, _, err := s.repo.Accounts().List(ctx, criteria)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not list accounts")
	}

	out := make([]PublicAccount, 0, len(records))
	for _, record := range records {
		out = append(out, record.Public())
	}

	return out, nil
}

// UpdateAccount applies an admin update, including role and status.
func (s *AccountService) UpdateAccount(ctx context.Context, caller AuthClaims, id string, update AdminUpdate) (*PublicAccount, error) {
	if err := Authorize(caller, OpUpdateAccount, id); err != nil {
		return nil, err
	}

	if err := update.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid account update").
			WithTextCode("INVALID_PAYLOAD")
	}

	account, err := s.applyUpdate(ctx, id, update.ProfileUpdate, func(record *Account) error {
		if update.Role != nil {
			record.Role = *update.Role
		}
		if update.Status != nil {
			if err := ValidateStatusTransition(record.Status, *update.Status); err != nil {
				return err
			}
			record.Status = *update.Status
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := account.Public()
	return &out, nil
}

// DeleteAccount soft deletes a record, admin only.
func (s *AccountService) DeleteAccount(ctx context.Context, caller AuthClaims, id string) error {
	if err := Authorize(caller, OpDeleteAccount, id); err != nil {
		return err
	}

	account, err := NewIdentityResolver(s.repo.Accounts()).ByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Accounts().DeleteByID(ctx, account.ID); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "could not delete account")
	}

	s.activity.Record(ctx, ActivityEvent{
		EventType:  ActivityEventAccountDeleted,
		Actor:      ActorRef{ID: caller.Subject(), Email: caller.Email()},
		AccountID:  account.ID.String(),
		OccurredAt: time.Now(),
	})

	return nil
}

func (s *AccountService) loadPublic(ctx context.Context, id string) (*PublicAccount, error) {
	account, err := NewIdentityResolver(s.repo.Accounts()).ByID(ctx, id)
	if err != nil {
		return nil, err
	}

	out := account.Public()
	return &out, nil
}

func (s *AccountService) applyUpdate(ctx context.Context, id string, update ProfileUpdate, extra ...func(*Account) error) (*Account, error) {
	account, err := NewIdentityResolver(s.repo.Accounts()).ByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		account.Name = *update.Name
	}

	if update.Avatar != nil {
		account.Avatar = *update.Avatar
	}

	if update.Phone != nil {
		phone := *update.Phone
		if phone != "" {
			normalized, err := s.normalizePhone(phone)
			if err != nil {
				return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid phone number").
					WithTextCode("INVALID_PHONE")
			}
			phone = normalized
		}
		account.Phone = phone
	}

	for _, apply := range extra {
		if err := apply(account); err != nil {
			return nil, err
		}
	}

	updated, err := s.repo.Accounts().Update(ctx, account)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not update account")
	}

	return updated, nil
}

func (s *AccountService) normalizePhone(raw string) (string, error) {
	num, err := phonenumbers.Parse(raw, s.region)
	if err != nil {
		return "", err
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", goerrors.New("phone number is not valid", goerrors.CategoryValidation)
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}
