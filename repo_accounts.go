package accounts

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ConsumeResetTokenSQL swaps the password hash and clears the pending reset
// in a single statement keyed on the token hash. The WHERE clause is the
// single-use guarantee: a second attempt with the same token matches zero
// rows because the first one cleared the hash.
var ConsumeResetTokenSQL = `UPDATE "accounts" AS "acc"
SET
	"password_hash" = ?,
	"reset_token_hash" = NULL,
	"reset_token_expires_at" = NULL
WHERE
	"acc"."deleted_at" IS NULL
AND (
	"acc"."reset_token_hash" = ?
) RETURNING *;`

var SetResetTokenSQL = `UPDATE "accounts" AS "acc"
SET
	"reset_token_hash" = ?,
	"reset_token_expires_at" = ?
WHERE
	"acc"."deleted_at" IS NULL
AND (
	"acc"."id" = ?
) RETURNING *;`

var SetPasswordSQL = `UPDATE "accounts" AS "acc"
SET
	"password_hash" = ?
WHERE
	"acc"."deleted_at" IS NULL
AND (
	"acc"."id" = ?
) RETURNING *;`

var VerifyEmailSQL = `UPDATE "accounts" AS "acc"
SET
	"is_email_verified" = TRUE,
	"verification_token_hash" = NULL
WHERE
	"acc"."deleted_at" IS NULL
AND (
	"acc"."id" = ?
) RETURNING *;`

type Accounts interface {
	repository.Repository[*Account]

	GetByEmail(ctx context.Context, email string, criteria ...repository.SelectCriteria) (*Account, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string, criteria ...repository.SelectCriteria) (*Account, error)
	GetByExternalID(ctx context.Context, externalID string) (*Account, error)
	GetByExternalIDTx(ctx context.Context, tx bun.IDB, externalID string) (*Account, error)
	GetByResetTokenHash(ctx context.Context, tokenHash string) (*Account, error)
	GetByResetTokenHashTx(ctx context.Context, tx bun.IDB, tokenHash string) (*Account, error)

	Create(ctx context.Context, record *Account, criteria ...repository.InsertCriteria) (*Account, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Account, criteria ...repository.InsertCriteria) (*Account, error)

	TrackSuccessfulLogin(ctx context.Context, account *Account) error
	TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, account *Account) error

	SetResetToken(ctx context.Context, id uuid.UUID, tokenHash string, expiresAt time.Time) error
	SetResetTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID, tokenHash string, expiresAt time.Time) error
	ConsumeResetToken(ctx context.Context, tokenHash, passwordHash string) error
	ConsumeResetTokenTx(ctx context.Context, tx bun.IDB, tokenHash, passwordHash string) error

	SetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	SetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error

	VerifyEmail(ctx context.Context, id uuid.UUID) error
	VerifyEmailTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error

	DeleteByID(ctx context.Context, id uuid.UUID) error
	DeleteByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error
}

type accountsRepo struct {
	repository.Repository[*Account]
	db *bun.DB
}

var (
	_ Accounts                        = (*accountsRepo)(nil)
	_ repository.Repository[*Account] = (*accountsRepo)(nil)
)

func NewAccountsRepository(db *bun.DB) Accounts {
	repo := repository.NewRepository[*Account](db, repository.ModelHandlers[*Account]{
		NewRecord: func() *Account { return &Account{} },
		GetID: func(a *Account) uuid.UUID {
			if a == nil {
				return uuid.Nil
			}
			return a.ID
		},
		SetID: func(a *Account, id uuid.UUID) {
			if a != nil {
				a.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &accountsRepo{
		Repository: repo,
		db:         db,
	}
}

func (a *accountsRepo) GetByEmail(ctx context.Context, email string, criteria ...repository.SelectCriteria) (*Account, error) {
	return a.GetByEmailTx(ctx, a.db, email, criteria...)
}

func (a *accountsRepo) GetByEmailTx(ctx context.Context, tx bun.IDB, email string, criteria ...repository.SelectCriteria) (*Account, error) {
	return a.getByColumnTx(ctx, tx, "email", NormalizeEmail(email), criteria...)
}

func (a *accountsRepo) GetByExternalID(ctx context.Context, externalID string) (*Account, error) {
	return a.GetByExternalIDTx(ctx, a.db, externalID)
}

func (a *accountsRepo) GetByExternalIDTx(ctx context.Context, tx bun.IDB, externalID string) (*Account, error) {
	return a.getByColumnTx(ctx, tx, "external_id", externalID)
}

func (a *accountsRepo) GetByResetTokenHash(ctx context.Context, tokenHash string) (*Account, error) {
	return a.GetByResetTokenHashTx(ctx, a.db, tokenHash)
}

func (a *accountsRepo) GetByResetTokenHashTx(ctx context.Context, tx bun.IDB, tokenHash string) (*Account, error) {
	return a.getByColumnTx(ctx, tx, "reset_token_hash", tokenHash)
}

func (a *accountsRepo) getByColumnTx(ctx context.Context, tx bun.IDB, column, value string, criteria ...repository.SelectCriteria) (*Account, error) {
	if value == "" {
		return nil, repository.NewRecordNotFound()
	}

	record := &Account{}
	q := tx.NewSelect().Model(record)

	for _, c := range criteria {
		q.Apply(c)
	}

	err := q.
		Where("?TableAlias."+column+" = ?", value).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					column: value,
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *accountsRepo) Create(ctx context.Context, record *Account, criteria ...repository.InsertCriteria) (*Account, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *accountsRepo) CreateTx(ctx context.Context, tx bun.IDB, record *Account, criteria ...repository.InsertCriteria) (*Account, error) {
	prepareAccountDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (a *accountsRepo) List(ctx context.Context, criteria ...repository.SelectCriteria) ([]*Account, int, error) {
	return a.ListTx(ctx, a.db, criteria...)
}

func (a *accountsRepo) ListTx(ctx context.Context, tx bun.IDB, criteria ...repository.SelectCriteria) ([]*Account, int, error) {
	records := []*Account{}
	q := tx.NewSelect().Model(&records)

	for _, c := range criteria {
		q.Apply(c)
	}

	total, err := q.Order("created_at ASC").ScanAndCount(ctx)
	if err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

func (a *accountsRepo) TrackSuccessfulLogin(ctx context.Context, account *Account) error {
	return a.TrackSuccessfulLoginTx(ctx, a.db, account)
}

func (a *accountsRepo) TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, account *Account) error {
	lastLogin := time.Now()
	_, err := tx.NewRaw(`
		UPDATE "accounts" AS "acc"
		SET
			"last_login_at" = ?
		WHERE
			("acc".id = ?)
			AND "acc"."deleted_at" IS NULL;
	`, lastLogin, account.ID).Exec(ctx)

	return err
}

func (a *accountsRepo) SetResetToken(ctx context.Context, id uuid.UUID, tokenHash string, expiresAt time.Time) error {
	return a.SetResetTokenTx(ctx, a.db, id, tokenHash, expiresAt)
}

func (a *accountsRepo) SetResetTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID, tokenHash string, expiresAt time.Time) error {
	res, err := a.Repository.RawTx(ctx, tx, SetResetTokenSQL, tokenHash, expiresAt, id.String())
	if err != nil {
		return err
	}

	if len(res) == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	return nil
}

func (a *accountsRepo) ConsumeResetToken(ctx context.Context, tokenHash, passwordHash string) error {
	return a.ConsumeResetTokenTx(ctx, a.db, tokenHash, passwordHash)
}

func (a *accountsRepo) ConsumeResetTokenTx(ctx context.Context, tx bun.IDB, tokenHash, passwordHash string) error {
	res, err := a.Repository.RawTx(ctx, tx, ConsumeResetTokenSQL, passwordHash, tokenHash)
	if err != nil {
		return err
	}

	if len(res) == 0 {
		return ErrResetTokenInvalid
	}

	return nil
}

func (a *accountsRepo) SetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return a.SetPasswordTx(ctx, a.db, id, passwordHash)
}

func (a *accountsRepo) SetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error {
	res, err := a.Repository.RawTx(ctx, tx, SetPasswordSQL, passwordHash, id.String())
	if err != nil {
		return err
	}

	if len(res) == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	return nil
}

func (a *accountsRepo) VerifyEmail(ctx context.Context, id uuid.UUID) error {
	return a.VerifyEmailTx(ctx, a.db, id)
}

func (a *accountsRepo) VerifyEmailTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	res, err := a.Repository.RawTx(ctx, tx, VerifyEmailSQL, id.String())
	if err != nil {
		return err
	}

	if len(res) == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	return nil
}

func (a *accountsRepo) DeleteByID(ctx context.Context, id uuid.UUID) error {
	return a.DeleteByIDTx(ctx, a.db, id)
}

func (a *accountsRepo) DeleteByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	record := &Account{ID: id}
	_, err := tx.NewDelete().
		Model(record).
		WherePK().
		Exec(ctx)

	return err
}

func prepareAccountDefaults(record *Account) {
	if record == nil {
		return
	}

	record.Email = NormalizeEmail(record.Email)

	if record.Role == "" {
		record.Role = RoleUser
	}

	record.EnsureStatus()

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}
