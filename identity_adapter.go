package accounts

// accountIdentity adapts an Account into the Identity interface for token
// generation.
type accountIdentity struct {
	id     string
	email  string
	name   string
	role   string
	status AccountStatus
}

// NewIdentityFromAccount returns an Identity adapter for the provided account
func NewIdentityFromAccount(account *Account) Identity {
	if account == nil {
		return nil
	}
	return accountIdentity{
		id:     account.ID.String(),
		email:  account.Email,
		name:   account.Name,
		role:   string(account.Role),
		status: account.Status,
	}
}

func (a accountIdentity) ID() string {
	return a.id
}

func (a accountIdentity) Email() string {
	return a.email
}

func (a accountIdentity) Name() string {
	return a.name
}

func (a accountIdentity) Role() string {
	return a.role
}

func (a accountIdentity) Status() AccountStatus {
	if a.status == "" {
		return StatusActive
	}
	return a.status
}

var _ Identity = accountIdentity{}

// statusAwareIdentity is implemented by identities that carry their account
// status; the authenticator refuses tokens for non-active ones.
type statusAwareIdentity interface {
	Status() AccountStatus
}

func identityStatus(identity Identity) (AccountStatus, bool) {
	if identity == nil {
		return "", false
	}

	if sa, ok := identity.(statusAwareIdentity); ok {
		return sa.Status(), true
	}

	return "", false
}
