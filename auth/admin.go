package auth

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"jewelbox/models"
)

// ErrInvalidCredentials covers both an unknown email and a wrong password.
var ErrInvalidCredentials = errors.New("invalid email or password")

// AdminAccount is the single configured admin identity.
type AdminAccount struct {
	ID           string
	Email        string
	Name         string
	Role         models.AdminRole
	PasswordHash string
}

// Authenticator checks credentials against the configured admin account.
type Authenticator struct {
	account AdminAccount
	// dummyHash has the account hash's cost, so an unknown email costs as much as a wrong password.
	dummyHash string
	verify    func(password, hash string) bool
}

// NewAuthenticator creates an authenticator. An empty role defaults to super_admin.
func NewAuthenticator(account AdminAccount) *Authenticator {
	if account.Role == "" {
		account.Role = models.RoleSuperAdmin
	}
	if account.ID == "" {
		account.ID = "admin-1"
	}
	account.Email = strings.TrimSpace(account.Email)

	cost, err := bcrypt.Cost([]byte(account.PasswordHash))
	if err != nil {
		cost = BcryptCost
	}
	dummy, _ := bcrypt.GenerateFromPassword([]byte("jewelbox-no-such-admin"), cost)
	return &Authenticator{account: account, dummyHash: string(dummy), verify: VerifyPassword}
}

// Authenticate returns the admin identity when email and password both match.
// The password is always checked against the bcrypt hash.
func (a *Authenticator) Authenticate(email, password string) (*models.AdminIdentity, error) {
	if a.account.Email == "" || a.account.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if !strings.EqualFold(strings.TrimSpace(email), a.account.Email) {
		a.verify(password, a.dummyHash)
		return nil, ErrInvalidCredentials
	}
	if !a.verify(password, a.account.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return &models.AdminIdentity{
		ID:          a.account.ID,
		Email:       a.account.Email,
		Name:        a.account.Name,
		Role:        a.account.Role,
		Permissions: RolePermissions(a.account.Role),
	}, nil
}
