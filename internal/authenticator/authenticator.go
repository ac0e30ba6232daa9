// Package authenticator implements the credential and token lifecycle:
// password check, token issuance, token verification, per-request identity
// injection and logout.
//
// The Authenticator holds no per-caller state. Whether a request is
// authenticated, and as whom, lives on the Request that the middleware
// hook fills in. User storage and creation are reached only through the
// LookupFunc and CreateFunc callbacks given to New.
//
// Tokens carry no expiry unless WithTokenTTL is used, and Logout does not
// revoke them: an issued token stays verifiable for as long as the signing
// key stays in the keychain.
package authenticator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/auth"
	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/cryptox"
	"github.com/dmitrijs2005/gophauth/internal/keychain"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/models"
)

// LookupFunc finds a user by identifier (email). An absent user is reported
// as (nil, nil) or as an error matching common.ErrorNotFound.
type LookupFunc func(ctx context.Context, identifier string) (*models.User, error)

// CreateFunc stores a new user and returns the created record.
type CreateFunc func(ctx context.Context, data *models.NewUser) (*models.User, error)

// Authenticator verifies credentials and issues and verifies tokens signed
// with the keychain key named common.SecretKeyName.
type Authenticator struct {
	keychain      *keychain.Keychain
	lookup        LookupFunc
	create        CreateFunc
	logger        logging.Logger
	tokenTTL      time.Duration
	checkPassword func(hash, password []byte) bool
}

// Option configures an Authenticator.
type Option func(*Authenticator)

// WithLogger sets the logger. The default discards output.
func WithLogger(l logging.Logger) Option {
	return func(a *Authenticator) { a.logger = l.With("module", "authenticator") }
}

// WithTokenTTL makes issued tokens expire after ttl. Zero keeps the
// default of tokens without expiry.
func WithTokenTTL(ttl time.Duration) Option {
	return func(a *Authenticator) { a.tokenTTL = ttl }
}

// WithPasswordChecker replaces the bcrypt comparison. The checker must be a
// slow, salted, constant-time verification.
func WithPasswordChecker(fn func(hash, password []byte) bool) Option {
	return func(a *Authenticator) { a.checkPassword = fn }
}

// New returns an Authenticator. The keychain is shared, not copied: keys
// added to it later are visible to the Authenticator.
func New(kc *keychain.Keychain, lookup LookupFunc, create CreateFunc, opts ...Option) *Authenticator {
	a := &Authenticator{
		keychain:      kc,
		lookup:        lookup,
		create:        create,
		logger:        logging.Nop{},
		checkPassword: cryptox.CheckPassword,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Authenticate reports whether secret is the password of the user known as
// identifier. Unknown users and wrong passwords yield false with a nil
// error; only lookup failures are returned as errors.
func (a *Authenticator) Authenticate(ctx context.Context, identifier, secret string) (bool, error) {
	user, err := a.verifyCredentials(ctx, identifier, secret)
	if err != nil {
		return false, err
	}
	return user != nil, nil
}

// verifyCredentials returns the user when the credentials match, nil when
// they do not.
func (a *Authenticator) verifyCredentials(ctx context.Context, identifier, secret string) (*models.User, error) {
	user, err := a.lookup(ctx, identifier)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("user lookup: %w", err)
	}
	if user == nil || len(user.PasswordHash) == 0 {
		return nil, nil
	}
	if !a.checkPassword(user.PasswordHash, []byte(secret)) {
		return nil, nil
	}
	return user, nil
}

func (a *Authenticator) signingKey() ([]byte, bool) {
	if a.keychain == nil {
		return nil, false
	}
	return a.keychain.GetKey(common.SecretKeyName)
}

// GenerateAuthToken issues a signed token carrying userID and email.
// It fails with common.ErrInvalidKey when the signing key is missing.
func (a *Authenticator) GenerateAuthToken(userID, email string) (string, error) {
	key, ok := a.signingKey()
	if !ok {
		return "", fmt.Errorf("%w: %s not in keychain", common.ErrInvalidKey, common.SecretKeyName)
	}
	return auth.GenerateToken(userID, email, key, a.tokenTTL)
}

// VerifyAuthToken checks the token signature and returns its claims.
// Payload members other than user_id, email and the registered claims are
// returned in Claims.Extra. Every failure, including a missing signing key,
// wraps common.ErrInvalidToken.
func (a *Authenticator) VerifyAuthToken(token string) (*auth.Claims, error) {
	key, ok := a.signingKey()
	if !ok {
		return nil, fmt.Errorf("%w: signing key unavailable", common.ErrInvalidToken)
	}
	return auth.ParseToken(token, key)
}

// Login authenticates the credentials and issues a token for the user.
// Failed authentication returns empty strings and a nil error.
func (a *Authenticator) Login(ctx context.Context, identifier, secret string) (userID string, token string, err error) {
	user, err := a.verifyCredentials(ctx, identifier, secret)
	if err != nil {
		return "", "", err
	}
	if user == nil {
		a.logger.Info(ctx, "login rejected")
		return "", "", nil
	}

	token, err = a.GenerateAuthToken(user.ID, user.Email)
	if err != nil {
		return "", "", fmt.Errorf("issue token: %w", err)
	}

	a.logger.Info(ctx, "login succeeded", "user_id", user.ID)
	return user.ID, token, nil
}

// SignUp hands data to the user-creation callback unchanged.
func (a *Authenticator) SignUp(ctx context.Context, data *models.NewUser) (*models.User, error) {
	return a.create(ctx, data)
}
