package google

import (
	"fmt"
	"sync"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-accounts/social"
)

// idTokenClaims are the OpenID Connect claims Google places in its ID
// tokens.
type idTokenClaims struct {
	jwt.RegisteredClaims
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
}

// idTokenVerifier validates Google ID tokens against the published
// JWKS. Keys refresh in the background so rotation does not require a
// restart.
type idTokenVerifier struct {
	jwksURL  string
	audience string

	once sync.Once
	jwks *keyfunc.JWKS
	err  error
}

func newIDTokenVerifier(jwksURL, audience string) *idTokenVerifier {
	return &idTokenVerifier{
		jwksURL:  jwksURL,
		audience: audience,
	}
}

// keyfunc fetches and caches the JWKS on first use. Construction stays
// cheap and offline friendly.
func (v *idTokenVerifier) keyfunc() (jwt.Keyfunc, error) {
	v.once.Do(func() {
		v.jwks, v.err = keyfunc.Get(v.jwksURL, keyfunc.Options{
			RefreshInterval:   time.Hour,
			RefreshRateLimit:  time.Minute * 5,
			RefreshTimeout:    time.Second * 10,
			RefreshUnknownKID: true,
		})
	})

	if v.err != nil {
		return nil, fmt.Errorf("failed to fetch google JWKS: %w", v.err)
	}

	return v.jwks.Keyfunc, nil
}

// Verify parses the ID token, checks signature, issuer and audience,
// and maps the claims to a profile.
func (v *idTokenVerifier) Verify(idToken string) (*social.SocialProfile, error) {
	kf, err := v.keyfunc()
	if err != nil {
		return nil, err
	}

	claims := &idTokenClaims{}
	token, err := jwt.ParseWithClaims(idToken, claims, kf,
		jwt.WithIssuer(defaultIssuer),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("google id token rejected: %w", err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("google id token rejected")
	}

	return &social.SocialProfile{
		ProviderUserID: claims.Subject,
		Provider:       "google",
		Email:          claims.Email,
		EmailVerified:  claims.EmailVerified,
		Name:           claims.Name,
		FirstName:      claims.GivenName,
		LastName:       claims.FamilyName,
		AvatarURL:      claims.Picture,
	}, nil
}
