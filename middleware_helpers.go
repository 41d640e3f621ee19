package accounts

import (
	"context"

	"github.com/goliatone/go-accounts/middleware/jwtware"
)

// MiddlewareTokenValidator exposes a TokenService as the validator the
// JWT middleware expects, bridging the claim interfaces of the two
// packages.
func MiddlewareTokenValidator(tokens TokenService) jwtware.TokenValidator {
	return middlewareValidator{tokens: tokens}
}

type middlewareValidator struct {
	tokens TokenService
}

func (v middlewareValidator) Validate(tokenString string) (jwtware.AuthClaims, error) {
	claims, err := v.tokens.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// ContextEnricherAdapter stores the validated claims in the standard
// context so non-HTTP code can use GetClaims downstream.
func ContextEnricherAdapter(c context.Context, claims jwtware.AuthClaims) context.Context {
	authClaims, ok := claims.(AuthClaims)
	if !ok {
		return c
	}
	return WithClaimsContext(c, authClaims)
}
