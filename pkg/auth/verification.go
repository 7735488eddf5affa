package auth

import "context"

// Verification is the outcome of checking a token: either Claims or Err is set.
type Verification struct {
	Claims *Claims
	Err    error
}

// Verified reports whether the token was accepted.
func (v Verification) Verified() bool {
	return v.Err == nil && v.Claims != nil
}

// Verify runs validator against token. A nil validator rejects every token.
func Verify(ctx context.Context, validator JWTValidator, token string) Verification {
	if token == "" {
		return Verification{Err: ErrNoToken}
	}
	if validator == nil {
		return Verification{Err: ErrValidatorDisabled}
	}
	claims, err := validator.Validate(ctx, token)
	if err != nil {
		return Verification{Err: err}
	}
	return Verification{Claims: claims}
}
