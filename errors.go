package adminauth

import (
	"errors"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// Authentication failures are deliberately indistinguishable: a missing token,
// a forged signature, an unknown email, a wrong password, and a deactivated or
// deleted account all collapse into the same category and message so callers
// cannot enumerate accounts. Login's deactivated/pending/rejected errors are
// the one scoped exception; they surface only after the password matched.

// ErrInvalidCredentials is the generic login failure
var ErrInvalidCredentials = goerrors.New("invalid credentials", goerrors.CategoryAuth).
	WithTextCode("INVALID_CREDENTIALS").
	WithCode(goerrors.CodeUnauthorized)

// ErrAuthenticationFailed is the generic guard rejection
var ErrAuthenticationFailed = goerrors.New("please authenticate", goerrors.CategoryAuth).
	WithTextCode("AUTHENTICATION_REQUIRED").
	WithCode(goerrors.CodeUnauthorized)

// ErrAccountDeactivated the account exists but the kill switch is flipped
var ErrAccountDeactivated = goerrors.New("account is deactivated", goerrors.CategoryAuth).
	WithTextCode("ACCOUNT_DEACTIVATED").
	WithCode(goerrors.CodeUnauthorized)

// ErrAccountPending the account has not been reviewed yet
var ErrAccountPending = goerrors.New("your account is pending approval", goerrors.CategoryAuth).
	WithTextCode("ACCOUNT_PENDING").
	WithCode(goerrors.CodeUnauthorized)

// ErrAccountRejected the account was denied
var ErrAccountRejected = goerrors.New("your account has been rejected", goerrors.CategoryAuth).
	WithTextCode("ACCOUNT_REJECTED").
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenExpired token was valid once, the caller has to log in again
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithTextCode("TOKEN_EXPIRED").
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed covers undecodable and forged tokens alike
var ErrTokenMalformed = goerrors.New("token is malformed", goerrors.CategoryAuth).
	WithTextCode("TOKEN_MALFORMED").
	WithCode(goerrors.CodeUnauthorized)

// ErrSuperAdminOnly the caller authenticated but lacks the capability. This is
// intentionally distinct from authentication errors; it runs only after the
// token resolved, so it cannot be used to probe token validity.
var ErrSuperAdminOnly = goerrors.New("access denied, super admin only", goerrors.CategoryAuthz).
	WithTextCode("SUPER_ADMIN_ONLY").
	WithCode(goerrors.CodeForbidden)

// ErrDuplicateIdentity username or email already taken. The message never says
// which constraint fired.
var ErrDuplicateIdentity = goerrors.New("account already exists", goerrors.CategoryConflict).
	WithTextCode("DUPLICATE_IDENTITY").
	WithCode(goerrors.CodeConflict)

// ErrPrincipalNotFound the target id does not resolve
var ErrPrincipalNotFound = goerrors.New("principal not found", goerrors.CategoryNotFound).
	WithTextCode("PRINCIPAL_NOT_FOUND").
	WithCode(goerrors.CodeNotFound)

// ErrTargetNotSubAdmin admin-only mutations refuse super admin targets
var ErrTargetNotSubAdmin = goerrors.New("operation is limited to sub admin accounts", goerrors.CategoryConflict).
	WithTextCode("TARGET_NOT_SUB_ADMIN").
	WithCode(goerrors.CodeConflict)

// ErrSigningKeyMissing configuration refused to fall back to a weak default
var ErrSigningKeyMissing = goerrors.New("signing key is not configured", goerrors.CategoryInternal).
	WithTextCode("SIGNING_KEY_MISSING").
	WithCode(goerrors.CodeInternal)

// ErrEmptyCredential hashing an empty secret is always a caller bug
var ErrEmptyCredential = goerrors.New("credential must not be empty", goerrors.CategoryBadInput).
	WithTextCode("EMPTY_CREDENTIAL").
	WithCode(goerrors.CodeBadRequest)

// ErrCredentialMismatch is the verifier's internal sentinel; it never crosses
// the operation boundary, callers see ErrInvalidCredentials.
var ErrCredentialMismatch = errors.New("credential digest mismatch")

// ErrUnableToDecodeSession unable to decode claims from a parsed token
var ErrUnableToDecodeSession = errors.New("unable to decode session")

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	var rich *goerrors.Error
	if goerrors.As(err, &rich) && rich.TextCode == ErrTokenExpired.TextCode {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// IsAuthenticationError reports whether the error belongs to the generic
// authentication bucket.
func IsAuthenticationError(err error) bool {
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return rich.Category == goerrors.CategoryAuth
	}
	return false
}

// IsAuthorizationError reports whether authentication succeeded but the role
// gate refused the caller.
func IsAuthorizationError(err error) bool {
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return rich.Category == goerrors.CategoryAuthz
	}
	return false
}
