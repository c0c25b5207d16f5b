// Package autherr defines the error taxonomy shared by the authentication and
// access-control packages.
//
// Every expected failure is an *Error carrying a stable Kind, a default
// human-readable message and an HTTP-equivalent status class: 400 for request
// and account-state problems, 401 for token and identity problems, 403 for
// authorization. Messages and statuses can be overridden per call site
// without losing identity:
//
//	return autherr.ErrUserNotVerified.WithStatus(http.StatusUnauthorized)
//
//	if errors.Is(err, autherr.ErrUserNotVerified) { ... } // still true
//
// Infrastructure failures (storage, cache) are never converted into *Error;
// StatusOf reports them as 500.
package autherr
