// Package totp implements RFC 6238 time-based one-time passwords (SHA1,
// 6 digits, 30 second period) for two-factor login.
//
//	secret, _ := totp.GenerateSecret()
//	uri, _ := totp.URI(totp.URIParams{Secret: secret, AccountName: email, Issuer: "authkit"})
//	ok, err := totp.NewValidator().Validate(secret, code)
//
// Cipher seals secrets with AES-256-GCM before they are persisted.
package totp
