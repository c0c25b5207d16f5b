// Package password implements the password codec: a keyed HMAC-SHA512
// digest of the password and a global pepper, stored with bcrypt.
//
//	codec, err := password.New(os.Getenv("HASH_SECRET"), password.WithPepper(pepper))
//	hash, err := codec.Hash("s3cret")
//	ok := codec.Verify("s3cret", hash)
//
// Digest exposes the keyed transform on its own; session tokens are stored by
// digest so lookups stay deterministic.
package password
