package vesync

import (
	"crypto/md5"
	"encoding/hex"
)

// HashPassword returns the hex MD5 digest of password.
//
// The login endpoint only accepts the password in this form. MD5 without a
// salt offers no real protection; it is what the service expects on the wire,
// not a choice made for safety. Treat the digest as sensitive as the password.
func HashPassword(password string) string {
	sum := md5.Sum([]byte(password))
	return hex.EncodeToString(sum[:])
}
