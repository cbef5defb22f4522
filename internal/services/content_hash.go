package services

import (
	"crypto/md5"
	"encoding/hex"
)

// HashContent returns the hex MD5 digest used as the batch dedup key. It only
// needs to tell accidental duplicates apart, so MD5 is sufficient.
func HashContent(content []byte) string {
	sum := md5.Sum(content)
	return hex.EncodeToString(sum[:])
}
