package utils

import (
	"crypto/md5"
	"encoding/hex"
)

// CalculateDataMD5 returns the hex md5 of each part written in sequence.
func CalculateDataMD5(parts ...[]byte) string {
	hash := md5.New()
	for _, p := range parts {
		hash.Write(p)
	}
	return hex.EncodeToString(hash.Sum(nil))
}
