package booking

import (
	"crypto/rand"
	"math/big"
	"regexp"
)

const (
	codePrefix   = "BBR-"
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 4
)

// CodePattern matches every access code GenerateCode can produce.
var CodePattern = regexp.MustCompile(`^BBR-[A-Z0-9]{4}$`)

// GenerateCode draws a fresh access code, each character uniform over [A-Z0-9].
func GenerateCode() (string, error) {
	buf := make([]byte, 0, len(codePrefix)+codeLength)
	buf = append(buf, codePrefix...)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := 0; i < codeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf = append(buf, codeAlphabet[n.Int64()])
	}
	return string(buf), nil
}
