package user

import (
	"crypto/rand"
	"math/big"

	"github.com/pkg/errors"

	"github.com/kavinkishorej-ui/academia/core"
)

// character classes for generated passwords; ambiguous characters
// (0/O, 1/l/I) are left out so credentials survive manual typing.
var (
	pwdLower   = "abcdefghijkmnpqrstuvwxyz"
	pwdUpper   = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	pwdDigits  = "23456789"
	pwdSpecial = "!@#$%^&*-_+="
	pwdAll     = pwdLower + pwdUpper + pwdDigits + pwdSpecial
)

// GeneratePassword returns a random human-typeable secret satisfying the
// password policy: one character of each class is guaranteed, the rest is
// drawn from the full set. The plaintext is surfaced to the caller exactly
// once (for the out-of-band credential handout); only its hash is stored.
func GeneratePassword() (string, error) {
	length := core.Conf.InitialPasswordLength
	if length < pwdMinLen {
		length = pwdMinLen
	}

	buf := make([]byte, length)
	for i, class := range []string{pwdLower, pwdUpper, pwdDigits, pwdSpecial} {
		c, err := randChar(class)
		if err != nil {
			return "", err
		}
		buf[i] = c
	}
	for i := 4; i < length; i++ {
		c, err := randChar(pwdAll)
		if err != nil {
			return "", err
		}
		buf[i] = c
	}
	if err := shuffle(buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func randChar(class string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(class))))
	if err != nil {
		return 0, errors.Wrap(err, "reading random source")
	}
	return class[n.Int64()], nil
}

func shuffle(buf []byte) error {
	for i := len(buf) - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return errors.Wrap(err, "reading random source")
		}
		j := n.Int64()
		buf[i], buf[j] = buf[j], buf[i]
	}
	return nil
}
