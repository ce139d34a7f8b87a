package user

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"math/big"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/kavinkishorej-ui/academia/core"
)

const otpLength = 6

var (
	otpSalt = []byte("academia.core.user.otp")
	NowFunc = time.Now // mockable

	genOTPFunc = generateOTP // mockable
)

// generateOTP returns a random 6-digit numeric code, zero-padded.
func generateOTP() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < otpLength; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", otpLength, n), nil
}

// hashOTP derives an HMAC-SHA256 of the code so that a leaked store never
// reveals a live code. The key mixes the app secret with a package salt.
func hashOTP(code string) []byte {
	key := sha256.Sum256(append(otpSalt, core.Conf.SecretKey...))
	h := hmac.New(sha256.New, key[:])
	h.Write([]byte(code))
	return h.Sum(nil)
}

// SetOTP stores the hash of a fresh code with its expiry window.
// Any previous code is superseded.
func (u *User) SetOTP(code string) {
	u.OTPHash = hashOTP(code)
	u.OTPExpiresAt = null.TimeFrom(NowFunc().UTC().Add(core.Conf.OTPTTL))
	u.OTPConsumed = false
}

// VerifyOTP checks the code against the stored OTP state. It fails with
// ErrInvalidOTP when no code is pending, the hash mismatches, the code was
// already consumed, or the expiry window has passed. The comparison is
// constant-time.
func (u *User) VerifyOTP(code string) error {
	if len(u.OTPHash) == 0 || !u.OTPExpiresAt.Valid {
		return ErrInvalidOTP
	}
	if subtle.ConstantTimeCompare(hashOTP(code), u.OTPHash) == 0 {
		return ErrInvalidOTP
	}
	if u.OTPConsumed {
		return ErrInvalidOTP
	}
	if NowFunc().UTC().After(u.OTPExpiresAt.Time) {
		return ErrInvalidOTP
	}
	return nil
}

// ConsumeOTP marks the pending code as used; a code authorizes exactly one reset.
func (u *User) ConsumeOTP() {
	u.OTPConsumed = true
}
