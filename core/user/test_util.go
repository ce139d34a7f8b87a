package user

import (
	"github.com/kavinkishorej-ui/academia/core"
)

type serviceMock struct {
	service

	// LastOTP captures the most recently generated reset code so tests can
	// replay it through ConfirmPasswordReset.
	LastOTP string
}

// NewServiceMock returns a Service whose OTP generation is observable.
func NewServiceMock(repo Repository, mailSvc core.EmailService) *serviceMock {
	mock := &serviceMock{
		service: service{
			repo:    repo,
			mailSvc: mailSvc,
		},
	}
	genOTPFunc = func() (string, error) {
		code, err := generateOTP()
		mock.LastOTP = code
		return code, err
	}
	return mock
}
