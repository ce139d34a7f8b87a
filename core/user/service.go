package user

import (
	"context"
	"errors"
	"fmt"
	"net/mail"

	"github.com/kavinkishorej-ui/academia/core"
)

var (
	// errors
	ErrNotFound = errors.New("user not found")
	// ErrInvalidCredentials covers both an unknown identifier and a wrong
	// password; callers must not be able to tell the two apart.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidOTP         = errors.New("invalid or expired OTP")
	ErrInvalidPassword    = errors.New("current password is incorrect")
)

type (
	Repository interface {
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUserByID(ctx context.Context, id int) (User, error)
		GetUserByRoleAndUsername(ctx context.Context, role Role, username string) (User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
		DeleteUsersByID(ctx context.Context, ids ...int) error
	}

	Service interface {
		GetByID(ctx context.Context, id int) (User, error)
		GetByRoleAndUsername(ctx context.Context, role Role, identifier string) (User, error)
		Create(ctx context.Context, ni NewIdentity) (User, error)
		Update(ctx context.Context, id int, ui UpdateIdentity) (User, error)
		Delete(ctx context.Context, ids ...int) error

		// Authenticate fails with ErrInvalidCredentials whether the
		// identifier is unknown or the password is wrong.
		Authenticate(ctx context.Context, role Role, identifier, password string) (User, error)
		ChangePassword(ctx context.Context, usr User, cp ChangePassword) (User, error)
		// RequestPasswordReset returns ErrNotFound for unknown identifiers;
		// the HTTP layer swallows it to keep the response shape constant.
		RequestPasswordReset(ctx context.Context, role Role, identifier string) error
		ConfirmPasswordReset(ctx context.Context, rp ResetPassword) error
	}

	service struct {
		repo    Repository
		mailSvc core.EmailService
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, mailSvc core.EmailService) Service {
	return &service{repo: repo, mailSvc: mailSvc}
}

func (svc *service) GetByID(ctx context.Context, id int) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *service) GetByRoleAndUsername(ctx context.Context, role Role, identifier string) (User, error) {
	return svc.repo.GetUserByRoleAndUsername(ctx, role, core.CleanString(identifier, true /* lower */))
}

func (svc *service) Create(ctx context.Context, ni NewIdentity) (User, error) {
	now := NowFunc().UTC()
	usr := User{
		Role:               ni.Role,
		Username:           ni.Username,
		Name:               ni.Name,
		Email:              ni.Email,
		Phone:              ni.Phone,
		MustChangePassword: true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := usr.SetPassword(ni.Password); err != nil {
		return User{}, err
	}
	return svc.repo.CreateUser(ctx, usr)
}

func (svc *service) Update(ctx context.Context, id int, ui UpdateIdentity) (User, error) {
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	if ui.Name != "" {
		usr.Name = ui.Name
	}
	if ui.Email != "" {
		usr.Email = ui.Email
	}
	if ui.Phone.Valid {
		usr.Phone = ui.Phone
	}
	usr.UpdatedAt = NowFunc().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) Delete(ctx context.Context, ids ...int) error {
	return svc.repo.DeleteUsersByID(ctx, ids...)
}

func (svc *service) Authenticate(ctx context.Context, role Role, identifier, password string) (User, error) {
	usr, err := svc.GetByRoleAndUsername(ctx, role, identifier)
	if err != nil {
		if err == ErrNotFound {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if err = usr.CheckPassword(password); err != nil {
		return User{}, ErrInvalidCredentials
	}
	usr.LastLogin = NowFunc().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) ChangePassword(ctx context.Context, usr User, cp ChangePassword) (User, error) {
	if err := usr.CheckPassword(cp.CurrentPassword); err != nil {
		return User{}, ErrInvalidPassword
	}
	if err := usr.SetPassword(cp.NewPassword); err != nil {
		return User{}, err
	}
	usr.MustChangePassword = false
	usr.UpdatedAt = NowFunc().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) RequestPasswordReset(ctx context.Context, role Role, identifier string) error {
	usr, err := svc.GetByRoleAndUsername(ctx, role, identifier)
	if err != nil {
		return err
	}
	code, err := genOTPFunc()
	if err != nil {
		return err
	}
	usr.SetOTP(code)
	usr.UpdatedAt = NowFunc().UTC()
	if usr, err = svc.repo.UpdateUser(ctx, usr); err != nil {
		return err
	}
	svc.sendPasswordResetMail(usr, code)
	return nil
}

func (svc *service) ConfirmPasswordReset(ctx context.Context, rp ResetPassword) error {
	usr, err := svc.GetByRoleAndUsername(ctx, rp.Role, rp.Identifier)
	if err != nil {
		if err == ErrNotFound {
			// unknown identifiers are indistinguishable from bad codes
			return ErrInvalidOTP
		}
		return err
	}
	if err = usr.VerifyOTP(rp.OTP); err != nil {
		return err
	}
	if err = usr.SetPassword(rp.NewPassword); err != nil {
		return err
	}
	usr.ConsumeOTP()
	usr.MustChangePassword = false
	usr.UpdatedAt = NowFunc().UTC()
	_, err = svc.repo.UpdateUser(ctx, usr)
	return err
}

func (svc *service) sendPasswordResetMail(usr User, code string) {
	svc.mailSvc.SendMessages(
		&core.EmailMessage{
			To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
			Subject:      "Password Reset Code",
			TemplateName: "password-reset-otp",
			TemplateData: struct {
				Name          string
				OTP           string
				ExpiryMinutes int
			}{usr.Name, code, int(core.Conf.OTPTTL.Minutes())},
		},
	)
}

// SendCredentialsMail delivers a freshly generated login + initial password
// to a new identity. The plaintext is not retained anywhere else.
func SendCredentialsMail(mailSvc core.EmailService, usr User, password string) {
	mailSvc.SendMessages(
		&core.EmailMessage{
			To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
			Subject:      fmt.Sprintf("Your %s account", core.Conf.AppName),
			TemplateName: "new-credentials",
			TemplateData: struct {
				Name       string
				Role       Role
				Identifier string
				Password   string
			}{usr.Name, usr.Role, usr.Username, password},
		},
	)
}
