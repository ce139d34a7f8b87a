package main

import (
	"context"

	"github.com/volatiletech/null/v8"

	"github.com/kavinkishorej-ui/academia/core"
	"github.com/kavinkishorej-ui/academia/core/user"
)

// resetPassword force-sets an account's password, bypassing the OTP flow.
func (cli *commandLine) resetPassword(role user.Role, uname, pwd string) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)

	usr, err := cli.usrRepo.GetUserByRoleAndUsername(ctx, role, uname)
	if err != nil {
		return err
	}
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	// any pending OTP is dead once the password changes
	usr.OTPHash = nil
	usr.OTPExpiresAt = null.Time{}
	usr.OTPConsumed = false
	usr.MustChangePassword = false
	usr.UpdatedAt = user.NowFunc().UTC()

	_, err = cli.usrRepo.UpdateUser(ctx, usr)
	return err
}
