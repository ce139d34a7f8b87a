package main

import (
	"context"

	"github.com/kavinkishorej-ui/academia/core"
	"github.com/kavinkishorej-ui/academia/core/user"
)

// addAdmin updates or creates an admin account.
func (cli *commandLine) addAdmin(uname, name, email, pwd string) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)
	name = core.CleanString(name)

	usr, err := cli.usrRepo.GetUserByRoleAndUsername(ctx, user.RoleAdmin, uname)
	if err != nil {
		if err != user.ErrNotFound {
			return err
		}
		usr = user.User{
			Role:      user.RoleAdmin,
			Username:  uname,
			CreatedAt: user.NowFunc().UTC(),
		}
	}
	usr.Name = name
	usr.Email = email
	usr.MustChangePassword = false
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	usr.UpdatedAt = user.NowFunc().UTC()

	if usr.ID == 0 {
		_, err = cli.usrRepo.CreateUser(ctx, usr)
	} else {
		_, err = cli.usrRepo.UpdateUser(ctx, usr)
	}
	return err
}
