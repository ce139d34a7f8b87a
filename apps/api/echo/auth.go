package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kavinkishorej-ui/academia/core/session"
	"github.com/kavinkishorej-ui/academia/core/user"
)

type authApi struct {
	usrSvc   user.Service
	sessions session.Manager
}

func registerAuthAPI(g *echo.Group, authed echo.MiddlewareFunc, usrSvc user.Service, sessions session.Manager) {
	api := authApi{usrSvc: usrSvc, sessions: sessions}

	ag := g.Group("/auth")

	// un-authed endpoints
	// TODO: rate limit `/forgot-password` & `/verify-otp`
	ag.POST("/login", api.login)
	ag.POST("/forgot-password", api.forgotPassword)
	ag.POST("/verify-otp", api.verifyOTP)

	// authed endpoints
	sg := ag.Group("", authed)
	sg.POST("/logout", api.logout)
	sg.GET("/session", api.getSession)
	sg.POST("/change-password", api.changePassword)
}

// Handlers

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	usr, err := api.usrSvc.Authenticate(ctx.Request().Context(), data.Role, data.Username, data.Password)
	if err != nil {
		return err
	}
	s, err := api.sessions.Open(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "opening session")
	}
	if err = setSessionCookie(ctx, s); err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, LoginResponse{User: usr, MustChangePassword: usr.MustChangePassword})
}

func (api *authApi) logout(ctx echo.Context) error {
	if token, err := sessionToken(ctx); err == nil {
		if err = api.sessions.Close(ctx.Request().Context(), token); err != nil {
			return errors.Wrap(err, "closing session")
		}
	}
	clearSessionCookie(ctx)
	return ctx.NoContent(http.StatusNoContent)
}

func (api *authApi) getSession(ctx echo.Context) error {
	s, err := getContextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}
	usr, err := api.usrSvc.GetByID(ctx.Request().Context(), s.UserID)
	if err != nil {
		return errors.Wrap(err, "getting session user")
	}
	return ctx.JSON(http.StatusOK, SessionResponse{User: usr, ExpiresAt: s.ExpiresAt})
}

func (api *authApi) changePassword(ctx echo.Context) error {
	var data user.ChangePassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ChangePassword")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	s, err := getContextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}
	usr, err := api.usrSvc.GetByID(ctx.Request().Context(), s.UserID)
	if err != nil {
		return errors.Wrap(err, "getting session user")
	}
	if _, err = api.usrSvc.ChangePassword(ctx.Request().Context(), usr, data); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Password has been changed."})
}

func (api *authApi) forgotPassword(ctx echo.Context) error {
	var data PasswordResetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordResetRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	if err := api.usrSvc.RequestPasswordReset(ctx.Request().Context(), data.Role, data.Identifier); !(err == nil || errors.Cause(err) == user.ErrNotFound) {
		// do not return errors to attackers
		ctx.Logger().Errorf("%+v", errors.Wrap(err, "requesting password reset"))
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{
		Success: "If the identifier supplied is associated with an account on this system, " +
			"an email will arrive in your inbox shortly with a one-time passcode.",
	})
}

func (api *authApi) verifyOTP(ctx echo.Context) error {
	var data user.ResetPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetPassword")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	if err := api.usrSvc.ConfirmPasswordReset(ctx.Request().Context(), data); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Password has been reset with the new password."})
}
