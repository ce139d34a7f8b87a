package echoapi

import (
	"time"

	"github.com/kavinkishorej-ui/academia/core"
	"github.com/kavinkishorej-ui/academia/core/user"
)

type (
	LoginRequest struct {
		Role     user.Role `json:"role" validate:"required,role"`
		Username string    `json:"username" validate:"required"`
		Password string    `json:"password" validate:"required"`
	}

	LoginResponse struct {
		User               user.User `json:"user"`
		MustChangePassword bool      `json:"mustChangePassword"`
	}

	SessionResponse struct {
		User      user.User `json:"user"`
		ExpiresAt time.Time `json:"expiresAt"`
	}

	PasswordResetRequest struct {
		Role       user.Role `json:"role" validate:"required,role"`
		Identifier string    `json:"identifier" validate:"required"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}
)

func (lr *LoginRequest) Validate() error {
	lr.Username = core.CleanString(lr.Username, true /* lower */)
	return core.Validate.Struct(lr)
}

func (pr *PasswordResetRequest) Validate() error {
	pr.Identifier = core.CleanString(pr.Identifier, true /* lower */)
	return core.Validate.Struct(pr)
}
