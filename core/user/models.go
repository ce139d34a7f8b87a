package user

import (
	"time"

	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/kavinkishorej-ui/academia/core"
)

// Role is the closed set of portal roles. A User belongs to exactly one;
// authorization matches on the type, never on free-form strings.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

var AllRoles = []Role{RoleAdmin, RoleTeacher, RoleStudent}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// User is a login identity scoped to exactly one role. Username carries the
// role-scoped login identifier: the admin username, the teacherId or the
// studentId. (Role, Username) is unique in the store.
type User struct {
	ID                 int         `json:"id" db:"id"`
	Role               Role        `json:"role" db:"role"`
	Username           string      `json:"username" db:"username"`
	Name               string      `json:"fullName" db:"name"`
	Email              string      `json:"email" db:"email"`
	Phone              null.String `json:"phone" db:"phone"`
	MustChangePassword bool        `json:"mustChangePassword" db:"must_change_password"`
	PasswordHash       []byte      `json:"-" db:"password_hash"`

	// password reset OTP state; single use, time bounded
	OTPHash      []byte    `json:"-" db:"otp_hash"`
	OTPExpiresAt null.Time `json:"-" db:"otp_expires_at"`
	OTPConsumed  bool      `json:"-" db:"otp_consumed"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"` // UTC
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"` // UTC
	LastLogin time.Time `json:"lastLogin" db:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

// CheckPassword compares pwd against the stored hash.
// bcrypt's comparison is constant-time.
func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) IsAdmin() bool   { return u.Role == RoleAdmin }
func (u *User) IsTeacher() bool { return u.Role == RoleTeacher }
func (u *User) IsStudent() bool { return u.Role == RoleStudent }

// NewIdentity contains information needed to create a new User.
// Identities are created by an admin (teachers) or a teacher (students);
// there is no self sign-up.
type NewIdentity struct {
	Role     Role        `json:"role" validate:"required,role"`
	Username string      `json:"username" validate:"required,alphanum_"`
	Name     string      `json:"fullName" validate:"required"`
	Email    string      `json:"email" validate:"required,email"`
	Phone    null.String `json:"phone"`
	Password string      `json:"password" validate:"required"`
}

func (ni *NewIdentity) Validate() error {
	ni.Username = core.CleanString(ni.Username, true /* lower */)
	ni.Name = core.CleanString(ni.Name)
	ni.Email = core.CleanString(ni.Email, true /* lower */)
	return core.Validate.Struct(ni)
}

// UpdateIdentity defines what identity information may be modified once created.
// Username and Role are immutable.
type UpdateIdentity struct {
	Name  string      `json:"fullName"`
	Email string      `json:"email" validate:"omitempty,email"`
	Phone null.String `json:"phone"`
}

func (ui *UpdateIdentity) Validate() error {
	ui.Name = core.CleanString(ui.Name)
	ui.Email = core.CleanString(ui.Email, true /* lower */)
	return core.Validate.Struct(ui)
}

// ChangePassword is the authenticated password rotation payload.
type ChangePassword struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
	PasswordConfirm string `json:"passwordConfirm" validate:"omitempty,eqfield=NewPassword"`
}

func (cp ChangePassword) Validate() error { return core.Validate.Struct(cp) }

// ResetPassword is the OTP-based password reset payload (forgot-password flow).
type ResetPassword struct {
	Role        Role   `json:"role" validate:"required,role"`
	Identifier  string `json:"identifier" validate:"required"`
	OTP         string `json:"otp" validate:"required,len=6,numeric"`
	NewPassword string `json:"newPassword" validate:"required"`
}

func (rp *ResetPassword) Validate() error {
	rp.Identifier = core.CleanString(rp.Identifier, true /* lower */)
	return core.Validate.Struct(rp)
}
