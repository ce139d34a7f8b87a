package school

import (
	"github.com/go-playground/validator/v10"

	"github.com/kavinkishorej-ui/academia/core"
	"github.com/kavinkishorej-ui/academia/core/user"
)

func init() {
	core.Validate.RegisterStructValidation(passwordStructValidation, NewStudent{}, GenerateStudents{})
}

// passwordStructValidation holds teacher-supplied student passwords to the
// regular password policy. An empty password is skipped; a compliant random
// one is generated at creation time.
func passwordStructValidation(sl validator.StructLevel) {
	switch v := sl.Current().Interface().(type) {
	case NewStudent:
		if v.Password != "" {
			user.ValidatePassword(sl, v.Password, "password", v.Name, v.StudentID, v.Email)
		}
	case GenerateStudents:
		if v.PasswordMode == PasswordModeSame && v.SamePassword != "" {
			user.ValidatePassword(sl, v.SamePassword, "samePassword", "", "", "")
		}
	}
}
