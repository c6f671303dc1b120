package user

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/mahudhurio/core"
)

var (
	// password policy
	pwdMinLen     = 8
	pwdMinLenText = fmt.Sprintf("password must contain at least %d characters", pwdMinLen)

	pwdNoSpaceText   = "password must not contain whitespace"
	pwdNotAllNumText = "password cannot be entirely numeric"

	pwdMaxSim      = .7
	pwdAttrSimText = "password cannot be similar to user attributes"

	invalidRolesText = "invalid roles"
)

type (
	// NewUser is the payload to create a User.
	NewUser struct {
		Name     string   `json:"name" validate:"required"`
		Username string   `json:"username" validate:"required,alphanum_"`
		Email    string   `json:"email" validate:"required,email"`
		Password string   `json:"password" validate:"required"`
		Roles    []string `json:"roles" validate:"required,min=1"`
		ClassID  string   `json:"class_id"`
	}
)

func (nu *NewUser) Validate(validate *validator.Validate, translator ut.Translator) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Username = core.CleanString(nu.Username, true)
	nu.Email = core.CleanString(nu.Email, true)

	if err := core.TranslateValidationErrors(validate.Struct(nu), translator); err != nil {
		return err
	}
	if err := validateRoles(nu.Roles); err != nil {
		return err
	}
	return validatePassword(nu.Password, nu.Name, nu.Username, nu.Email)
}

// validateRoles checks that provided user roles are all in AllRoles.
func validateRoles(roles []string) error {
	all := make([]string, len(AllRoles))
	copy(all, AllRoles)
	sort.Strings(all)
	for _, role := range roles {
		idx := sort.SearchStrings(all, role)
		if idx >= len(all) || all[idx] != role {
			return core.NewValidationError(nil, core.FieldError{Field: "roles", Error: invalidRolesText})
		}
	}
	return nil
}

// validatePassword enforces the password policy.
func validatePassword(pwd string, attrs ...string) error {
	fldErr := func(text string) error {
		return core.NewValidationError(nil, core.FieldError{Field: "password", Error: text})
	}

	if len(pwd) < pwdMinLen {
		return fldErr(pwdMinLenText)
	}
	if strings.IndexFunc(pwd, unicode.IsSpace) >= 0 {
		return fldErr(pwdNoSpaceText)
	}

	allNum := true
	for _, r := range pwd {
		if !unicode.IsDigit(r) {
			allNum = false
			break
		}
	}
	if allNum {
		return fldErr(pwdNotAllNumText)
	}

	// password cannot be too similar to the user's own attributes
	lowPwd := strings.ToLower(pwd)
	for _, attr := range attrs {
		if attr == "" {
			continue
		}
		matcher := difflib.NewMatcher(strings.Split(lowPwd, ""), strings.Split(strings.ToLower(attr), ""))
		if matcher.QuickRatio() >= pwdMaxSim {
			return fldErr(pwdAttrSimText)
		}
	}
	return nil
}
