package users

import "github.com/keyxmakerx/roster/internal/validate"

// signupRules validates the new-user form.
var signupRules = validate.Ruleset{
	{
		Name:      "email",
		Normalize: []string{validate.NormalizeEmail},
		Rules:     []validate.Rule{{Check: validate.IsEmail, Message: "Email is invalid"}},
	},
	{
		Name:  "password",
		Rules: []validate.Rule{{Check: validate.NonEmpty, Message: "Password cannot be empty"}},
	},
	{
		Name:      "username",
		Normalize: []string{validate.Trim},
		Rules: []validate.Rule{
			{Check: validate.NonEmpty, Message: "Username cannot be empty"},
			{Check: validate.MaxLength, Param: 64, Message: "Username is too long"},
		},
	},
	{Name: "first", Normalize: []string{validate.StripHTML, validate.Trim}},
	{Name: "last", Normalize: []string{validate.StripHTML, validate.Trim}},
}

// editRules validates the edit form. The password is optional there.
var editRules = validate.Ruleset{
	signupRules[0],
	signupRules[2],
	signupRules[3],
	signupRules[4],
}
