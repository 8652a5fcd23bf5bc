package subscribers

import "github.com/keyxmakerx/roster/internal/validate"

// subscriberRules validates both the new and the edit form.
var subscriberRules = validate.Ruleset{
	{
		Name:      "name",
		Normalize: []string{validate.StripHTML, validate.Trim},
		Rules:     []validate.Rule{{Check: validate.NonEmpty, Message: "Name cannot be empty"}},
	},
	{
		Name:      "email",
		Normalize: []string{validate.NormalizeEmail},
		Rules:     []validate.Rule{{Check: validate.IsEmail, Message: "Email is invalid"}},
	},
	{
		Name:      "zipCode",
		Normalize: []string{validate.Trim},
		Rules: []validate.Rule{
			{Check: validate.IsInt, Message: "Zip code is invalid"},
			{Check: validate.Length, Param: 5, Message: "Zip code must be 5 digits"},
		},
	},
}
