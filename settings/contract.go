package settings

import (
	"context"
)

// TransformableSettings is implemented by settings that adjust their own values after parsing.
//
// The Transform method is called automatically by Parse, after the mod tags are applied and before validation.
type TransformableSettings interface {
	Transform(context.Context) error
}

// ValidatableSettings is implemented by settings carrying checks that struct tags cannot express.
//
// The Validate method is called automatically by Parse after the validate tags are checked.
// Every returned error is reported as an issue: validator.FieldError values keep their tag,
// errors with a Field() method are attributed to that field, anything else to an unknown one.
type ValidatableSettings interface {
	Validate(context.Context) []error
}
