package validations

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	domainAccess "github.com/avelara/instagate/domains/access"
	pkgError "github.com/avelara/instagate/pkg/error"
)

func ValidateGrant(ctx context.Context, request domainAccess.GrantRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.CallerID, validation.Required),
		validation.Field(&request.TargetID, validation.Required, validation.Min(int64(1))),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}
