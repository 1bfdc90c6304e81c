package auth

import (
	"fmt"

	"github.com/braianruaimi/YAvoyOk-sub002/models"
)

// Denial carries enough structured detail for the audit trail. The HTTP
// layer must collapse it to a generic 403.
type Denial struct {
	Required []models.Role
	Actual   models.Role
	Reason   string
}

func (d *Denial) Error() string {
	return fmt.Sprintf("forbidden: %s (role=%s)", d.Reason, d.Actual)
}

// Authorize checks that the principal's role appears in required.
// Admin satisfies any requirement; every other role must match literally.
func Authorize(p Principal, required ...models.Role) error {
	if p.Role == models.RoleAdmin {
		return nil
	}
	for _, r := range required {
		if p.Role == r {
			return nil
		}
	}
	return &Denial{Required: required, Actual: p.Role, Reason: "role not permitted"}
}

// AuthorizeOwnership allows the resource owner or an admin, nobody else.
func AuthorizeOwnership(p Principal, resourceOwnerID uint) error {
	if p.Role == models.RoleAdmin {
		return nil
	}
	if p.ID == resourceOwnerID {
		return nil
	}
	return &Denial{Actual: p.Role, Reason: "not resource owner"}
}
