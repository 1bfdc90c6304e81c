package statemachine

import (
	"errors"
	"fmt"
	"time"

	"github.com/braianruaimi/YAvoyOk-sub002/models"
)

var (
	// ErrInvalidTransition: the status pair itself is not allowed.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrUnauthorized: the pair exists but not for this actor.
	ErrUnauthorized = errors.New("actor may not perform this transition")
)

// Transition defines a valid state change and who can perform it
type Transition struct {
	From  models.OrderStatus
	To    models.OrderStatus
	Actor models.Role
}

// validTransitions is the authoritative state machine definition
var validTransitions = []Transition{
	// Merchant accepts the order (courier is assigned at this step)
	{From: models.StatusPending, To: models.StatusAccepted, Actor: models.RoleMerchant},
	// Assigned courier moves the order along
	{From: models.StatusAccepted, To: models.StatusEnRoute, Actor: models.RoleCourier},
	{From: models.StatusEnRoute, To: models.StatusDelivered, Actor: models.RoleCourier},
	// Client may cancel only while the order is still pending
	{From: models.StatusPending, To: models.StatusCancelled, Actor: models.RoleClient},
	// Merchant and admin may cancel from any non-terminal state
	{From: models.StatusPending, To: models.StatusCancelled, Actor: models.RoleMerchant},
	{From: models.StatusPending, To: models.StatusCancelled, Actor: models.RoleAdmin},
	{From: models.StatusAccepted, To: models.StatusCancelled, Actor: models.RoleMerchant},
	{From: models.StatusAccepted, To: models.StatusCancelled, Actor: models.RoleAdmin},
	{From: models.StatusEnRoute, To: models.StatusCancelled, Actor: models.RoleMerchant},
	{From: models.StatusEnRoute, To: models.StatusCancelled, Actor: models.RoleAdmin},
}

type transitionKey struct {
	From  models.OrderStatus
	To    models.OrderStatus
	Actor models.Role
}

// Build lookup maps for O(1) validation
var (
	transitionMap = map[transitionKey]bool{}
	pairMap       = map[[2]models.OrderStatus]bool{}
)

func init() {
	for _, t := range validTransitions {
		transitionMap[transitionKey{t.From, t.To, t.Actor}] = true
		pairMap[[2]models.OrderStatus{t.From, t.To}] = true
	}
}

// ValidTransitionsFrom returns all valid next states from a given state
func ValidTransitionsFrom(status models.OrderStatus) []models.OrderStatus {
	var nexts []models.OrderStatus
	seen := map[models.OrderStatus]bool{}
	for _, t := range validTransitions {
		if t.From == status && !seen[t.To] {
			nexts = append(nexts, t.To)
			seen[t.To] = true
		}
	}
	return nexts
}

// CanTransition checks if a given actor can move from one state to
// another. The status pair and the actor are checked separately so an
// impossible pair is reported as invalid even for an admin.
func CanTransition(from, to models.OrderStatus, actor models.Role) error {
	if transitionMap[transitionKey{From: from, To: to, Actor: actor}] {
		return nil
	}
	if pairMap[[2]models.OrderStatus{from, to}] {
		return fmt.Errorf("%w: %s -> %s as %s", ErrUnauthorized, from, to, actor)
	}
	return fmt.Errorf("%w: %s -> %s (valid: %s)", ErrInvalidTransition, from, to, describeValidFrom(from))
}

func describeValidFrom(status models.OrderStatus) string {
	nexts := ValidTransitionsFrom(status)
	if len(nexts) == 0 {
		return "none, terminal state"
	}
	result := ""
	for i, s := range nexts {
		if i > 0 {
			result += ", "
		}
		result += string(s)
	}
	return result
}

// Apply validates the requested transition and mutates the order:
// status, the matching timestamp, and the bumped version. All checks run
// before any field is touched, so a failed call leaves the order as-is.
func Apply(order *models.Order, to models.OrderStatus, actor models.Role, actorID uint, now time.Time) error {
	if err := CanTransition(order.Status, to, actor); err != nil {
		return err
	}
	// Courier steps require the acting courier to be the assigned one
	if actor == models.RoleCourier {
		if order.CourierID == nil || *order.CourierID != actorID {
			return fmt.Errorf("%w: courier %d is not assigned to order %d", ErrUnauthorized, actorID, order.ID)
		}
	}

	order.Status = to
	switch to {
	case models.StatusAccepted:
		order.AcceptedAt = &now
	case models.StatusEnRoute:
		order.EnRouteAt = &now
	case models.StatusDelivered:
		order.DeliveredAt = &now
	case models.StatusCancelled:
		order.CancelledAt = &now
	}
	return nil
}

// AssignCourier sets or replaces the courier. Valid while accepting
// (merchant) or afterwards by admin reassignment, never once the order
// reached a terminal state.
func AssignCourier(order *models.Order, courierID uint, actor models.Role) error {
	if order.Status.Terminal() {
		return fmt.Errorf("%w: cannot assign courier on %s order", ErrInvalidTransition, order.Status)
	}
	switch actor {
	case models.RoleMerchant:
		if order.Status != models.StatusPending {
			return fmt.Errorf("%w: merchant assigns courier only while accepting", ErrUnauthorized)
		}
	case models.RoleAdmin:
		// reassignment allowed from any active state
	default:
		return fmt.Errorf("%w: %s may not assign couriers", ErrUnauthorized, actor)
	}
	order.CourierID = &courierID
	return nil
}

// GetAllTransitions returns the full state machine for documentation
func GetAllTransitions() []Transition {
	return validTransitions
}
