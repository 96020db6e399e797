package orders

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
	StatusRefunded   Status = "refunded"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered,
		StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

// Terminal statuses accept no further transitions, except that fulfillment
// may move cancelled -> refunded for prepaid bookkeeping.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled || s == StatusRefunded
}

// Actor is the policy parameter of the transition table: the same target
// status can be reachable for fulfillment staff and rejected for the
// order's owner.
type Actor int

const (
	ActorCustomer Actor = iota
	ActorAdmin
)

// CanCancel reports whether actor may move the order to cancelled from its
// current status. Customers may cancel only before shipment; fulfillment
// may force-cancel from any non-terminal status, including shipped.
// Payment method never gates permission, it only selects the refund
// bookkeeping.
func CanCancel(from Status, actor Actor) bool {
	if from.Terminal() {
		return false
	}
	if actor == ActorAdmin {
		return true
	}
	return from == StatusPending || from == StatusProcessing
}
