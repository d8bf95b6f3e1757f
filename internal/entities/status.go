package entities

// Status is the order fulfilment state. Transitions are closed: anything not
// listed in statusNext is rejected, a transition to the current value is a no-op.
type Status string

const (
	StatusProcessing Status = "Processing"
	StatusShipping   Status = "Shipping"
	StatusCompleted  Status = "Completed"
	StatusCancelled  Status = "Cancelled"
)

var statusNext = map[Status]map[Status]bool{
	StatusProcessing: {StatusShipping: true, StatusCancelled: true},
	StatusShipping:   {StatusCompleted: true, StatusCancelled: true},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

func (s Status) CanTransition(to Status) bool {
	return statusNext[s][to]
}

func (s Status) Terminal() bool {
	return len(statusNext[s]) == 0
}

func ParseStatus(raw string) (Status, bool) {
	s := Status(raw)
	_, ok := statusNext[s]
	return s, ok
}

// PaymentStatus is an axis independent of Status.
type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "Unpaid"
	PaymentPaid     PaymentStatus = "Paid"
	PaymentRefunded PaymentStatus = "Refunded"
)

var paymentNext = map[PaymentStatus]map[PaymentStatus]bool{
	PaymentUnpaid:   {PaymentPaid: true, PaymentRefunded: true},
	PaymentPaid:     {PaymentRefunded: true},
	PaymentRefunded: {},
}

func (p PaymentStatus) CanTransition(to PaymentStatus) bool {
	return paymentNext[p][to]
}

func ParsePaymentStatus(raw string) (PaymentStatus, bool) {
	p := PaymentStatus(raw)
	_, ok := paymentNext[p]
	return p, ok
}

// Channel names where the order was placed.
type Channel string

const (
	ChannelDirect Channel = "Direct"
	ChannelOnline Channel = "Online"
)

// ParseChannel defaults a blank channel to Online, matching the storefront.
func ParseChannel(raw string) (Channel, bool) {
	switch Channel(raw) {
	case ChannelDirect:
		return ChannelDirect, true
	case ChannelOnline, "":
		return ChannelOnline, true
	}
	return "", false
}

var allowedPaymentMethods = map[string]bool{
	"COD":      true,
	"CASH":     true,
	"CARD":     true,
	"BANK":     true,
	"BANKING":  true,
	"TRANSFER": true,
}

// NormalizePaymentMethod upper-cases the label and falls back to COD for
// anything outside the allowed set. Payment methods are labels, not
// processed transactions.
func NormalizePaymentMethod(raw string) string {
	m := normalizeUpper(raw)
	if allowedPaymentMethods[m] {
		return m
	}
	return "COD"
}
