package orders

type Status string

const (
	StatusPendingPayment    Status = "Pending Payment"
	StatusCompleted         Status = "Completed"
	StatusPaymentFailed     Status = "Payment Failed"
	StatusInsufficientStock Status = "Failed - insufficient stock"
)

// An order leaves Pending Payment exactly once; terminal states are sinks.
var validNext = map[Status]map[Status]bool{
	StatusPendingPayment: {
		StatusCompleted:         true,
		StatusPaymentFailed:     true,
		StatusInsufficientStock: true,
	},
	StatusCompleted:         {},
	StatusPaymentFailed:     {},
	StatusInsufficientStock: {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusPaymentFailed || s == StatusInsufficientStock
}
