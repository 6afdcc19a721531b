package orders

const (
	TopicOrderCreated   = "order.created"
	TopicOrderFinalized = "order.finalized"
)

// Partition key = order_id so every event of one order keeps its ordering.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
