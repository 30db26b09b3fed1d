package repairs

const (
	TopicOrdersOptimized    = "repair.orders.optimized"
	TopicOrderStatusChanged = "repair.order.status_changed"
	TopicPartStockChanged   = "inventory.part.stock_changed"
)

// Partition key = aggregate id, so every event of one order or part keeps its order.
func PartitionKey(id string) []byte { return []byte(id) }
