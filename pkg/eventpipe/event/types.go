package event

// Type identifies one of the enumerated ERP event types.
type Type string

// The complete event taxonomy. Every type belongs to exactly one Channel;
// adding a type means adding it here and to the channel and priority
// tables below.
const (
	// Inventory channel.
	TypeProductCreated      Type = "product_created"
	TypeProductUpdated      Type = "product_updated"
	TypeProductPriceChanged Type = "product_price_changed"
	TypeInventoryAdjustment Type = "inventory_adjustment"
	TypeInventoryCount      Type = "inventory_count"
	TypeInventoryTransfer   Type = "inventory_transfer"

	// Sales channel.
	TypeSaleCompleted   Type = "sale_completed"
	TypeSaleCancelled   Type = "sale_cancelled"
	TypeReturnProcessed Type = "return_processed"

	// Purchase channel.
	TypePurchaseOrderCreated Type = "purchase_order_created"
	TypePurchaseCompleted    Type = "purchase_completed"
	TypePurchaseCancelled    Type = "purchase_cancelled"
	TypePurchaseReturned     Type = "purchase_returned"

	// Transfer channel.
	TypeTransferInitiated Type = "transfer_initiated"
	TypeTransferCompleted Type = "transfer_completed"
	TypeTransferCancelled Type = "transfer_cancelled"
)

// Channel is one of the four logical ingestion groupings. It determines
// which handler group and which listener entry point apply to an event.
type Channel string

const (
	ChannelInventory Channel = "inventory"
	ChannelSales     Channel = "sales"
	ChannelPurchase  Channel = "purchase"
	ChannelTransfer  Channel = "transfer"
)

// channelByType is the total event type -> channel mapping.
var channelByType = map[Type]Channel{
	TypeProductCreated:      ChannelInventory,
	TypeProductUpdated:      ChannelInventory,
	TypeProductPriceChanged: ChannelInventory,
	TypeInventoryAdjustment: ChannelInventory,
	TypeInventoryCount:      ChannelInventory,
	TypeInventoryTransfer:   ChannelInventory,

	TypeSaleCompleted:   ChannelSales,
	TypeSaleCancelled:   ChannelSales,
	TypeReturnProcessed: ChannelSales,

	TypePurchaseOrderCreated: ChannelPurchase,
	TypePurchaseCompleted:    ChannelPurchase,
	TypePurchaseCancelled:    ChannelPurchase,
	TypePurchaseReturned:     ChannelPurchase,

	TypeTransferInitiated: ChannelTransfer,
	TypeTransferCompleted: ChannelTransfer,
	TypeTransferCancelled: ChannelTransfer,
}

// priorityByType assigns the fixed batch-ordering priority of each type.
// Higher runs first within a flushed batch.
var priorityByType = map[Type]int{
	TypeSaleCompleted:        10,
	TypeInventoryAdjustment:  9,
	TypeTransferCompleted:    8,
	TypePurchaseCompleted:    7,
	TypeSaleCancelled:        6,
	TypeReturnProcessed:      6,
	TypeInventoryTransfer:    5,
	TypeTransferInitiated:    5,
	TypeInventoryCount:       4,
	TypePurchaseReturned:     4,
	TypePurchaseCancelled:    4,
	TypeTransferCancelled:    4,
	TypeProductPriceChanged:  3,
	TypePurchaseOrderCreated: 3,
	TypeProductUpdated:       2,
	TypeProductCreated:       2,
}

// HighPriorityThreshold is the priority at or above which an event is
// considered latency-sensitive for delayed-processing warnings.
const HighPriorityThreshold = 8

// Known returns true if t is part of the enumerated taxonomy.
func Known(t Type) bool {
	_, ok := channelByType[t]
	return ok
}

// ChannelOf returns the channel an event type belongs to.
// The second return is false for types outside the taxonomy.
func ChannelOf(t Type) (Channel, bool) {
	c, ok := channelByType[t]
	return c, ok
}

// Priority returns the batch-ordering priority of an event type.
// Unknown types get priority 0 and sort last.
func Priority(t Type) int {
	return priorityByType[t]
}

// HighPriority returns true for latency-sensitive event types.
func HighPriority(t Type) bool {
	return priorityByType[t] >= HighPriorityThreshold
}

// Types returns all known event types. Order is not specified.
func Types() []Type {
	out := make([]Type, 0, len(channelByType))
	for t := range channelByType {
		out = append(out, t)
	}
	return out
}

// Channels returns the four ingestion channels in their canonical order.
func Channels() []Channel {
	return []Channel{ChannelInventory, ChannelSales, ChannelPurchase, ChannelTransfer}
}

// TypesForChannel returns the event types routed to a channel.
func TypesForChannel(c Channel) []Type {
	var out []Type
	for t, ch := range channelByType {
		if ch == c {
			out = append(out, t)
		}
	}
	return out
}
