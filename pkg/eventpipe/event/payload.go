package event

// Product is the payload of product lifecycle events. Product fields sit
// at the top level of data rather than under a nested section.
type Product struct {
	SKU      string  `json:"sku"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
	Barcode  string  `json:"barcode,omitempty"`
}

// Movement is the payload section for inventory adjustments.
type Movement struct {
	SKU            string  `json:"sku"`
	StoreID        string  `json:"store_id"`
	QuantityChange float64 `json:"quantity_change"`
	Reason         string  `json:"reason,omitempty"`
}

// CountItem is one counted line within an inventory count.
type CountItem struct {
	SKU      string  `json:"sku"`
	Expected float64 `json:"expected"`
	Counted  float64 `json:"counted"`
}

// Count is the payload section for inventory counts.
type Count struct {
	StoreID string      `json:"store_id"`
	Items   []CountItem `json:"items"`
}

// SaleItem is one line item of a sale or return.
type SaleItem struct {
	SKU       string  `json:"sku"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// Sale is the payload section for sales-channel events.
type Sale struct {
	SaleID         string     `json:"sale_id"`
	StoreID        string     `json:"store_id"`
	CustomerID     string     `json:"customer_id,omitempty"`
	TotalAmount    float64    `json:"total_amount"`
	Items          []SaleItem `json:"items"`
	OriginalSaleID string     `json:"original_sale_id,omitempty"`
}

// PurchaseItem is one line item of a purchase.
type PurchaseItem struct {
	SKU      string  `json:"sku"`
	Quantity float64 `json:"quantity"`
	UnitCost float64 `json:"unit_cost"`
}

// Purchase is the payload section for purchase-channel events.
type Purchase struct {
	OrderID         string         `json:"order_id"`
	SupplierID      string         `json:"supplier_id"`
	TotalAmount     float64        `json:"total_amount"`
	Items           []PurchaseItem `json:"items"`
	OriginalOrderID string         `json:"original_order_id,omitempty"`
}

// TransferItem is one line item of a store transfer.
type TransferItem struct {
	SKU      string  `json:"sku"`
	Quantity float64 `json:"quantity"`
}

// Transfer is the payload section for transfer-channel events.
type Transfer struct {
	TransferID  string         `json:"transfer_id"`
	FromStoreID string         `json:"from_store_id"`
	ToStoreID   string         `json:"to_store_id"`
	Items       []TransferItem `json:"items"`
}

// BanbanFields are the optional fashion-retail sub-fields carried under
// data.banbanSpecific. They are advisory: unknown values downgrade to
// warnings, never errors.
type BanbanFields struct {
	DocStatus      string `json:"doc_status,omitempty"`
	Season         string `json:"season,omitempty"`
	CollectionYear int    `json:"collection_year,omitempty"`
}

// Product decodes the product payload. Second return is false when the
// payload is absent or malformed.
func (e *Event) Product() (*Product, bool) {
	return decodeSection[Product](e.Data)
}

// Movement decodes the data.movement section.
func (e *Event) Movement() (*Movement, bool) {
	return decodeSection[Movement](e.section("movement"))
}

// Count decodes the data.count section.
func (e *Event) Count() (*Count, bool) {
	return decodeSection[Count](e.section("count"))
}

// Sale decodes the data.sale section.
func (e *Event) Sale() (*Sale, bool) {
	return decodeSection[Sale](e.section("sale"))
}

// Purchase decodes the data.purchase section.
func (e *Event) Purchase() (*Purchase, bool) {
	return decodeSection[Purchase](e.section("purchase"))
}

// Transfer decodes the data.transfer section.
func (e *Event) Transfer() (*Transfer, bool) {
	return decodeSection[Transfer](e.section("transfer"))
}

// Banban decodes the optional data.banbanSpecific section.
func (e *Event) Banban() (*BanbanFields, bool) {
	return decodeSection[BanbanFields](e.section("banbanSpecific"))
}
