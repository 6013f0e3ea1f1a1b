package domain

// QRType discriminates the two hand-off credential kinds.
type QRType string

const (
	QRTypeProduct  QRType = "product"
	QRTypeCustomer QRType = "customer"
)

// IsValid reports whether t is a known QR type.
func (t QRType) IsValid() bool {
	return t == QRTypeProduct || t == QRTypeCustomer
}

// QRData is the payload carried by a signed QR token. Product fields are
// meaningful for type "product", customer fields for type "customer"; the
// other set is don't-care. Field names are the wire format and must not change.
type QRData struct {
	RepairID     string `json:"repairId"`
	Type         QRType `json:"type"`
	ShopID       string `json:"shopId,omitempty"`
	ProductType  string `json:"productType,omitempty"`
	ProductBrand string `json:"productBrand,omitempty"`
	ProductModel string `json:"productModel,omitempty"`
	SerialNumber string `json:"serialNumber,omitempty"`
	CustomerID   string `json:"customerId,omitempty"`
	CustomerName string `json:"customerName,omitempty"`
	IssuedAt     int64  `json:"iat"`
	ExpiresAt    int64  `json:"exp"`
}
