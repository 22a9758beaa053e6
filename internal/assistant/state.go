package assistant

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// OrderType represents how a finished order is served
type OrderType string

const (
	OrderTypeUnset    OrderType = ""
	OrderTypeDining   OrderType = "DINING"
	OrderTypeDelivery OrderType = "DELIVERY"
)

// MaxQuantity caps the quantity of a single cart line
const MaxQuantity = 99

// Field names a checkout detail the assistant may ask for
type Field string

const (
	FieldName         Field = "name"
	FieldPhone        Field = "phone"
	FieldTableNumber  Field = "table_number"
	FieldAddressLine1 Field = "address_line1"
	FieldCity         Field = "city"
	FieldPostalCode   Field = "postal_code"
)

var (
	diningFields   = []Field{FieldName, FieldPhone, FieldTableNumber}
	deliveryFields = []Field{FieldName, FieldPhone, FieldAddressLine1, FieldCity, FieldPostalCode}
)

// RequiredFields returns the checkout fields an order type needs, in prompt order.
// An unset order type is treated as dining.
func (t OrderType) RequiredFields() []Field {
	if t == OrderTypeDelivery {
		return append([]Field(nil), deliveryFields...)
	}
	return append([]Field(nil), diningFields...)
}

// Label returns the human wording used when prompting for the field
func (f Field) Label() string {
	switch f {
	case FieldPhone:
		return "phone number"
	case FieldTableNumber:
		return "table number"
	case FieldAddressLine1:
		return "address"
	case FieldPostalCode:
		return "postal code"
	default:
		return string(f)
	}
}

// Details holds checkout values collected across turns
type Details struct {
	Name         string `json:"name,omitempty"`
	Phone        string `json:"phone,omitempty"`
	TableNumber  string `json:"table_number,omitempty"`
	AddressLine1 string `json:"address_line1,omitempty"`
	City         string `json:"city,omitempty"`
	PostalCode   string `json:"postal_code,omitempty"`
}

// Get returns the collected value for a field
func (d Details) Get(f Field) string {
	switch f {
	case FieldName:
		return d.Name
	case FieldPhone:
		return d.Phone
	case FieldTableNumber:
		return d.TableNumber
	case FieldAddressLine1:
		return d.AddressLine1
	case FieldCity:
		return d.City
	case FieldPostalCode:
		return d.PostalCode
	}
	return ""
}

// Set stores a value for a field
func (d *Details) Set(f Field, value string) {
	switch f {
	case FieldName:
		d.Name = value
	case FieldPhone:
		d.Phone = value
	case FieldTableNumber:
		d.TableNumber = value
	case FieldAddressLine1:
		d.AddressLine1 = value
	case FieldCity:
		d.City = value
	case FieldPostalCode:
		d.PostalCode = value
	}
}

// Missing returns the required fields of the order type that have no value yet
func (d Details) Missing(t OrderType) []Field {
	missing := []Field{}
	for _, f := range t.RequiredFields() {
		if d.Get(f) == "" {
			missing = append(missing, f)
		}
	}
	return missing
}

// CartLine is one distinct item in the in-progress order
type CartLine struct {
	ItemID    uint            `json:"item_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Subtotal returns quantity times unit price
func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// State is the per-session conversation record. It is passed into every
// turn and returned from it; the caller owns where it is stored.
type State struct {
	Items              []CartLine `json:"items"`
	OrderType          OrderType  `json:"order_type"`
	LastReferencedItem string     `json:"last_referenced_item"`
	CollectedDetails   Details    `json:"collected_details"`
	PendingFields      []Field    `json:"pending_fields"`
	Confirmed          bool       `json:"confirmed"`
}

// NewState returns an empty conversation
func NewState() State {
	return State{Items: []CartLine{}, PendingFields: []Field{}}
}

// Reset wipes the conversation back to its initial value
func (s *State) Reset() {
	*s = NewState()
}

// Clone returns a deep copy so a turn can be discarded without touching the original
func (s State) Clone() State {
	out := s
	out.Items = append([]CartLine{}, s.Items...)
	out.PendingFields = append([]Field{}, s.PendingFields...)
	return out
}

// Total returns the exact cart total
func (s State) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range s.Items {
		total = total.Add(line.Subtotal())
	}
	return total
}

// AddItem merges quantity into an existing line or appends a new one
func (s *State) AddItem(itemID uint, name string, quantity int, price decimal.Decimal) {
	for i := range s.Items {
		if s.Items[i].ItemID == itemID {
			s.Items[i].Quantity = clampQuantity(clampQuantity(s.Items[i].Quantity) + clampQuantity(quantity))
			return
		}
	}
	s.Items = append(s.Items, CartLine{ItemID: itemID, Name: name, Quantity: clampQuantity(quantity), UnitPrice: price})
}

// RemoveItems drops the given item ids and reports how many lines were removed
func (s *State) RemoveItems(ids []uint) int {
	drop := make(map[uint]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := make([]CartLine, 0, len(s.Items))
	for _, line := range s.Items {
		if !drop[line.ItemID] {
			kept = append(kept, line)
		}
	}
	removed := len(s.Items) - len(kept)
	s.Items = kept
	return removed
}

// HasItem reports whether the cart already holds the item
func (s State) HasItem(itemID uint) bool {
	for _, line := range s.Items {
		if line.ItemID == itemID {
			return true
		}
	}
	return false
}

// MarshalState encodes the state for a session store
func MarshalState(s State) ([]byte, error) {
	return json.Marshal(s)
}

// UnmarshalState decodes a stored state. Empty input yields a fresh conversation.
func UnmarshalState(data []byte) (State, error) {
	st := NewState()
	if len(data) == 0 {
		return st, nil
	}
	if err := json.Unmarshal(data, &st); err != nil {
		return NewState(), fmt.Errorf("decode conversation state: %w", err)
	}
	if st.Items == nil {
		st.Items = []CartLine{}
	}
	if st.PendingFields == nil {
		st.PendingFields = []Field{}
	}
	return st, nil
}

func clampQuantity(n int) int {
	switch {
	case n < 1:
		return 1
	case n > MaxQuantity:
		return MaxQuantity
	}
	return n
}
