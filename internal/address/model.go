package address

import (
	"strings"

	"github.com/google/uuid"
)

// Address is a user's saved, editable address.
type Address struct {
	ID     uuid.UUID
	UserID uint

	FullName     string
	PhoneNumber  string
	AddressLine1 string
	AddressLine2 *string
	Subdistrict  *string
	District     *string
	Province     string
	PostalCode   string
	Country      *string
	Note         *string

	IsDefault bool
	IsActive  bool
}

// Input is the shipping address carried by a checkout request. Every field
// is optional; missing values become "" in the snapshot.
type Input struct {
	FullName     *string `json:"full_name,omitempty"`
	PhoneNumber  *string `json:"phone_number,omitempty"`
	AddressLine1 *string `json:"address_line1,omitempty"`
	AddressLine2 *string `json:"address_line2,omitempty"`
	Subdistrict  *string `json:"subdistrict,omitempty"`
	District     *string `json:"district,omitempty"`
	Province     *string `json:"province,omitempty"`
	PostalCode   *string `json:"postal_code,omitempty"`
	Country      *string `json:"country,omitempty"`
	Note         *string `json:"note,omitempty"`
}

// Snapshot is the immutable copy stored with an order.
type Snapshot struct {
	ID           int64  `json:"order_address_id"`
	OrderID      int64  `json:"order_id"`
	UserID       uint   `json:"user_id"`
	FullName     string `json:"full_name"`
	PhoneNumber  string `json:"phone_number"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2"`
	Subdistrict  string `json:"subdistrict"`
	District     string `json:"district"`
	Province     string `json:"province"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`
	Note         string `json:"note"`
}

// NewSnapshot copies in for an order. Country falls back to defaultCountry.
func NewSnapshot(orderID int64, userID uint, in Input, defaultCountry string) *Snapshot {
	s := &Snapshot{
		OrderID:      orderID,
		UserID:       userID,
		FullName:     val(in.FullName),
		PhoneNumber:  val(in.PhoneNumber),
		AddressLine1: val(in.AddressLine1),
		AddressLine2: val(in.AddressLine2),
		Subdistrict:  val(in.Subdistrict),
		District:     val(in.District),
		Province:     val(in.Province),
		PostalCode:   val(in.PostalCode),
		Country:      val(in.Country),
		Note:         val(in.Note),
	}
	if s.Country == "" {
		s.Country = defaultCountry
	}
	return s
}

// ToInput turns a saved address into the value a checkout copies.
func (a *Address) ToInput() Input {
	return Input{
		FullName:     &a.FullName,
		PhoneNumber:  &a.PhoneNumber,
		AddressLine1: &a.AddressLine1,
		AddressLine2: a.AddressLine2,
		Subdistrict:  a.Subdistrict,
		District:     a.District,
		Province:     &a.Province,
		PostalCode:   &a.PostalCode,
		Country:      a.Country,
		Note:         a.Note,
	}
}

func val(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
