package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Address is a postal address used for customers, carts, orders and stock locations.
type Address struct {
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	Company     string `json:"company,omitempty"`
	Address1    string `json:"address_1,omitempty"`
	Address2    string `json:"address_2,omitempty"`
	City        string `json:"city,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
	Province    string `json:"province,omitempty"`
	PostalCode  string `json:"postal_code,omitempty"`
	Phone       string `json:"phone,omitempty"`
}

// Normalize trims fields and lowercases country and province codes
func (a Address) Normalize() Address {
	a.FirstName = strings.TrimSpace(a.FirstName)
	a.LastName = strings.TrimSpace(a.LastName)
	a.Company = strings.TrimSpace(a.Company)
	a.Address1 = strings.TrimSpace(a.Address1)
	a.Address2 = strings.TrimSpace(a.Address2)
	a.City = strings.TrimSpace(a.City)
	a.CountryCode = strings.ToLower(strings.TrimSpace(a.CountryCode))
	a.Province = strings.ToLower(strings.TrimSpace(a.Province))
	a.PostalCode = strings.TrimSpace(a.PostalCode)
	a.Phone = strings.TrimSpace(a.Phone)
	return a
}

// IsEmpty returns true if no line of the address is set
func (a Address) IsEmpty() bool {
	return a.Address1 == "" && a.City == "" && a.CountryCode == "" && a.PostalCode == ""
}

// Validate checks the fields required for shipping
func (a Address) Validate() error {
	if a.Address1 == "" {
		return fmt.Errorf("address_1 is required")
	}
	if len(a.CountryCode) != 2 {
		return fmt.Errorf("country_code must be an ISO 3166-1 alpha-2 code")
	}
	return nil
}

// String returns a single-line rendition
func (a Address) String() string {
	parts := make([]string, 0, 6)
	for _, p := range []string{a.Address1, a.Address2, a.City, a.Province, a.PostalCode, strings.ToUpper(a.CountryCode)} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Value implements driver.Valuer; addresses are stored as JSON
func (a Address) Value() (driver.Value, error) {
	if a.IsEmpty() {
		return nil, nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (a *Address) Scan(value any) error {
	if value == nil {
		*a = Address{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("cannot scan %T into Address", value)
	}
	return json.Unmarshal(data, a)
}
