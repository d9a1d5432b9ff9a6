package domain

import "regexp"

type AddressType string

const (
	AddressTypeHome   AddressType = "Home"
	AddressTypeOffice AddressType = "Office"
)

type Address struct {
	ID           string      `json:"id,omitempty"`
	FullName     string      `json:"full_name"`
	MobileNumber string      `json:"mobile_number"`
	Pincode      string      `json:"pincode"`
	State        string      `json:"state"`
	City         string      `json:"city"`
	HouseNumber  string      `json:"house_number"`
	Landmark     string      `json:"landmark,omitempty"`
	AddressType  AddressType `json:"address_type"`
}

var (
	mobileRe  = regexp.MustCompile(`^\d{10}$`)
	pincodeRe = regexp.MustCompile(`^\d{6}$`)
)

// Validate checks the address the way the storefront form does before
// submission. The backend stays authoritative; anything that passes here can
// still be rejected server-side. Returns one message per failing field.
func (a *Address) Validate() map[string]string {
	errs := make(map[string]string)

	if a.FullName == "" {
		errs["full_name"] = "full name is required"
	}
	if !mobileRe.MatchString(a.MobileNumber) {
		errs["mobile_number"] = "mobile number must be exactly 10 digits"
	}
	if !pincodeRe.MatchString(a.Pincode) {
		errs["pincode"] = "pincode must be exactly 6 digits"
	}
	if a.State == "" {
		errs["state"] = "state is required"
	}
	if a.City == "" {
		errs["city"] = "city is required"
	}
	if a.HouseNumber == "" {
		errs["house_number"] = "house number is required"
	}
	if a.AddressType != AddressTypeHome && a.AddressType != AddressTypeOffice {
		errs["address_type"] = "address type must be Home or Office"
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}
