package models

// AddressRecord represents one row of the source table waiting for normalization.
type AddressRecord struct {
	ID         int64  // ID is the unique identifier of the row, used as the update key.
	RawAddress string // RawAddress is the free-text address as entered.
	PostalCode string // PostalCode is the postal or locality code attached to the address.
}

// AddressQuery is the lookup sent to a geocoding provider.
type AddressQuery struct {
	Address    string
	PostalCode string
}

// Query builds the provider lookup for the record.
func (r AddressRecord) Query() AddressQuery {
	return AddressQuery{Address: r.RawAddress, PostalCode: r.PostalCode}
}

// NormalizedAddress holds the fields extracted from the first geocoding candidate.
// Every field is empty when the provider did not return it.
type NormalizedAddress struct {
	Address   string // Address is the canonical address string.
	Latitude  string // Latitude in decimal degrees.
	Longitude string // Longitude in decimal degrees.
	Province  string // Province is the normalized province name.
	Locality  string // Locality is the normalized locality name.
}
