package shipping

import (
	"fmt"
	"strings"
)

type ServiceType string

const (
	ServiceEconomy   ServiceType = "ECONOMY"
	ServiceStandard  ServiceType = "STANDARD"
	ServiceExpress   ServiceType = "EXPRESS"
	ServiceOvernight ServiceType = "OVERNIGHT"
)

// ETA is the quoted delivery window in days.
type ETA struct {
	MinDays int
	MaxDays int
}

// Quote is a single carrier/service offer. Quotes live in memory for the
// duration of a checkout session and are never persisted.
type Quote struct {
	CourierCode string
	CourierName string
	ServiceCode string
	ServiceType ServiceType
	Price       int
	Currency    string
	ETA         ETA
	Provider    string
}

type Origin struct {
	PostalCode  string
	CountryCode string
}

type Destination struct {
	PostalCode  string
	CountryCode string
	City        string
}

type ParcelItem struct {
	WeightGrams int
	Quantity    int
}

type Manifest []ParcelItem

// TotalWeightGrams sums weight x quantity over the manifest.
func (m Manifest) TotalWeightGrams() int {
	total := 0
	for _, item := range m {
		total += item.WeightGrams * item.Quantity
	}
	return total
}

func (m Manifest) ItemCount() int {
	count := 0
	for _, item := range m {
		count += item.Quantity
	}
	return count
}

// RateRequestKey identifies "the same logical rate request" for
// de-duplication. It is derived, never stored, and carries no TTL: a result
// is reusable until a newer key supersedes it.
type RateRequestKey struct {
	OriginPostal string
	DestPostal   string
	DestCountry  string
	WeightGrams  int
	ItemCount    int
}

func BuildRateRequestKey(origin Origin, dest Destination, manifest Manifest) RateRequestKey {
	return RateRequestKey{
		OriginPostal: normalizePostal(origin.PostalCode),
		DestPostal:   normalizePostal(dest.PostalCode),
		DestCountry:  strings.ToUpper(strings.TrimSpace(dest.CountryCode)),
		WeightGrams:  manifest.TotalWeightGrams(),
		ItemCount:    manifest.ItemCount(),
	}
}

// String is the stable form used for equality and as a map key. Responses
// are tagged with it so stale results can be recognized and dropped.
func (k RateRequestKey) String() string {
	return fmt.Sprintf("%s|%s|%s|%d|%d",
		k.OriginPostal, k.DestCountry, k.DestPostal, k.WeightGrams, k.ItemCount)
}

func normalizePostal(postal string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(postal), " ", ""))
}
