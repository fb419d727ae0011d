package shipping

import (
	"strconv"
	"strings"
)

// Fallback window applied when a provider's duration string cannot be
// parsed. A malformed ETA must not drop an otherwise-usable price.
var defaultETA = ETA{MinDays: 1, MaxDays: 3}

// ParseETD parses carrier duration strings such as "2 - 4", "3 days",
// "1-2 hari" into a delivery window. A single value fills both bounds.
func ParseETD(raw string) ETA {
	s := strings.ToLower(strings.TrimSpace(raw))
	for _, suffix := range []string{"days", "day", "hari"} {
		s = strings.TrimSpace(strings.TrimSuffix(s, suffix))
	}
	if s == "" {
		return defaultETA
	}

	parts := strings.Split(s, "-")
	if len(parts) == 1 {
		n, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil || n < 0 {
			return defaultETA
		}
		return ETA{MinDays: n, MaxDays: n}
	}
	if len(parts) != 2 {
		return defaultETA
	}

	min, errMin := strconv.Atoi(strings.TrimSpace(parts[0]))
	max, errMax := strconv.Atoi(strings.TrimSpace(parts[1]))
	if errMin != nil || errMax != nil || min < 0 || max < 0 || min > max {
		return defaultETA
	}
	return ETA{MinDays: min, MaxDays: max}
}

// Service tier names differ per provider; each provider gets its own
// explicit lookup. Unmapped values fall back to STANDARD.
var domesticServiceTypes = map[string]ServiceType{
	"OKE":    ServiceEconomy,
	"ECO":    ServiceEconomy,
	"REG":    ServiceStandard,
	"CTC":    ServiceStandard,
	"YES":    ServiceOvernight,
	"CTCYES": ServiceOvernight,
	"ONS":    ServiceOvernight,
	"SDS":    ServiceExpress,
	"BEST":   ServiceExpress,
}

var internationalServiceTypes = map[string]ServiceType{
	"economy":  ServiceEconomy,
	"standard": ServiceStandard,
	"express":  ServiceExpress,
	"priority": ServiceOvernight,
}

func domesticServiceType(service string) ServiceType {
	if st, ok := domesticServiceTypes[strings.ToUpper(strings.TrimSpace(service))]; ok {
		return st
	}
	return ServiceStandard
}

func internationalServiceType(level string) ServiceType {
	if st, ok := internationalServiceTypes[strings.ToLower(strings.TrimSpace(level))]; ok {
		return st
	}
	return ServiceStandard
}

// domesticRatesPayload mirrors the domestic aggregator response: couriers
// nest service tiers, tiers nest priced cost lines with free-text ETDs.
type domesticRatesPayload struct {
	Rates struct {
		Results []domesticCourier `json:"results"`
	} `json:"rajaongkir"`
}

type domesticCourier struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Costs []struct {
		Service     string `json:"service"`
		Description string `json:"description"`
		Cost        []struct {
			Value int    `json:"value"`
			ETD   string `json:"etd"`
			Note  string `json:"note"`
		} `json:"cost"`
	} `json:"costs"`
}

// NormalizeDomestic flattens the nested domestic payload into canonical
// quotes. Lines without a price or courier identity are unusable and
// excluded; everything else passes through with defaults filled in.
func NormalizeDomestic(payload *domesticRatesPayload, currency string) []Quote {
	var quotes []Quote
	for _, courier := range payload.Rates.Results {
		if strings.TrimSpace(courier.Code) == "" {
			continue
		}
		for _, tier := range courier.Costs {
			for _, line := range tier.Cost {
				if line.Value <= 0 {
					continue
				}
				quotes = append(quotes, Quote{
					CourierCode: strings.ToLower(courier.Code),
					CourierName: courier.Name,
					ServiceCode: tier.Service,
					ServiceType: domesticServiceType(tier.Service),
					Price:       line.Value,
					Currency:    currency,
					ETA:         ParseETD(line.ETD),
					Provider:    ProviderDomestic,
				})
			}
		}
	}
	return quotes
}

// internationalRatesPayload is the flat shape used by the international
// aggregator: one line per courier/service with explicit transit bounds.
type internationalRatesPayload struct {
	Data []internationalRateLine `json:"data"`
}

type internationalRateLine struct {
	Courier        string `json:"courier"`
	CourierName    string `json:"courier_name"`
	Service        string `json:"service"`
	ServiceLevel   string `json:"service_level"`
	Amount         int    `json:"amount"`
	Currency       string `json:"currency"`
	MinTransitDays int    `json:"min_transit_days"`
	MaxTransitDays int    `json:"max_transit_days"`
	TransitTime    string `json:"transit_time"`
}

func NormalizeInternational(payload *internationalRatesPayload, fallbackCurrency string) []Quote {
	var quotes []Quote
	for _, line := range payload.Data {
		if strings.TrimSpace(line.Courier) == "" || line.Amount <= 0 {
			continue
		}

		eta := ETA{MinDays: line.MinTransitDays, MaxDays: line.MaxTransitDays}
		if eta.MaxDays <= 0 || eta.MinDays > eta.MaxDays {
			// Some couriers only fill the free-text transit field.
			eta = ParseETD(line.TransitTime)
		}

		currency := line.Currency
		if currency == "" {
			currency = fallbackCurrency
		}

		quotes = append(quotes, Quote{
			CourierCode: strings.ToLower(line.Courier),
			CourierName: line.CourierName,
			ServiceCode: line.Service,
			ServiceType: internationalServiceType(line.ServiceLevel),
			Price:       line.Amount,
			Currency:    currency,
			ETA:         eta,
			Provider:    ProviderInternational,
		})
	}
	return quotes
}
