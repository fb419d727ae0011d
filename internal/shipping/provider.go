package shipping

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	ProviderDomestic      = "domestic"
	ProviderInternational = "international"
)

// Provider is one upstream carrier aggregator.
type Provider interface {
	Name() string
	GetRates(ctx context.Context, origin Origin, dest Destination, manifest Manifest) ([]Quote, error)
}

const providerCallTimeout = 10 * time.Second

// DomesticClient talks to the domestic carrier aggregator. Calls are
// throttled so a burst of checkouts cannot exhaust the aggregator's quota.
type DomesticClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
}

func NewDomesticClient(baseURL, apiKey string) *DomesticClient {
	return &DomesticClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: providerCallTimeout},
		limiter: rate.NewLimiter(rate.Limit(5), 10),
	}
}

func (c *DomesticClient) Name() string { return ProviderDomestic }

func (c *DomesticClient) GetRates(ctx context.Context, origin Origin, dest Destination, manifest Manifest) ([]Quote, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("origin", origin.PostalCode)
	form.Set("destination", dest.PostalCode)
	form.Set("weight", strconv.Itoa(manifest.TotalWeightGrams()))
	form.Set("courier", "jne:tiki:pos:sicepat")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/cost", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrProviderTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrProviderUnavailable, resp.StatusCode)
	}

	var payload domesticRatesPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrProviderUnavailable, err)
	}

	return NormalizeDomestic(&payload, "IDR"), nil
}

// InternationalClient talks to the cross-border aggregator.
type InternationalClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
}

func NewInternationalClient(baseURL, apiKey string) *InternationalClient {
	return &InternationalClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: providerCallTimeout},
		limiter: rate.NewLimiter(rate.Limit(2), 5),
	}
}

func (c *InternationalClient) Name() string { return ProviderInternational }

func (c *InternationalClient) GetRates(ctx context.Context, origin Origin, dest Destination, manifest Manifest) ([]Quote, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := json.Marshal(map[string]any{
		"origin_postal":       origin.PostalCode,
		"origin_country":      origin.CountryCode,
		"destination_postal":  dest.PostalCode,
		"destination_country": dest.CountryCode,
		"weight_grams":        manifest.TotalWeightGrams(),
		"item_count":          manifest.ItemCount(),
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/rates", strings.NewReader(string(body)))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrProviderTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrProviderUnavailable, resp.StatusCode)
	}

	var payload internationalRatesPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrProviderUnavailable, err)
	}

	return NormalizeInternational(&payload, "USD"), nil
}
