package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// RESTProvider implements Provider against the processor's form-encoded REST
// API. The processor has no Go SDK for this API surface, so the three calls
// the engine needs are issued directly.
type RESTProvider struct {
	baseURL   string
	secretKey string
	client    *http.Client
}

// NewRESTProvider creates a provider client.
// Panics on a missing secret key so misconfiguration surfaces at startup,
// not on the first customer's checkout.
func NewRESTProvider(cfg Config) *RESTProvider {
	if cfg.SecretKey == "" {
		panic("billing: secret key is required")
	}

	return &RESTProvider{
		baseURL:   strings.TrimRight(cfg.APIBaseURL, "/"),
		secretKey: cfg.SecretKey,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *RESTProvider) CreateCustomer(ctx context.Context, email, userID string) (string, error) {
	form := url.Values{}
	form.Set("email", email)
	form.Set("metadata[user_id]", userID)

	body, err := p.postForm(ctx, "create customer", "/v1/customers", form)
	if err != nil {
		return "", err
	}

	var customer struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &customer); err != nil || customer.ID == "" {
		return "", &ProviderError{Op: "create customer", Detail: "response missing customer id", Err: err}
	}

	return customer.ID, nil
}

func (p *RESTProvider) CreateCheckoutSession(ctx context.Context, params CheckoutSessionParams) (string, error) {
	form := url.Values{}
	form.Set("customer", params.CustomerID)
	form.Set("mode", "subscription")
	form.Set("line_items[0][price]", params.PriceID)
	form.Set("line_items[0][quantity]", "1")
	form.Set("success_url", params.SuccessURL)
	form.Set("cancel_url", params.CancelURL)
	for key, value := range params.Metadata {
		form.Set(fmt.Sprintf("metadata[%s]", key), value)
	}

	body, err := p.postForm(ctx, "create checkout session", "/v1/checkout/sessions", form)
	if err != nil {
		return "", err
	}

	return sessionURL(body, "create checkout session")
}

func (p *RESTProvider) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	form := url.Values{}
	form.Set("customer", customerID)
	form.Set("return_url", returnURL)

	body, err := p.postForm(ctx, "create portal session", "/v1/billing_portal/sessions", form)
	if err != nil {
		return "", err
	}

	return sessionURL(body, "create portal session")
}

func (p *RESTProvider) postForm(ctx context.Context, op, path string, form url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &ProviderError{Op: op, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+p.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &ProviderError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	// The processor's error bodies are short JSON documents; cap the read
	// anyway since the body feeds logs.
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return nil, &ProviderError{Op: op, Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ProviderError{Op: op, Status: resp.StatusCode, Detail: string(body)}
	}

	return body, nil
}

func sessionURL(body []byte, op string) (string, error) {
	var session struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(body, &session); err != nil || session.URL == "" {
		return "", &ProviderError{Op: op, Detail: "response missing session url", Err: err}
	}
	return session.URL, nil
}
