package billing

// Config holds billing-processor settings.
// Redirect targets for checkout and portal sessions are always derived from
// BaseURL or the explicit allow-list, never from request headers.
type Config struct {
	Enabled       bool   `env:"BILLING_ENABLED" envDefault:"false"`                    // Enabled globally switches the checkout flow on.
	SecretKey     string `env:"BILLING_SECRET_KEY"`                                    // SecretKey authenticates API calls to the processor.
	WebhookSecret string `env:"BILLING_WEBHOOK_SECRET"`                                // WebhookSecret verifies inbound event signatures.
	APIBaseURL    string `env:"BILLING_API_BASE_URL" envDefault:"https://api.stripe.com"` // APIBaseURL is the processor's REST endpoint.

	LitePriceID string `env:"BILLING_LITE_PRICE_ID"` // LitePriceID is the processor price for the lite plan.
	ProPriceID  string `env:"BILLING_PRO_PRICE_ID"`  // ProPriceID is the processor price for the pro plan.

	BaseURL              string   `env:"APP_BASE_URL" envDefault:"https://inkstrip.app"` // BaseURL is the service's own public origin.
	AllowedReturnOrigins []string `env:"PORTAL_ALLOWED_RETURN_ORIGINS" envSeparator:","` // AllowedReturnOrigins lists additional origins accepted in portal return URLs.
	DefaultReturnPath    string   `env:"PORTAL_DEFAULT_RETURN_PATH" envDefault:"/pricing"` // DefaultReturnPath is the fallback portal return path.
}
