package nmi_direct_post

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Environment represents the NMI gateway host the client talks to.
type Environment string

const (
	EnvProduction Environment = "production"
	EnvSandbox    Environment = "sandbox"
)

// TransactMode selects whether a checkout captures funds immediately.
type TransactMode int

const (
	// TransactModeAuthorize sends type=auth; capture happens later.
	TransactModeAuthorize TransactMode = 1

	// TransactModeAuthorizeAndCapture sends type=sale.
	TransactModeAuthorizeAndCapture TransactMode = 2
)

func (m TransactMode) String() string {
	switch m {
	case TransactModeAuthorize:
		return "authorize"
	case TransactModeAuthorizeAndCapture:
		return "authorize_and_capture"
	default:
		return "unknown"
	}
}

// ParseTransactMode accepts the numeric or textual form of a transact mode.
func ParseTransactMode(s string) (TransactMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "authorize", "auth":
		return TransactModeAuthorize, nil
	case "2", "authorize_and_capture", "sale", "":
		return TransactModeAuthorizeAndCapture, nil
	}
	return 0, fmt.Errorf("nmi_direct_post: unknown transact mode %q", s)
}

// Credentials holds the merchant authentication material. Exactly one mode
// is sent per request: username+password when UseUsernamePassword is set,
// security_key otherwise.
type Credentials struct {
	Username            string
	Password            string
	SecurityKey         string
	UseUsernamePassword bool
}

// Config holds the merchant settings needed to talk to the NMI Direct Post API.
type Config struct {
	Credentials Credentials

	// TransactMode decides between sale and auth for checkout requests.
	TransactMode TransactMode

	// AllowCustomerToSaveCards enables the customer vault directives.
	AllowCustomerToSaveCards bool

	// UseNameOnCardField sends the name typed on the payment form instead of
	// the billing address name.
	UseNameOnCardField bool

	// CollectJsTokenizationKey is handed to the payment form for client-side
	// tokenization. The client never uses it itself.
	CollectJsTokenizationKey string

	// AdditionalFee is a fixed amount, or a percentage of the cart subtotal
	// when AdditionalFeePercentage is set.
	AdditionalFee           decimal.Decimal
	AdditionalFeePercentage bool

	// Env selects the default endpoints.
	Env Environment

	// TransactURL and QueryURL optionally override the endpoints derived from Env.
	TransactURL string
	QueryURL    string

	// Timeout for the HTTP client built by NewClient. Zero means 30 seconds.
	Timeout time.Duration

	// GatewayCAFile optionally pins the gateway to the CA certificates in a
	// PEM bundle instead of the system roots.
	GatewayCAFile string

	// ClientP12Path optionally points to a P12/PFX file presented as a TLS
	// client certificate when the gateway endpoint requires mutual TLS.
	ClientP12Path     string
	ClientP12Password string
}

// Validate checks that the configured authentication mode is complete.
func (c Config) Validate() error {
	if c.Credentials.UseUsernamePassword {
		if c.Credentials.Username == "" || c.Credentials.Password == "" {
			return fmt.Errorf("nmi_direct_post: Username and Password are required when UseUsernamePassword is set")
		}
	} else if c.Credentials.SecurityKey == "" {
		return fmt.Errorf("nmi_direct_post: SecurityKey is required")
	}
	switch c.TransactMode {
	case TransactModeAuthorize, TransactModeAuthorizeAndCapture:
	default:
		return fmt.Errorf("nmi_direct_post: unsupported transact mode %d", c.TransactMode)
	}
	return nil
}

// DefaultTransactURL returns the transaction endpoint for the configured environment.
func (c Config) DefaultTransactURL() string {
	if c.TransactURL != "" {
		return c.TransactURL
	}
	if c.Env == EnvSandbox {
		return "https://secure.nmi.com/api/transact.php"
	}
	return "https://msgpay.transactiongateway.com/api/transact.php"
}

// DefaultQueryURL returns the query endpoint for the configured environment.
func (c Config) DefaultQueryURL() string {
	if c.QueryURL != "" {
		return c.QueryURL
	}
	if c.Env == EnvSandbox {
		return "https://secure.nmi.com/api/query.php"
	}
	return "https://msgpay.transactiongateway.com/api/query.php"
}

// LoadConfigFromEnv creates a Config from environment variables:
//
//	NMI_USERNAME, NMI_PASSWORD         – merchant username/password
//	NMI_SECURITY_KEY                   – API security key
//	NMI_USE_USERNAME_PASSWORD          – "true" to authenticate with username/password
//	NMI_TRANSACT_MODE                  – "authorize" or "authorize_and_capture" (default)
//	NMI_ALLOW_SAVE_CARDS               – "true" to enable the customer vault
//	NMI_USE_NAME_ON_CARD               – "true" to send the name typed on the form
//	NMI_COLLECTJS_KEY                  – Collect.js tokenization key
//	NMI_ADDITIONAL_FEE                 – decimal fee amount
//	NMI_ADDITIONAL_FEE_PERCENTAGE      – "true" to treat the fee as a percentage
//	NMI_ENV                            – "production" (default) or "sandbox"
//	NMI_TRANSACT_URL, NMI_QUERY_URL    – optional endpoint overrides
//	NMI_TIMEOUT                        – HTTP timeout, e.g. "20s"
//	NMI_GATEWAY_CA_FILE                – optional PEM bundle the gateway is pinned to
//	NMI_CLIENT_P12_PATH, NMI_CLIENT_P12_PASSWORD – optional client certificate
func LoadConfigFromEnv() (Config, error) {
	return configFromEnv()
}

// LoadConfigFromDotEnv loads environment variables from a .env file and then
// reads the Config from them. A missing file falls back to the process environment.
func LoadConfigFromDotEnv(filenames ...string) (Config, error) {
	// godotenv.Load does NOT override existing env vars.
	_ = godotenv.Load(filenames...)
	return configFromEnv()
}

func configFromEnv() (Config, error) {
	mode, err := ParseTransactMode(os.Getenv("NMI_TRANSACT_MODE"))
	if err != nil {
		return Config{}, err
	}

	fee := decimal.Zero
	if raw := os.Getenv("NMI_ADDITIONAL_FEE"); raw != "" {
		if fee, err = decimal.NewFromString(raw); err != nil {
			return Config{}, fmt.Errorf("nmi_direct_post: parse NMI_ADDITIONAL_FEE: %w", err)
		}
	}

	var timeout time.Duration
	if raw := os.Getenv("NMI_TIMEOUT"); raw != "" {
		if timeout, err = time.ParseDuration(raw); err != nil {
			return Config{}, fmt.Errorf("nmi_direct_post: parse NMI_TIMEOUT: %w", err)
		}
	}

	env := EnvProduction
	if os.Getenv("NMI_ENV") == "sandbox" {
		env = EnvSandbox
	}

	return Config{
		Credentials: Credentials{
			Username:            os.Getenv("NMI_USERNAME"),
			Password:            os.Getenv("NMI_PASSWORD"),
			SecurityKey:         os.Getenv("NMI_SECURITY_KEY"),
			UseUsernamePassword: envBool("NMI_USE_USERNAME_PASSWORD"),
		},
		TransactMode:             mode,
		AllowCustomerToSaveCards: envBool("NMI_ALLOW_SAVE_CARDS"),
		UseNameOnCardField:       envBool("NMI_USE_NAME_ON_CARD"),
		CollectJsTokenizationKey: os.Getenv("NMI_COLLECTJS_KEY"),
		AdditionalFee:            fee,
		AdditionalFeePercentage:  envBool("NMI_ADDITIONAL_FEE_PERCENTAGE"),
		Env:                      env,
		TransactURL:              os.Getenv("NMI_TRANSACT_URL"),
		QueryURL:                 os.Getenv("NMI_QUERY_URL"),
		Timeout:                  timeout,
		GatewayCAFile:            os.Getenv("NMI_GATEWAY_CA_FILE"),
		ClientP12Path:            os.Getenv("NMI_CLIENT_P12_PATH"),
		ClientP12Password:        os.Getenv("NMI_CLIENT_P12_PASSWORD"),
	}, nil
}

func envBool(key string) bool {
	v, _ := strconv.ParseBool(os.Getenv(key))
	return v
}
