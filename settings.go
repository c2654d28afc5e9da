package nmi_direct_post

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// SettingsFile is a store-scoped settings document. The default section
// applies to every store; a store section overrides only the keys it sets.
//
//	default:
//	  security_key: abc
//	  transact_mode: authorize_and_capture
//	stores:
//	  "2":
//	    transact_mode: authorize
type SettingsFile struct {
	Default storeSettings            `yaml:"default"`
	Stores  map[string]storeSettings `yaml:"stores"`
}

type storeSettings struct {
	Username                 *string `yaml:"username"`
	Password                 *string `yaml:"password"`
	SecurityKey              *string `yaml:"security_key"`
	UseUsernamePassword      *bool   `yaml:"use_username_password"`
	TransactMode             *string `yaml:"transact_mode"`
	AllowCustomerToSaveCards *bool   `yaml:"allow_customer_to_save_cards"`
	UseNameOnCardField       *bool   `yaml:"use_name_on_card_field"`
	CollectJsTokenizationKey *string `yaml:"collectjs_tokenization_key"`
	AdditionalFee            *string `yaml:"additional_fee"`
	AdditionalFeePercentage  *bool   `yaml:"additional_fee_percentage"`
	Env                      *string `yaml:"env"`
	TransactURL              *string `yaml:"transact_url"`
	QueryURL                 *string `yaml:"query_url"`
	GatewayCAFile            *string `yaml:"gateway_ca_file"`
	ClientP12Path            *string `yaml:"client_p12_path"`
	ClientP12Password        *string `yaml:"client_p12_password"`
}

// LoadSettingsFile reads a YAML settings file.
func LoadSettingsFile(path string) (*SettingsFile, error) {
	data, err := os.ReadFile(expandHome(path))
	if err != nil {
		return nil, fmt.Errorf("nmi_direct_post: read settings %s: %w", path, err)
	}
	return ParseSettings(data)
}

// ParseSettings decodes a YAML settings document.
func ParseSettings(data []byte) (*SettingsFile, error) {
	var f SettingsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("nmi_direct_post: parse settings: %w", err)
	}
	return &f, nil
}

// ForStore returns the Config of a store: defaults first, then the store's
// overrides. An unknown store gets the defaults.
func (f *SettingsFile) ForStore(storeID string) (Config, error) {
	cfg := Config{TransactMode: TransactModeAuthorizeAndCapture, Env: EnvProduction}
	if err := f.Default.apply(&cfg); err != nil {
		return Config{}, err
	}
	if s, ok := f.Stores[storeID]; ok {
		if err := s.apply(&cfg); err != nil {
			return Config{}, fmt.Errorf("store %s: %w", storeID, err)
		}
	}
	return cfg, nil
}

func (s storeSettings) apply(cfg *Config) error {
	setString(&cfg.Credentials.Username, s.Username)
	setString(&cfg.Credentials.Password, s.Password)
	setString(&cfg.Credentials.SecurityKey, s.SecurityKey)
	setBool(&cfg.Credentials.UseUsernamePassword, s.UseUsernamePassword)
	setBool(&cfg.AllowCustomerToSaveCards, s.AllowCustomerToSaveCards)
	setBool(&cfg.UseNameOnCardField, s.UseNameOnCardField)
	setString(&cfg.CollectJsTokenizationKey, s.CollectJsTokenizationKey)
	setBool(&cfg.AdditionalFeePercentage, s.AdditionalFeePercentage)
	setString(&cfg.TransactURL, s.TransactURL)
	setString(&cfg.QueryURL, s.QueryURL)
	setString(&cfg.GatewayCAFile, s.GatewayCAFile)
	setString(&cfg.ClientP12Path, s.ClientP12Path)
	setString(&cfg.ClientP12Password, s.ClientP12Password)

	if s.TransactMode != nil {
		mode, err := ParseTransactMode(*s.TransactMode)
		if err != nil {
			return err
		}
		cfg.TransactMode = mode
	}
	if s.AdditionalFee != nil {
		fee, err := decimal.NewFromString(*s.AdditionalFee)
		if err != nil {
			return fmt.Errorf("nmi_direct_post: parse additional_fee: %w", err)
		}
		cfg.AdditionalFee = fee
	}
	if s.Env != nil {
		cfg.Env = Environment(*s.Env)
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
