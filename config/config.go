package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/risk"
)

// EnvPrefix prefixes environment overrides, e.g. BACKTESTER_WALLET_CASH.
const EnvPrefix = "BACKTESTER"

// Config is the complete run configuration.
type Config struct {
	Settings      Settings       `mapstructure:"settings" yaml:"settings" json:"settings"`
	Wallet        WalletConfig   `mapstructure:"wallet" yaml:"wallet" json:"wallet"`
	TradingLimits LimitsConfig   `mapstructure:"trading_limits" yaml:"trading_limits" json:"trading_limits"`
	StartDate     string         `mapstructure:"start_date" yaml:"start_date,omitempty" json:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Strategy      string         `mapstructure:"strategy" yaml:"strategy" json:"strategy" validate:"required"`
	Contract      ContractConfig `mapstructure:"contract" yaml:"contract" json:"contract"`
	Data          DataConfig     `mapstructure:"data" yaml:"data" json:"data"`
	Stop          StopConfig     `mapstructure:"stop" yaml:"stop" json:"stop"`
	Journal       JournalConfig  `mapstructure:"journal" yaml:"journal" json:"journal"`
	Logger        LoggerConfig   `mapstructure:"logger" yaml:"logger" json:"logger"`
}

type WalletConfig struct {
	Cash            float64 `mapstructure:"cash" yaml:"cash" json:"cash" validate:"gt=0"`
	WalletAllocPct  float64 `mapstructure:"wallet_alloc_pct" yaml:"wallet_alloc_pct" json:"wallet_alloc_pct" validate:"gt=0,lte=1"`
	BorrowMarginPct float64 `mapstructure:"borrow_margin_pct" yaml:"borrow_margin_pct" json:"borrow_margin_pct" validate:"gt=0,lte=1"`
}

type LimitsConfig struct {
	DollarLimit    float64 `mapstructure:"dollar_limit" yaml:"dollar_limit" json:"dollar_limit" validate:"gte=0"`
	PositionLimit  int64   `mapstructure:"position_limit" yaml:"position_limit" json:"position_limit" validate:"gte=0"`
	LeverageTarget float64 `mapstructure:"leverage_target" yaml:"leverage_target" json:"leverage_target" validate:"gte=0"`
}

// ContractConfig names a built-in instrument by symbol, or defines one.
// Fields set here override the built-in values.
type ContractConfig struct {
	Symbol    string  `mapstructure:"symbol" yaml:"symbol" json:"symbol" validate:"required"`
	SecType   string  `mapstructure:"sec_type" yaml:"sec_type,omitempty" json:"sec_type,omitempty" validate:"omitempty,oneof=EQUITY ETF FUTURE equity etf future"`
	TickSize  float64 `mapstructure:"tick_size" yaml:"tick_size,omitempty" json:"tick_size,omitempty" validate:"gte=0"`
	TickValue float64 `mapstructure:"tick_value" yaml:"tick_value,omitempty" json:"tick_value,omitempty" validate:"gte=0"`
	MarginReq float64 `mapstructure:"margin_req" yaml:"margin_req,omitempty" json:"margin_req,omitempty" validate:"gte=0"`
}

// DataConfig selects the bar source. Source "csv" reads Path; "yahoo"
// downloads From..To. Reference is an optional second symbol (or CSV with
// ReferencePath) served to strategies by date.
type DataConfig struct {
	Source        string        `mapstructure:"source" yaml:"source" json:"source" validate:"oneof=csv yahoo"`
	Path          string        `mapstructure:"path" yaml:"path,omitempty" json:"path,omitempty" validate:"required_if=Source csv"`
	From          string        `mapstructure:"from" yaml:"from,omitempty" json:"from,omitempty" validate:"omitempty,datetime=2006-01-02"`
	To            string        `mapstructure:"to" yaml:"to,omitempty" json:"to,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Reference     string        `mapstructure:"reference" yaml:"reference,omitempty" json:"reference,omitempty"`
	ReferencePath string        `mapstructure:"reference_path" yaml:"reference_path,omitempty" json:"reference_path,omitempty"`
	YahooURL      string        `mapstructure:"yahoo_url" yaml:"yahoo_url,omitempty" json:"yahoo_url,omitempty" validate:"omitempty,url"`
	Timeout       time.Duration `mapstructure:"timeout" yaml:"timeout,omitempty" json:"timeout,omitempty"`
	RatePerMinute int           `mapstructure:"rate_per_minute" yaml:"rate_per_minute,omitempty" json:"rate_per_minute,omitempty" validate:"gte=0"`
	HolidaysPath  string        `mapstructure:"holidays_path" yaml:"holidays_path,omitempty" json:"holidays_path,omitempty"`
}

type StopConfig struct {
	Multiplier  float64 `mapstructure:"multiplier" yaml:"multiplier" json:"multiplier" validate:"gt=0"`
	FallbackPct float64 `mapstructure:"fallback_pct" yaml:"fallback_pct" json:"fallback_pct" validate:"gt=0,lt=1"`
}

// JournalConfig selects where results are written. Formats is any of
// STDOUT, CSV, JSON, HTML, ORG, SQLITE.
type JournalConfig struct {
	Formats []string `mapstructure:"formats" yaml:"formats" json:"formats" validate:"dive,oneof=STDOUT CSV JSON HTML ORG SQLITE stdout csv json html org sqlite"`
	Dir     string   `mapstructure:"dir" yaml:"dir" json:"dir"`
	DBPath  string   `mapstructure:"db_path" yaml:"db_path,omitempty" json:"db_path,omitempty"`
}

type LoggerConfig struct {
	Level    string `mapstructure:"level" yaml:"level" json:"level" validate:"oneof=debug info warn error"`
	Encoding string `mapstructure:"encoding" yaml:"encoding" json:"encoding" validate:"oneof=console json"`
}

// Default returns the configuration the sample runs start from.
func Default() *Config {
	return &Config{
		Settings: Settings{
			"StDev":    50,
			"duration": 10,
		},
		Wallet: WalletConfig{
			Cash:            10000,
			WalletAllocPct:  1,
			BorrowMarginPct: 1,
		},
		TradingLimits: LimitsConfig{
			DollarLimit:   100000000,
			PositionLimit: 100000,
		},
		Strategy: "anchor",
		Contract: ContractConfig{Symbol: "SPY"},
		Data: DataConfig{
			Source:        "csv",
			Path:          "./SPY.csv",
			Timeout:       30 * time.Second,
			RatePerMinute: market.DefaultYahooRequestsPerMinute,
		},
		Stop: StopConfig{
			Multiplier:  risk.DefaultStopMultiplier,
			FallbackPct: risk.DefaultStopFallbackPct,
		},
		Journal: JournalConfig{
			Formats: []string{"STDOUT"},
			Dir:     ".",
		},
		Logger: LoggerConfig{
			Level:    "info",
			Encoding: "console",
		},
	}
}

// setDefaults registers every default with v so env overrides and
// partial files merge over them.
func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("settings", map[string]any(d.Settings))
	v.SetDefault("wallet.cash", d.Wallet.Cash)
	v.SetDefault("wallet.wallet_alloc_pct", d.Wallet.WalletAllocPct)
	v.SetDefault("wallet.borrow_margin_pct", d.Wallet.BorrowMarginPct)
	v.SetDefault("trading_limits.dollar_limit", d.TradingLimits.DollarLimit)
	v.SetDefault("trading_limits.position_limit", d.TradingLimits.PositionLimit)
	v.SetDefault("strategy", d.Strategy)
	v.SetDefault("contract.symbol", d.Contract.Symbol)
	v.SetDefault("data.source", d.Data.Source)
	v.SetDefault("data.timeout", d.Data.Timeout)
	v.SetDefault("data.rate_per_minute", d.Data.RatePerMinute)
	v.SetDefault("stop.multiplier", d.Stop.Multiplier)
	v.SetDefault("stop.fallback_pct", d.Stop.FallbackPct)
	v.SetDefault("journal.formats", d.Journal.Formats)
	v.SetDefault("journal.dir", d.Journal.Dir)
	v.SetDefault("logger.level", d.Logger.Level)
	v.SetDefault("logger.encoding", d.Logger.Encoding)
}

// LoadFromFile reads a YAML or JSON file (by extension) over the defaults,
// applies BACKTESTER_* environment overrides and validates the result.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	return decode(v)
}

// Parse reads a YAML document from memory. Used by tests and the
// embedded examples.
func Parse(data []byte) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Settings == nil {
		cfg.Settings = Settings{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile writes the configuration as YAML or JSON by extension.
func (c *Config) SaveToFile(path string) error {
	var (
		data []byte
		err  error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

var validate = validator.New()

// Validate runs the struct tag rules and the checks that span fields.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}

	contract, err := c.ContractSpec()
	if err != nil {
		return err
	}
	if err := contract.Validate(); err != nil {
		return err
	}

	if c.Data.Source == "yahoo" && c.Data.From == "" {
		return fmt.Errorf("data.from is required for the yahoo source")
	}
	from, _ := c.parseDate(c.Data.From)
	to, _ := c.parseDate(c.Data.To)
	if !from.IsZero() && !to.IsZero() && !from.Before(to) {
		return fmt.Errorf("data.from must be before data.to")
	}

	for _, f := range c.Journal.Formats {
		if strings.EqualFold(f, "SQLITE") && c.Journal.DBPath == "" {
			return fmt.Errorf("journal.db_path is required for the SQLITE format")
		}
	}
	return nil
}

// ContractSpec resolves the contract section against the built-in
// instruments.
func (c *Config) ContractSpec() (market.ContractSpec, error) {
	spec, ok := market.Lookup(c.Contract.Symbol)
	if !ok {
		spec = market.ContractSpec{Symbol: strings.ToUpper(c.Contract.Symbol)}
	}
	if c.Contract.SecType != "" {
		k, err := market.ParseKind(c.Contract.SecType)
		if err != nil {
			return market.ContractSpec{}, err
		}
		spec.Kind = k
	}
	if c.Contract.TickSize > 0 {
		spec.TickSize = c.Contract.TickSize
	}
	if c.Contract.TickValue > 0 {
		spec.TickValue = c.Contract.TickValue
	}
	if c.Contract.MarginReq > 0 {
		spec.MarginReq = c.Contract.MarginReq
	}
	if spec.Kind == market.Future {
		spec.LeverageTarget = c.TradingLimits.LeverageTarget
	}
	if !ok && spec.Kind == "" {
		return market.ContractSpec{}, fmt.Errorf("%w: unknown symbol %q needs sec_type, tick_size and tick_value",
			market.ErrInvalidContract, c.Contract.Symbol)
	}
	return spec, nil
}

// Account is the starting wallet.
func (c *Config) Account() risk.Account {
	return risk.Account{
		Wallet:          c.Wallet.Cash,
		AllocPct:        c.Wallet.WalletAllocPct,
		BorrowMarginPct: c.Wallet.BorrowMarginPct,
	}
}

func (c *Config) Limits() risk.Limits {
	return risk.Limits{
		PositionLimit:  c.TradingLimits.PositionLimit,
		DollarLimit:    c.TradingLimits.DollarLimit,
		LeverageTarget: c.TradingLimits.LeverageTarget,
	}
}

// Start is the parsed start_date, zero if unset.
func (c *Config) Start() time.Time {
	t, _ := c.parseDate(c.StartDate)
	return t
}

// DataRange is the parsed data.from/data.to, zero where unset.
func (c *Config) DataRange() (from, to time.Time) {
	from, _ = c.parseDate(c.Data.From)
	to, _ = c.parseDate(c.Data.To)
	return from, to
}

func (c *Config) parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return market.ParseDate(s)
}
