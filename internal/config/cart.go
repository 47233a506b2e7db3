package config

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// CartConfig tunes the runtime cart behaviour. It is hot-reloaded from cart.yml.
type CartConfig struct {
	DefaultInstance string `mapstructure:"defaultInstance"`
	DefaultCurrency string `mapstructure:"defaultCurrency"`
	MaxLineItems    int    `mapstructure:"maxLineItems"`
}

func DefaultCartConfig() CartConfig {
	return CartConfig{
		DefaultInstance: "default",
		DefaultCurrency: "USD",
		MaxLineItems:    100,
	}
}

type CartConfigHolder struct {
	current atomic.Value // holds CartConfig
}

// NewStaticCartConfigHolder returns a holder that never reloads.
func NewStaticCartConfigHolder(cfg CartConfig) *CartConfigHolder {
	holder := &CartConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewCartConfigHolder(cfg Config, log *zap.Logger) (*CartConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("cart")
	v.SetConfigType("yml")
	for _, path := range cfg.CartConfigPaths {
		v.AddConfigPath(path)
	}

	v.SetEnvPrefix("CARTSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultCartConfig()
	v.SetDefault("cart.defaultInstance", defaults.DefaultInstance)
	v.SetDefault("cart.defaultCurrency", defaults.DefaultCurrency)
	v.SetDefault("cart.maxLineItems", defaults.MaxLineItems)

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileFound = false
	}

	var current CartConfig
	if err := v.UnmarshalKey("cart", &current); err != nil {
		return nil, err
	}
	if err := validateCartConfig(current); err != nil {
		return nil, err
	}

	holder := NewStaticCartConfigHolder(current)
	if !fileFound {
		return holder, nil
	}

	log = log.Named("config.cart")
	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated CartConfig
		if err := v.UnmarshalKey("cart", &updated); err != nil {
			log.Warn("cart config reload failed", zap.Error(err))
			return
		}
		if err := validateCartConfig(updated); err != nil {
			log.Warn("invalid cart config ignored", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("cart config reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

func (h *CartConfigHolder) Get() CartConfig {
	if h == nil {
		return DefaultCartConfig()
	}
	cfg, ok := h.current.Load().(CartConfig)
	if !ok {
		return DefaultCartConfig()
	}
	return cfg
}

func validateCartConfig(cfg CartConfig) error {
	if strings.TrimSpace(cfg.DefaultInstance) == "" {
		return errors.New("cart.defaultInstance cannot be empty")
	}
	if len(strings.TrimSpace(cfg.DefaultCurrency)) != 3 {
		return errors.New("cart.defaultCurrency must be an ISO 4217 code")
	}
	if cfg.MaxLineItems <= 0 {
		return errors.New("cart.maxLineItems must be positive")
	}
	return nil
}
