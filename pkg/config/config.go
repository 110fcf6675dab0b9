package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "STOREFRONT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv       = "STOREFRONT_APP_ENV"
	EnvPort         = "STOREFRONT_APP_PORT"
	EnvLogLevel     = "STOREFRONT_LOG_LEVEL"
	EnvStoreName    = "STOREFRONT_STORE_NAME"
	EnvCatalogURL   = "STOREFRONT_CATALOG_URL"
	EnvCartDriver   = "STOREFRONT_CART_DRIVER"
	EnvCartKey      = "STOREFRONT_CART_STORAGE_KEY"
	EnvDBDSN        = "STOREFRONT_DB_DSN"
	EnvRedisURL     = "STOREFRONT_REDIS_URL"
	EnvAutoMigrate  = "STOREFRONT_AUTO_MIGRATE"
	EnvInvoiceCompr = "STOREFRONT_INVOICE_COMPRESS"

	DefaultCatalogURL = "https://raw.githubusercontent.com/JUANCITOPENA/Pagina_Vehiculos_Ventas/refs/heads/main/vehiculos.json"
)

// Cart state backends accepted by STOREFRONT_CART_DRIVER.
const (
	CartDriverMemory   = "memory"
	CartDriverRedis    = "redis"
	CartDriverSQLite   = "sqlite"
	CartDriverPostgres = "postgres"
)

type Config struct {
	App     AppConfig
	Store   StoreConfig
	Catalog CatalogConfig
	Cart    CartConfig
	DB      DBConfig
	Redis   RedisConfig
	Invoice InvoiceConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Cart.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Store.validate(); err != nil {
		return nil, err
	}
	if err := cfg.ensureBackend(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"STOREFRONT_CORS_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// StoreConfig describes the storefront identity printed on invoices and used
// for price formatting.
type StoreConfig struct {
	Name           string `envconfig:"STOREFRONT_STORE_NAME" default:"Almonte Autoimport"`
	LegalName      string `envconfig:"STOREFRONT_STORE_LEGAL_NAME" default:"Almonte Autoimport S.A."`
	Locale         string `envconfig:"STOREFRONT_STORE_LOCALE" default:"es"`
	CurrencySymbol string `envconfig:"STOREFRONT_CURRENCY_SYMBOL" default:"$"`
}

// The store name is printed on every invoice and in its filename.
func (s StoreConfig) validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%s must not be blank", EnvStoreName)
	}
	return nil
}

type CatalogConfig struct {
	URL string `envconfig:"STOREFRONT_CATALOG_URL" default:"https://raw.githubusercontent.com/JUANCITOPENA/Pagina_Vehiculos_Ventas/refs/heads/main/vehiculos.json"`
}

type CartConfig struct {
	Driver     string `envconfig:"STOREFRONT_CART_DRIVER" default:"sqlite"`
	StorageKey string `envconfig:"STOREFRONT_CART_STORAGE_KEY" default:"storefront_cart"`
}

// NormalizedDriver returns the lower-cased driver name.
func (c CartConfig) NormalizedDriver() string {
	return strings.ToLower(strings.TrimSpace(c.Driver))
}

func (c CartConfig) validate() error {
	switch c.NormalizedDriver() {
	case CartDriverMemory, CartDriverRedis, CartDriverSQLite, CartDriverPostgres:
	default:
		return fmt.Errorf("unsupported %s %q", EnvCartDriver, c.Driver)
	}
	if strings.TrimSpace(c.StorageKey) == "" {
		return fmt.Errorf("%s must not be blank", EnvCartKey)
	}
	return nil
}

type DBConfig struct {
	DSN         string `envconfig:"STOREFRONT_DB_DSN" default:"file:storefront.db?cache=shared"`
	AutoMigrate bool   `envconfig:"STOREFRONT_AUTO_MIGRATE" default:"true"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	// Driver is derived from the cart driver; it is not read from the environment.
	Driver string `ignored:"true"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type InvoiceConfig struct {
	Compress bool `envconfig:"STOREFRONT_INVOICE_COMPRESS" default:"true"`
}

func (c *Config) ensureBackend() error {
	switch c.Cart.NormalizedDriver() {
	case CartDriverRedis:
		if c.Redis.URL == "" && c.Redis.Address == "" {
			return fmt.Errorf("%s is required when %s=%s", EnvRedisURL, EnvCartDriver, CartDriverRedis)
		}
	case CartDriverSQLite, CartDriverPostgres:
		if strings.TrimSpace(c.DB.DSN) == "" {
			return fmt.Errorf("%s is required when %s=%s", EnvDBDSN, EnvCartDriver, c.Cart.Driver)
		}
		c.DB.Driver = c.Cart.NormalizedDriver()
	}
	return nil
}
