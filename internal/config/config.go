package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the food court system
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	SMTP     SMTPConfig     `yaml:"smtp"`
	Payments PaymentsConfig `yaml:"payments"`
	Rates    RatesConfig    `yaml:"rates"`
	Session  SessionConfig  `yaml:"session"`
	Catalog  CatalogConfig  `yaml:"catalog"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// RabbitMQConfig holds RabbitMQ connection configuration
type RabbitMQConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// SMTPConfig holds outbound mail configuration. Credentials are normally
// supplied through the environment, not the YAML file.
type SMTPConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	Sender     string `yaml:"sender"`
	Password   string `yaml:"password"`
	OwnerEmail string `yaml:"owner_email"`
}

// PaymentsConfig holds payment channel configuration
type PaymentsConfig struct {
	UPIEnabled   bool   `yaml:"upi_enabled"`
	UPIPayeeID   string `yaml:"upi_payee_id"`
	UPIPayeeName string `yaml:"upi_payee_name"`
	GatewayURL   string `yaml:"gateway_url"`
	GatewayKey   string `yaml:"gateway_key"`
}

// RatesConfig holds the billing rates applied to every new order
type RatesConfig struct {
	TaxRatePercent       float64 `yaml:"tax_rate_percent"`
	DeliveryRatePercent  float64 `yaml:"delivery_rate_percent"`
	DiscountAbsolute     float64 `yaml:"discount_absolute"`
	SurchargeRatePercent float64 `yaml:"surcharge_rate_percent"`
}

// SessionConfig holds session expiry thresholds
type SessionConfig struct {
	IdleTimeoutSeconds     int    `yaml:"idle_timeout_seconds"`
	FinalizedLingerSeconds int    `yaml:"finalized_linger_seconds"`
	Timezone               string `yaml:"timezone"`
}

// CatalogConfig holds the menu source location
type CatalogConfig struct {
	MenuFile   string `yaml:"menu_file"`
	OrdersFile string `yaml:"orders_file"`
}

// Load reads configuration from a YAML file, then applies environment
// overrides (a .env file is honored when present).
func Load(filename string) (*Config, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	config := defaults()
	scanner := bufio.NewScanner(file)

	var currentSection string

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip comments and empty lines
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Check for section headers
		if strings.HasSuffix(line, ":") && !strings.Contains(line, " ") {
			currentSection = strings.TrimSuffix(line, ":")
			continue
		}

		// Parse key-value pairs
		if strings.Contains(line, ":") {
			parts := strings.SplitN(line, ":", 2)
			if len(parts) != 2 {
				continue
			}

			key := strings.TrimSpace(parts[0])
			value := strings.Trim(strings.TrimSpace(parts[1]), `"'`)

			if err := config.setValue(currentSection, key, value); err != nil {
				return nil, fmt.Errorf("failed to set config value %s.%s: %w", currentSection, key, err)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config.applyEnv()

	return config, nil
}

func defaults() *Config {
	return &Config{
		Payments: PaymentsConfig{UPIEnabled: true},
		Session: SessionConfig{
			IdleTimeoutSeconds:     900,
			FinalizedLingerSeconds: 60,
			Timezone:               "Asia/Kolkata",
		},
		Catalog: CatalogConfig{
			MenuFile:   "menu.csv",
			OrdersFile: "orders.csv",
		},
	}
}

// applyEnv overrides secrets from the process environment so credentials
// never have to live in the YAML file.
func (c *Config) applyEnv() {
	_ = godotenv.Load()

	if v := os.Getenv("SENDER_EMAIL"); v != "" {
		c.SMTP.Sender = v
	}
	if v := os.Getenv("SENDER_PASSWORD"); v != "" {
		c.SMTP.Password = v
	}
	if v := os.Getenv("OWNER_EMAIL"); v != "" {
		c.SMTP.OwnerEmail = v
	}
	if v := os.Getenv("GATEWAY_KEY"); v != "" {
		c.Payments.GatewayKey = v
	}
}

// setValue sets a configuration value based on section and key
func (c *Config) setValue(section, key, value string) error {
	switch section {
	case "database":
		return c.setDatabaseValue(key, value)
	case "rabbitmq":
		return c.setRabbitMQValue(key, value)
	case "smtp":
		return c.setSMTPValue(key, value)
	case "payments":
		return c.setPaymentsValue(key, value)
	case "rates":
		return c.setRatesValue(key, value)
	case "session":
		return c.setSessionValue(key, value)
	case "catalog":
		return c.setCatalogValue(key, value)
	default:
		return fmt.Errorf("unknown section: %s", section)
	}
}

// setDatabaseValue sets database configuration values
func (c *Config) setDatabaseValue(key, value string) error {
	switch key {
	case "host":
		c.Database.Host = value
	case "port":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid port value: %w", err)
		}
		c.Database.Port = port
	case "user":
		c.Database.User = value
	case "password":
		c.Database.Password = value
	case "database":
		c.Database.Database = value
	default:
		return fmt.Errorf("unknown database key: %s", key)
	}
	return nil
}

// setRabbitMQValue sets RabbitMQ configuration values
func (c *Config) setRabbitMQValue(key, value string) error {
	switch key {
	case "host":
		c.RabbitMQ.Host = value
	case "port":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid port value: %w", err)
		}
		c.RabbitMQ.Port = port
	case "user":
		c.RabbitMQ.User = value
	case "password":
		c.RabbitMQ.Password = value
	default:
		return fmt.Errorf("unknown rabbitmq key: %s", key)
	}
	return nil
}

// setSMTPValue sets mail configuration values
func (c *Config) setSMTPValue(key, value string) error {
	switch key {
	case "host":
		c.SMTP.Host = value
	case "port":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid port value: %w", err)
		}
		c.SMTP.Port = port
	case "sender":
		c.SMTP.Sender = value
	case "password":
		c.SMTP.Password = value
	case "owner_email":
		c.SMTP.OwnerEmail = value
	default:
		return fmt.Errorf("unknown smtp key: %s", key)
	}
	return nil
}

// setPaymentsValue sets payment channel configuration values
func (c *Config) setPaymentsValue(key, value string) error {
	switch key {
	case "upi_enabled":
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid upi_enabled value: %w", err)
		}
		c.Payments.UPIEnabled = enabled
	case "upi_payee_id":
		c.Payments.UPIPayeeID = value
	case "upi_payee_name":
		c.Payments.UPIPayeeName = value
	case "gateway_url":
		c.Payments.GatewayURL = value
	case "gateway_key":
		c.Payments.GatewayKey = value
	default:
		return fmt.Errorf("unknown payments key: %s", key)
	}
	return nil
}

// setRatesValue sets billing rate configuration values
func (c *Config) setRatesValue(key, value string) error {
	rate, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid rate value: %w", err)
	}
	if rate < 0 {
		return fmt.Errorf("rate %s must not be negative", key)
	}

	switch key {
	case "tax_rate_percent":
		c.Rates.TaxRatePercent = rate
	case "delivery_rate_percent":
		c.Rates.DeliveryRatePercent = rate
	case "discount_absolute":
		c.Rates.DiscountAbsolute = rate
	case "surcharge_rate_percent":
		c.Rates.SurchargeRatePercent = rate
	default:
		return fmt.Errorf("unknown rates key: %s", key)
	}
	return nil
}

// setSessionValue sets session expiry configuration values
func (c *Config) setSessionValue(key, value string) error {
	switch key {
	case "idle_timeout_seconds":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid idle_timeout_seconds value: %w", err)
		}
		c.Session.IdleTimeoutSeconds = n
	case "finalized_linger_seconds":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid finalized_linger_seconds value: %w", err)
		}
		c.Session.FinalizedLingerSeconds = n
	case "timezone":
		c.Session.Timezone = value
	default:
		return fmt.Errorf("unknown session key: %s", key)
	}
	return nil
}

// setCatalogValue sets catalog source configuration values
func (c *Config) setCatalogValue(key, value string) error {
	switch key {
	case "menu_file":
		c.Catalog.MenuFile = value
	case "orders_file":
		c.Catalog.OrdersFile = value
	default:
		return fmt.Errorf("unknown catalog key: %s", key)
	}
	return nil
}

// DatabaseURL returns a PostgreSQL connection URL
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.Database.User, c.Database.Password, c.Database.Host, c.Database.Port, c.Database.Database)
}

// RabbitMQURL returns an AMQP connection URL
func (c *Config) RabbitMQURL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/",
		c.RabbitMQ.User, c.RabbitMQ.Password, c.RabbitMQ.Host, c.RabbitMQ.Port)
}
