package config

import "fmt"

type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Backend       BackendConfig           `mapstructure:"backend"`
	Wizard        WizardConfig            `mapstructure:"wizard"`
	Tenants       TenantsConfig           `mapstructure:"tenants"`
	Session       SessionConfig           `mapstructure:"session"`
	HTTP          HTTPConfig              `mapstructure:"http"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Integrations  IntegrationConfig       `mapstructure:"integrations"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
	Tracing       TracingConfig           `mapstructure:"tracing"`
	Logging       LoggingConfig           `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// IsDevelopment reports whether the process runs outside production.
func (a AppConfig) IsDevelopment() bool {
	return a.Environment == "" || a.Environment == "development" || a.Environment == "local"
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
	// ConnMaxLifetime bounds how long a pooled connection is reused, in minutes.
	ConnMaxLifetime int `mapstructure:"conn_max_lifetime"`
}

func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// GetURL is the DSN in URL form, as expected by the migration driver.
func (p PostgresConfig) GetURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address      string `mapstructure:"address"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
}

// BackendConfig points at the document and signing backend.
type BackendConfig struct {
	BaseURL       string `mapstructure:"base_url"`
	FunctionCode  string `mapstructure:"function_code"`
	Timeout       int    `mapstructure:"timeout"`        // milliseconds
	UploadTimeout int    `mapstructure:"upload_timeout"` // milliseconds
}

type WizardConfig struct {
	Debounce       int    `mapstructure:"debounce"`  // milliseconds
	DraftTTL       int    `mapstructure:"draft_ttl"` // hours
	DraftKeyPrefix string `mapstructure:"draft_key_prefix"`
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes"`
	IdleTimeout    int    `mapstructure:"idle_timeout"` // minutes
}

type TenantsConfig struct {
	Configured    string                  `mapstructure:"configured"`
	AllowOverride bool                    `mapstructure:"allow_override"`
	Registry      map[string]TenantConfig `mapstructure:"registry"`
}

type TenantConfig struct {
	TemplateID    string              `mapstructure:"template_id"`
	PublicBaseURL string              `mapstructure:"public_base_url"`
	Authorization AuthorizationConfig `mapstructure:"authorization"`
}

type AuthorizationConfig struct {
	Organisatie    string `mapstructure:"organisatie"`
	KvkNummer      string `mapstructure:"kvk_nummer"`
	Contactpersoon string `mapstructure:"contactpersoon"`
	Email          string `mapstructure:"email"`
	Telefoon       string `mapstructure:"telefoon"`
}

type SessionConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
	TTL       int    `mapstructure:"ttl"` // minutes
}

type HTTPConfig struct {
	Address         string   `mapstructure:"address"`
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	ReadTimeout     int      `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int      `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int      `mapstructure:"shutdown_timeout"` // milliseconds
	HealthAddress   string   `mapstructure:"health_address"`
}

type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

type IntegrationConfig struct {
	Zoho struct {
		BaseURL   string `mapstructure:"base_url"`
		APIKey    string `mapstructure:"api_key"`
		AuthToken string `mapstructure:"oauth_token"`
	} `mapstructure:"zoho"`

	AWS struct {
		Region string `mapstructure:"region"`
		SES    struct {
			Enabled   bool   `mapstructure:"enabled"`
			FromEmail string `mapstructure:"from_email"`
		} `mapstructure:"ses"`
		SNS struct {
			Enabled            bool   `mapstructure:"enabled"`
			TopicARN           string `mapstructure:"topic_arn"`
			DefaultSMSSenderID string `mapstructure:"default_sms_sender_id"`
		} `mapstructure:"sns"`
	} `mapstructure:"aws"`

	SMTP struct {
		Host        string `mapstructure:"host"`
		Port        int    `mapstructure:"port"`
		Username    string `mapstructure:"username"`
		Password    string `mapstructure:"password"`
		UseTLS      bool   `mapstructure:"use_tls"`
		DefaultFrom string `mapstructure:"default_from"`
	} `mapstructure:"smtp"`
}

type NotificationConfig struct {
	Email struct {
		Enabled      bool   `mapstructure:"enabled"`
		FromEmail    string `mapstructure:"from_email"`
		StaffAddress string `mapstructure:"staff_address"`
	} `mapstructure:"email"`
	SMS struct {
		Enabled    bool   `mapstructure:"enabled"`
		StaffPhone string `mapstructure:"staff_phone"`
	} `mapstructure:"sms"`
}

type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
