package config

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	BaseURL     string `env:"BASE_URL"`
	DatabaseURL string `env:"DATABASE_URL"`
	Redis       Redis  `envPrefix:"REDIS_"`
	Auth        Auth   `envPrefix:"AUTH_"`

	VNPay VNPay `envPrefix:"VNP_"`
	PayOS PayOS `envPrefix:"PAYOS_"`

	Settlement Settlement `envPrefix:"SETTLEMENT_"`
}

type VNPay struct {
	TmnCode    string `env:"TMNCODE"`
	HashSecret string `env:"HASHSECRET"`
	URL        string `env:"URL"`
	ReturnURL  string `env:"RETURNURL"`
}

type PayOS struct {
	ClientID    string `env:"CLIENT_ID"`
	APIKey      string `env:"API_KEY"`
	ChecksumKey string `env:"CHECKSUM_KEY"`
}

// Settlement holds the order state-machine policy.
//
// FailureCancelsOrder decides what a failed payment confirmation does to the
// fulfillment status: true moves the order to Cancelled, false leaves it
// Pending with only the payment status flipped to Failed.
type Settlement struct {
	FailureCancelsOrder bool `env:"FAILURE_CANCELS_ORDER" envDefault:"false"`
}

type Auth struct {
	AccessTokenSecret string `env:"ACCESS_TOKEN_SECRET"`
}

type Redis struct {
	Addr     string `env:"ADDR" envDefault:"localhost:6379"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}
