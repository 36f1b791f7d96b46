package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Address     string   `yaml:"address"`
		CORSOrigins []string `yaml:"cors_origins"`
	} `yaml:"server"`
	Database struct {
		Driver string `yaml:"driver"`
		URL    string `yaml:"url"`
	} `yaml:"database"`
	Log struct {
		Mode string `yaml:"mode"`
	} `yaml:"log"`
	Auth struct {
		JWTSecret      string        `yaml:"jwt_secret"`
		AccessTokenTTL time.Duration `yaml:"access_token_ttl"`
		PhoneTokenTTL  time.Duration `yaml:"phone_token_ttl"`
		OtpTTL         time.Duration `yaml:"otp_ttl"`
		OtpCooldown    time.Duration `yaml:"otp_cooldown"`
		OtpMaxAttempts int           `yaml:"otp_max_attempts"`
		ConsentVersion string        `yaml:"consent_version"`
		SignupTickets  int           `yaml:"signup_tickets"`
	} `yaml:"auth"`
	Redis struct {
		URL        string        `yaml:"url"`
		MetricsTTL time.Duration `yaml:"metrics_ttl"`
	} `yaml:"redis"`
	S3 struct {
		Bucket          string `yaml:"bucket"`
		Region          string `yaml:"region"`
		Endpoint        string `yaml:"endpoint"`
		AccessKeyID     string `yaml:"access_key_id"`
		SecretAccessKey string `yaml:"secret_access_key"`
		PublicBase      string `yaml:"public_base"`
	} `yaml:"s3"`
	Solapi struct {
		APIKey         string `yaml:"api_key"`
		APISecret      string `yaml:"api_secret"`
		Sender         string `yaml:"sender"`
		PfID           string `yaml:"pf_id"`
		SignupTemplate string `yaml:"signup_template"`
	} `yaml:"solapi"`
	OpenAI struct {
		APIKey string `yaml:"api_key"`
		Model  string `yaml:"model"`
	} `yaml:"openai"`
	Firebase struct {
		CredentialsFile string `yaml:"credentials_file"`
	} `yaml:"firebase"`
}

// Default returns the configuration used when no file or environment overrides are present.
func Default() Config {
	var cfg Config
	cfg.Server.Address = ":4001"
	cfg.Server.CORSOrigins = []string{"http://localhost:3000"}
	cfg.Database.Driver = "mysql"
	cfg.Log.Mode = "production"
	cfg.Auth.AccessTokenTTL = 30 * 24 * time.Hour
	cfg.Auth.PhoneTokenTTL = 10 * time.Minute
	cfg.Auth.OtpTTL = 180 * time.Second
	cfg.Auth.OtpCooldown = 60 * time.Second
	cfg.Auth.OtpMaxAttempts = 5
	cfg.Auth.ConsentVersion = "1.0"
	cfg.Auth.SignupTickets = 3
	cfg.Redis.MetricsTTL = time.Minute
	cfg.OpenAI.Model = "gpt-4o-mini"
	return cfg
}

// Load reads the YAML file at path on top of the defaults and applies
// environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("unmarshal config %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Database.URL, "DATABASE_URL")
	setString(&c.Database.Driver, "DATABASE_DRIVER")
	if port := os.Getenv("PORT"); port != "" {
		c.Server.Address = ":" + strings.TrimPrefix(port, ":")
	}
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		c.Server.CORSOrigins = splitList(origins)
	}
	setString(&c.Log.Mode, "LOG_MODE")
	setString(&c.Auth.JWTSecret, "JWT_SECRET")
	setString(&c.Redis.URL, "REDIS_URL")

	setString(&c.S3.Bucket, "S3_BUCKET", "AWS_S3_BUCKET")
	setString(&c.S3.Region, "S3_REGION", "AWS_REGION", "AWS_DEFAULT_REGION")
	setString(&c.S3.Endpoint, "S3_ENDPOINT")
	setString(&c.S3.AccessKeyID, "S3_ACCESS_KEY_ID")
	setString(&c.S3.SecretAccessKey, "S3_SECRET_ACCESS_KEY")
	setString(&c.S3.PublicBase, "S3_PUBLIC_BASE", "PUBLIC_CDN")
	if c.S3.PublicBase == "" {
		if domain := os.Getenv("CDN_DOMAIN"); domain != "" {
			c.S3.PublicBase = "https://" + domain
		}
	}

	setString(&c.Solapi.APIKey, "SOLAPI_API_KEY")
	setString(&c.Solapi.APISecret, "SOLAPI_API_SECRET")
	setString(&c.Solapi.Sender, "SOLAPI_SENDER", "SOLAPI_SENDER_NUMBER")
	setString(&c.Solapi.PfID, "SOLAPI_PFID", "SOLAPI_KAKAO_PFID")
	setString(&c.Solapi.SignupTemplate, "SOLAPI_TEMPLATE_SIGNUP")

	setString(&c.OpenAI.APIKey, "OPENAI_API_KEY")
	setString(&c.OpenAI.Model, "OPENAI_MODEL")
	setString(&c.Firebase.CredentialsFile, "FIREBASE_CREDENTIALS")

	if err := setSeconds(&c.Auth.OtpTTL, "OTP_TTL_SECONDS"); err != nil {
		return err
	}
	if err := setSeconds(&c.Auth.OtpCooldown, "OTP_RESEND_COOLDOWN_SECONDS"); err != nil {
		return err
	}
	if v := os.Getenv("OTP_MAX_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("OTP_MAX_ATTEMPTS: %w", err)
		}
		c.Auth.OtpMaxAttempts = n
	}
	return nil
}

// setString assigns the first non-empty environment variable among keys.
func setString(dst *string, keys ...string) {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			*dst = v
			return
		}
	}
}

func setSeconds(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = time.Duration(n) * time.Second
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
