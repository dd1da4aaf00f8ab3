package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/neutralface-io/nfai-web/pkg/utils"
	"github.com/spf13/viper"
)

type Config struct {
	AppName        string
	ServerAddr     string
	DatabaseURL    string
	RedisAddr      string
	RedisPassword  string
	AllowedOrigins string
	RateLimitMax   int

	StorageDriver string
	GCSBucket     string
	S3Bucket      string
	S3BucketParam string
	S3KMSKeyID    string
	AWSRegion     string
	AWSAccessKey  string
	AWSSecretKey  string

	MeiliHost   string
	MeiliAPIKey string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string
	AppURL       string

	LogDir       string
	LogMaxSizeMB int
	LogMaxDays   int
}

func LoadConfig() *Config {
	godotenv.Load()

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("APP_NAME", "nfai")
	v.SetDefault("PORT", ":8080")
	v.SetDefault("DATABASE_URL", "host=localhost user=postgres password=secret dbname=nfai port=5432 sslmode=disable TimeZone=UTC")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_MAX", 120)
	v.SetDefault("STORAGE_DRIVER", "gcs")
	v.SetDefault("GCS_BUCKET_NAME", "datasets")
	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("SMTP_PORT", 1025)
	v.SetDefault("MAIL_FROM", "no-reply@nfai.local")
	v.SetDefault("APP_URL", "http://localhost:3000")
	v.SetDefault("LOG_DIR", "./logs")
	v.SetDefault("LOG_MAX_SIZE_MB", 10)
	v.SetDefault("LOG_MAX_DAYS", 7)

	addr := v.GetString("PORT")
	if addr != "" && !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &Config{
		AppName:        v.GetString("APP_NAME"),
		ServerAddr:     addr,
		DatabaseURL:    v.GetString("DATABASE_URL"),
		RedisAddr:      v.GetString("REDIS_ADDR"),
		RedisPassword:  v.GetString("REDIS_PASSWORD"),
		AllowedOrigins: v.GetString("ALLOWED_ORIGINS"),
		RateLimitMax:   v.GetInt("RATE_LIMIT_MAX"),

		StorageDriver: strings.ToLower(v.GetString("STORAGE_DRIVER")),
		GCSBucket:     v.GetString("GCS_BUCKET_NAME"),
		S3Bucket:      v.GetString("S3_BUCKET"),
		S3BucketParam: v.GetString("S3_BUCKET_PARAM"),
		S3KMSKeyID:    v.GetString("S3_KMS_KEY_ID"),
		AWSRegion:     v.GetString("AWS_REGION"),
		AWSAccessKey:  v.GetString("AWS_ACCESS_KEY_ID"),
		AWSSecretKey:  v.GetString("AWS_SECRET_ACCESS_KEY"),

		MeiliHost:   v.GetString("MEILI_HOST"),
		MeiliAPIKey: v.GetString("MEILI_API_KEY"),

		SMTPHost:     v.GetString("SMTP_HOST"),
		SMTPPort:     v.GetInt("SMTP_PORT"),
		SMTPUsername: v.GetString("SMTP_USERNAME"),
		SMTPPassword: v.GetString("SMTP_PASSWORD"),
		MailFrom:     v.GetString("MAIL_FROM"),
		AppURL:       v.GetString("APP_URL"),

		LogDir:       v.GetString("LOG_DIR"),
		LogMaxSizeMB: v.GetInt("LOG_MAX_SIZE_MB"),
		LogMaxDays:   v.GetInt("LOG_MAX_DAYS"),
	}
}

// Email returns the SMTP settings in the shape the mailer expects.
func (c *Config) Email() utils.EmailConfig {
	return utils.EmailConfig{
		SMTPHost:     c.SMTPHost,
		SMTPPort:     c.SMTPPort,
		SMTPUsername: c.SMTPUsername,
		SMTPPassword: c.SMTPPassword,
		AppURL:       c.AppURL,
		FromEmail:    c.MailFrom,
	}
}
