package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	DatabaseURL            string
	RedisURL               string
	NATSURL                string
	NATSSubjectPrefix      string
	JWTSecret              string
	JWTIssuer              string
	JWTTTL                 time.Duration
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	UnreadCacheTTL         time.Duration
	AnnouncementExpiry     time.Duration
	MaxUploadBytes         int64
	AllowedUploadTypes     []string
	AuthRateLimit          int
	AuthRateWindow         time.Duration
	CORSAllowOrigins       string
	AccessLog              bool
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()
	return load(viper.New())
}

func load(v *viper.Viper) (Config, error) {
	v.SetEnvPrefix("EDUTRACK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "EduTrack API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("nats.subject_prefix", "edutrack")
	v.SetDefault("jwt.issuer", "edutrack")
	v.SetDefault("jwt.ttl", "24h")
	v.SetDefault("cloudinary.folder", "edutrack/uploads")
	v.SetDefault("cache.unread_ttl", "30s")
	v.SetDefault("announcement.expiry_days", 30)
	v.SetDefault("upload.max_mb", 10)
	v.SetDefault("upload.allowed_types", "application/pdf,application/zip,image/png,image/jpeg,text/plain,application/vnd.openxmlformats-officedocument.wordprocessingml.document")
	v.SetDefault("auth.rate_limit", 20)
	v.SetDefault("auth.rate_window", "1m")
	v.SetDefault("cors.allow_origins", "*")
	v.SetDefault("http.access_log", true)

	jwtTTL, err := parseDuration(v, "jwt.ttl")
	if err != nil {
		return Config{}, err
	}
	unreadTTL, err := parseDuration(v, "cache.unread_ttl")
	if err != nil {
		return Config{}, err
	}
	rateWindow, err := parseDuration(v, "auth.rate_window")
	if err != nil {
		return Config{}, err
	}

	expiryDays := v.GetInt("announcement.expiry_days")
	if expiryDays <= 0 {
		return Config{}, fmt.Errorf("announcement expiry days must be positive")
	}

	maxMB := v.GetInt64("upload.max_mb")
	if maxMB <= 0 {
		return Config{}, fmt.Errorf("upload max size must be positive")
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		NATSSubjectPrefix:      v.GetString("nats.subject_prefix"),
		JWTSecret:              v.GetString("jwt.secret"),
		JWTIssuer:              v.GetString("jwt.issuer"),
		JWTTTL:                 jwtTTL,
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		UnreadCacheTTL:         unreadTTL,
		AnnouncementExpiry:     time.Duration(expiryDays) * 24 * time.Hour,
		MaxUploadBytes:         maxMB << 20,
		AllowedUploadTypes:     splitList(v.GetString("upload.allowed_types")),
		AuthRateLimit:          v.GetInt("auth.rate_limit"),
		AuthRateWindow:         rateWindow,
		CORSAllowOrigins:       v.GetString("cors.allow_origins"),
		AccessLog:              v.GetBool("http.access_log"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.AuthRateLimit <= 0 {
		cfg.AuthRateLimit = 20
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	value, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return value, nil
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.ToLower(strings.TrimSpace(item)); item != "" {
			out = append(out, item)
		}
	}
	return out
}
