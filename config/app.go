package config

import (
	"errors"
	"fmt"
	"net"
	"slices"
	"strings"
	"time"
)

// ReservedSubdomains can never be claimed by a project.
var ReservedSubdomains = []string{"www", "admin", "api", "cdn", "assets", "static"}

const (
	defaultRootDomain   = "localhost:3000"
	defaultImageBucket  = "project-images"
	defaultAssetBucket  = "project-assets"
	defaultDBSchema     = "app"
	defaultCacheSeconds = 300
	defaultTimeout      = 180
)

// AppConfig is built once at startup and handed to every component that needs
// it. Nothing downstream reads the environment directly.
type AppConfig struct {
	RootDomain         string
	Protocol           string
	SiteURL            string
	PreviewSuffixes    []string
	ReservedSubdomains []string
	AdminEmails        []string
	CookieSecure       bool

	Server   ServerConfig
	Database DatabaseConfig
	Supabase SupabaseConfig
	Storage  StorageConfig
	Cache    CacheConfig
	Notify   NotifyConfig
}

type ServerConfig struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	AcceptedOrigins []string
}

type DatabaseConfig struct {
	Host        string
	User        string
	Password    string
	Name        string
	Port        string
	Schema      string
	ReplicaHost string
	SSLMode     string
}

type SupabaseConfig struct {
	URL       string
	AnonKey   string
	JWTSecret string
}

type StorageConfig struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	ImageBucket     string
	AssetBucket     string
}

type CacheConfig struct {
	RedisURL string
	TTL      time.Duration
}

type NotifyConfig struct {
	ResendAPIKey string
	FromEmail    string
	OpsEmails    []string
}

// Load builds the AppConfig from an environment map produced by New.
func Load(env map[string]string) (AppConfig, error) {
	root := strings.ToLower(GetString(env, "ROOT_DOMAIN", defaultRootDomain))

	protocol := "https"
	if isLocal(root) {
		protocol = "http"
	}
	protocol = GetString(env, "PROTOCOL", protocol)

	supabaseURL := strings.TrimRight(GetString(env, "SUPABASE_URL", ""), "/")

	cfg := AppConfig{
		RootDomain:         root,
		Protocol:           protocol,
		SiteURL:            strings.TrimRight(GetString(env, "SITE_URL", protocol+"://"+root), "/"),
		PreviewSuffixes:    GetList(env, "PREVIEW_HOST_SUFFIXES", []string{".vercel.app"}),
		ReservedSubdomains: slices.Clone(ReservedSubdomains),
		AdminEmails:        lowerAll(GetList(env, "ADMIN_EMAILS", nil)),
		CookieSecure:       GetBool(env, "COOKIE_SECURE", protocol == "https"),
		Server: ServerConfig{
			Port:            GetInt(env, "PORT", 8080),
			ReadTimeout:     time.Duration(GetInt(env, "READ_TIMEOUT_SECONDS", defaultTimeout)) * time.Second,
			WriteTimeout:    time.Duration(GetInt(env, "WRITE_TIMEOUT_SECONDS", defaultTimeout)) * time.Second,
			IdleTimeout:     time.Duration(GetInt(env, "IDLE_TIMEOUT_SECONDS", defaultTimeout)) * time.Second,
			AcceptedOrigins: GetList(env, "ACCEPTED_ORIGINS", nil),
		},
		Database: DatabaseConfig{
			Host:        GetString(env, "SUPABASE_DB_HOST", ""),
			User:        GetString(env, "SUPABASE_DB_USER", ""),
			Password:    GetString(env, "SUPABASE_DB_PASSWORD", ""),
			Name:        GetString(env, "SUPABASE_DB_NAME", "postgres"),
			Port:        GetString(env, "SUPABASE_DB_PORT", "5432"),
			Schema:      GetString(env, "DB_SCHEMA", defaultDBSchema),
			ReplicaHost: GetString(env, "SUPABASE_DB_REPLICA_HOST", ""),
			SSLMode:     GetString(env, "SUPABASE_DB_SSLMODE", "require"),
		},
		Supabase: SupabaseConfig{
			URL:       supabaseURL,
			AnonKey:   GetString(env, "SUPABASE_ANON_KEY", ""),
			JWTSecret: GetString(env, "SUPABASE_JWT_SECRET", ""),
		},
		Storage: StorageConfig{
			Endpoint:        GetString(env, "STORAGE_S3_ENDPOINT", supabaseURL+"/storage/v1/s3"),
			Region:          GetString(env, "STORAGE_S3_REGION", "us-east-1"),
			AccessKeyID:     GetString(env, "STORAGE_S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: GetString(env, "STORAGE_S3_SECRET_ACCESS_KEY", ""),
			ImageBucket:     GetString(env, "IMAGE_BUCKET", defaultImageBucket),
			AssetBucket:     GetString(env, "ASSET_BUCKET", defaultAssetBucket),
		},
		Cache: CacheConfig{
			RedisURL: GetString(env, "REDIS_URL", ""),
			TTL:      time.Duration(GetInt(env, "PUBLIC_CACHE_TTL_SECONDS", defaultCacheSeconds)) * time.Second,
		},
		Notify: NotifyConfig{
			ResendAPIKey: GetString(env, "RESEND_API_KEY", ""),
			FromEmail:    GetString(env, "RESEND_FROM_EMAIL", ""),
			OpsEmails:    GetList(env, "OPS_EMAILS", nil),
		},
	}

	var missing []string
	if cfg.Supabase.URL == "" {
		missing = append(missing, "SUPABASE_URL")
	}
	if cfg.Supabase.JWTSecret == "" {
		missing = append(missing, "SUPABASE_JWT_SECRET")
	}
	if len(missing) > 0 {
		return AppConfig{}, fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	if cfg.Protocol != "http" && cfg.Protocol != "https" {
		return AppConfig{}, errors.New("PROTOCOL must be http or https")
	}

	return cfg, nil
}

// DSN is the libpq connection string for the primary database.
func (d DatabaseConfig) DSN() string {
	return d.dsn(d.Host)
}

// ReplicaDSN is empty when no replica is configured.
func (d DatabaseConfig) ReplicaDSN() string {
	if d.ReplicaHost == "" {
		return ""
	}
	return d.dsn(d.ReplicaHost)
}

func (d DatabaseConfig) dsn(host string) string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s search_path=%s",
		host, d.User, d.Password, d.Name, d.Port, d.SSLMode, d.Schema)
}

// IsAdminEmail reports whether email is on the admin allow-list.
func (c AppConfig) IsAdminEmail(email string) bool {
	return slices.Contains(c.AdminEmails, strings.ToLower(strings.TrimSpace(email)))
}

// CookieDomain is the root domain without its port.
func (c AppConfig) CookieDomain() string {
	host := c.RootDomain
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return host
}

// ProjectURL is the public address of a project's microsite.
func (c AppConfig) ProjectURL(slug string) string {
	return fmt.Sprintf("%s://%s", c.Protocol, c.ProjectHost(slug))
}

func (c AppConfig) ProjectHost(slug string) string {
	return slug + "." + c.RootDomain
}

func isLocal(host string) bool {
	return strings.HasPrefix(host, "localhost") || strings.HasPrefix(host, "127.0.0.1")
}

func lowerAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, strings.ToLower(v))
	}
	return out
}
