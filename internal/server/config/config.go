// Package config handles configuration for the server component,
// including defaults, JSON overlay, and command-line flags.
package config

import "time"

// Key store kinds accepted in Config.KeyStore.
const (
	KeyStoreNone     = "none"
	KeyStorePostgres = "postgres"
	KeyStoreSQLite   = "sqlite"
	KeyStoreS3       = "s3"
)

// Config holds runtime settings for the gophauth server.
//
// Fields:
//   - EndpointAddrHTTP / EndpointAddrGRPC: bind addresses of the two APIs.
//   - DatabaseDSN: PostgreSQL DSN (pgx). Empty keeps users in memory.
//   - SecretKey: JWT signing key stored as SECRET_KEY. Empty means a stored
//     or freshly generated key is used.
//   - MasterKey: seals keychain entries at rest. Required unless KeyStore is "none".
//   - TokenTTL: lifetime of issued tokens. Zero issues tokens without expiry.
//   - KeyStore: where keychain entries persist ("none", "postgres", "sqlite", "s3").
//   - KeyStorePath: SQLite file for the "sqlite" key store.
//   - S3RootUser / S3RootPassword / S3Bucket / S3Region / S3BaseEndpoint /
//     S3Prefix: object storage settings for the "s3" key store.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	EndpointAddrHTTP string
	EndpointAddrGRPC string
	DatabaseDSN      string
	SecretKey        string
	MasterKey        string
	TokenTTL         time.Duration
	KeyStore         string
	KeyStorePath     string
	S3RootUser       string
	S3RootPassword   string
	S3Bucket         string
	S3Region         string
	S3BaseEndpoint   string
	S3Prefix         string
	LogLevel         string
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.EndpointAddrHTTP = ":8080"
	c.EndpointAddrGRPC = ":50051"
	c.DatabaseDSN = ""
	c.SecretKey = ""
	c.MasterKey = ""
	c.TokenTTL = 0
	c.KeyStore = KeyStoreNone
	c.KeyStorePath = "keychain.db"
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = "keychain"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
	c.S3Prefix = "keys/"
	c.LogLevel = "info"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
