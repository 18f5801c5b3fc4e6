package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/csuite-pathway/alumniportal/internal/flagx"
	"github.com/csuite-pathway/alumniportal/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// It uses timex.Duration for interval fields, which allows parsing both
// string values such as "1s" and integer nanoseconds. Pointer fields tell
// an explicit false or zero apart from an absent key.
type JsonConfig struct {
	HTTPAddr                string         `json:"http_addr"`
	DatabaseDSN             string         `json:"database_dsn"`
	SecretKey               string         `json:"secret_key"`
	SessionTTL              timex.Duration `json:"session_ttl"`
	BaseURL                 string         `json:"base_url"`
	LogLevel                string         `json:"log_level"`
	RedisAddr               string         `json:"redis_addr"`
	RedisPassword           string         `json:"redis_password"`
	S3RootUser              string         `json:"s3_root_user"`
	S3RootPassword          string         `json:"s3_root_password"`
	S3Bucket                string         `json:"s3_bucket"`
	S3Region                string         `json:"s3_region"`
	S3BaseEndpoint          string         `json:"s3_base_endpoint"`
	StoragePath             string         `json:"storage_path"`
	PresignTTL              timex.Duration `json:"presign_ttl"`
	MaxUploadBytes          int64          `json:"max_upload_bytes"`
	AllowedExtensions       []string       `json:"allowed_extensions"`
	TokenBytes              int            `json:"token_bytes"`
	SMTPHost                string         `json:"smtp_host"`
	SMTPPort                int            `json:"smtp_port"`
	SMTPUsername            string         `json:"smtp_username"`
	SMTPPassword            string         `json:"smtp_password"`
	MailFrom                string         `json:"mail_from"`
	MailTimeout             timex.Duration `json:"mail_timeout"`
	AllowInsecureAutoVerify *bool          `json:"allow_insecure_auto_verify"`
	RegistrationPolicy      string         `json:"registration_policy"`
	AllowList               []string       `json:"allow_list"`
	AllowListFile           string         `json:"allow_list_file"`
	CompoundFirstNames      []string       `json:"compound_first_names"`
}

// parseJson loads configuration values from the JSON file named by the -c
// or -config flag into config. Keys absent from the file leave the current
// value untouched. If the file cannot be read or contains invalid JSON, the
// function panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setDuration(&config.SessionTTL, c.SessionTTL)
	setString(&config.BaseURL, c.BaseURL)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.RedisPassword, c.RedisPassword)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.StoragePath, c.StoragePath)
	setDuration(&config.PresignTTL, c.PresignTTL)
	if c.MaxUploadBytes != 0 {
		config.MaxUploadBytes = c.MaxUploadBytes
	}
	if c.AllowedExtensions != nil {
		config.AllowedExtensions = c.AllowedExtensions
	}
	if c.TokenBytes != 0 {
		config.TokenBytes = c.TokenBytes
	}
	setString(&config.SMTPHost, c.SMTPHost)
	if c.SMTPPort != 0 {
		config.SMTPPort = c.SMTPPort
	}
	setString(&config.SMTPUsername, c.SMTPUsername)
	setString(&config.SMTPPassword, c.SMTPPassword)
	setString(&config.MailFrom, c.MailFrom)
	setDuration(&config.MailTimeout, c.MailTimeout)
	if c.AllowInsecureAutoVerify != nil {
		config.AllowInsecureAutoVerify = *c.AllowInsecureAutoVerify
	}
	setString(&config.RegistrationPolicy, c.RegistrationPolicy)
	if c.AllowList != nil {
		config.AllowList = c.AllowList
	}
	setString(&config.AllowListFile, c.AllowListFile)
	if c.CompoundFirstNames != nil {
		config.CompoundFirstNames = c.CompoundFirstNames
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
