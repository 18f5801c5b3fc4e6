package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/csuite-pathway/alumniportal/internal/flagx"
	"github.com/joho/godotenv"
)

const defaultEnvFile = ".env"

// parseEnv loads a dotenv file into the process environment (without
// overriding variables already set) and then copies PORTAL_* variables into
// config. The file is taken from the -env flag, falling back to .env in the
// working directory when present. An explicitly named file that cannot be
// read, or a malformed variable, panics.
func parseEnv(config *Config) {
	file := flagx.EnvFileFlags()
	if file != "" {
		if err := godotenv.Load(file); err != nil {
			panic(err)
		}
	} else if err := godotenv.Load(defaultEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}

	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	list := func(key string, dst *[]string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = splitList(v)
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := os.LookupEnv(key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				panic(err)
			}
			*dst = d
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := os.LookupEnv(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				panic(err)
			}
			*dst = n
		}
	}

	str("PORTAL_HTTP_ADDR", &config.HTTPAddr)
	str("PORTAL_DATABASE_DSN", &config.DatabaseDSN)
	str("PORTAL_SECRET_KEY", &config.SecretKey)
	dur("PORTAL_SESSION_TTL", &config.SessionTTL)
	str("PORTAL_BASE_URL", &config.BaseURL)
	str("PORTAL_LOG_LEVEL", &config.LogLevel)
	str("PORTAL_REDIS_ADDR", &config.RedisAddr)
	str("PORTAL_REDIS_PASSWORD", &config.RedisPassword)
	str("PORTAL_S3_ROOT_USER", &config.S3RootUser)
	str("PORTAL_S3_ROOT_PASSWORD", &config.S3RootPassword)
	str("PORTAL_S3_BUCKET", &config.S3Bucket)
	str("PORTAL_S3_REGION", &config.S3Region)
	str("PORTAL_S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
	str("PORTAL_STORAGE_PATH", &config.StoragePath)
	dur("PORTAL_PRESIGN_TTL", &config.PresignTTL)
	if v, ok := os.LookupEnv("PORTAL_MAX_UPLOAD_BYTES"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			panic(err)
		}
		config.MaxUploadBytes = n
	}
	list("PORTAL_ALLOWED_EXTENSIONS", &config.AllowedExtensions)
	integer("PORTAL_TOKEN_BYTES", &config.TokenBytes)
	str("PORTAL_SMTP_HOST", &config.SMTPHost)
	integer("PORTAL_SMTP_PORT", &config.SMTPPort)
	str("PORTAL_SMTP_USERNAME", &config.SMTPUsername)
	str("PORTAL_SMTP_PASSWORD", &config.SMTPPassword)
	str("PORTAL_MAIL_FROM", &config.MailFrom)
	dur("PORTAL_MAIL_TIMEOUT", &config.MailTimeout)
	if v, ok := os.LookupEnv("PORTAL_ALLOW_INSECURE_AUTO_VERIFY"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			panic(err)
		}
		config.AllowInsecureAutoVerify = b
	}
	str("PORTAL_REGISTRATION_POLICY", &config.RegistrationPolicy)
	list("PORTAL_ALLOW_LIST", &config.AllowList)
	str("PORTAL_ALLOW_LIST_FILE", &config.AllowListFile)
	list("PORTAL_COMPOUND_FIRST_NAMES", &config.CompoundFirstNames)
}
