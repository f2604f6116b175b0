package config

import (
	"fmt"
	"os"
	"path"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Public  Public
	Private Private
}

type Public struct {
	QuestionsPerPage int `yaml:"questions_per_page" validate:"required,gt=0"`

	// Attachment limits, per submission
	MaxAttachmentsPerSubmission int      `yaml:"max_attachments_per_submission" validate:"required,gt=0"`
	MaxAttachmentSizeBytes      int64    `yaml:"max_attachment_size_bytes" validate:"required,gt=0"`
	MaxTotalAttachmentSize      int64    `yaml:"max_total_attachment_size" validate:"required,gtefield=MaxAttachmentSizeBytes"`
	AllowedImageMimeTypes       []string `yaml:"allowed_image_mime_types" validate:"required,min=1"`

	// Image pipeline
	WebPQuality          float32       `yaml:"webp_quality" validate:"gte=0,lte=1"`
	ThumbnailMaxWidth    int           `yaml:"thumbnail_max_width" validate:"gte=0"`
	ThumbnailMaxHeight   int           `yaml:"thumbnail_max_height" validate:"gte=0"`
	MaxDecodedImageBytes int64         `yaml:"max_decoded_image_bytes" validate:"gte=0"`
	UploadTimeout        time.Duration `yaml:"upload_timeout"` // per file, 0 disables
	ParallelRenditions   bool          `yaml:"parallel_renditions"`
	MaxParallelFiles     int           `yaml:"max_parallel_files" validate:"gte=0"`

	// Blob storage
	BlobBackend    string `yaml:"blob_backend" validate:"required,oneof=fs minio"`
	MediaRoot      string `yaml:"media_root" validate:"required_if=BlobBackend fs"`
	MediaPublicURL string `yaml:"media_public_url" validate:"required,url"`

	// Orphaned blob collection
	GCInterval        time.Duration `yaml:"gc_interval"` // 0 disables
	GCSafetyThreshold time.Duration `yaml:"gc_safety_threshold"`

	JwtTTL         time.Duration `yaml:"jwt_ttl"`
	SecureCookies  bool          `yaml:"secure_cookies"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	LogLevel       string        `yaml:"log_level"`
	LogJSON        bool          `yaml:"log_json"`
}

type Pg struct {
	Host     string `yaml:"host" validate:"required"`
	Port     int    `yaml:"port" validate:"required"`
	User     string `yaml:"user" validate:"required"`
	Password string `yaml:"password" validate:"required"`
	Dbname   string `yaml:"dbname" validate:"required"`
}

type MinIO struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type Private struct {
	Pg     Pg     `yaml:"pg"`
	JwtKey string `yaml:"jwt_key" validate:"required"`
	MinIO  MinIO  `yaml:"minio"`
}

const (
	DefaultWebPQuality       = 0.8
	DefaultThumbnailMaxSize  = 400
	DefaultMaxDecodedBytes   = 200 << 20
	DefaultGCSafetyThreshold = time.Hour
	defaultMaxParallelFiles  = 1
)

// implementing service config interfaces

func (s *Config) JwtKey() string {
	return s.Private.JwtKey
}

func (s *Config) JwtTTL() time.Duration {
	return s.Public.JwtTTL
}

func (p *Public) applyDefaults() {
	if p.WebPQuality == 0 {
		p.WebPQuality = DefaultWebPQuality
	}
	if p.ThumbnailMaxWidth == 0 {
		p.ThumbnailMaxWidth = DefaultThumbnailMaxSize
	}
	if p.ThumbnailMaxHeight == 0 {
		p.ThumbnailMaxHeight = DefaultThumbnailMaxSize
	}
	if p.MaxDecodedImageBytes == 0 {
		p.MaxDecodedImageBytes = DefaultMaxDecodedBytes
	}
	if p.MaxParallelFiles == 0 {
		p.MaxParallelFiles = defaultMaxParallelFiles
	}
	if p.GCSafetyThreshold == 0 {
		p.GCSafetyThreshold = DefaultGCSafetyThreshold
	}
	if p.JwtTTL == 0 {
		p.JwtTTL = 24 * time.Hour
	}
	if p.LogLevel == "" {
		p.LogLevel = "info"
	}
}

func mustLoadPath(configPath string, output interface{}) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		panic("can't read config file " + configPath)
	}

	if err := yaml.Unmarshal(configFile, output); err != nil {
		panic(fmt.Sprintf("can't unmarshal config file %s: %v", configPath, err))
	}
}

// MustLoad reads public.yaml and private.yaml from configFolder.
// Panics on missing files or missing required fields.
func MustLoad(configFolder string) *Config {
	var public Public
	mustLoadPath(path.Join(configFolder, "public.yaml"), &public)
	public.applyDefaults()

	var private Private
	mustLoadPath(path.Join(configFolder, "private.yaml"), &private)

	cfg := &Config{public, private}
	if err := cfg.Validate(); err != nil {
		panic(err.Error())
	}
	return cfg
}

func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c.Public); err != nil {
		return fmt.Errorf("invalid public config: %w", err)
	}
	if err := validate.Struct(c.Private); err != nil {
		return fmt.Errorf("invalid private config: %w", err)
	}
	if c.Public.BlobBackend == "minio" {
		m := c.Private.MinIO
		if m.Endpoint == "" || m.Bucket == "" || m.AccessKey == "" || m.SecretKey == "" {
			return fmt.Errorf("invalid private config: minio endpoint, bucket and credentials are required for the minio backend")
		}
	}
	return nil
}
