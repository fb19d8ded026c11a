package config

import (
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Data       DataConfig       `yaml:"data"`
	Storage    StorageConfig    `yaml:"storage"`
	SMTP       SMTPConfig       `yaml:"smtp"`
	Auth       AuthConfig       `yaml:"auth"`
	Contract   ContractConfig   `yaml:"contract"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	Notifier   NotifierConfig   `yaml:"notifier"`
	Onboarding OnboardingConfig `yaml:"onboarding"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
	Mode string `yaml:"mode"` // debug, release
}

type DatabaseConfig struct {
	Type string `yaml:"type"` // sqlite, mysql, postgres
	DSN  string `yaml:"dsn"`
}

type DataConfig struct {
	Dir string `yaml:"dir"`
}

type StorageConfig struct {
	Type     string      `yaml:"type"` // local, minio
	LocalDir string      `yaml:"local_dir"`
	Minio    MinioConfig `yaml:"minio"`
}

type MinioConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type SMTPConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	FromName string `yaml:"from_name"`
	HREmail  string `yaml:"hr_email"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

type ContractConfig struct {
	DefaultExpiresInDays int    `yaml:"default_expires_in_days"`
	ReminderAfterDays    int    `yaml:"reminder_after_days"`
	SignBaseURL          string `yaml:"sign_base_url"`
	CompanyName          string `yaml:"company_name"`
}

type SchedulerConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Timezone     string `yaml:"timezone"`
	ReminderCron string `yaml:"reminder_cron"`
	ExpiryCron   string `yaml:"expiry_cron"`
	OverdueCron  string `yaml:"overdue_cron"`
}

type NotifierConfig struct {
	Workers int `yaml:"workers"`
}

// OnboardingConfig 入职文档清单策略
type OnboardingConfig struct {
	Documents []OnboardingDocumentPolicy `yaml:"documents"`
}

type OnboardingDocumentPolicy struct {
	Type       string `yaml:"type"`
	Name       string `yaml:"name"`
	TemplateID uint   `yaml:"template_id"`
	Required   bool   `yaml:"required"`
	DueDays    int    `yaml:"due_days"`
}

var (
	cfg  *Config
	once sync.Once
)

func GetConfig() *Config {
	once.Do(func() {
		cfg = loadConfig()
	})
	return cfg
}

// Default 返回未读取任何配置文件时的默认配置
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8080",
			Mode: "debug",
		},
		Database: DatabaseConfig{
			Type: "sqlite",
			DSN:  "./data/hrms.db",
		},
		Data: DataConfig{
			Dir: "./data",
		},
		Storage: StorageConfig{
			Type:     "local",
			LocalDir: "./data/files",
			Minio: MinioConfig{
				Bucket: "hrms-contracts",
			},
		},
		SMTP: SMTPConfig{
			Port:     587,
			FromName: "HR Team",
		},
		Contract: ContractConfig{
			DefaultExpiresInDays: 7,
			ReminderAfterDays:    3,
			SignBaseURL:          "http://localhost:3000/contracts/sign",
			CompanyName:          "HRMS",
		},
		Scheduler: SchedulerConfig{
			Enabled:      true,
			Timezone:     "Local",
			ReminderCron: "0 9 * * *",
			ExpiryCron:   "0 0 * * *",
			OverdueCron:  "0 8 * * *",
		},
		Notifier: NotifierConfig{
			Workers: 4,
		},
		Onboarding: OnboardingConfig{
			Documents: []OnboardingDocumentPolicy{
				{Type: "offer_letter", Name: "Offer Letter", Required: true, DueDays: 3},
				{Type: "nda", Name: "Non-Disclosure Agreement", Required: true, DueDays: 7},
				{Type: "employee_handbook", Name: "Employee Handbook Acknowledgement", Required: true, DueDays: 14},
				{Type: "tax_form", Name: "Tax Declaration Form", Required: true, DueDays: 14},
				{Type: "id_proof", Name: "Identity Proof", Required: false, DueDays: 30},
			},
		},
	}
}

func loadConfig() *Config {
	config := Default()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err == nil {
		yaml.Unmarshal(data, config)
	}

	applyEnv(config)
	return config
}

// applyEnv 环境变量优先级高于配置文件
func applyEnv(config *Config) {
	if port := os.Getenv("SERVER_PORT"); port != "" {
		config.Server.Port = port
	}
	if mode := os.Getenv("GIN_MODE"); mode != "" {
		config.Server.Mode = mode
	}

	// 数据库环境变量
	if dbType := os.Getenv("DB_TYPE"); dbType != "" {
		config.Database.Type = dbType
	}
	if dbDSN := os.Getenv("DB_DSN"); dbDSN != "" {
		config.Database.DSN = dbDSN
	}

	// 数据目录环境变量
	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		config.Data.Dir = dataDir
		config.Storage.LocalDir = filepath.Join(dataDir, "files")
	}
	if config.Storage.LocalDir == "" {
		config.Storage.LocalDir = filepath.Join(config.Data.Dir, "files")
	}

	if storageType := os.Getenv("STORAGE_TYPE"); storageType != "" {
		config.Storage.Type = storageType
	}
	if endpoint := os.Getenv("MINIO_ENDPOINT"); endpoint != "" {
		config.Storage.Minio.Endpoint = endpoint
	}
	if ak := os.Getenv("MINIO_ACCESS_KEY"); ak != "" {
		config.Storage.Minio.AccessKey = ak
	}
	if sk := os.Getenv("MINIO_SECRET_KEY"); sk != "" {
		config.Storage.Minio.SecretKey = sk
	}
	if bucket := os.Getenv("MINIO_BUCKET"); bucket != "" {
		config.Storage.Minio.Bucket = bucket
	}

	// SMTP
	if host := os.Getenv("SMTP_HOST"); host != "" {
		config.SMTP.Host = host
		config.SMTP.Enabled = true
	}
	if port := os.Getenv("SMTP_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.SMTP.Port = p
		}
	}
	if user := os.Getenv("SMTP_USER"); user != "" {
		config.SMTP.Username = user
	}
	if pass := os.Getenv("SMTP_PASSWORD"); pass != "" {
		config.SMTP.Password = pass
	}
	if from := os.Getenv("SMTP_FROM"); from != "" {
		config.SMTP.From = from
	}
	if hr := os.Getenv("HR_EMAIL"); hr != "" {
		config.SMTP.HREmail = hr
	}

	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		config.Auth.JWTSecret = secret
	}
}

// Save 写出 YAML 配置文件
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
