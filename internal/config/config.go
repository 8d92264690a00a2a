package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

type Config struct {
	ServerURL       string  `mapstructure:"server_url"`
	AuthToken       string  `mapstructure:"auth_token"`
	DefaultLanguage string  `mapstructure:"default_language"`
	DefaultProduct  string  `mapstructure:"default_product"`
	ProductsFile    string  `mapstructure:"products_file"`
	LanguagesFile   string  `mapstructure:"languages_file"`
	LogLevel        string  `mapstructure:"log_level"`
	LogFormat       string  `mapstructure:"log_format"`
	LogDir          string  `mapstructure:"log_dir"`
	Storage         Storage `mapstructure:"storage"`
}

// Storage holds the tunables fed into the guided proposal.
type Storage struct {
	Filesystem         string `mapstructure:"filesystem"`
	UseLVM             bool   `mapstructure:"use_lvm"`
	EncryptionPassword string `mapstructure:"encryption_password"`
	SwapSizeMB         uint64 `mapstructure:"swap_size_mb"`
}

func Default() *Config {
	return &Config{
		DefaultLanguage: "en_US",
		LogLevel:        "info",
		LogFormat:       "text",
		Storage: Storage{
			Filesystem: "btrfs",
			SwapSizeMB: 2048,
		},
	}
}

func Load(cfgFile string) (*Config, error) {
	cfg := Default()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("installer")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(configDir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("AGAMA")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func Save(cfg *Config) error {
	return SaveTo(cfg, "")
}

func SaveTo(cfg *Config, cfgFile string) error {
	viper.Set("server_url", cfg.ServerURL)
	viper.Set("auth_token", cfg.AuthToken)
	viper.Set("default_language", cfg.DefaultLanguage)
	viper.Set("default_product", cfg.DefaultProduct)
	viper.Set("products_file", cfg.ProductsFile)
	viper.Set("languages_file", cfg.LanguagesFile)
	viper.Set("log_level", cfg.LogLevel)
	viper.Set("log_format", cfg.LogFormat)
	viper.Set("log_dir", cfg.LogDir)
	viper.Set("storage.filesystem", cfg.Storage.Filesystem)
	viper.Set("storage.use_lvm", cfg.Storage.UseLVM)
	viper.Set("storage.encryption_password", cfg.Storage.EncryptionPassword)
	viper.Set("storage.swap_size_mb", cfg.Storage.SwapSizeMB)

	var cfgPath string
	if cfgFile != "" {
		cfgPath = cfgFile
		dir := filepath.Dir(cfgPath)
		if dir != "." {
			if err := os.MkdirAll(dir, 0700); err != nil {
				return err
			}
		}
	} else {
		cfgPath = filepath.Join(configDir(), "installer.yaml")
		if err := os.MkdirAll(configDir(), 0700); err != nil {
			return err
		}
	}

	if err := viper.WriteConfigAs(cfgPath); err != nil {
		return err
	}

	// Restrict config file to owner-only access (may contain auth token
	// and encryption password)
	return os.Chmod(cfgPath, 0600)
}

func configDir() string {
	return "/etc/agama"
}
