package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/spf13/viper"
)

// LoadWithSecrets loads configuration with separate secrets file support.
// Precedence: ENV > secrets file > config file > defaults
//
// The secrets file is optional and discovered as follows:
//   - <ENV_PREFIX>_SECRETS_FILE when set
//   - secrets.<ext> next to the config file
//   - secrets.yaml in the working directory
//
// The returned secrets Config holds only the values read from that file and
// is meant for Redacted.
func (l *ViperLoader) LoadWithSecrets() (*Config, *Config, error) {
	base, err := l.readFile()
	if err != nil {
		return nil, nil, err
	}

	secretsFile, err := l.discoverSecretsFile()
	if err != nil {
		return nil, nil, err
	}

	var secrets *Config
	if secretsFile != "" {
		secretsViper := viper.New()
		secretsViper.SetConfigFile(secretsFile)
		if err := secretsViper.ReadInConfig(); err != nil {
			return nil, nil, fmt.Errorf("failed to read secrets file %s: %w", secretsFile, err)
		}
		var secretsCfg Config
		if err := secretsViper.Unmarshal(&secretsCfg); err != nil {
			return nil, nil, fmt.Errorf("failed to unmarshal secrets file %s: %w", secretsFile, err)
		}
		// Zero values in the secrets file never clear a configured value.
		if err := mergo.Merge(base, secretsCfg, mergo.WithOverride); err != nil {
			return nil, nil, fmt.Errorf("failed to merge secrets: %w", err)
		}
		secrets = &secretsCfg
	}

	cfg, err := l.applyEnv(base)
	if err != nil {
		return nil, nil, err
	}
	if err := l.Validate(cfg); err != nil {
		return nil, nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, secrets, nil
}

func (l *ViperLoader) discoverSecretsFile() (string, error) {
	secretsEnv := l.prefixedEnv("SECRETS_FILE")
	if raw, ok := os.LookupEnv(secretsEnv); ok {
		secretsFile := strings.TrimSpace(raw)
		if secretsFile == "" {
			return "", fmt.Errorf("%s is set but empty", secretsEnv)
		}
		info, err := os.Stat(secretsFile)
		if err != nil {
			return "", fmt.Errorf("%s points to an inaccessible file %s: %w", secretsEnv, secretsFile, err)
		}
		if info.IsDir() {
			return "", fmt.Errorf("%s must point to a file, got directory %s", secretsEnv, secretsFile)
		}
		return secretsFile, nil
	}

	if l.configFile != "" {
		dir := filepath.Dir(l.configFile)
		secretsFile := filepath.Join(dir, "secrets"+filepath.Ext(l.configFile))
		if info, err := os.Stat(secretsFile); err == nil && !info.IsDir() {
			return secretsFile, nil
		}
	}

	for _, ext := range []string{".yaml", ".yml", ".json"} {
		secretsFile := "secrets" + ext
		if info, err := os.Stat(secretsFile); err == nil && !info.IsDir() {
			return secretsFile, nil
		}
	}

	return "", nil
}
