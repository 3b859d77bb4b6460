package config

import (
	"fmt"
	"os"
)

const configHeader = `# ipagw configuration file
#
# Every key can be overridden with an IPAGW_ environment variable, e.g.
# IPAGW_LOGGING_LEVEL=DEBUG or IPAGW_SECRET_LINK_URL=https://yopass.example.com.
# IPA_HOST, YOPASS and YOPASS_URL are honoured as well.

`

// SampleConfig returns the defaults with placeholder endpoints filled in.
func SampleConfig() *Config {
	cfg := GetDefaultConfig()
	cfg.Directory.Host = "ipa.example.com"
	cfg.SecretLink.URL = "https://yopass.example.com"
	return cfg
}

// InitConfig writes a sample configuration to the default location and
// returns its path.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	if err := InitConfigToPath(path, force); err != nil {
		return "", err
	}
	return path, nil
}

// InitConfigToPath writes a sample configuration to path. An existing file
// is only replaced when force is set.
func InitConfigToPath(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("configuration file already exists at %s (use --force to overwrite)", path)
	}

	return SaveConfig(SampleConfig(), path)
}
