package config

import (
	"fmt"
	"os"
	"strings"
)

const appEnvVar = "APP_ENV"

// Environment is the deployment profile selected through APP_ENV.
type Environment string

const (
	EnvironmentDevelopment Environment = "development"
	EnvironmentStaging     Environment = "staging"
	EnvironmentProduction  Environment = "production"
)

var environmentAliases = map[string]Environment{
	"dev":         EnvironmentDevelopment,
	"local":       EnvironmentDevelopment,
	"prod":        EnvironmentProduction,
	"producation": EnvironmentProduction,
	"stag":        EnvironmentStaging,
	"stagging":    EnvironmentStaging,
}

// ParseEnvironment normalises aliases and case. Blank means development;
// unknown names are kept as given.
func ParseEnvironment(s string) Environment {
	env := strings.ToLower(strings.TrimSpace(s))
	if env == "" {
		return EnvironmentDevelopment
	}
	if canonical, ok := environmentAliases[env]; ok {
		return canonical
	}
	return Environment(env)
}

// AppEnvironment reads APP_ENV.
func AppEnvironment() Environment {
	return ParseEnvironment(os.Getenv(appEnvVar))
}

func (e Environment) String() string { return string(e) }

// IsProductionLike is true for staging and production. Those profiles trade
// real symbols, so they refuse the synthetic candle source.
func (e Environment) IsProductionLike() bool {
	return e == EnvironmentProduction || e == EnvironmentStaging
}

// validate applies the rules that only hold for some profiles. Production
// additionally needs strategies to survive a restart.
func (e Environment) validate(cfg *Config) error {
	if !e.IsProductionLike() {
		return nil
	}
	if cfg.MarketData.Source == "sample" {
		return fmt.Errorf("market_data.source 'sample' is not allowed in %s", e)
	}
	if e == EnvironmentProduction && cfg.Storage.Backend == "memory" {
		return fmt.Errorf("storage.backend 'memory' is not allowed in %s", e)
	}
	return nil
}

// resolveEnvSpecificPath swaps the default path for the file of the current
// profile, if one is registered. An explicit path always wins.
func resolveEnvSpecificPath(path, defaultPath string, envPaths map[Environment]string) string {
	if path == "" {
		path = defaultPath
	}
	if envPath, ok := envPaths[AppEnvironment()]; ok && (path == defaultPath || path == envPath) {
		return envPath
	}
	return path
}
