package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	GatewayURL string `envconfig:"E2E_GATEWAY_URL"`
	RestURL    string `envconfig:"E2E_REST_URL"`
	// E2E_ACCESS_TOKEN must belong to a member allowed to create rooms
	AccessToken string `envconfig:"E2E_ACCESS_TOKEN"`
	MemberID    string `envconfig:"E2E_MEMBER_ID"`
	Nickname    string `envconfig:"E2E_NICKNAME" default:"e2e-runner"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
