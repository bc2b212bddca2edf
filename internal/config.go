package internal

import "time"

// Config is the full environment of the sync client.
type Config struct {
	GatewayURL string `env:"GATEWAY_URL,required=true"`
	RestURL    string `env:"REST_URL,required=true"`

	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	LogLevel       string `env:"LOG_LEVEL,required=true"`

	AccessToken string `env:"ACCESS_TOKEN,required=true"`
	MemberID    string `env:"MEMBER_ID,required=true"`
	Nickname    string `env:"NICKNAME,required=true"`

	HistoryPageSize   int           `env:"HISTORY_PAGE_SIZE,default=20"`
	RetryInterval     time.Duration `env:"RETRY_INTERVAL,default=3s"`
	MaxRetryAttempts  int           `env:"MAX_RETRY_ATTEMPTS,default=5"`
	KeepaliveInterval time.Duration `env:"KEEPALIVE_INTERVAL,default=30s"`
	ListDebounce      time.Duration `env:"LIST_DEBOUNCE,default=500ms"`
	RestartInterval   time.Duration `env:"RESTART_INTERVAL,default=1s"`

	DebugPort int `env:"DEBUG_PORT"`
}
