package session

import (
	"fmt"
	"time"

	contractx "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/contract"
)

type Kind string

const (
	KindMemory   Kind = "memory"
	KindUpstash  Kind = "upstash"
	KindPostgres Kind = "postgres"
)

// Config selects the session backend. Backend credentials live under their
// own prefixes (UPSTASH_REDIS_*, POSTGRES_*).
type Config struct {
	Kind      Kind          `envconfig:"KIND" split_words:"true" default:"memory"`
	TTL       time.Duration `envconfig:"TTL" split_words:"true" default:"24h"`
	KeyPrefix string        `envconfig:"KEY_PREFIX" split_words:"true" default:"plantify:session:"`
}

func (c Config) Validate() error {
	switch c.Kind {
	case KindMemory, KindUpstash, KindPostgres:
	default:
		return fmt.Errorf("%w: unsupported session store kind=%q", contractx.ErrValidation, c.Kind)
	}
	if c.TTL < 0 {
		return fmt.Errorf("%w: session ttl must be >= 0", contractx.ErrValidation)
	}
	return nil
}
