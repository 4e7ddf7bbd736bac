package api

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	contractx "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/contract"
	sessionx "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/session"
)

type Config struct {
	Addr            string        `envconfig:"ADDR" split_words:"true" default:":8080"`
	ExitWaitTimeout time.Duration `envconfig:"EXIT_WAIT_TIMEOUT" split_words:"true" default:"5s"`
	MaxBodyBytes    int           `envconfig:"MAX_BODY_BYTES" split_words:"true" default:"1048576"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: http addr is required", contractx.ErrValidation)
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("%w: max body bytes must be > 0", contractx.ErrValidation)
	}
	return nil
}

// Processor produces the assistant reply for a history ending in a user turn.
type Processor interface {
	Process(ctx context.Context, history []contractx.Turn) (contractx.Turn, error)
}

type Handler struct {
	processor Processor
	sessions  sessionx.Store
	locks     *sessionx.KeyedLocker
	now       func() time.Time
}

func NewHandler(processor Processor, sessions sessionx.Store) *Handler {
	return &Handler{
		processor: processor,
		sessions:  sessions,
		locks:     sessionx.NewKeyedLocker(),
		now:       time.Now,
	}
}

// Build registers the routes on a new hertz server listening on cfg.Addr.
func Build(cfg Config, h *Handler) *server.Hertz {
	s := server.Default(
		server.WithHostPorts(cfg.Addr),
		server.WithExitWaitTime(cfg.ExitWaitTimeout),
		server.WithMaxRequestBodySize(cfg.MaxBodyBytes),
	)
	Register(s, h)
	return s
}

func Register(s *server.Hertz, h *Handler) {
	s.GET("/api/health", h.Health)
	s.GET("/metrics", h.Metrics)

	api := s.Group("/api")
	api.POST("/process", h.Process)
	api.POST("/chat", h.Chat)
	api.GET("/sessions/:id", h.GetSession)
	api.DELETE("/sessions/:id", h.DeleteSession)
}
