package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/contract"
)

const defaultKeyPrefix = "plantify:session:"

type UpstashRedisConfig struct {
	URL     string        `envconfig:"URL" split_words:"true" required:"true"`
	Token   string        `envconfig:"TOKEN" split_words:"true" required:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

// UpstashRedisStore keeps each session as one JSON string under
// KeyPrefix+id, written through the Upstash REST endpoint.
type UpstashRedisStore struct {
	endpoint string
	token    string
	client   *http.Client
	prefix   string
	ttl      time.Duration
}

var _ Store = (*UpstashRedisStore)(nil)

// NewUpstashRedisStore takes key prefix and TTL from sess. A nil client gets
// one with cfg.Timeout.
func NewUpstashRedisStore(cfg UpstashRedisConfig, sess Config, client *http.Client) (*UpstashRedisStore, error) {
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, fmt.Errorf("%w: upstash url: %v", contractx.ErrValidation, err)
	}
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, fmt.Errorf("%w: upstash token is required", contractx.ErrValidation)
	}
	if sess.TTL < 0 {
		return nil, fmt.Errorf("%w: session ttl must be >= 0", contractx.ErrValidation)
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	prefix := strings.TrimSpace(sess.KeyPrefix)
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &UpstashRedisStore{
		endpoint: endpoint,
		token:    strings.TrimSpace(cfg.Token),
		client:   client,
		prefix:   prefix,
		ttl:      sess.TTL,
	}, nil
}

func (s *UpstashRedisStore) Load(ctx context.Context, sessionID string) (*Session, error) {
	key, err := s.key(sessionID)
	if err != nil {
		return nil, err
	}

	var value *string
	if err := s.do(ctx, &value, "GET", key); err != nil {
		return nil, err
	}
	if value == nil {
		return nil, ErrNotFound
	}

	var sess Session
	if err := json.Unmarshal([]byte(*value), &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session %s: %w", sessionID, err)
	}
	if err := sess.Validate(); err != nil {
		return nil, fmt.Errorf("stored session %s: %w", sessionID, err)
	}
	return &sess, nil
}

func (s *UpstashRedisStore) Save(ctx context.Context, sess *Session) error {
	if err := prepare(sess); err != nil {
		return err
	}
	key, err := s.key(sess.ID)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	args := []string{"SET", key, string(payload)}
	if s.ttl > 0 {
		args = append(args, "EX", strconv.FormatInt(int64(math.Ceil(s.ttl.Seconds())), 10))
	}
	return s.do(ctx, nil, args...)
}

func (s *UpstashRedisStore) Delete(ctx context.Context, sessionID string) error {
	key, err := s.key(sessionID)
	if err != nil {
		return err
	}
	return s.do(ctx, nil, "DEL", key)
}

func (s *UpstashRedisStore) key(sessionID string) (string, error) {
	if strings.TrimSpace(sessionID) == "" {
		return "", ErrInvalidSession
	}
	return s.prefix + sessionID, nil
}

// do posts one command as a JSON array and decodes its result into out.
func (s *UpstashRedisStore) do(ctx context.Context, out any, args ...string) error {
	body, err := json.Marshal(args)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build upstash request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("upstash %s: %w", args[0], err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return fmt.Errorf("read upstash response: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("upstash %s: status=%d body=%s", args[0], resp.StatusCode, raw)
	}

	var reply struct {
		Result json.RawMessage `json:"result"`
		Error  string          `json:"error"`
	}
	if err := json.Unmarshal(raw, &reply); err != nil {
		return fmt.Errorf("decode upstash response: %w", err)
	}
	if reply.Error != "" {
		return errors.New(reply.Error)
	}
	if out == nil || len(reply.Result) == 0 {
		return nil
	}
	return json.Unmarshal(reply.Result, out)
}
