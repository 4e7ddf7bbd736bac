package knowledge

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	TopicAboutUs   = "about_us"
	TopicPriceList = "price_list"
)

var (
	//go:embed documents/about_us.txt
	aboutUsRaw string

	//go:embed documents/price_list.txt
	priceListRaw string
)

type Document struct {
	Topic   string
	Content string
}

// Store is a read-only set of store documents keyed by topic.
type Store struct {
	order []string
	docs  map[string]Document
}

// Load builds the store from the embedded documents.
func Load() (*Store, error) {
	return New(map[string]string{
		TopicAboutUs:   aboutUsRaw,
		TopicPriceList: priceListRaw,
	}, []string{TopicAboutUs, TopicPriceList})
}

// MustLoad is Load for process start-up.
func MustLoad() *Store {
	s, err := Load()
	if err != nil {
		panic(err)
	}
	return s
}

// New builds a store from topic contents; order fixes the Topics and All order.
func New(contents map[string]string, order []string) (*Store, error) {
	s := &Store{docs: make(map[string]Document, len(contents))}
	for _, topic := range order {
		content := strings.TrimSpace(contents[topic])
		if content == "" {
			return nil, fmt.Errorf("knowledge: document %q is empty", topic)
		}
		s.docs[topic] = Document{Topic: topic, Content: content}
		s.order = append(s.order, topic)
		log.Debug().Str("topic", topic).Int("bytes", len(content)).Msg("knowledge document loaded")
	}
	if len(s.order) != len(contents) {
		return nil, fmt.Errorf("knowledge: %d documents but %d ordered topics", len(contents), len(s.order))
	}
	return s, nil
}

func (s *Store) Lookup(topic string) (Document, bool) {
	d, ok := s.docs[topic]
	return d, ok
}

func (s *Store) Topics() []string {
	return append([]string(nil), s.order...)
}

func (s *Store) All() []Document {
	out := make([]Document, 0, len(s.order))
	for _, t := range s.order {
		out = append(out, s.docs[t])
	}
	return out
}
