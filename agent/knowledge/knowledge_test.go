package knowledge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmbeddedDocuments(t *testing.T) {
	t.Parallel()

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{TopicAboutUs, TopicPriceList}, s.Topics())

	about, ok := s.Lookup(TopicAboutUs)
	require.True(t, ok)
	assert.Contains(t, about.Content, "Lucknow")
	assert.Contains(t, about.Content, "10 AM to 8 PM")

	prices, ok := s.Lookup(TopicPriceList)
	require.True(t, ok)
	assert.Contains(t, prices.Content, "Peace Lily: Rs. 150")

	_, ok = s.Lookup("staff")
	assert.False(t, ok)
	assert.Len(t, s.All(), 2)
}

func TestNewRejectsEmptyDocument(t *testing.T) {
	t.Parallel()

	_, err := New(map[string]string{"a": "x", "b": "  "}, []string{"a", "b"})
	assert.Error(t, err)

	_, err = New(map[string]string{"a": "x", "b": "y"}, []string{"a"})
	assert.Error(t, err)
}

func TestTopicsIsACopy(t *testing.T) {
	t.Parallel()

	s := MustLoad()
	topics := s.Topics()
	topics[0] = "changed"
	assert.Equal(t, TopicAboutUs, s.Topics()[0])
}
