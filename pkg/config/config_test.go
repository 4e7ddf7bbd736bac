package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleConfig struct {
	Name    string  `split_words:"true" required:"true"`
	TaxRate float64 `split_words:"true" default:"0.05"`
}

func (c *sampleConfig) Validate() error {
	if c.TaxRate < 0 {
		return errors.New("tax rate must be >= 0")
	}
	return nil
}

func TestLoadEnvFileExportsMissingKeysOnly(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("CFGTEST_NAME=plantify\nCFGTEST_TAX_RATE=0.1\n"), 0o600))

	t.Setenv("CFGTEST_TAX_RATE", "0.2")
	require.NoError(t, LoadEnvFile(path))

	assert.Equal(t, "plantify", os.Getenv("CFGTEST_NAME"))
	assert.Equal(t, "0.2", os.Getenv("CFGTEST_TAX_RATE"))
}

func TestNewRunsValidator(t *testing.T) {
	t.Setenv("CFGNEG_NAME", "x")
	t.Setenv("CFGNEG_TAX_RATE", "-1")

	_, err := New[sampleConfig]("CFGNEG")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tax rate")
}

func TestNewAppliesDefaults(t *testing.T) {
	t.Setenv("CFGDEF_NAME", "shop")

	conf, err := New[sampleConfig]("CFGDEF")
	require.NoError(t, err)
	assert.Equal(t, "shop", conf.Name)
	assert.InDelta(t, 0.05, conf.TaxRate, 1e-9)
}
