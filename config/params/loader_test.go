package params

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/registrarlabs/registrar/testing/assert"
	"github.com/registrarlabs/registrar/testing/require"
)

func TestLoadProtocolConfigFile(t *testing.T) {
	prev := RegistrarConfig().Copy()
	defer OverrideRegistrarConfig(prev)

	content := []byte(
		"CONFIG_NAME: 'stagenet'\n" +
			"DANGLING_THRESHOLD: 120\n" +
			"JUDGEMENT_DELAY_MIN: 5\n",
	)
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, ioutil.WriteFile(p, content, os.FileMode(0600)))

	LoadProtocolConfigFile(p)

	cfg := RegistrarConfig()
	assert.Equal(t, "stagenet", cfg.ConfigName)
	assert.Equal(t, uint64(120), cfg.DanglingThreshold)
	assert.Equal(t, uint64(5), cfg.JudgementDelayMin)
	// Untouched values keep their mainnet defaults.
	assert.Equal(t, uint64(300), cfg.JudgementDelayMax)
	assert.Equal(t, 16, cfg.ChallengeNonceLength)
}

func TestLoadProtocolConfigFile_NoConfigName(t *testing.T) {
	prev := RegistrarConfig().Copy()
	defer OverrideRegistrarConfig(prev)

	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, ioutil.WriteFile(p, []byte("DANGLING_THRESHOLD: 240\n"), os.FileMode(0600)))

	LoadProtocolConfigFile(p)
	assert.Equal(t, "devnet", RegistrarConfig().ConfigName)
}
