package params

import (
	"time"
)

// MainnetConfig returns the configuration to be used in the main network.
func MainnetConfig() *ProtocolConfig {
	return mainnetProtocolConfig
}

var mainnetProtocolConfig = &ProtocolConfig{
	ConfigName: "mainnet",

	// Challenge constants.
	ChallengeNonceLength: 16,

	// Judgement issuance constants. The randomized delay between completion
	// and issuance prevents timing attacks where an identity is updated
	// right before the judgement is submitted.
	JudgementDelayMin: 30,
	JudgementDelayMax: 300,
	DanglingThreshold: 3600,

	// Background task intervals.
	NotifierPollInterval:  time.Second,
	DanglingCheckInterval: time.Minute,
}

// DevnetConfig returns a config with shortened delays, suitable for local
// development networks where waiting out mainnet delays is impractical.
func DevnetConfig() *ProtocolConfig {
	cfg := MainnetConfig().Copy()
	cfg.ConfigName = "devnet"
	cfg.JudgementDelayMin = 1
	cfg.JudgementDelayMax = 5
	cfg.DanglingThreshold = 60
	return cfg
}

// UseDevnetConfig sets the devnet config as the active protocol config.
func UseDevnetConfig() {
	OverrideRegistrarConfig(DevnetConfig())
}

// UseMainnetConfig sets the mainnet config as the active protocol config.
func UseMainnetConfig() {
	OverrideRegistrarConfig(MainnetConfig())
}
