// Package params defines important constants that are essential to the
// registrar services.
package params

import (
	"time"
)

// ProtocolConfig contains constant configs for the identity verification
// protocol. Values with a yaml tag can be overridden through a protocol
// config file.
type ProtocolConfig struct {
	ConfigName string `yaml:"CONFIG_NAME"` // ConfigName allows an easy identification of the config in use.

	// Challenge constants.
	ChallengeNonceLength int `yaml:"CHALLENGE_NONCE_LENGTH"` // ChallengeNonceLength is the byte length of generated challenge nonces.

	// Judgement issuance constants.
	JudgementDelayMin uint64 `yaml:"JUDGEMENT_DELAY_MIN"` // JudgementDelayMin is the inclusive lower bound in seconds of the randomized issuance delay.
	JudgementDelayMax uint64 `yaml:"JUDGEMENT_DELAY_MAX"` // JudgementDelayMax is the exclusive upper bound in seconds of the randomized issuance delay.
	DanglingThreshold uint64 `yaml:"DANGLING_THRESHOLD"`  // DanglingThreshold is the age in seconds after which completed states with no judgement are reclaimed.

	// Background task intervals.
	NotifierPollInterval  time.Duration // NotifierPollInterval is how often the event notifier polls the event log.
	DanglingCheckInterval time.Duration // DanglingCheckInterval is how often the scheduler scans for dangling states.
}
