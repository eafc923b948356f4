package types

// MessageOrigin enumerates the external channels evidence arrives from.
type MessageOrigin string

// External message channels.
const (
	OriginEmail   MessageOrigin = "email"
	OriginTwitter MessageOrigin = "twitter"
	OriginMatrix  MessageOrigin = "matrix"
)

// ExternalMessageOrigin identifies the endpoint a message was received from,
// e.g. the sender email address or twitter handle.
type ExternalMessageOrigin struct {
	Type  MessageOrigin `json:"type"`
	Value string        `json:"value"`
}

// ExternalMessage is evidence delivered by a transport adapter. Values holds
// the textual parts of the message, any of which may contain the expected
// nonce.
type ExternalMessage struct {
	Origin    ExternalMessageOrigin `json:"origin"`
	ID        uint64                `json:"id"`
	Timestamp uint64                `json:"timestamp"`
	Values    []string              `json:"values"`
}

// SecondChallengeAttempt is a user-submitted answer to the secondary
// challenge of a field, delivered through the front-end.
type SecondChallengeAttempt struct {
	Entry     IdentityFieldValue `json:"entry"`
	Challenge string             `json:"challenge"`
}

// AccountState is the payload the event notifier publishes to subscribers:
// the latest public projection of an identity's state bundled with the
// notifications that triggered the push.
type AccountState struct {
	State         JudgementStateBlanked `json:"state"`
	Notifications []NotificationMessage `json:"notifications"`
}
