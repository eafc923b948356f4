// Package iface defines the persistence interface of the registrar core.
// The interface reflects the verification logic, not the underlying data
// engine: instead of get/put/remove it exposes operations such as
// UpsertJudgementRequest and ProcessFullyVerified.
package iface

import (
	"context"
	"io"

	"github.com/registrarlabs/registrar/registrar/types"
)

// UpsertOutcome reports what an UpsertJudgementRequest call did.
type UpsertOutcome uint8

// Upsert outcomes.
const (
	// Inserted means no state existed for the context and the request was
	// stored verbatim.
	Inserted UpsertOutcome = iota
	// Updated means the stored field set changed.
	Updated
	// Unchanged means the request matched the stored field set element-wise
	// and nothing was written.
	Unchanged
)

// String implements fmt.Stringer.
func (o UpsertOutcome) String() string {
	switch o {
	case Inserted:
		return "inserted"
	case Updated:
		return "updated"
	case Unchanged:
		return "unchanged"
	default:
		return "unknown"
	}
}

// Database defines the storage operations of the verification core. All
// mutations are expressed as conditional updates so that concurrent writers
// cannot clobber each other's transitions.
type Database interface {
	io.Closer
	DatabasePath() string
	ClearDB() error

	// Judgement states.
	UpsertJudgementRequest(ctx context.Context, state *types.JudgementState) (UpsertOutcome, error)
	JudgementState(ctx context.Context, id types.IdentityContext) (*types.JudgementState, error)
	DeleteJudgementState(ctx context.Context, id types.IdentityContext) error
	JudgementCandidates(ctx context.Context, chain types.ChainName) ([]*types.JudgementState, error)
	SetJudged(ctx context.Context, id types.IdentityContext) error
	JudgementStatesByOrigin(ctx context.Context, origin types.ExternalMessageOrigin) ([]*types.JudgementState, error)
	JudgementStatesByFieldValue(ctx context.Context, value types.IdentityFieldValue) ([]*types.JudgementState, error)

	// Event log.
	InsertEvent(ctx context.Context, msg types.NotificationMessage) error
	Events(ctx context.Context, after types.Timestamp) ([]types.NotificationMessage, types.Timestamp, error)

	// Display name corpus.
	UpsertDisplayName(ctx context.Context, entry types.DisplayNameEntry) error
	DisplayNames(ctx context.Context, chain types.ChainName) ([]types.DisplayNameEntry, error)
	SetDisplayNameValid(ctx context.Context, state *types.JudgementState) error
	SetDisplayNameViolations(ctx context.Context, id types.IdentityContext, violations []types.DisplayNameEntry) error

	// Field-scoped guarded mutations.
	MarkFieldPrimaryVerified(ctx context.Context, id types.IdentityContext, value types.IdentityFieldValue) (bool, error)
	IncrementFieldFailedAttempts(ctx context.Context, id types.IdentityContext, value types.IdentityFieldValue) (bool, error)
	MarkFieldSecondaryVerified(ctx context.Context, id types.IdentityContext, value types.IdentityFieldValue) (bool, error)
	MarkFieldManuallyVerified(ctx context.Context, id types.IdentityContext, field types.RawFieldName) (bool, error)
	SecondChallenge(ctx context.Context, id types.IdentityContext, value types.IdentityFieldValue) (types.ExpectedMessage, error)

	// Completion transitions.
	ProcessFullyVerified(ctx context.Context, id types.IdentityContext) error
	MarkFullManualVerification(ctx context.Context, id types.IdentityContext) (bool, error)
	ProcessDanglingJudgementStates(ctx context.Context) error
}
