// Package admin implements the registrar's operator command processor. The
// presentation transport (a chat connector in production) stays external;
// this package owns the grammar, the dispatch, and the response texts.
package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/registrarlabs/registrar/registrar/db"
	"github.com/registrarlabs/registrar/registrar/types"
	"github.com/registrarlabs/registrar/registrar/verification"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("prefix", "admin")

// Canonical operator responses. The internal-error text is kept verbatim
// from the long-deployed connector, typo included.
const (
	ResponseUnknownCommand   = "The provided command is unknown"
	ResponseIdentityNotFound = "There is no pending judgement request for the provided identity"
	ResponseInternalError    = "An internal error occured. Please contact the architects."
	ResponseHelp             = "status <ADDR>\t\t\tShow the current verification status of the specified address.\n" +
		"verify <ADDR> <FIELD>...\tVerify one or multiple fields of the specified address.\n"
)

// Config options for the admin command processor.
type Config struct {
	Database db.Database
	Verifier *verification.Service
}

// Processor parses and dispatches operator commands.
type Processor struct {
	cfg *Config
}

// NewProcessor instantiates a command processor from configuration values.
func NewProcessor(cfg *Config) *Processor {
	return &Processor{cfg: cfg}
}

// ProcessCommand parses one operator command line and returns the response
// text. Internal errors never surface to the operator; they are logged and
// replaced by the canonical internal-error response.
func (p *Processor) ProcessCommand(ctx context.Context, input string) string {
	tokens := strings.Fields(input)
	if len(tokens) == 0 {
		return ResponseUnknownCommand
	}
	switch tokens[0] {
	case "status":
		if len(tokens) != 2 {
			return ResponseUnknownCommand
		}
		return p.status(ctx, inferContext(tokens[1]))
	case "verify":
		if len(tokens) < 3 {
			return ResponseUnknownCommand
		}
		return p.verify(ctx, inferContext(tokens[1]), tokens[2:])
	case "help":
		if len(tokens) != 1 {
			return ResponseUnknownCommand
		}
		return ResponseHelp
	default:
		return ResponseUnknownCommand
	}
}

// inferContext maps an address to its chain by the SS58 prefix convention:
// Polkadot addresses start with "1", everything else is treated as Kusama.
func inferContext(address string) types.IdentityContext {
	chain := types.Kusama
	if strings.HasPrefix(address, "1") {
		chain = types.Polkadot
	}
	return types.IdentityContext{Address: types.ChainAddress(address), Chain: chain}
}

func (p *Processor) status(ctx context.Context, id types.IdentityContext) string {
	state, err := p.cfg.Database.JudgementState(ctx, id)
	if err != nil {
		return p.internalError(errors.Wrap(err, "status lookup failed"))
	}
	if state == nil {
		return ResponseIdentityNotFound
	}
	pretty, err := json.MarshalIndent(state.Blanked(), "", "  ")
	if err != nil {
		return p.internalError(errors.Wrap(err, "could not render status"))
	}
	return string(pretty)
}

func (p *Processor) verify(ctx context.Context, id types.IdentityContext, tokens []string) string {
	fields := make([]types.RawFieldName, 0, len(tokens))
	fullVerification := false
	for _, token := range tokens {
		field, err := types.ParseRawFieldName(token)
		if err != nil {
			return fmt.Sprintf("Invalid input '%s'", types.NormalizeFieldName(token))
		}
		if field == types.RawAll {
			fullVerification = true
			continue
		}
		fields = append(fields, field)
	}

	if fullVerification {
		modified, err := p.cfg.Verifier.FullManualVerification(ctx, id)
		if err != nil {
			return p.internalError(errors.Wrap(err, "full manual verification failed"))
		}
		if !modified {
			return ResponseIdentityNotFound
		}
		return fmt.Sprintf("Verified the following fields: %s", types.RawAll)
	}

	verified := make([]string, 0, len(fields))
	for _, field := range fields {
		matched, err := p.cfg.Verifier.VerifyManually(ctx, id, field, true)
		if err != nil {
			return p.internalError(errors.Wrapf(err, "manual verification of %s failed", field))
		}
		if !matched {
			return ResponseIdentityNotFound
		}
		verified = append(verified, field.String())
	}
	return fmt.Sprintf("Verified the following fields: %s", strings.Join(verified, ", "))
}

func (p *Processor) internalError(err error) string {
	log.WithError(err).Error("Admin command failed")
	return ResponseInternalError
}
