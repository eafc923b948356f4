package kv

import (
	"github.com/registrarlabs/registrar/encoding/bytesutil"
	"github.com/registrarlabs/registrar/registrar/types"
)

// The schema defines how registrar data is keyed in the underlying BoltDB
// buckets. Identities are keyed by chain:address so that per-chain queries
// become prefix scans. Event log keys carry the bucket sequence number after
// the timestamp, keeping same-second appends distinct and ordered while the
// contractual resolution stays one second.
var (
	identitiesBucket   = []byte("identities")
	eventLogBucket     = []byte("event-log")
	displayNamesBucket = []byte("display-names")
)

// keySeparator cannot occur in a chain name, so chain prefix scans never
// match a longer chain name with the same prefix.
const keySeparator = ":"

func identityKey(id types.IdentityContext) []byte {
	return []byte(string(id.Chain) + keySeparator + string(id.Address))
}

func chainPrefix(chain types.ChainName) []byte {
	return []byte(string(chain) + keySeparator)
}

func displayNameKey(entry types.DisplayNameEntry) []byte {
	key := identityKey(entry.Context)
	key = append(key, 0x00)
	return append(key, entry.DisplayName...)
}

func eventKey(ts types.Timestamp, seq uint64) []byte {
	return append(bytesutil.Uint64ToBytesBigEndian(uint64(ts)), bytesutil.Uint64ToBytesBigEndian(seq)...)
}
