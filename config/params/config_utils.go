package params

import (
	"sync"

	"github.com/mohae/deepcopy"
)

var registrarConfig = MainnetConfig()
var registrarConfigLock sync.RWMutex

// RegistrarConfig retrieves the active protocol config.
func RegistrarConfig() *ProtocolConfig {
	registrarConfigLock.RLock()
	defer registrarConfigLock.RUnlock()
	return registrarConfig
}

// OverrideRegistrarConfig by replacing the config. The preferred pattern is
// to call RegistrarConfig(), change the specific parameters, and then call
// OverrideRegistrarConfig(c). Any subsequent calls to params.RegistrarConfig()
// will return this new configuration.
func OverrideRegistrarConfig(c *ProtocolConfig) {
	registrarConfigLock.Lock()
	defer registrarConfigLock.Unlock()
	registrarConfig = c
}

// Copy returns a copy of the config object.
func (c *ProtocolConfig) Copy() *ProtocolConfig {
	registrarConfigLock.RLock()
	defer registrarConfigLock.RUnlock()
	config, ok := deepcopy.Copy(*c).(ProtocolConfig)
	if !ok {
		config = *registrarConfig
	}
	return &config
}
