package properties

import (
	"strings"

	"go.uber.org/zap"

	"buildnerd/internal/sysprops"
)

// SystemPropertyInstaller receives a build's fully merged property set
// and side-effects the process-wide system-property table. The controller
// invokes it exactly once per real (non-idempotent-skip) build load that
// requested system properties.
type SystemPropertyInstaller interface {
	Install(props map[string]string)
}

// Installer installs systemProp.-marked entries into a sysprops store.
// Command-line -D definitions always win: a marked file entry whose bare
// key was already supplied on the command line is skipped, since the -D
// value was installed at startup.
type Installer struct {
	store  *sysprops.Store
	args   map[string]string
	logger *zap.Logger
}

// NewInstaller returns an installer writing to store. args are the -D
// command-line definitions, keyed by bare property name.
func NewInstaller(store *sysprops.Store, args map[string]string, logger *zap.Logger) *Installer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Installer{store: store, args: args, logger: logger}
}

func (i *Installer) Install(props map[string]string) {
	installed := 0
	for key, value := range props {
		bare := strings.TrimPrefix(key, SystemPropMarker)
		if bare == key || bare == "" {
			continue
		}
		if _, fromCommandLine := i.args[bare]; fromCommandLine {
			i.logger.Debug("skipping file-sourced system property, command line wins",
				zap.String("key", bare))
			continue
		}
		i.store.Set(bare, value)
		installed++
	}
	if installed > 0 {
		i.logger.Debug("installed system properties", zap.Int("count", installed))
	}
}
