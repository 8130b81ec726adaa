package fsbackend

import (
	"os"

	"github.com/opencore/coregit/internal/gitpath"
	"golang.org/x/xerrors"
	"gopkg.in/ini.v1"
)

// setDefaultCfg sets and persists the default git configuration for
// a freshly initialized repository
func (b *Backend) setDefaultCfg() error {
	cfg := ini.Empty()

	core, err := cfg.NewSection("core")
	if err != nil {
		return xerrors.Errorf("could not create core section: %w", err)
	}
	coreCfg := map[string]string{
		"repositoryformatversion": "0",
		"filemode":                "true",
		"bare":                    "false",
		"logallrefupdates":        "true",
		"ignorecase":              "true",
		"precomposeunicode":       "true",
	}
	for k, v := range coreCfg {
		if _, err := core.NewKey(k, v); err != nil {
			return xerrors.Errorf("could not set core.%s: %w", k, err)
		}
	}

	f, err := b.fs.OpenFile(b.path(gitpath.ConfigPath), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return xerrors.Errorf("could not open config file: %w", err)
	}
	defer f.Close() //nolint:errcheck // best-effort close, write error already reported

	if _, err := cfg.WriteTo(f); err != nil {
		return xerrors.Errorf("could not write config file: %w", err)
	}
	return nil
}
