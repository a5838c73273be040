package config

import (
	"fmt"
	"io"

	"github.com/BurntSushi/toml"
)

// RenderEffective writes the resolved configuration to w as TOML, with the
// private key masked. This powers the "config show" command.
func RenderEffective(cfg *Config, w io.Writer) error {
	if _, err := fmt.Fprintln(w, "# Effective configuration (defaults -> file -> env -> flags)"); err != nil {
		return err
	}

	return toml.NewEncoder(w).Encode(cfg.Redacted())
}
