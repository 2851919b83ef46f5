package main

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	altsrc "github.com/urfave/cli-altsrc/v3"
	"github.com/urfave/cli/v3"
)

const (
	configDirName  = "rsocket-echo"
	configFileName = "config.toml"
)

// configFile returns the path to the app's TOML configuration file,
// creating an empty one on first run, per the corpus's xdg-config-dir
// convention (see tzrikka-timpani/cmd/timpani/main.go's configFile).
func configFile() altsrc.StringSourcer {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	dir = filepath.Join(dir, configDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return altsrc.StringSourcer("")
	}
	path := filepath.Join(dir, configFileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		_ = os.WriteFile(path, nil, 0o644)
	}
	return altsrc.StringSourcer(path)
}

func commonFlags(path altsrc.StringSourcer) []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "human-readable, colorized console logging instead of JSON",
		},
	}
}

// echoExtras holds settings that don't map cleanly onto CLI flags: decoded
// directly from the same TOML file via BurntSushi/toml, rather than through
// cli-altsrc/v3's per-flag sourcing, so the config file can carry a section
// no flag names at all (spec.md §6 gives applications free rein over their
// own, non-protocol configuration).
type echoExtras struct {
	Echo struct {
		Prefix string `toml:"prefix"`
	} `toml:"echo"`
}

func loadEchoExtras(path string) echoExtras {
	var extras echoExtras
	extras.Echo.Prefix = "echo:"
	if path == "" {
		return extras
	}
	// A missing or unparsable file just keeps the default; this is a demo
	// convenience layer, not protocol configuration.
	_, _ = toml.DecodeFile(path, &extras)
	return extras
}
