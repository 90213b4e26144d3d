package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/sparques/irnec/nec"
)

func TestLoadConfig(t *testing.T) {
	c := qt.New(t)

	path := filepath.Join(t.TempDir(), "irnec.yaml")
	err := os.WriteFile(path, []byte(`
rx_pin: GPIO27
protocol: keyestudio
repeat_timeout: 300ms
log_level: debug
`), 0o600)
	c.Assert(err, qt.IsNil)

	cfg, err := loadConfig(path)
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.RxPin, qt.Equals, "GPIO27")
	c.Assert(cfg.TxPin, qt.Equals, "GPIO18")
	c.Assert(cfg.RepeatTimeout, qt.Equals, 300*time.Millisecond)

	p, err := cfg.protocol()
	c.Assert(err, qt.IsNil)
	c.Assert(p, qt.Equals, nec.ProtocolKeyestudio)

	level, err := cfg.logLevel()
	c.Assert(err, qt.IsNil)
	c.Assert(level, qt.Equals, slog.LevelDebug)
}

func TestLoadConfigErrors(t *testing.T) {
	c := qt.New(t)

	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	c.Assert(err, qt.ErrorMatches, "read config: .*")

	path := filepath.Join(t.TempDir(), "bad.yaml")
	c.Assert(os.WriteFile(path, []byte("rx_pin: [\n"), 0o600), qt.IsNil)
	_, err = loadConfig(path)
	c.Assert(err, qt.ErrorMatches, "parse config .*")

	cfg := defaultConfig()
	cfg.Protocol = "rc5"
	_, err = cfg.protocol()
	c.Assert(err, qt.ErrorMatches, `unknown protocol "rc5"`)

	cfg.LogLevel = "loud"
	_, err = cfg.logLevel()
	c.Assert(err, qt.IsNotNil)
}
