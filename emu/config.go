package emu

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"nescart/emu/log"
	"nescart/ines"
)

type Config struct {
	Log       LogConfig       `toml:"log"`
	Bus       BusConfig       `toml:"bus"`
	Cartridge CartridgeConfig `toml:"cartridge"`
}

type LogConfig struct {
	// Modules with debug logs enabled.
	Modules []string `toml:"modules"`
}

type BusConfig struct {
	// LogUnmapped logs the first access to each unmapped address.
	LogUnmapped bool `toml:"log_unmapped"`
}

type CartridgeConfig struct {
	// BatteryDir is where battery-backed RAM images (.sav) are read from.
	// When empty, they're looked for next to the rom.
	BatteryDir string `toml:"battery_dir"`
}

const (
	cfgDirname  = "nescart"
	cfgFilename = "config.toml"
)

// ConfigPath returns the path of the configuration file in the user config
// directory.
func ConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, cfgDirname, cfgFilename), nil
}

// LoadConfig loads the configuration from path.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, err
	}
	for _, key := range md.Undecoded() {
		log.ModEmu.WarnZ("unknown configuration key").
			String("file", path).
			String("key", key.String()).
			End()
	}
	return cfg, nil
}

// LoadConfigOrDefault loads the configuration from the user config
// directory, or provides a default one if there's none.
func LoadConfigOrDefault() Config {
	path, err := ConfigPath()
	if err != nil {
		return Config{}
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.ModEmu.WarnZ("failed to load configuration, using default").
				String("file", path).
				Error("err", err).
				End()
		}
		return Config{}
	}
	return cfg
}

// SaveConfig writes the configuration to path, creating its directory if
// needed.
func SaveConfig(cfg Config, path string) error {
	buf, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0o644)
}

// EnableLogModules enables debug logs for the modules listed in the
// configuration. Unknown modules are reported and skipped.
func (cfg Config) EnableLogModules() {
	var mask log.ModuleMask
	for _, name := range cfg.Log.Modules {
		mod, ok := log.ModuleByName(name)
		if !ok {
			log.ModEmu.WarnZ("unknown log module").String("name", name).End()
			continue
		}
		mask |= mod.Mask()
	}
	if mask != 0 {
		log.EnableDebugModules(mask)
	}
}

// BatteryPath returns the path of the battery-backed RAM image of a rom.
func (cfg Config) BatteryPath(romPath string) string {
	name := strings.TrimSuffix(filepath.Base(romPath), filepath.Ext(romPath)) + ".sav"
	if cfg.Cartridge.BatteryDir != "" {
		return filepath.Join(cfg.Cartridge.BatteryDir, name)
	}
	return filepath.Join(filepath.Dir(romPath), name)
}

// OpenRom loads a rom and, for cartridges with battery-backed RAM, its
// saved RAM image if there's one.
func (cfg Config) OpenRom(path string) (*ines.Rom, error) {
	rom, err := ines.Open(path)
	if err != nil {
		return nil, err
	}
	if !rom.HasPersistent() {
		return rom, nil
	}

	sav := cfg.BatteryPath(path)
	buf, err := os.ReadFile(sav)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return rom, nil
	case err != nil:
		return nil, err
	}
	rom.Battery = buf
	log.ModEmu.InfoZ("battery RAM loaded").
		String("file", sav).
		Int("size", len(buf)).
		End()
	return rom, nil
}
