package main

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config carries the tunable constants. Every field has a working default;
// the config file only needs the fields being changed. Thresholds and
// durations are tuning, not protocol.
type Config struct {
	DBPath string `yaml:"dbPath"`

	TapThresholdPx   float64 `yaml:"tapThresholdPx"`
	PinchThresholdPx float64 `yaml:"pinchThresholdPx"`
	LongPressMS      int     `yaml:"longPressMs"`
	MinScale         float64 `yaml:"minScale"`
	MaxScale         float64 `yaml:"maxScale"`
	HighlightPulseMS int     `yaml:"highlightPulseMs"`

	CellWidth    float64 `yaml:"cellWidth"`
	CellHeight   float64 `yaml:"cellHeight"`
	HeaderHeight float64 `yaml:"headerHeight"`
	LabelWidth   float64 `yaml:"labelWidth"`

	MainRows   int `yaml:"mainRows"`
	MainCols   int `yaml:"mainCols"`
	BufferRows int `yaml:"bufferRows"`
	BufferCols int `yaml:"bufferCols"`
}

func defaultConfig() *Config {
	cfg := &Config{
		TapThresholdPx:   defaultTapThreshold,
		PinchThresholdPx: defaultPinchThreshold,
		LongPressMS:      int(defaultLongPress / time.Millisecond),
		MinScale:         defaultMinScale,
		MaxScale:         defaultMaxScale,
		HighlightPulseMS: int(defaultHighlightPulse / time.Millisecond),
		CellWidth:        defaultCellWidth,
		CellHeight:       defaultCellHeight,
		HeaderHeight:     defaultHeaderHeight,
		LabelWidth:       defaultLabelWidth,
		MainRows:         defaultMainRows,
		MainCols:         defaultMainCols,
		BufferRows:       defaultBufferRows,
		BufferCols:       defaultBufferCols,
	}
	if home, err := os.UserHomeDir(); err == nil {
		cfg.DBPath = filepath.Join(home, ".gridstock.db")
	} else {
		cfg.DBPath = "gridstock.db"
	}
	return cfg
}

// loadConfig merges ~/.gridstock.yaml over the defaults. A missing or
// unreadable file just means defaults.
func loadConfig() *Config {
	cfg := defaultConfig()

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg
	}
	data, err := os.ReadFile(filepath.Join(home, ".gridstock.yaml"))
	if err != nil {
		return cfg
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		// a broken config file should not block startup
		return defaultConfig()
	}
	return cfg
}

func (c *Config) gestureConfig() gestureConfig {
	return gestureConfig{
		tapThreshold:   c.TapThresholdPx,
		pinchThreshold: c.PinchThresholdPx,
		longPress:      time.Duration(c.LongPressMS) * time.Millisecond,
	}
}

func (c *Config) pulseWindow() time.Duration {
	return time.Duration(c.HighlightPulseMS) * time.Millisecond
}

func (c *Config) mainGeometry() gridGeometry {
	return gridGeometry{
		rows: c.MainRows, cols: c.MainCols,
		cellW: c.CellWidth, cellH: c.CellHeight,
		headerH: c.HeaderHeight, labelW: c.LabelWidth,
	}
}

func (c *Config) bufferGeometry() gridGeometry {
	return gridGeometry{
		rows: c.BufferRows, cols: c.BufferCols,
		cellW: c.CellWidth, cellH: c.CellHeight,
		headerH: c.HeaderHeight, labelW: c.LabelWidth,
	}
}
