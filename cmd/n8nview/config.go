package main

import (
	"path/filepath"

	"github.com/rendis/n8nview/internal/config"
)

// configDiff describes what changed between two configurations.
type configDiff struct {
	LogLevelChanged bool
	PanelChanged    bool     // upload limit or binary dir; the panel handler is rebuilt
	RestartNeeded   []string // fields that require a server restart
}

func diffConfigs(old, new config.Config) configDiff {
	var d configDiff
	if old.LogLevel != new.LogLevel {
		d.LogLevelChanged = true
	}
	if old.MaxUploadBytes != new.MaxUploadBytes || old.BinDir != new.BinDir {
		d.PanelChanged = true
	}
	if old.ListenAddr != new.ListenAddr {
		d.RestartNeeded = append(d.RestartNeeded, "listen_addr")
	}
	if old.LogFormat != new.LogFormat {
		d.RestartNeeded = append(d.RestartNeeded, "log_format")
	}
	if old.Locale != new.Locale {
		d.RestartNeeded = append(d.RestartNeeded, "locale")
	}
	if old.SessionTTL != new.SessionTTL {
		d.RestartNeeded = append(d.RestartNeeded, "session_ttl")
	}
	if old.SweepSchedule != new.SweepSchedule {
		d.RestartNeeded = append(d.RestartNeeded, "sweep_schedule")
	}
	return d
}

func pidPath() string {
	return filepath.Join(config.Dir(), "n8nview.pid")
}
