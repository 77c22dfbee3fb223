/*
Copyright (C) 2024  Carl-Philip Hänsch

    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU General Public License as published by
    the Free Software Foundation, either version 3 of the License, or
    (at your option) any later version.

    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

    You should have received a copy of the GNU General Public License
    along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/
package shoebox

import (
	"encoding/json"
	"fmt"
	"time"

	units "github.com/docker/go-units"
)

// SettingsT holds the tunables shared by a process's roll managers.
// Kept as one struct-of-knobs plus an accessor, the way memcp's
// storage.SettingsT/ChangeSettings works, rather than scattering flags
// across constructors.
type SettingsT struct {
	RollSizeMB       int64
	RollAfter        time.Duration
	RecoveryAttempts int
	TailPollInterval time.Duration
}

// Settings is the process-wide default configuration; callers may
// copy and override it per-manager.
var Settings = SettingsT{
	RollSizeMB:       1000,
	RollAfter:        60 * time.Minute,
	RecoveryAttempts: 3,
	TailPollInterval: 2 * time.Second,
}

// rawConfig is the on-disk JSON shape LoadSettingsJSON understands.
// Sizes are human strings ("10MB") parsed with docker/go-units, since
// the teacher has no config file of its own and this job is exactly
// what the rest of the pack reaches for go-units to do; durations
// ("90s") are parsed with time.ParseDuration.
type rawConfig struct {
	RollSize         string `json:"roll_size"`
	RollAfter        string `json:"roll_after"`
	RecoveryAttempts int    `json:"recovery_attempts"`
	TailPollInterval string `json:"tail_poll_interval"`
}

// LoadSettingsJSON parses a JSON configuration document into a
// SettingsT, starting from Settings' current values for any field the
// document omits.
func LoadSettingsJSON(data []byte) (SettingsT, error) {
	cfg := Settings
	var raw rawConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return SettingsT{}, fmt.Errorf("shoebox: bad settings document: %w", err)
	}

	if raw.RollSize != "" {
		bytes, err := units.FromHumanSize(raw.RollSize)
		if err != nil {
			return SettingsT{}, fmt.Errorf("shoebox: bad roll_size %q: %w", raw.RollSize, err)
		}
		cfg.RollSizeMB = bytes / bytesPerMiB
	}
	if raw.RollAfter != "" {
		d, err := time.ParseDuration(raw.RollAfter)
		if err != nil {
			return SettingsT{}, fmt.Errorf("shoebox: bad roll_after %q: %w", raw.RollAfter, err)
		}
		cfg.RollAfter = d
	}
	if raw.RecoveryAttempts > 0 {
		cfg.RecoveryAttempts = raw.RecoveryAttempts
	}
	if raw.TailPollInterval != "" {
		d, err := time.ParseDuration(raw.TailPollInterval)
		if err != nil {
			return SettingsT{}, fmt.Errorf("shoebox: bad tail_poll_interval %q: %w", raw.TailPollInterval, err)
		}
		cfg.TailPollInterval = d
	}

	return cfg, nil
}

// ChangeSettings replaces the process-wide Settings, the same
// all-or-nothing swap storage.ChangeSettings does for the single-arg
// "set everything" call.
func ChangeSettings(cfg SettingsT) {
	Settings = cfg
}
