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

import "time"

const bytesPerMiB = 1048576

// RollChecker decides whether the active archive must be rolled.
// start is invoked once, right after a new archive is opened; check
// is consulted after every write.
type RollChecker interface {
	Start(archive *ArchiveWriter)
	Check(archive *ArchiveWriter) bool
}

// NeverRollChecker never rolls; the archive grows without bound.
type NeverRollChecker struct{}

func (NeverRollChecker) Start(*ArchiveWriter) {}
func (NeverRollChecker) Check(*ArchiveWriter) bool { return false }

// TimeRollChecker rolls once duration has elapsed since the archive
// was opened. The boundary (now == end_time) triggers a roll.
type TimeRollChecker struct {
	Clock    Clock
	Duration time.Duration

	startTime time.Time
	endTime   time.Time
}

func NewTimeRollChecker(clock Clock, duration time.Duration) *TimeRollChecker {
	return &TimeRollChecker{Clock: clock, Duration: duration}
}

func (c *TimeRollChecker) Start(*ArchiveWriter) {
	c.startTime = c.Clock.Now()
	c.endTime = c.startTime.Add(c.Duration)
}

func (c *TimeRollChecker) Check(*ArchiveWriter) bool {
	return !c.Clock.Now().Before(c.endTime)
}

// SizeRollChecker rolls once the active archive's current write
// offset reaches thresholdMiB (integer division; the boundary value
// triggers a roll).
type SizeRollChecker struct {
	ThresholdMiB int64
}

func NewSizeRollChecker(thresholdMiB int64) *SizeRollChecker {
	return &SizeRollChecker{ThresholdMiB: thresholdMiB}
}

func (c *SizeRollChecker) Start(*ArchiveWriter) {}

func (c *SizeRollChecker) Check(archive *ArchiveWriter) bool {
	offset, err := archive.Offset()
	if err != nil {
		return false
	}
	return offset/bytesPerMiB >= c.ThresholdMiB
}
