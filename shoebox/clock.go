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

// Clock is the injectable time source every roll checker and roll
// manager consults instead of calling time.Now directly. Tests supply
// a fake clock; production code uses RealClock.
type Clock interface {
	Now() time.Time
}

// RealClock returns wall-clock UTC, same as the original
// notification_utils.now()/datetime.utcnow() callers this design
// unifies under one seam.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now().UTC() }

// FuncClock adapts a plain function to Clock, for tests that only
// need to stub a handful of timestamps.
type FuncClock func() time.Time

func (f FuncClock) Now() time.Time { return f() }
