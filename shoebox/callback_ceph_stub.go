//go:build !ceph

/*
Copyright (C) 2024-2026  Carl-Philip Hänsch

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

import "encoding/json"

func init() {
	CallbackRegistry["ceph"] = func(raw json.RawMessage) (ArchiveCallback, error) {
		return nil, errCephNotCompiledIn
	}
}

var errCephNotCompiledIn = &cephStubError{}

type cephStubError struct{}

func (*cephStubError) Error() string {
	return "ceph support not compiled in. Build with: go build -tags=ceph"
}

// CephCallbackConfig is a stub when Ceph support is not compiled in.
type CephCallbackConfig struct {
	UserName    string
	ClusterName string
	ConfFile    string
	Pool        string
	Prefix      string
	DeleteLocal bool
}

// CephUploadCallback is a stub when Ceph support is not compiled in.
// Build with -tags=ceph to enable it.
type CephUploadCallback struct{}

func NewCephUploadCallback(cfg CephCallbackConfig) *CephUploadCallback {
	panic("ceph support not compiled in. Build with: go build -tags=ceph")
}

func (c *CephUploadCallback) OnOpen(path string) {}

func (c *CephUploadCallback) OnClose(path string) (newPath string) {
	panic("ceph support not compiled in. Build with: go build -tags=ceph")
}
