// Copyright 2022-2024 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !linux

package ds

// UpdateSysInfo does nothing where there is no sysinfo(2).
func UpdateSysInfo(txt map[string]string) {
}
