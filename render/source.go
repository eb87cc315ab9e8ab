// Copyright (c) 2025, Phosphor Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

// DataSource identifies which copy of a managed buffer currently holds
// the authoritative values. Resolution priority is fixed:
// [HostData] > [DeviceResident] > [NeedsCompute]. If none applies, the
// buffer is in an invalid state and every access fails.
type DataSource int32

const (
	// HostData: the host mirror holds currently-valid data.
	HostData DataSource = iota

	// NeedsCompute: values are produced lazily by a compute function
	// which has not run yet (or whose result was invalidated).
	NeedsCompute

	// DeviceResident: the device mirror holds the only valid copy,
	// typically because the data was last written by a GPU pass.
	DeviceResident
)

func (ds DataSource) String() string {
	switch ds {
	case HostData:
		return "HostData"
	case NeedsCompute:
		return "NeedsCompute"
	case DeviceResident:
		return "DeviceResident"
	}
	return "DataSourceInvalid"
}
