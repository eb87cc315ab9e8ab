// Copyright (c) 2025, Phosphor Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

// InvalidateHost drops the host copy, for tests that need to force the
// canonical source away from HostData without a device write.
func InvalidateHost[T any](mb *ManagedBuffer[T]) {
	mb.invalidateHost()
}

// NumViews returns the current number of cache entries, live or expired,
// without pruning.
func NumViews[T any](mb *ManagedBuffer[T]) int {
	return len(mb.views)
}
