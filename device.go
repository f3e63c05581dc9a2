// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package meshwarp

import "github.com/gogpu/gpucontext"

// DeviceHandle provides GPU device access from the host application.
//
// When the host already owns a GPU device (a gogpu.App, a game loop, another
// renderer), it implements DeviceHandle and passes it to the engine via
// EngineOptions. A registered GPU compositor that supports device sharing
// then reuses the host's device and queue instead of creating its own.
//
// Key principle: meshwarp RECEIVES the device from the host, it does NOT
// require one. Without a handle, a GPU compositor opens its own adapter, and
// without a GPU compositor the engine runs on the software path.
//
// DeviceHandle is an alias for gpucontext.DeviceProvider, giving the
// interface a meshwarp-local name while staying compatible with the
// gpucontext ecosystem.
type DeviceHandle = gpucontext.DeviceProvider
