// sdkinfo.go carries the client identity constants and the process-wide
// cached defaults filled into events that lack them.

package faultline

import (
	"os"
	"runtime"
	"runtime/debug"
	"sync"
)

const (
	sdkName    = "faultline-go"
	sdkVersion = "0.3.0"

	// userAgent is reported to the ingest service with every delivery.
	userAgent = sdkName + "/" + sdkVersion

	// modulePath is this module's import path prefix, used to filter our own
	// frames out of captured stack traces.
	modulePath = "github.com/strongdm/ai-faultline"
)

// defaultSDKInfo returns the shared SDK descriptor. Computed once on first
// use; safe under concurrent first access.
var defaultSDKInfo = sync.OnceValue(func() *SDKInfo {
	return &SDKInfo{
		Name:    sdkName,
		Version: sdkVersion,
	}
})

// defaultDebugImages returns the shared debug image list describing the
// running binary. Computed once on first use; safe under concurrent first
// access.
var defaultDebugImages = sync.OnceValue(func() []DebugImage {
	image := DebugImage{
		Type: "native",
		Arch: runtime.GOARCH,
	}
	if exe, err := os.Executable(); err == nil {
		image.CodeFile = exe
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" {
				image.CodeID = setting.Value
				break
			}
		}
	}
	return []DebugImage{image}
})
