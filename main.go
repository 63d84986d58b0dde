package main

import (
	"github.com/zedopen/zedcapture/internal/api"
	"github.com/zedopen/zedcapture/internal/api/ws"
	"github.com/zedopen/zedcapture/internal/app"
	"github.com/zedopen/zedcapture/internal/calibration"
	"github.com/zedopen/zedcapture/internal/mdns"
	"github.com/zedopen/zedcapture/internal/v4l2"
	"github.com/zedopen/zedcapture/internal/zed"
	"github.com/zedopen/zedcapture/pkg/shell"
)

func main() {
	app.Init() // init config and logs

	api.Init() // init HTTP API server
	ws.Init()  // init WS API endpoint

	calibration.Init() // calibration cache and rectification maps
	v4l2.Init()        // V4L2 device listing
	zed.Init()         // camera session, depends on calibration
	mdns.Init()        // advertise API, after the camera is open

	sig := shell.RunUntilSignal()

	app.Logger.Info().Stringer("signal", sig).Msg("exit")

	mdns.Close()
	zed.Close()
}
