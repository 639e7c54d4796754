package main

import (
	"github.com/ptzproxy/ptzproxy/internal/app"
	"github.com/ptzproxy/ptzproxy/internal/proxy"
	"github.com/ptzproxy/ptzproxy/pkg/shell"
	"github.com/rs/zerolog/log"
	daemon "github.com/sevlyar/go-daemon"
)

func main() {
	app.Init() // init config and logs

	if app.Daemonize {
		cntxt := &daemon.Context{
			PidFileName: "ptzproxy.pid",
			PidFilePerm: 0644,
		}

		d, err := cntxt.Reborn()
		if err != nil {
			log.Fatal().Err(err).Msg("daemon")
		}
		if d != nil {
			log.Info().Msgf("daemon started with pid %d", d.Pid)
			return
		}
		defer func() {
			_ = cntxt.Release()
		}()
	}

	proxy.Init() // validate cameras and start per-camera listeners

	shell.RunUntilSignal()
}
