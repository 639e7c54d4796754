package app

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/rs/zerolog/log"
)

var Version = "1.0.0"
var UserAgent = "ptzproxy/" + Version

var ConfigPath string
var Daemonize bool

var Info = map[string]any{
	"version": Version,
}

func Init() {
	var confs flagConfig
	var version bool

	flag.Var(&confs, "config", "ptzproxy config (path to file or raw text), support multiple")
	if runtime.GOOS != "windows" {
		flag.BoolVar(&Daemonize, "daemon", false, "Run program in background")
	}
	flag.BoolVar(&version, "version", false, "Print the version of the application and exit")
	flag.Parse()

	if version {
		fmt.Printf("ptzproxy version %s %s/%s\n", Version, runtime.GOOS, runtime.GOARCH)
		os.Exit(0)
	}

	initConfig(confs)
	initLogger()

	platform := fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)
	log.Logger = Logger
	log.Info().Str("version", Version).Str("platform", platform).Msg("ptzproxy")
	log.Debug().Str("version", runtime.Version()).Msg("build")

	if ConfigPath != "" {
		log.Info().Str("path", ConfigPath).Msg("config")
	}
}
