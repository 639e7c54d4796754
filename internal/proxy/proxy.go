package proxy

import (
	"errors"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ptzproxy/ptzproxy/internal/app"
	"github.com/ptzproxy/ptzproxy/pkg/onvif"
	"github.com/ptzproxy/ptzproxy/pkg/ptz"
	"github.com/rs/zerolog"
)

var log zerolog.Logger

// registry is filled once at Init, before any listener starts serving.
var registry []*Camera

func Init() {
	var cfg struct {
		Proxy struct {
			Host string `yaml:"host"`
		} `yaml:"proxy"`
		Cameras map[string]*Camera `yaml:"cameras"`
	}

	cfg.Proxy.Host = "127.0.0.1"

	app.LoadConfig(&cfg)

	log = app.GetLogger("proxy")

	cameras := make([]*Camera, 0, len(cfg.Cameras))
	for name, cam := range cfg.Cameras {
		cam.Name = name
		cameras = append(cameras, cam)
	}
	sort.Slice(cameras, func(i, j int) bool { return cameras[i].Name < cameras[j].Name })

	if err := validate(cameras); err != nil {
		log.Fatal().Err(err).Msg("[proxy] config")
	}

	for _, cam := range cameras {
		cam.setup(cfg.Proxy.Host)
	}

	registry = cameras

	for _, cam := range cameras {
		go cam.serve()
	}
}

// Camera is one configured backend: upstream address and credentials, the
// local listen port, and calibration for the correction rules. Immutable
// after Init, apart from the move state inside rules.
type Camera struct {
	Name     string `yaml:"-"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Listen   string `yaml:"listen"`

	// settle window for the MoveStatus rule, the key per-firmware tunable
	SettleWindow string `yaml:"settle_window"`
	Timeout      string `yaml:"timeout"`

	// RelativeMove calibration, negative scale flips the axis
	PanScale  float64 `yaml:"pan_scale"`
	TiltScale float64 `yaml:"tilt_scale"`
	ZoomScale float64 `yaml:"zoom_scale"`

	proxyURL  string // advertised base, replaces camera XAddr URLs
	cameraURL string
	rules     *ptz.Rules
	client    *onvif.Client
}

func validate(cameras []*Camera) error {
	if len(cameras) == 0 {
		return errors.New("no cameras configured")
	}

	ports := map[string]string{}

	for _, cam := range cameras {
		switch {
		case cam.Host == "":
			return errors.New("camera " + cam.Name + ": missing host")
		case cam.Username == "" || cam.Password == "":
			return errors.New("camera " + cam.Name + ": missing credentials")
		case cam.Listen == "":
			return errors.New("camera " + cam.Name + ": missing listen port")
		}

		port := listenPort(cam.Listen)
		if other, ok := ports[port]; ok {
			return errors.New("cameras " + other + " and " + cam.Name + " share port " + port)
		}
		ports[port] = cam.Name
	}

	return nil
}

func (cam *Camera) setup(proxyHost string) {
	if cam.Port == 0 {
		cam.Port = 80
	}

	port := listenPort(cam.Listen)
	cam.proxyURL = "http://" + net.JoinHostPort(proxyHost, port) + "/onvif/"
	cam.cameraURL = "http://" + net.JoinHostPort(cam.Host, strconv.Itoa(cam.Port)) + "/onvif/"

	cam.rules = &ptz.Rules{
		Transform: ptz.Transform{
			PanScale:  scaleOr1(cam.PanScale),
			TiltScale: scaleOr1(cam.TiltScale),
			ZoomScale: scaleOr1(cam.ZoomScale),
		},
		Window: durationOr(cam.SettleWindow, 10*time.Second),
	}

	user := url.UserPassword(cam.Username, cam.Password)
	cam.client = onvif.NewClient(cam.Host, cam.Port, user, durationOr(cam.Timeout, 10*time.Second))
}

func (cam *Camera) serve() {
	ln, err := net.Listen("tcp", cam.Listen)
	if err != nil {
		log.Fatal().Err(err).Str("camera", cam.Name).Msg("[proxy] listen")
	}

	log.Info().
		Str("camera", cam.Name).
		Str("addr", cam.Listen).
		Str("upstream", cam.Host+":"+strconv.Itoa(cam.Port)).
		Msg("[proxy] listen")

	server := http.Server{
		Handler:           cam.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err = server.Serve(ln); err != nil {
		log.Fatal().Err(err).Str("camera", cam.Name).Msg("[proxy] serve")
	}
}

func (cam *Camera) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/onvif/", cam.serveONVIF)
	mux.HandleFunc("/", serveStatus)
	return mux
}

// listenPort returns the port part of a listen address like ":2020",
// "0.0.0.0:2020" or plain "2020".
func listenPort(listen string) string {
	if i := strings.LastIndexByte(listen, ':'); i >= 0 {
		return listen[i+1:]
	}
	return listen
}

func scaleOr1(v float64) float64 {
	if v == 0 {
		return 1
	}
	return v
}

func durationOr(s string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return def
}
