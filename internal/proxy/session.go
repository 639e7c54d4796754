package proxy

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/ptzproxy/ptzproxy/pkg/onvif"
	"github.com/ptzproxy/ptzproxy/pkg/ptz"
)

const contentTypeSOAP = "application/soap+xml; charset=utf-8"

// serveONVIF runs one request/response cycle: decode, classify, correct,
// forward, correct the reply. Every failure turns into a SOAP Fault on the
// same connection - the client never sees a bare error or a dropped socket.
func (cam *Camera) serveONVIF(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	b, err := io.ReadAll(r.Body)
	if err != nil {
		writeFault(w, http.StatusBadRequest, onvif.FaultSender, "unreadable request body")
		return
	}

	service := strings.TrimPrefix(r.URL.Path, "/onvif/")

	env, err := onvif.Decode(b)
	if err != nil {
		log.Debug().Err(err).Str("camera", cam.Name).Msg("[proxy] decode")
		writeFault(w, http.StatusBadRequest, onvif.FaultSender, err.Error())
		return
	}

	op := onvif.Classify(env)

	log.Debug().Str("camera", cam.Name).Stringer("op", op).Str("service", service).Msg("[proxy] request")

	// pass-through envelopes are forwarded byte-identical, only classified
	// operations go through the correction rules
	body := b
	if op != onvif.OpPassThrough {
		if err = cam.rules.ModifyRequest(op, env); err != nil {
			if errors.Is(err, ptz.ErrOutOfRange) {
				log.Warn().Err(err).Str("camera", cam.Name).Msg("[proxy] rejected move")
				writeFault(w, http.StatusBadRequest, onvif.FaultSender, err.Error())
			} else {
				writeFault(w, http.StatusInternalServerError, onvif.FaultReceiver, "request rewrite failed")
			}
			return
		}
		body = env.Bytes()
	}

	res, err := cam.client.Do(r.Context(), service, body)
	if err != nil {
		// no upstream host or credential details cross this boundary
		log.Error().Err(err).Str("camera", cam.Name).Msg("[proxy] upstream")
		writeFault(w, http.StatusInternalServerError, onvif.FaultReceiver, "upstream camera unavailable")
		return
	}

	if op != onvif.OpPassThrough {
		res = cam.rewriteURLs(res)

		if resEnv, err := onvif.Decode(res); err == nil {
			cam.rules.ModifyResponse(op, resEnv)
			res = resEnv.Bytes()
		} else {
			log.Warn().Err(err).Str("camera", cam.Name).Msg("[proxy] broken upstream response")
		}
	}

	w.Header().Set("Content-Type", contentTypeSOAP)
	if _, err = w.Write(res); err != nil {
		log.Debug().Err(err).Str("camera", cam.Name).Msg("[proxy] write")
	}
}

// rewriteURLs repoints XAddr-style service URLs in a camera response at the
// proxy, so a client following them keeps talking through us.
func (cam *Camera) rewriteURLs(b []byte) []byte {
	return bytes.ReplaceAll(b, []byte(cam.cameraURL), []byte(cam.proxyURL))
}

func writeFault(w http.ResponseWriter, status int, code, reason string) {
	w.Header().Set("Content-Type", contentTypeSOAP)
	w.WriteHeader(status)
	_, _ = w.Write(onvif.Fault(code, reason))
}
