package tcp

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Do - client.Do with support Digest Authorization.
// Retries the auth challenge exactly once (digest needs a challenge/response
// round trip) and never retries on anything else, so the single-retry bound
// stays auditable.
func Do(client *http.Client, req *http.Request) (*http.Response, error) {
	res, err := client.Do(req)
	if err != nil {
		return nil, err
	}

	if res.StatusCode != http.StatusUnauthorized || req.URL.User == nil {
		return res, nil
	}

	auth := res.Header.Get("WWW-Authenticate")
	if !strings.HasPrefix(auth, "Digest") {
		return res, nil
	}

	_ = res.Body.Close()

	realm := Between(auth, `realm="`, `"`)
	nonce := Between(auth, `nonce="`, `"`)
	qop := Between(auth, `qop="`, `"`)

	user := req.URL.User
	username := user.Username()
	password, _ := user.Password()
	ha1 := HexMD5(username, realm, password)

	uri := req.URL.RequestURI()
	ha2 := HexMD5(req.Method, uri)

	var header string

	switch qop {
	case "":
		response := HexMD5(ha1, nonce, ha2)
		header = fmt.Sprintf(
			`Digest username="%s", realm="%s", nonce="%s", uri="%s", response="%s"`,
			username, realm, nonce, uri, response,
		)
	case "auth":
		nc := "00000001"
		cnonce := "00000001"
		response := HexMD5(ha1, nonce, nc, cnonce, qop, ha2)
		header = fmt.Sprintf(
			`Digest username="%s", realm="%s", nonce="%s", uri="%s", qop=%s, nc=%s, cnonce="%s", response="%s"`,
			username, realm, nonce, uri, qop, nc, cnonce, response,
		)
	default:
		return nil, errors.New("tcp: unsupported qop: " + auth)
	}

	if req.GetBody != nil {
		if req.Body, err = req.GetBody(); err != nil {
			return nil, err
		}
	}

	req.Header.Set("Authorization", header)

	return client.Do(req)
}
