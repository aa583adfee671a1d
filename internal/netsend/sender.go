// Package netsend performs single upload attempts against the configured
// endpoint. Plaintext transport is only permitted toward loopback,
// link-local and private-range hosts; everything else must use TLS and is
// rejected before any network traffic happens.
package netsend

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"
)

const sendTimeout = 15 * time.Second

var (
	ErrPlaintextForbidden = errors.New("plaintext transport not allowed for non-private host")
	ErrInvalidEndpoint    = errors.New("invalid endpoint URL")
)

// Sender performs one upload attempt and reports success or failure.
type Sender interface {
	Send(payload []byte, endpoint string, headers map[string]string, method string) error
}

type HTTPSender struct {
	client *http.Client
}

func NewHTTPSender() *HTTPSender {
	return &HTTPSender{
		client: &http.Client{Timeout: sendTimeout},
	}
}

// PlaintextAllowed reports whether an unencrypted request may be sent to
// the given host. Only loopback, link-local and RFC 1918 private addresses
// qualify; hostnames other than localhost cannot be classified without a
// lookup and are rejected.
func PlaintextAllowed(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast()
}

func (s *HTTPSender) Send(payload []byte, endpoint string, headers map[string]string, method string) error {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return ErrInvalidEndpoint
	}

	if u.Scheme != "https" {
		if !PlaintextAllowed(u.Hostname()) {
			return ErrPlaintextForbidden
		}
	}

	var req *http.Request
	if method == http.MethodGet {
		folded, err := foldIntoQuery(u, payload)
		if err != nil {
			return err
		}
		req, err = http.NewRequest(http.MethodGet, folded, nil)
		if err != nil {
			return err
		}
	} else {
		req, err = http.NewRequest(method, endpoint, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// foldIntoQuery merges the flat JSON payload into the URL query string for
// GET delivery, preserving the same key set a POST body would carry.
// Numbers are decoded as json.Number so their literals survive: a plain
// Unmarshal would turn an epoch timestamp into a float64 and render it in
// scientific notation.
func foldIntoQuery(u *url.URL, payload []byte) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	var fields map[string]interface{}
	if err := dec.Decode(&fields); err != nil {
		return "", fmt.Errorf("payload not a flat JSON object: %w", err)
	}

	q := u.Query()
	for k, v := range fields {
		q.Set(k, fmt.Sprintf("%v", v))
	}
	folded := *u
	folded.RawQuery = q.Encode()
	return folded.String(), nil
}
