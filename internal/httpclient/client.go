// Package httpclient construit le client HTTP utilisé vers l'API distante,
// avec en option une empreinte TLS de navigateur (uTLS).
package httpclient

import (
	"bufio"
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	utls "github.com/refraction-networking/utls"
	"golang.org/x/net/http2"
)

const (
	FingerprintNone    = "none"
	FingerprintChrome  = "chrome"
	FingerprintFirefox = "firefox"
	FingerprintSafari  = "safari"
)

type Options struct {
	Timeout time.Duration
	// Fingerprint vaut "none" (TLS Go standard), "chrome", "firefox" ou "safari".
	Fingerprint string
	// RootCAs remplace le magasin système (tests).
	RootCAs *x509.CertPool
}

func helloFor(name string) (utls.ClientHelloID, bool, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", FingerprintNone:
		return utls.ClientHelloID{}, false, nil
	case FingerprintChrome:
		return utls.HelloChrome_120, true, nil
	case FingerprintFirefox:
		return utls.HelloFirefox_120, true, nil
	case FingerprintSafari:
		return utls.HelloSafari_16_0, true, nil
	default:
		return utls.ClientHelloID{}, false, fmt.Errorf("unknown tls fingerprint %q", name)
	}
}

// ValidFingerprint indique si name est une empreinte reconnue.
func ValidFingerprint(name string) bool {
	_, _, err := helloFor(name)
	return err == nil
}

func New(opts Options) (*http.Client, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	hello, useUTLS, err := helloFor(opts.Fingerprint)
	if err != nil {
		return nil, err
	}
	if !useUTLS {
		tr := http.DefaultTransport.(*http.Transport).Clone()
		tr.MaxIdleConnsPerHost = 4
		if opts.RootCAs != nil {
			tr.TLSClientConfig = &tls.Config{MinVersion: tls.VersionTLS12, RootCAs: opts.RootCAs}
		}
		return &http.Client{Transport: tr, Timeout: opts.Timeout}, nil
	}
	return &http.Client{Transport: newFingerprintTransport(hello, opts.RootCAs), Timeout: opts.Timeout}, nil
}

// fingerprintTransport établit la connexion TLS avec un ClientHello de navigateur,
// puis parle HTTP/2 ou HTTP/1.1 selon l'ALPN négocié.
// Les connexions h2 sont réutilisées par hôte; HTTP/1.1 ouvre une connexion par requête.
type fingerprintTransport struct {
	hello  utls.ClientHelloID
	roots  *x509.CertPool
	dialer *net.Dialer
	h2     *http2.Transport
	plain  http.RoundTripper

	mu    sync.Mutex
	conns map[string]*http2.ClientConn
}

func newFingerprintTransport(hello utls.ClientHelloID, roots *x509.CertPool) *fingerprintTransport {
	return &fingerprintTransport{
		hello: hello,
		roots: roots,
		dialer: &net.Dialer{
			Timeout:   15 * time.Second,
			KeepAlive: 60 * time.Second,
		},
		h2:    &http2.Transport{},
		plain: http.DefaultTransport,
		conns: make(map[string]*http2.ClientConn),
	}
}

func (t *fingerprintTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Scheme != "https" {
		return t.plain.RoundTrip(req)
	}

	addr := req.URL.Host
	if req.URL.Port() == "" {
		addr = net.JoinHostPort(req.URL.Hostname(), "443")
	}
	if cc := t.pooled(addr); cc != nil {
		return t.roundTripH2(addr, cc, req)
	}

	conn, err := t.dialer.DialContext(req.Context(), "tcp", addr)
	if err != nil {
		return nil, err
	}

	uconn := utls.UClient(conn, &utls.Config{ServerName: req.URL.Hostname(), RootCAs: t.roots}, t.hello)
	if err := uconn.HandshakeContext(req.Context()); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("tls handshake: %w", err)
	}

	if uconn.ConnectionState().NegotiatedProtocol == http2.NextProtoTLS {
		cc, err := t.h2.NewClientConn(uconn)
		if err != nil {
			_ = uconn.Close()
			return nil, err
		}
		t.store(addr, cc)
		return t.roundTripH2(addr, cc, req)
	}
	return roundTripHTTP1(uconn, req)
}

func (t *fingerprintTransport) pooled(addr string) *http2.ClientConn {
	t.mu.Lock()
	defer t.mu.Unlock()
	cc, ok := t.conns[addr]
	if !ok {
		return nil
	}
	if !cc.CanTakeNewRequest() {
		delete(t.conns, addr)
		retire(cc)
		return nil
	}
	return cc
}

func (t *fingerprintTransport) store(addr string, cc *http2.ClientConn) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if old, ok := t.conns[addr]; ok && old != cc {
		retire(old)
	}
	t.conns[addr] = cc
}

func (t *fingerprintTransport) forget(addr string, cc *http2.ClientConn) {
	t.mu.Lock()
	if t.conns[addr] == cc {
		delete(t.conns, addr)
	}
	t.mu.Unlock()
	_ = cc.Close()
}

func (t *fingerprintTransport) roundTripH2(addr string, cc *http2.ClientConn, req *http.Request) (*http.Response, error) {
	resp, err := cc.RoundTrip(req)
	if err != nil {
		// Une annulation côté requête ne condamne pas la connexion.
		if req.Context().Err() == nil {
			t.forget(addr, cc)
		}
		return nil, err
	}
	return resp, nil
}

// CloseIdleConnections retire les connexions h2 en réserve (appelé par http.Client).
func (t *fingerprintTransport) CloseIdleConnections() {
	t.mu.Lock()
	conns := t.conns
	t.conns = make(map[string]*http2.ClientConn)
	t.mu.Unlock()
	for _, cc := range conns {
		retire(cc)
	}
}

// retire ferme cc une fois ses flux en cours terminés.
func retire(cc *http2.ClientConn) {
	go func() { _ = cc.Shutdown(context.Background()) }()
}

// roundTripHTTP1 ferme la connexion dès que le contexte de la requête est annulé,
// ce qui débloque l'écriture, la lecture des en-têtes et celle du corps.
func roundTripHTTP1(conn net.Conn, req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	fail := func(err error) (*http.Response, error) {
		stop()
		_ = conn.Close()
		if cerr := ctx.Err(); cerr != nil {
			return nil, cerr
		}
		return nil, err
	}

	if err := req.Write(conn); err != nil {
		return fail(err)
	}
	resp, err := http.ReadResponse(bufio.NewReader(conn), req)
	if err != nil {
		return fail(err)
	}
	resp.Body = &closeWith{ReadCloser: resp.Body, close: func() error {
		stop()
		_ = conn.Close()
		return nil
	}}
	return resp, nil
}

// closeWith ferme la connexion sous-jacente avec le corps.
type closeWith struct {
	io.ReadCloser
	close func() error
}

func (c *closeWith) Close() error {
	err := c.ReadCloser.Close()
	if cerr := c.close(); err == nil {
		err = cerr
	}
	return err
}
