package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/Guilhem-Bonnet/berriz-playback/internal/app"
	"github.com/Guilhem-Bonnet/berriz-playback/internal/domain"
)

const usage = "Usage: berrizctl [health|version|status|enable|disable|cache|clear|delete <id>|navigate <url>]"

func main() {
	baseURL := flag.String("server", envOr("BERRIZ_SERVER_URL", "http://127.0.0.1:8787"), "URL du serveur (ex: http://127.0.0.1:8787)")
	timeout := flag.Duration("timeout", 10*time.Second, "Timeout HTTP")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	c := &cli{client: &http.Client{Timeout: *timeout}, base: strings.TrimRight(*baseURL, "/")}

	switch args[0] {
	case "health":
		c.run(http.MethodGet, "/api/v1/health", nil)
	case "version":
		c.run(http.MethodGet, "/api/v1/version", nil)
	case "status":
		c.message(map[string]any{"action": app.ActionGetExtensionStatus})
	case "enable", "disable":
		c.message(map[string]any{"action": app.ActionSetExtensionStatus, "isActive": args[0] == "enable"})
	case "cache":
		c.listCache()
	case "clear":
		c.message(map[string]any{"action": app.ActionClearPlaybackCache})
	case "delete":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "Usage: berrizctl delete <id>")
			os.Exit(2)
		}
		c.run(http.MethodDelete, "/api/v1/cache/"+url.PathEscape(args[1]), nil)
	case "navigate":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "Usage: berrizctl navigate <url>")
			os.Exit(2)
		}
		c.run(http.MethodPost, "/api/v1/navigation", map[string]any{"url": args[1]})
	default:
		fmt.Fprintln(os.Stderr, "Commande inconnue:", args[0])
		os.Exit(2)
	}
}

type cli struct {
	client *http.Client
	base   string
}

func (c *cli) message(body map[string]any) {
	c.run(http.MethodPost, "/api/v1/messages", body)
}

func (c *cli) do(method, path string, body any) (int, []byte) {
	var rdr io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.base+path, rdr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Erreur:", err)
		os.Exit(1)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Erreur:", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b
}

func (c *cli) run(method, path string, body any) {
	status, b := c.do(method, path, body)
	var pretty any
	if err := json.Unmarshal(b, &pretty); err == nil {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(pretty)
	} else {
		os.Stdout.Write(b)
		os.Stdout.Write([]byte("\n"))
	}
	if status >= 400 {
		os.Exit(1)
	}
}

// listCache affiche une ligne par entrée, variantes HLS comprises.
func (c *cli) listCache() {
	status, b := c.do(http.MethodGet, "/api/v1/cache", nil)
	if status >= 400 {
		os.Stdout.Write(b)
		os.Exit(1)
	}
	var resp app.CacheResponse
	if err := json.Unmarshal(b, &resp); err != nil {
		fmt.Fprintln(os.Stderr, "Réponse invalide:", err)
		os.Exit(1)
	}
	if len(resp.Cache) == 0 {
		fmt.Println("(cache vide)")
		return
	}
	for _, p := range resp.Cache {
		fmt.Println(formatEntry(p))
	}
}

func formatEntry(p app.CachePair) string {
	var sb strings.Builder
	at := time.UnixMilli(p.Record.Timestamp).Format(time.DateTime)
	fmt.Fprintf(&sb, "%s  %s  [%s]", p.ID, p.Record.Title, at)

	switch {
	case p.Record.Error != nil:
		e := p.Record.Error
		switch {
		case e.IsMissingCookies:
			fmt.Fprintf(&sb, "\n    cookies manquants: %s", strings.Join(e.MissingCookies, ", "))
		case e.FanclubOnly:
			sb.WriteString("\n    réservé au fan club")
		default:
			fmt.Fprintf(&sb, "\n    erreur: %s", e.Message)
		}
	case p.Record.IsDRM != nil && *p.Record.IsDRM:
		sb.WriteString("\n    DRM: URLs masquées")
	default:
		for _, u := range p.Record.HLS {
			fmt.Fprintf(&sb, "\n    hls  %s", u)
		}
		for _, u := range p.Record.DASH {
			fmt.Fprintf(&sb, "\n    dash %s", u)
		}
		for _, v := range domain.SortVariants(p.Record.HLSVariants) {
			res := domain.NormalizeResolution(v.Width, v.Height)
			fmt.Fprintf(&sb, "\n    %-6s %s", res.Label, v.PlaybackURL)
		}
	}
	return sb.String()
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
