package tasklib

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/yesoreyeram/stepflow/pkg/config"
	"github.com/yesoreyeram/stepflow/pkg/node"
	"github.com/yesoreyeram/stepflow/pkg/security"
	"github.com/yesoreyeram/stepflow/pkg/telemetry"
)

// WebhookBehavior is the canonical "suspend until external input" async
// task (spec §4.3): it POSTs the instance's variables to an external
// system, then suspends exactly like a plain service task. Resolution
// comes later, from whatever receives the POST calling back through
// Engine.CompleteTask — the response to this POST is not what completes
// the node.
type WebhookBehavior struct {
	node.BaseBehavior

	Client *http.Client
	SSRF   *security.SSRFProtection
	// Telemetry is optional; RecordHTTPCall is skipped when nil.
	Telemetry *telemetry.Provider
}

// NewWebhookBehavior builds a WebhookBehavior whose outbound client is
// configured from cfg: timeout, redirect cap, and SSRF network policy.
func NewWebhookBehavior(cfg *config.Config, tel *telemetry.Provider) WebhookBehavior {
	ssrf := security.NewSSRFProtectionFromConfig(cfg)

	client := &http.Client{
		Timeout: cfg.HTTPTimeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= cfg.MaxHTTPRedirects {
				return fmt.Errorf("too many redirects (max %d)", cfg.MaxHTTPRedirects)
			}
			return ssrf.ValidateURL(req.URL.String())
		},
	}

	return WebhookBehavior{Client: client, SSRF: ssrf, Telemetry: tel}
}

// ExecuteInternal suspends the instance, then fires the webhook's POST in
// a background goroutine so the single-threaded token propagation turn
// isn't blocked on network I/O. A request failure is logged, not fed back
// into complete — only an external completeTask call resolves this node.
func (b WebhookBehavior) ExecuteInternal(n *node.Node, complete node.CompleteFunc) {
	url, _ := n.Task().Data["url"].(string)
	if err := b.SSRF.ValidateURL(url); err != nil {
		complete(fmt.Errorf("webhook task: %w", err), nil)
		return
	}

	if err := n.Suspend(); err != nil {
		complete(err, nil)
		return
	}

	go b.fire(n, url)
}

func (b WebhookBehavior) fire(n *node.Node, url string) {
	payload, err := json.Marshal(n.Variables())
	if err != nil {
		n.Logger().Warn(fmt.Sprintf("webhook task: failed to marshal payload: %v", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.Client.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		n.Logger().Warn(fmt.Sprintf("webhook task: failed to build request: %v", err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := b.Client.Do(req)
	duration := time.Since(start)
	if err != nil {
		n.Logger().Warn(fmt.Sprintf("webhook task: request failed: %v", err))
		if b.Telemetry != nil {
			b.Telemetry.RecordHTTPCall(ctx, http.MethodPost, url, 0, duration)
		}
		return
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))

	if b.Telemetry != nil {
		b.Telemetry.RecordHTTPCall(ctx, http.MethodPost, url, resp.StatusCode, duration)
	}
}

func (WebhookBehavior) SerializeExtra(n *node.Node) map[string]interface{} {
	url, _ := n.Task().Data["url"].(string)
	return map[string]interface{}{"pending": true, "url": url}
}

func (WebhookBehavior) DeserializeExtra(_ *node.Node, _ map[string]interface{}) {
	// A reloaded webhook node is pending by construction; the POST already
	// fired before the restart (or never will), and only an inbound
	// completeTask call can still resolve it.
}
