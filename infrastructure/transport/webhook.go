package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/avelara/instagate/config"
	domainChat "github.com/avelara/instagate/domains/chat"
	pkgError "github.com/avelara/instagate/pkg/error"
)

// WebhookTransport bridges the gateway to an external chat transport
// over HTTP: outbound messages are POSTed to the configured send URL,
// identity lookups go to the profile URL. The transport process on the
// other end owns delivery and the actual chat protocol.
type WebhookTransport struct {
	sendURL    string
	profileURL string
	client     *http.Client
}

func NewWebhookTransport(cfg config.TransportConfig) *WebhookTransport {
	return &WebhookTransport{
		sendURL:    cfg.SendURL,
		profileURL: cfg.ProfileURL,
		client:     &http.Client{Timeout: cfg.Timeout},
	}
}

type sendPayload struct {
	To   int64  `json:"to"`
	Text string `json:"text"`
}

func (t *WebhookTransport) SendMessage(ctx context.Context, to int64, text string) error {
	if t.sendURL == "" {
		return pkgError.TransportError("no send URL configured")
	}

	body, err := json.Marshal(sendPayload{To: to, Text: text})
	if err != nil {
		return pkgError.TransportError(fmt.Sprintf("encode send payload: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.sendURL, bytes.NewReader(body))
	if err != nil {
		return pkgError.TransportError(fmt.Sprintf("build send request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return pkgError.TransportError(fmt.Sprintf("deliver message to %d: %v", to, err))
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return pkgError.TransportError(fmt.Sprintf("deliver message to %d: status %d", to, resp.StatusCode))
	}

	logrus.Debugf("[TRANSPORT] Delivered message to %d", to)
	return nil
}

func (t *WebhookTransport) GetProfile(ctx context.Context, id int64) (domainChat.Profile, error) {
	var profile domainChat.Profile
	if t.profileURL == "" {
		return profile, pkgError.TransportError("no profile URL configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.profileURL, nil)
	if err != nil {
		return profile, pkgError.TransportError(fmt.Sprintf("build profile request: %v", err))
	}
	q := req.URL.Query()
	q.Set("id", strconv.FormatInt(id, 10))
	req.URL.RawQuery = q.Encode()

	resp, err := t.client.Do(req)
	if err != nil {
		return profile, pkgError.TransportError(fmt.Sprintf("fetch profile %d: %v", id, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return profile, pkgError.NotFoundError(fmt.Sprintf("identity %d unknown to transport", id))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return profile, pkgError.TransportError(fmt.Sprintf("fetch profile %d: status %d", id, resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return profile, pkgError.TransportError(fmt.Sprintf("decode profile %d: %v", id, err))
	}
	return profile, nil
}
