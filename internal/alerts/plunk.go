package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Sajeel041/FIX-POINT/internal/config"
)

const defaultPlunkURL = "https://api.useplunk.com/v1/send"

// PlunkMailer sends through the Plunk HTTP API.
type PlunkMailer struct {
	apiKey  string
	apiURL  string
	from    string
	replyTo string
	http    *http.Client
}

// NewPlunkMailer requires PLUNK_API_KEY. A nil client uses a 10s timeout.
func NewPlunkMailer(cfg config.MailConfig, client *http.Client) (*PlunkMailer, error) {
	if cfg.PlunkAPIKey == "" {
		return nil, fmt.Errorf("plunk not configured: set PLUNK_API_KEY")
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	url := cfg.PlunkAPIURL
	if url == "" {
		url = defaultPlunkURL
	}
	return &PlunkMailer{apiKey: cfg.PlunkAPIKey, apiURL: url, from: cfg.From, replyTo: cfg.ReplyTo, http: client}, nil
}

type plunkSendBody struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	From    string `json:"from,omitempty"`
	Reply   string `json:"reply,omitempty"`
}

func (p *PlunkMailer) Send(ctx context.Context, env EmailEnvelope) error {
	b, err := json.Marshal(plunkSendBody{
		To:      env.To,
		Subject: env.Subject,
		Body:    env.Body,
		From:    p.from,
		Reply:   p.replyTo,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// include the provider's explanation when it sends one
		if msg, readErr := io.ReadAll(io.LimitReader(resp.Body, 4096)); readErr == nil && len(msg) > 0 {
			return fmt.Errorf("plunk send failed: status=%d body=%s", resp.StatusCode, msg)
		}
		return fmt.Errorf("plunk send failed: status=%d", resp.StatusCode)
	}
	return nil
}
