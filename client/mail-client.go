package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"pickem/config"
)

type TemplateKind string

const (
	TemplateMagicLink TemplateKind = "magic_link"
	TemplateLocked    TemplateKind = "locked"
	TemplateReminder  TemplateKind = "reminder"
	TemplateResult    TemplateKind = "result"
)

// MailSender is the outbound mail collaborator. Send must never panic;
// a failure for one recipient is reported as an error and nothing else.
type MailSender interface {
	Send(to string, template TemplateKind, data map[string]any) error
}

// HTTPMailClient posts render-and-send requests to the mailer service.
type HTTPMailClient struct {
	Client  *http.Client
	BaseURL string
}

func NewMailClient() *HTTPMailClient {
	return &HTTPMailClient{
		Client:  &http.Client{Timeout: 10 * time.Second},
		BaseURL: config.Env().MailerURL,
	}
}

type sendRequest struct {
	To       string         `json:"to"`
	Template TemplateKind   `json:"template"`
	Data     map[string]any `json:"data"`
}

func (c *HTTPMailClient) Send(to string, template TemplateKind, data map[string]any) error {
	body, err := json.Marshal(sendRequest{To: to, Template: template, Data: data})
	if err != nil {
		return err
	}
	resp, err := c.Client.Post(fmt.Sprintf("%s/send", c.BaseURL), "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("mailer returned status %d for %s mail to %s", resp.StatusCode, template, to)
	}
	return nil
}
