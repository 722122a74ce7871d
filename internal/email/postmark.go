package email

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/http"
	"strings"

	"github.com/dukerupert/frontdesk/internal/qr"
)

const postmarkURL = "https://api.postmarkapp.com/email"

var ErrNotConfigured = errors.New("email client not configured: missing server token")

type Client struct {
	serverToken string
	fromEmail   string
	baseURL     string
	httpClient  *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

func NewClient(serverToken, fromEmail, baseURL string, opts ...Option) *Client {
	c := &Client{
		serverToken: serverToken,
		fromEmail:   fromEmail,
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured returns true if the server token is set.
func (c *Client) Configured() bool {
	return c.serverToken != ""
}

type attachment struct {
	Name        string `json:"Name"`
	Content     string `json:"Content"`
	ContentType string `json:"ContentType"`
	ContentID   string `json:"ContentID,omitempty"`
}

type postmarkEmail struct {
	From        string       `json:"From"`
	To          string       `json:"To"`
	Subject     string       `json:"Subject"`
	HtmlBody    string       `json:"HtmlBody"`
	TextBody    string       `json:"TextBody"`
	Attachments []attachment `json:"Attachments,omitempty"`
}

// SendMemberCard emails a member their QR code. The PNG is attached and shown
// inline.
func (c *Client) SendMemberCard(toEmail, name, memberID string, png []byte) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	subject := "Your gym membership card"
	profile := fmt.Sprintf("%s/members/%s", c.baseURL, memberID)
	textBody := fmt.Sprintf(
		"Hi %s,\n\nYour membership QR code is attached. Show it at the front desk scanner to check in.\n\nMember ID: %s\nProfile: %s\n",
		name, memberID, profile,
	)
	htmlBody := fmt.Sprintf(
		`<p>Hi %s,</p><p>Show this code at the front desk scanner to check in.</p><p><img src="cid:member-qr" alt="Member QR code" width="300" height="300"></p><p>Member ID: %s</p>`,
		html.EscapeString(name), html.EscapeString(memberID),
	)

	return c.send(postmarkEmail{
		From:     c.fromEmail,
		To:       toEmail,
		Subject:  subject,
		HtmlBody: htmlBody,
		TextBody: textBody,
		Attachments: []attachment{{
			Name:        qr.Filename(name),
			Content:     base64.StdEncoding.EncodeToString(png),
			ContentType: "image/png",
			ContentID:   "cid:member-qr",
		}},
	})
}

func (c *Client) send(payload postmarkEmail) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequest("POST", postmarkURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Postmark-Server-Token", c.serverToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("postmark API error: status %d", resp.StatusCode)
	}

	return nil
}
