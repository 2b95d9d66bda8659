package resend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

type ResendMailer struct {
	apiKey  string
	from    string
	client  *http.Client
	baseURL string
}

func NewResendMailer(apiKey, from string) (*ResendMailer, error) {
	if apiKey == "" {
		return nil, errors.New("resend api key is empty")
	}

	return &ResendMailer{
		apiKey: apiKey,
		from:   from,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
		baseURL: "https://api.resend.com",
	}, nil
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	Text    string   `json:"text"`
}

type sendResponse struct {
	ID string `json:"id"`
}

// SendCodeEmail delivers a one-time sign-in code. Returns the provider
// message id on success.
func (m *ResendMailer) SendCodeEmail(ctx context.Context, toEmail, code string) (string, error) {
	return m.send(ctx, sendRequest{
		From:    m.from,
		To:      []string{toEmail},
		Subject: "Your Lowther sign-in code",
		HTML: `
			<p>Here is your sign-in code:</p>
			<p style="font-size:24px;letter-spacing:4px;"><strong>` + code + `</strong></p>
			<p>It expires in 10 minutes. If you didn't request it, you can ignore this email.</p>
		`,
		Text: "Your Lowther sign-in code is " + code + ". It expires in 10 minutes.",
	})
}

// SendWelcomeEmail delivers the first-signup welcome message with the
// discount offer.
func (m *ResendMailer) SendWelcomeEmail(ctx context.Context, toEmail, discountCode string, discountPercent int) (string, error) {
	return m.send(ctx, sendRequest{
		From:    m.from,
		To:      []string{toEmail},
		Subject: "Welcome to Lowther Loudspeakers",
		HTML: fmt.Sprintf(`
			<p>Welcome!</p>
			<p>Thank you for joining us. As a welcome gift, here is %d%% off your first order:</p>
			<p style="font-size:20px;"><strong>%s</strong></p>
		`, discountPercent, discountCode),
		Text: fmt.Sprintf("Welcome to Lowther Loudspeakers. Use code %s for %d%% off your first order.", discountCode, discountPercent),
	})
}

func (m *ResendMailer) send(ctx context.Context, body sendRequest) (string, error) {
	b, _ := json.Marshal(body)

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		m.baseURL+"/emails",
		bytes.NewBuffer(b),
	)
	if err != nil {
		return "", err
	}

	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		buf := new(bytes.Buffer)
		buf.ReadFrom(resp.Body)
		return "", errors.New("resend: send failed: " + buf.String())
	}

	var out sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.ID, nil
}
