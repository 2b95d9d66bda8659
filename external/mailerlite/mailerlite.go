package mailerlite

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

type MailerLiteClient struct {
	apiKey  string
	groupID string
	client  *http.Client
	baseURL string
}

func NewMailerLiteClient(apiKey, groupID string) (*MailerLiteClient, error) {
	if apiKey == "" {
		return nil, errors.New("mailerlite api key is empty")
	}

	return &MailerLiteClient{
		apiKey:  apiKey,
		groupID: groupID,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
		baseURL: "https://connect.mailerlite.com/api",
	}, nil
}

type subscribeRequest struct {
	Email  string            `json:"email"`
	Fields map[string]string `json:"fields,omitempty"`
	Groups []string          `json:"groups,omitempty"`
}

// Subscribe upserts a subscriber. MailerLite treats an existing email as
// an update, so the call is safe to repeat.
func (c *MailerLiteClient) Subscribe(ctx context.Context, email string, fields map[string]string) error {
	body := subscribeRequest{
		Email:  email,
		Fields: fields,
	}
	if c.groupID != "" {
		body.Groups = []string{c.groupID}
	}

	b, _ := json.Marshal(body)

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+"/subscribers",
		bytes.NewBuffer(b),
	)
	if err != nil {
		return err
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		buf := new(bytes.Buffer)
		buf.ReadFrom(resp.Body)
		return errors.New("mailerlite: subscribe failed: " + buf.String())
	}

	return nil
}
