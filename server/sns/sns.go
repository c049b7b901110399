package sns

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/panic-app/panic-server/shared"
	"github.com/pkg/errors"
)

const DefaultTimeout = 10 * time.Second

var ErrNoTopic = errors.New("registration response contains no topic")

// Client registers trusted contacts with the external notification
// service, which provisions an SNS topic per contact.
type Client struct {
	httpClient      *http.Client
	registrationURL string
}

func NewClient(config shared.SnsConfig) *Client {
	timeout := DefaultTimeout
	if config.TimeoutSeconds > 0 {
		timeout = time.Duration(config.TimeoutSeconds) * time.Second
	}

	return &Client{
		httpClient:      &http.Client{Timeout: timeout},
		registrationURL: config.RegistrationUrl,
	}
}

type registrationRequest struct {
	Contact registrationContact `json:"contact"`
}

type registrationContact struct {
	ExternalID string `json:"external_id"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
}

type registrationResponse struct {
	TopicArn string `json:"TopicArn"`
}

// RegisterContact registers a contact with the notification service &
// returns the provisioned topic identifier.
func (c *Client) RegisterContact(ctx context.Context, externalID, name, phone string) (string, error) {
	payload, err := json.Marshal(registrationRequest{
		Contact: registrationContact{ExternalID: externalID, Name: name, Phone: phone},
	})
	if err != nil {
		return "", errors.Wrap(err, "RegisterContact")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.registrationURL, bytes.NewReader(payload))
	if err != nil {
		return "", errors.Wrap(err, "RegisterContact")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "RegisterContact")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("RegisterContact: registration service returned status %v", resp.StatusCode)
	}

	registration := registrationResponse{}
	if err = json.NewDecoder(resp.Body).Decode(&registration); err != nil {
		return "", errors.Wrap(err, "RegisterContact")
	}

	if registration.TopicArn == "" {
		return "", ErrNoTopic
	}

	return registration.TopicArn, nil
}
