package sns

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/panic-app/panic-server/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterContact(t *testing.T) {
	var received map[string]map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.Nil(t, json.NewDecoder(r.Body).Decode(&received))

		json.NewEncoder(rw).Encode(map[string]string{
			"TopicArn": "arn:aws:sns:us-east-2:000000000000:contact-topic",
		})
	}))
	defer srv.Close()

	client := NewClient(shared.SnsConfig{RegistrationUrl: srv.URL})

	topic, err := client.RegisterContact(context.Background(), "ext-1", "Ana", "+525512345678")
	require.Nil(t, err)
	assert.Equal(t, "arn:aws:sns:us-east-2:000000000000:contact-topic", topic)

	assert.Equal(t, "ext-1", received["contact"]["external_id"])
	assert.Equal(t, "Ana", received["contact"]["name"])
	assert.Equal(t, "+525512345678", received["contact"]["phone"])
}

func TestRegisterContactNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(shared.SnsConfig{RegistrationUrl: srv.URL})

	_, err := client.RegisterContact(context.Background(), "ext-1", "Ana", "+525512345678")
	assert.NotNil(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestRegisterContactMissingTopic(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		json.NewEncoder(rw).Encode(map[string]string{})
	}))
	defer srv.Close()

	client := NewClient(shared.SnsConfig{RegistrationUrl: srv.URL})

	_, err := client.RegisterContact(context.Background(), "ext-1", "Ana", "+525512345678")
	assert.ErrorIs(t, err, ErrNoTopic)
}
