package mail_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reservaespacios/reservation-service/internal/adapters/mail"
	"github.com/reservaespacios/reservation-service/internal/config"
	"github.com/reservaespacios/reservation-service/internal/core/ports"
)

func TestHTTPSender_Send(t *testing.T) {
	var (
		gotAuth string
		gotBody map[string]interface{}
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"msg-1"}`))
	}))
	defer server.Close()

	sender := mail.NewHTTPSender(config.MailConfig{
		APIURL: server.URL,
		APIKey: "re_test",
		From:   "Reservas <no-reply@reservas.local>",
	}, server.Client())

	err := sender.Send(context.Background(), ports.Email{
		To:      "ana@example.com",
		Subject: "Bienvenido",
		HTML:    "<p>hola</p>",
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer re_test", gotAuth)
	assert.Equal(t, "Reservas <no-reply@reservas.local>", gotBody["from"])
	assert.Equal(t, []interface{}{"ana@example.com"}, gotBody["to"])
	assert.Equal(t, "Bienvenido", gotBody["subject"])
	assert.Equal(t, "<p>hola</p>", gotBody["html"])
}

func TestHTTPSender_Send_RejectedByAPI(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"invalid to"}`))
	}))
	defer server.Close()

	sender := mail.NewHTTPSender(config.MailConfig{APIURL: server.URL, APIKey: "k"}, server.Client())

	err := sender.Send(context.Background(), ports.Email{To: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
}
