package weather

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trogers1052/mandi-price-service/internal/config"
)

func newTestClient(url, key string) *Client {
	return NewClient(config.WeatherConfig{APIKey: key, BaseURL: url, Timeout: time.Second})
}

func TestCurrent(t *testing.T) {
	t.Run("parses conditions", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Pune,IN", r.URL.Query().Get("q"))
			assert.Equal(t, "metric", r.URL.Query().Get("units"))
			assert.Equal(t, "secret", r.URL.Query().Get("appid"))
			w.Write([]byte(`{"name":"Pune","main":{"temp":31.5,"humidity":48},"rain":{"1h":0.4}}`))
		}))
		defer srv.Close()

		c, err := newTestClient(srv.URL, "secret").Current(context.Background(), "Pune")
		require.NoError(t, err)
		assert.Equal(t, "Pune", c.City)
		assert.Equal(t, 31.5, c.Temp)
		assert.Equal(t, 48.0, c.Humidity)
		assert.True(t, c.Rain)
	})

	t.Run("non-200 is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		var buf bytes.Buffer
		prev := log.Logger
		log.Logger = zerolog.New(&buf)
		defer func() { log.Logger = prev }()

		_, err := newTestClient(srv.URL, "bad").Current(context.Background(), "Pune")
		assert.Error(t, err)
		assert.Contains(t, buf.String(), "Weather provider rejected request")
		assert.Contains(t, buf.String(), `"status":401`)
	})

	t.Run("disabled without key", func(t *testing.T) {
		_, err := newTestClient("http://unused", "").Current(context.Background(), "Pune")
		assert.ErrorIs(t, err, ErrDisabled)
	})
}
