package notifications

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thatsimonsguy/svg-playground/internal/config"
	"github.com/thatsimonsguy/svg-playground/internal/env"
	"github.com/thatsimonsguy/svg-playground/internal/scene"
)

func setupNtfy(t *testing.T, status int) chan map[string]string {
	t.Helper()
	received := make(chan map[string]string, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		json.NewDecoder(r.Body).Decode(&payload)
		payload["path"] = r.URL.Path
		received <- payload
		w.WriteHeader(status)
	}))

	oldURL, oldCfg := baseURL, env.Cfg
	baseURL = srv.URL
	env.Cfg = &config.Config{NtfyTopic: "plant-alerts"}
	Init()

	t.Cleanup(func() {
		srv.Close()
		baseURL, env.Cfg = oldURL, oldCfg
		initialized = false
	})
	return received
}

func TestSend(t *testing.T) {
	received := setupNtfy(t, http.StatusOK)

	require.NoError(t, Send("title", "body"))

	msg := <-received
	assert.Equal(t, "/plant-alerts", msg["path"])
	assert.Equal(t, "title", msg["title"])
	assert.Equal(t, "body", msg["message"])
}

func TestSend_ErrorStatus(t *testing.T) {
	setupNtfy(t, http.StatusTooManyRequests)

	assert.Error(t, Send("title", "body"))
}

func TestSend_NotInitialized(t *testing.T) {
	initialized = false
	assert.Error(t, Send("title", "body"))
}

func TestReporter_SkipsBindingErrors(t *testing.T) {
	received := setupNtfy(t, http.StatusOK)

	Reporter{}.Report(&scene.BindingError{Node: "n", Err: errors.New("bad")})
	Reporter{}.Report(&scene.LoadError{Path: "/x.svg", Err: errors.New("missing")})

	select {
	case msg := <-received:
		assert.Equal(t, "Document failed to load", msg["title"])
		assert.Contains(t, msg["message"], "/x.svg")
	case <-time.After(2 * time.Second):
		t.Fatal("load error was not pushed")
	}
	assert.Empty(t, received)
}
