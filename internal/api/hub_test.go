package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loan-agent/internal/loan"
)

func dialHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub_BroadcastsDecisions(t *testing.T) {
	hub := NewHub()
	defer hub.Close()
	conn := dialHub(t, hub)

	dec := loan.Approve(0.82, 150000, loan.RiskLow, "eligible based on credit score and income norms")
	dec.ApplicationID = "000000000042"
	dec.Source = loan.SourceModel
	hub.PublishDecision(dec)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got loan.Decision
	require.NoError(t, conn.ReadJSON(&got))

	assert.Equal(t, "000000000042", got.ApplicationID)
	assert.Equal(t, loan.StatusApproved, got.Status)
	assert.Equal(t, 0.82, got.EligibilityScore)
}

func TestHub_DropsClosedClients(t *testing.T) {
	hub := NewHub()
	defer hub.Close()
	conn := dialHub(t, hub)

	conn.Close()
	// Both publishes must survive a dead connection; the first one may be the
	// one that detects it.
	hub.PublishDecision(loan.Reject("annual income below minimum threshold"))
	hub.PublishDecision(loan.Reject("annual income below minimum threshold"))
}

func TestHub_PublishWithoutClients(t *testing.T) {
	hub := NewHub()
	defer hub.Close()
	hub.PublishDecision(loan.Reject("annual income below minimum threshold"))
}
