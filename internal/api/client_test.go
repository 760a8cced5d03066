package api

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loan-agent/internal/loan"
)

func TestClient_SubmitGetSummary(t *testing.T) {
	srv, store := newTestServer(t)
	httpSrv := httptest.NewServer(srv.Handler())
	defer httpSrv.Close()

	client := NewClient(httpSrv.URL, 2*time.Second)

	id, err := client.SubmitApplication(SubmitRequest{
		RequestedAmount: 250000,
		AnnualIncome:    900000,
		CreditScore:     740,
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	resp, err := client.GetApplication(id)
	require.NoError(t, err)
	assert.Equal(t, id, resp.Application.ID)
	assert.Equal(t, loan.StatusPending, resp.Application.Status)
	assert.Equal(t, 900000.0, resp.Application.AnnualIncome)

	sum, err := client.Summary()
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Total)
	assert.Equal(t, 1, sum.Pending)

	app, err := store.GetApplication(id)
	require.NoError(t, err)
	assert.Equal(t, 740, app.CreditScore)
}

func TestClient_GetMissingApplication(t *testing.T) {
	srv, _ := newTestServer(t)
	httpSrv := httptest.NewServer(srv.Handler())
	defer httpSrv.Close()

	client := NewClient(httpSrv.URL, 2*time.Second)
	_, err := client.GetApplication("does-not-exist")
	assert.Error(t, err)
}
