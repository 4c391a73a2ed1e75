package binom

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/smmpanel/campaign-distribution-service/internal/domain"
	"github.com/stretchr/testify/require"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	return NewClient(server.URL, "test-key", 5*time.Second), server
}

func TestCheckOfferSendsAPIKey(t *testing.T) {
	var gotKey, gotName string
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("api-key")
		gotName = r.URL.Query().Get("name")
		json.NewEncoder(w).Encode(checkOfferResponse{Exists: true, OfferID: "offer-5"})
	})
	defer server.Close()

	result, err := client.CheckOffer(context.Background(), "SMM-Order-1-CLIP")
	require.NoError(t, err)
	require.True(t, result.Exists)
	require.Equal(t, "offer-5", result.OfferID)
	require.Equal(t, "test-key", gotKey)
	require.Equal(t, "SMM-Order-1-CLIP", gotName)
}

func TestCreateOfferRejectsEmptyOfferID(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(createOfferResponse{})
	})
	defer server.Close()

	_, err := client.CreateOffer(context.Background(), domain.OfferSpec{Name: "x", URL: "https://u"})
	require.Error(t, err)
	require.False(t, domain.IsRetryable(err))
	require.Equal(t, domain.ErrorTypeMalformedResponse, domain.Classify(err).Type)
}

func TestStatusClassification(t *testing.T) {
	cases := []struct {
		status    int
		retryable bool
		errType   domain.ErrorType
	}{
		{http.StatusInternalServerError, true, domain.ErrorTypeExternal},
		{http.StatusBadGateway, true, domain.ErrorTypeExternal},
		{http.StatusTooManyRequests, true, domain.ErrorTypeRateLimited},
		{http.StatusRequestTimeout, true, domain.ErrorTypeTimeout},
		{http.StatusNotFound, false, domain.ErrorTypeNotFound},
		{http.StatusBadRequest, false, domain.ErrorTypeValidation},
		{http.StatusUnauthorized, false, domain.ErrorTypeValidation},
	}

	for _, tc := range cases {
		status := tc.status
		client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		})

		err := client.AssignOfferToCampaign(context.Background(), "c-1", "offer-1")
		require.Error(t, err, "status %d", status)
		require.Equal(t, tc.retryable, domain.IsRetryable(err), "status %d", status)
		require.Equal(t, tc.errType, domain.Classify(err).Type, "status %d", status)
		server.Close()
	}
}

func TestMalformedResponseIsPermanent(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	})
	defer server.Close()

	_, err := client.GetCampaignStats(context.Background(), "c-1")
	require.Error(t, err)
	require.False(t, domain.IsRetryable(err))
	require.Equal(t, domain.ErrorTypeMalformedResponse, domain.Classify(err).Type)
}

func TestTransportTimeoutIsRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", 20*time.Millisecond)
	_, err := client.GetCampaignStats(context.Background(), "c-1")
	require.Error(t, err)
	require.True(t, domain.IsRetryable(err))
	require.Equal(t, domain.ErrorTypeTimeout, domain.Classify(err).Type)
}
