package matching_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"stamp-match-backend/internal/matching"
)

func newTestClient(baseURL string) *matching.Client {
	return matching.NewClient(baseURL, 500*time.Millisecond, time.Second, zerolog.Nop())
}

func TestClient_Health_OK(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	assert.NoError(t, client.Health(context.Background()))
}

func TestClient_Health_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	err := client.Health(context.Background())
	assert.ErrorIs(t, err, matching.ErrServiceUnavailable)
}

func TestClient_Health_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer server.Close()

	client := matching.NewClient(server.URL, 50*time.Millisecond, time.Second, zerolog.Nop())
	err := client.Health(context.Background())
	assert.ErrorIs(t, err, matching.ErrServiceUnavailable)
}

func TestClient_Health_Unreachable(t *testing.T) {
	client := newTestClient("http://127.0.0.1:1")
	err := client.Health(context.Background())
	assert.ErrorIs(t, err, matching.ErrServiceUnavailable)
}

func TestClient_Predict(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/predict", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(32<<20))

		svgs := r.MultipartForm.File["svgs"]
		fotos := r.MultipartForm.File["fotos"]
		require.Len(t, svgs, 1)
		require.Len(t, fotos, 2)
		assert.Equal(t, "vector_12.svg", svgs[0].Filename)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"results": []map[string]interface{}{
				{
					"foto": "stamp1.jpg",
					"matches": []map[string]interface{}{
						{"svg": "vector_12.svg", "score": 0.91, "match": true},
					},
				},
				{
					"foto":  "stamp2.jpg",
					"error": "could not extract features",
				},
			},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	assets := []matching.Asset{
		{OrderID: 12, Role: matching.RoleVector, Key: "vector_12", Data: []byte("<svg/>")},
	}
	photos := []matching.PhotoFile{
		{Name: "stamp1.jpg", Data: []byte("jpeg-1")},
		{Name: "stamp2.jpg", Data: []byte("jpeg-2")},
	}

	candidates, err := client.Predict(context.Background(), assets, photos)
	require.NoError(t, err)

	require.Contains(t, candidates, "stamp1.jpg")
	assert.Len(t, candidates["stamp1.jpg"], 1)
	assert.Equal(t, 0.91, candidates["stamp1.jpg"][0].Score)
	assert.True(t, candidates["stamp1.jpg"][0].IsMatch)

	// Photos the service reported an error for carry no candidates.
	assert.NotContains(t, candidates, "stamp2.jpg")
}

func TestClient_Predict_EmptyCorpusShortCircuits(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	photos := []matching.PhotoFile{{Name: "stamp1.jpg", Data: []byte("jpeg")}}

	candidates, err := client.Predict(context.Background(), nil, photos)
	require.NoError(t, err)
	assert.Empty(t, candidates)
	assert.Zero(t, calls)

	candidates, err = client.Predict(context.Background(), []matching.Asset{{Key: "base_1"}}, nil)
	require.NoError(t, err)
	assert.Empty(t, candidates)
	assert.Zero(t, calls)
}

func TestClient_Predict_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("model crashed"))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Predict(context.Background(),
		[]matching.Asset{{Key: "vector_1", Data: []byte("<svg/>")}},
		[]matching.PhotoFile{{Name: "stamp.jpg", Data: []byte("jpeg")}},
	)

	var svcErr *matching.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, http.StatusBadGateway, svcErr.StatusCode)
	assert.Contains(t, svcErr.Body, "model crashed")
}

func TestClient_Predict_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer server.Close()

	client := matching.NewClient(server.URL, time.Second, 50*time.Millisecond, zerolog.Nop())
	_, err := client.Predict(context.Background(),
		[]matching.Asset{{Key: "vector_1", Data: []byte("<svg/>")}},
		[]matching.PhotoFile{{Name: "stamp.jpg", Data: []byte("jpeg")}},
	)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}

func TestClient_Predict_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Predict(context.Background(),
		[]matching.Asset{{Key: "vector_1", Data: []byte("<svg/>")}},
		[]matching.PhotoFile{{Name: "stamp.jpg", Data: []byte("jpeg")}},
	)

	var svcErr *matching.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Contains(t, svcErr.Body, "not json")
}
