package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewHTTPClient(server.URL, "test-key", DefaultMaxRetryAttempts)
	t.Cleanup(func() {
		require.NoError(t, client.Close())
	})
	return client
}

func TestHTTPClient_GetChapter(t *testing.T) {
	t.Run("returns the chapter", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/chapters/ch-1", r.URL.Path)
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

			w.Header().Set("Content-Type", "application/json")
			require.NoError(t, json.NewEncoder(w).Encode(Chapter{
				ID:          "ch-1",
				Name:        "Algebra",
				SubjectID:   "math",
				SubjectName: "Mathematics",
			}))
		})

		got, err := client.GetChapter(context.Background(), "ch-1")
		require.NoError(t, err)
		assert.Equal(t, &Chapter{ID: "ch-1", Name: "Algebra", SubjectID: "math", SubjectName: "Mathematics"}, got)
	})

	t.Run("retries transient server errors", func(t *testing.T) {
		var calls atomic.Int32
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			require.NoError(t, json.NewEncoder(w).Encode(Chapter{ID: "ch-1"}))
		})

		got, err := client.GetChapter(context.Background(), "ch-1")
		require.NoError(t, err)
		assert.Equal(t, "ch-1", got.ID)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("does not retry a client error", func(t *testing.T) {
		var calls atomic.Int32
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusNotFound)
		})

		_, err := client.GetChapter(context.Background(), "ch-404")
		assert.Error(t, err)
		assert.Equal(t, int32(1), calls.Load())
	})
}

func TestHTTPClient_GetQuestions(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/questions", r.URL.Path)
		assert.Equal(t, "t1,t2", r.URL.Query().Get("topic_ids"))
		assert.Equal(t, "20", r.URL.Query().Get("limit"))

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode([]Question{
			{ID: "q-1", TopicID: "t1", Question: "2+2?", CorrectAnswer: "4"},
		}))
	})

	got, err := client.GetQuestions(context.Background(), []string{"t1", "t2"}, 20)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "q-1", got[0].ID)
}

func TestHTTPClient_GetAttempt(t *testing.T) {
	t.Run("returns the attempt", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/students/s-1/attempts/q-1", r.URL.Path)

			w.Header().Set("Content-Type", "application/json")
			require.NoError(t, json.NewEncoder(w).Encode(Attempt{
				StudentID:  "s-1",
				QuestionID: "q-1",
				Answer:     "4",
				IsCorrect:  true,
				Timestamp:  1_000,
			}))
		})

		got, err := client.GetAttempt(context.Background(), "s-1", "q-1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, int64(1_000), got.Timestamp)
	})

	t.Run("404 means no attempt", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		got, err := client.GetAttempt(context.Background(), "s-1", "q-1")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("server error fails", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		_, err := client.GetAttempt(context.Background(), "s-1", "q-1")
		assert.Error(t, err)
	})
}

func TestHTTPClient_PutAttempt(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/students/s-1/attempts/q-1", r.URL.Path)

		var got Attempt
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "4", got.Answer)
		assert.True(t, got.IsCorrect)

		w.WriteHeader(http.StatusNoContent)
	})

	err := client.PutAttempt(context.Background(), &Attempt{
		StudentID:  "s-1",
		QuestionID: "q-1",
		Answer:     "4",
		IsCorrect:  true,
		Timestamp:  1_000,
	})
	assert.NoError(t, err)
}

func TestHTTPClient_Ping(t *testing.T) {
	t.Run("healthy backend", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/health", r.URL.Path)
			w.WriteHeader(http.StatusOK)
		})

		rtt, err := client.Ping(context.Background())
		require.NoError(t, err)
		assert.Greater(t, rtt.Nanoseconds(), int64(0))
	})

	t.Run("unhealthy backend", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})

		_, err := client.Ping(context.Background())
		assert.Error(t, err)
	})
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "connection refused", err: fmt.Errorf("dial tcp: connection refused"), want: true},
		{name: "timeout", err: fmt.Errorf("read tcp: i/o timeout"), want: true},
		{name: "server error", err: fmt.Errorf("response error 503: unavailable"), want: true},
		{name: "rate limited", err: fmt.Errorf("response error 429: slow down"), want: true},
		{name: "not found", err: fmt.Errorf("response error 404: missing"), want: false},
		{name: "unrelated", err: fmt.Errorf("json: cannot unmarshal"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryableError(tt.err))
		})
	}
}
