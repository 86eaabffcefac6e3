package bria

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, "test-api-key")
}

func TestImageCallResponseShapes(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected []string
	}{
		{
			name:     "result array with url lists",
			body:     `{"result": [{"urls": ["https://cdn/a.png"]}, {"urls": ["https://cdn/b.png", "https://cdn/b2.png"]}]}`,
			expected: []string{"https://cdn/a.png", "https://cdn/b.png"},
		},
		{
			name:     "result array with bare string urls",
			body:     `{"result": [{"urls": "https://cdn/single.png"}]}`,
			expected: []string{"https://cdn/single.png"},
		},
		{
			name:     "single result_url",
			body:     `{"result_url": "https://cdn/one.png"}`,
			expected: []string{"https://cdn/one.png"},
		},
		{
			name:     "result_urls list",
			body:     `{"result_urls": ["https://cdn/x.png", "https://cdn/y.png"]}`,
			expected: []string{"https://cdn/x.png", "https://cdn/y.png"},
		},
		{
			name:     "result_urls bare string",
			body:     `{"result_urls": "https://cdn/z.png"}`,
			expected: []string{"https://cdn/z.png"},
		},
		{
			name:     "plain url field",
			body:     `{"url": "https://cdn/plain.png"}`,
			expected: []string{"https://cdn/plain.png"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "test-api-key", r.Header.Get("api_token"))
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(tc.body))
			})

			urls, err := client.GenerateHDImage(context.Background(), "a chair", GenerateOptions{})
			require.NoError(t, err)
			assert.Equal(t, tc.expected, urls)
		})
	}
}

func TestUnrecognizedResponse(t *testing.T) {
	bodies := []string{
		`{}`,
		`{"status": "done"}`,
		`{"result": []}`,
		`{"result": [{"no_urls_here": true}]}`,
	}

	for _, body := range bodies {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		})

		urls, err := client.EraseForeground(context.Background(), "https://cdn/src.png")
		assert.ErrorIs(t, err, ErrUnrecognizedResponse, "body: %s", body)
		assert.Nil(t, urls)
	}
}

func TestServerErrorIsServiceUnavailable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	urls, err := client.CreatePackshot(context.Background(), "https://cdn/src.png", "", false)
	assert.ErrorIs(t, err, ErrServiceUnavailable)
	assert.Nil(t, urls)
}

func TestNetworkFailureIsServiceUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(server.URL, "test-api-key")
	urls, err := client.AddShadow(context.Background(), "https://cdn/src.png", ShadowOptions{})
	assert.ErrorIs(t, err, ErrServiceUnavailable)
	assert.Nil(t, urls)
}

func TestClientErrorIsNotServiceUnavailable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "bad prompt"}`, http.StatusUnprocessableEntity)
	})

	urls, err := client.GenerateHDImage(context.Background(), "", GenerateOptions{})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrServiceUnavailable)
	assert.Nil(t, urls)
}

func TestGeneratePayloadCarriesOptions(t *testing.T) {
	var received map[string]interface{}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Write([]byte(`{"result_url": "https://cdn/out.png"}`))
	})

	_, err := client.GenerateHDImage(context.Background(), "a lamp", GenerateOptions{
		NumResults:  2,
		AspectRatio: "16:9",
		Medium:      "photography",
	})
	require.NoError(t, err)

	assert.Equal(t, "a lamp", received["prompt"])
	assert.Equal(t, true, received["sync"])
	assert.Equal(t, float64(2), received["num_results"])
	assert.Equal(t, "16:9", received["aspect_ratio"])
	assert.Equal(t, "photography", received["medium"])
}

func TestEnhancePrompt(t *testing.T) {
	t.Run("plain result", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"result": "an ornate mahogany chair in warm studio light"}`))
		})

		enhanced, err := client.EnhancePrompt(context.Background(), "a chair")
		require.NoError(t, err)
		assert.Equal(t, "an ornate mahogany chair in warm studio light", enhanced)
	})

	t.Run("variations list", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"prompt variations": [{"prompt": "first variation"}, {"prompt": "second"}]}`))
		})

		enhanced, err := client.EnhancePrompt(context.Background(), "a chair")
		require.NoError(t, err)
		assert.Equal(t, "first variation", enhanced)
	})

	t.Run("unrecognized", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"something": "else"}`))
		})

		_, err := client.EnhancePrompt(context.Background(), "a chair")
		assert.ErrorIs(t, err, ErrUnrecognizedResponse)
	})
}

func TestLifestyleShotByTextPayload(t *testing.T) {
	var received map[string]interface{}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Write([]byte(`{"result": [{"urls": ["https://cdn/shot.png"]}]}`))
	})

	urls, err := client.LifestyleShotByText(context.Background(), "https://cdn/product.png", "on a beach at sunset", LifestyleOptions{
		Placement: "automatic",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://cdn/shot.png"}, urls)

	assert.Equal(t, "https://cdn/product.png", received["image_url"])
	assert.Equal(t, "on a beach at sunset", received["scene_description"])
	assert.Equal(t, "automatic", received["placement_type"])
}
