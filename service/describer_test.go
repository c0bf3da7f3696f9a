package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/TIANLI0/CutoutKit/config"
	nhttp "github.com/TIANLI0/CutoutKit/utils/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloudmersiveDescriber(t *testing.T) {
	data := []byte("fake-png-bytes")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "secret", r.Header.Get("Apikey"))

		file, header, err := r.FormFile("imageFile")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "image.png", header.Filename)
		got, _ := io.ReadAll(file)
		assert.Equal(t, data, got)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"Successful":true,"BestOutcome":{"ConfidenceScore":0.9,"Description":"a map of the world"}}`))
	}))
	defer server.Close()

	d := NewCloudmersiveDescriber(server.URL, "secret", nil)
	desc, err := d.Describe(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, "a map of the world", desc)
}

func TestCloudmersiveDescriber_Errors(t *testing.T) {
	t.Run("missing key", func(t *testing.T) {
		called := false
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))
		defer server.Close()

		_, err := NewCloudmersiveDescriber(server.URL, "", nil).Describe(context.Background(), []byte("x"))
		assert.ErrorIs(t, err, ErrMissingCredential)
		assert.False(t, called)
	})

	t.Run("upstream error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte("invalid api key"))
		}))
		defer server.Close()

		_, err := NewCloudmersiveDescriber(server.URL, "bad", nil).Describe(context.Background(), []byte("x"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cloudmersive describe")
		assert.Contains(t, err.Error(), "401")
	})
}

func TestOllamaDescriber(t *testing.T) {
	data := []byte("fake-jpeg-bytes")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req struct {
			Model  string   `json:"model"`
			Prompt string   `json:"prompt"`
			Images []string `json:"images"`
			Stream bool     `json:"stream"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llava", req.Model)
		assert.Equal(t, describePrompt, req.Prompt)
		assert.False(t, req.Stream)
		require.Len(t, req.Images, 1)
		assert.Equal(t, base64.StdEncoding.EncodeToString(data), req.Images[0])

		_, _ = w.Write([]byte(`{"model":"llava","response":"A person standing in a field.","done":true}`))
	}))
	defer server.Close()

	d := NewOllamaDescriber(server.URL+"/", "llava", nil)
	desc, err := d.Describe(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, "A person standing in a field.", desc)
}

func TestGeminiDescriber_MissingKey(t *testing.T) {
	d, err := NewGeminiDescriber(context.Background(), "", "gemini-1.5-flash")
	require.NoError(t, err)
	defer d.Close()

	_, err = d.Describe(context.Background(), []byte("x"))
	assert.ErrorIs(t, err, ErrMissingCredential)
}

func TestImageFormat(t *testing.T) {
	png := encodePNG(t, grayFrom(2, 2, 0))
	assert.Equal(t, "png", imageFormat(png))
	assert.Equal(t, "jpeg", imageFormat([]byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00")))
	assert.Equal(t, "png", imageFormat([]byte("plain text")))
}

func TestNewDescriber(t *testing.T) {
	tests := []struct {
		provider string
		want     interface{}
		wantErr  bool
	}{
		{"cloudmersive", &CloudmersiveDescriber{}, false},
		{"", &CloudmersiveDescriber{}, false},
		{"ollama", &OllamaDescriber{}, false},
		{"gemini", &GeminiDescriber{}, false},
		{"openai", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			d, err := NewDescriber(context.Background(), &config.ClassifierConfig{Provider: tt.provider})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, d)
		})
	}
}

func TestNewDescriber_ClientTimeoutFollowsConfig(t *testing.T) {
	cfg := &config.ClassifierConfig{Provider: "cloudmersive", Timeout: 45 * time.Second}
	d, err := NewDescriber(context.Background(), cfg)
	require.NoError(t, err)
	cli, ok := d.(*CloudmersiveDescriber).cli.(*nhttp.HTTPClient)
	require.True(t, ok)
	assert.Equal(t, 45*time.Second, cli.Timeout())

	cfg.Provider = "ollama"
	d, err = NewDescriber(context.Background(), cfg)
	require.NoError(t, err)
	cli, ok = d.(*OllamaDescriber).cli.(*nhttp.HTTPClient)
	require.True(t, ok)
	assert.Equal(t, 45*time.Second, cli.Timeout())
}
