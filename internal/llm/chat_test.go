package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatClient_GenerateContent(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		var got chatRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
			assert.Equal(t, "KitchenAI", r.Header.Get("X-Title"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"model": "served-model",
				"choices": [{"message": {"role": "assistant", "content": "{\"meals\": []}"}}],
				"usage": {"prompt_tokens": 12, "completion_tokens": 30, "total_tokens": 42}
			}`))
		}))
		defer srv.Close()

		client := NewChatClient(ChatConfig{URL: srv.URL, APIKey: "secret", Model: "requested-model", Title: "KitchenAI"})
		resp, err := client.GenerateContent(context.Background(), "plan my week", WithTemperature(0.3), WithMaxTokens(2000))
		require.NoError(t, err)

		assert.Equal(t, `{"meals": []}`, resp.Content)
		assert.Equal(t, "served-model", resp.Usage.Model)
		assert.Equal(t, 12, resp.Usage.PromptTokens)
		assert.Equal(t, 30, resp.Usage.CompletionTokens)
		assert.Equal(t, 42, resp.Usage.TotalTokens)

		assert.Equal(t, "requested-model", got.Model)
		require.Len(t, got.Messages, 1)
		assert.Equal(t, "user", got.Messages[0].Role)
		assert.Equal(t, "plan my week", got.Messages[0].Content)
		require.NotNil(t, got.Temperature)
		assert.InDelta(t, 0.3, *got.Temperature, 0.0001)
		assert.Equal(t, 2000, got.MaxTokens)
	})

	t.Run("NonOKStatus", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "quota exceeded", http.StatusTooManyRequests)
		}))
		defer srv.Close()

		client := NewChatClient(ChatConfig{URL: srv.URL})
		_, err := client.GenerateContent(context.Background(), "hi")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status=429")
	})

	t.Run("EmptyChoices", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"choices": []}`))
		}))
		defer srv.Close()

		client := NewChatClient(ChatConfig{URL: srv.URL})
		_, err := client.GenerateContent(context.Background(), "hi")
		assert.EqualError(t, err, "no content generated")
	})

	t.Run("ContextTimeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}))
		defer srv.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		client := NewChatClient(ChatConfig{URL: srv.URL})
		_, err := client.GenerateContent(ctx, "hi")
		assert.Error(t, err)
	})
}

type countingGenerator struct {
	calls int
}

func (c *countingGenerator) GenerateContent(ctx context.Context, prompt string, opts ...CallOption) (ContentResponse, error) {
	c.calls++
	return ContentResponse{Content: prompt}, nil
}

func TestRateLimited(t *testing.T) {
	t.Run("DelegatesWithinBurst", func(t *testing.T) {
		inner := &countingGenerator{}
		limited := NewRateLimited(inner, 60)

		resp, err := limited.GenerateContent(context.Background(), "echo")
		require.NoError(t, err)
		assert.Equal(t, "echo", resp.Content)
		assert.Equal(t, 1, inner.calls)
	})

	t.Run("WaitHonoursContext", func(t *testing.T) {
		inner := &countingGenerator{}
		limited := NewRateLimited(inner, 1)

		_, err := limited.GenerateContent(context.Background(), "first")
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err = limited.GenerateContent(ctx, "second")
		assert.Error(t, err)
		assert.Equal(t, 1, inner.calls)
	})

	t.Run("ZeroRateIsUnlimited", func(t *testing.T) {
		inner := &countingGenerator{}
		limited := NewRateLimited(inner, 0)
		for i := 0; i < 5; i++ {
			_, err := limited.GenerateContent(context.Background(), "x")
			require.NoError(t, err)
		}
		assert.Equal(t, 5, inner.calls)
	})
}

func TestApplyOptions(t *testing.T) {
	o := ApplyOptions(nil)
	assert.Nil(t, o.Temperature)
	assert.Zero(t, o.MaxTokens)

	o = ApplyOptions([]CallOption{WithTemperature(0.7), WithMaxTokens(4000)})
	require.NotNil(t, o.Temperature)
	assert.InDelta(t, 0.7, *o.Temperature, 0.0001)
	assert.Equal(t, 4000, o.MaxTokens)
}
