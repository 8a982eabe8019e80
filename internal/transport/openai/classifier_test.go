package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spacetwo/spacetwo-chat/internal/domain"
)

func chatServer(t *testing.T, content string, check func(req map[string]any)) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if check != nil {
			check(req)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "test-chat",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
			"usage": map[string]any{"prompt_tokens": 30, "completion_tokens": 10, "total_tokens": 40},
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestClassifier(url string) *Classifier {
	return NewClassifier(&Config{APIKey: "test-key", BaseURL: url, Model: "test-chat"})
}

func TestClassifier_Classify(t *testing.T) {
	server := chatServer(t,
		`{"intent":"recommend_collaborators","query":"video editor london","tags":["editor","music video"]}`,
		func(req map[string]any) {
			msgs, _ := req["messages"].([]any)
			if len(msgs) != 2 {
				t.Errorf("expected 2 messages, got %d", len(msgs))
				return
			}
			user, _ := msgs[1].(map[string]any)
			if user["content"] != "History: user: hi\nLatest: need an editor" {
				t.Errorf("unexpected user message %q", user["content"])
			}
			rf, _ := req["response_format"].(map[string]any)
			if rf["type"] != "json_object" {
				t.Errorf("expected json_object response format, got %v", rf)
			}
			if temp, _ := req["temperature"].(float64); temp > 1e-6 {
				t.Errorf("expected near-zero temperature, got %v", temp)
			}
		})

	out, err := newTestClassifier(server.URL).Classify(context.Background(), "user: hi", "need an editor")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if out.Intent != "recommend_collaborators" || out.Query != "video editor london" {
		t.Errorf("unexpected classification %+v", out)
	}
	if len(out.Tags) != 2 {
		t.Errorf("expected 2 tags, got %v", out.Tags)
	}
}

func TestClassifier_WrongTypesTreatedAsMissing(t *testing.T) {
	server := chatServer(t, `{"intent":7,"tags":"editor"}`, nil)

	out, err := newTestClassifier(server.URL).Classify(context.Background(), "", "hello")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if out.Intent != "" || out.Query != "" || out.Tags != nil {
		t.Errorf("expected zero classification, got %+v", out)
	}
}

func TestClassifier_NonJSONIsMalformed(t *testing.T) {
	server := chatServer(t, "sure, here are some editors", nil)

	_, err := newTestClassifier(server.URL).Classify(context.Background(), "", "hello")
	if domain.KindOf(err) != domain.FailureMalformed {
		t.Fatalf("expected malformed, got %v", err)
	}
	if !errors.Is(err, domain.ErrClassifierError) {
		t.Error("expected ErrClassifierError in chain")
	}
}

func TestClassifier_AuthError(t *testing.T) {
	server := errorServer(t, http.StatusUnauthorized, map[string]any{
		"error": map[string]any{"message": "bad key", "type": "invalid_request_error"},
	})

	_, err := newTestClassifier(server.URL).Classify(context.Background(), "", "hello")
	if domain.KindOf(err) != domain.FailureAuth {
		t.Fatalf("expected auth, got %v", err)
	}
	if !strings.Contains(err.Error(), "401") {
		t.Errorf("expected status in message: %v", err)
	}
}

func TestClassifier_LocalRateLimit(t *testing.T) {
	server := chatServer(t, `{"intent":"small_talk"}`, nil)
	c := NewClassifier(&Config{APIKey: "test-key", BaseURL: server.URL, Model: "test-chat"},
		WithRateLimit(0.001, 1))

	if _, err := c.Classify(context.Background(), "", "a"); err != nil {
		t.Fatalf("first call: %v", err)
	}
	_, err := c.Classify(context.Background(), "", "b")
	if domain.KindOf(err) != domain.FailureRateLimited {
		t.Fatalf("expected rate_limited, got %v", err)
	}
}
