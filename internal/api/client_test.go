// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// =============================================================================
// CLIENT TESTS
// =============================================================================

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := DefaultConfig()
	cfg.BaseURL = srv.URL
	return NewClientWithConfig(cfg), srv
}

func TestLoginInstallsToken(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/login" || r.Method != http.MethodPost {
			t.Errorf("Unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req LoginRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Username != "kurisu" || req.Password != "secret" {
			t.Errorf("Unexpected credentials: %+v", req)
		}
		json.NewEncoder(w).Encode(TokenResponse{AccessToken: "tok123", TokenType: "bearer"})
	}))

	tok, err := client.Login(context.Background(), "kurisu", "secret")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if tok.AccessToken != "tok123" {
		t.Errorf("Expected token tok123, got %q", tok.AccessToken)
	}
	if client.Token() != "tok123" {
		t.Errorf("Expected token installed on client, got %q", client.Token())
	}
}

func TestBearerTokenAttached(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok123" {
			t.Errorf("Expected bearer header, got %q", got)
		}
		json.NewEncoder(w).Encode(User{Username: "kurisu"})
	}))

	client.SetToken("tok123")
	user, err := client.Me(context.Background())
	if err != nil {
		t.Fatalf("Me failed: %v", err)
	}
	if user.Username != "kurisu" {
		t.Errorf("Expected username kurisu, got %q", user.Username)
	}
}

func TestUnauthorizedMapsToTypedError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := client.Me(context.Background())
	if !IsUnauthorized(err) {
		t.Errorf("Expected unauthorized error, got %v", err)
	}
}

func TestServerDetailSurfaces(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"detail": "username already taken"})
	}))

	_, err := client.Register(context.Background(), "kurisu", "secret")
	if err == nil {
		t.Fatal("Expected error")
	}
	if err.Error() != "username already taken" {
		t.Errorf("Expected server detail message, got %q", err.Error())
	}
}

func TestGetConversationPageQuery(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/conversations/7" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("limit") != "50" || q.Get("offset") != "100" {
			t.Errorf("Unexpected query: %s", r.URL.RawQuery)
		}
		json.NewEncoder(w).Encode(ConversationPage{
			Messages: []ChunkMessage{{ID: 1, Role: "user", Content: "hi"}},
			Total:    151,
			HasMore:  true,
		})
	}))

	page, err := client.GetConversationPage(context.Background(), 7, 0, 100)
	if err != nil {
		t.Fatalf("GetConversationPage failed: %v", err)
	}
	if page.Total != 151 || !page.HasMore {
		t.Errorf("Unexpected page metadata: %+v", page)
	}
	if len(page.Messages) != 1 || page.Messages[0].Content != "hi" {
		t.Errorf("Unexpected page messages: %+v", page.Messages)
	}
}

func TestListModels(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ModelsResponse{Models: []string{"qwen3", "llama3"}})
	}))

	models, err := client.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels failed: %v", err)
	}
	if len(models) != 2 || models[0] != "qwen3" {
		t.Errorf("Unexpected models: %v", models)
	}
}

// =============================================================================
// CHAT STREAM TESTS
// =============================================================================

func TestChatStreamMultipartFields(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("Expected multipart form: %v", err)
		}
		if got := r.FormValue("text"); got != "hello" {
			t.Errorf("Expected text field, got %q", got)
		}
		if got := r.FormValue("model_name"); got != "qwen3" {
			t.Errorf("Expected model_name field, got %q", got)
		}
		if got := r.FormValue("conversation_id"); got != "9" {
			t.Errorf("Expected conversation_id 9, got %q", got)
		}
		if imgs := r.MultipartForm.Value["images"]; len(imgs) != 2 || imgs[0] != "uuid-a" {
			t.Errorf("Expected ordered image uuids, got %v", imgs)
		}

		w.Header().Set("Content-Type", "application/x-ndjson")
		w.Write([]byte(`{"message":{"role":"assistant","content":"hi"}}` + "\n"))
		w.Write([]byte(`{"done":true}` + "\n"))
	}))

	var fragments []StreamFragment
	err := client.ChatStream(context.Background(), ChatRequest{
		Text:           "hello",
		ModelName:      "qwen3",
		ConversationID: 9,
		ChunkID:        41,
		Images:         []string{"uuid-a", "uuid-b"},
	}, func(f StreamFragment) {
		fragments = append(fragments, f)
	})
	if err != nil {
		t.Fatalf("ChatStream failed: %v", err)
	}
	if len(fragments) != 2 || fragments[0].Message.Content != "hi" {
		t.Errorf("Unexpected fragments: %+v", fragments)
	}
}

func TestChatStreamChanDeliversTransportError(t *testing.T) {
	client, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	_ = srv

	ch := client.ChatStreamChan(context.Background(), ChatRequest{Text: "x", ModelName: "m"})

	var last StreamFragment
	for f := range ch {
		last = f
	}
	if last.Err == nil {
		t.Error("Expected terminal fragment with transport error")
	}
	if !last.IsTerminal() {
		t.Error("Expected terminal fragment")
	}
}
