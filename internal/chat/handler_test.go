package chat_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"docchat-backend/internal/bootstrap"
	"docchat-backend/internal/shared/config"
)

func newTestApp(t *testing.T) *bootstrap.App {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{
		Port:            "0",
		CORSAllowOrigin: []string{"http://localhost:5173"},
		LocalStoreDir:   t.TempDir(),
		Env:             "dev",
		ChunkSize:       100,
		IngestWorkers:   2,
		IngestQueueSize: 8,
		TopKSources:     3,
		MinRelevance:    0.2,
		ExcerptLength:   200,
	}

	app, err := bootstrap.Build(cfg)
	if err != nil {
		t.Fatalf("bootstrap build: %v", err)
	}
	t.Cleanup(app.Close)
	return app
}

func uploadProcessedDocument(t *testing.T, router *gin.Engine, fileName, content string) string {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	fileWriter, err := writer.CreateFormFile("document", fileName)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fileWriter.Write([]byte(content)); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("upload: expected 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var created struct {
		DocumentID string `json:"documentId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+created.DocumentID, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)

		var doc struct {
			Status       string `json:"status"`
			ErrorMessage string `json:"errorMessage"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
			t.Fatalf("decode document: %v", err)
		}
		switch doc.Status {
		case "processed":
			return created.DocumentID
		case "error":
			t.Fatalf("document failed processing: %s", doc.ErrorMessage)
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("document %s never reached processed", created.DocumentID)
	return ""
}

func postJSON(t *testing.T, router *gin.Engine, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestChatSessionLifecycle(t *testing.T) {
	app := newTestApp(t)
	router := app.Router

	docID := uploadProcessedDocument(t, router, "sky.txt",
		"What color is the sky? The sky is blue on clear days. Grass is green.")

	// Create a session scoped to the document.
	resp := postJSON(t, router, "/api/v1/chat-sessions", map[string]any{
		"name":        "sky questions",
		"documentIds": []string{docID},
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("create session: expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var session struct {
		SessionID   string   `json:"sessionId"`
		Name        string   `json:"name"`
		DocumentIDs []string `json:"documentIds"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if session.SessionID == "" || session.Name != "sky questions" {
		t.Fatalf("unexpected session payload: %+v", session)
	}
	if len(session.DocumentIDs) != 1 || session.DocumentIDs[0] != docID {
		t.Fatalf("unexpected session scope: %v", session.DocumentIDs)
	}

	// Ask a question.
	resp = postJSON(t, router, "/api/v1/chat-sessions/"+session.SessionID+"/messages", map[string]any{
		"question": "what color is the sky",
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("ask: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var exchange struct {
		UserMessage struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"userMessage"`
		AssistantMessage struct {
			Role    string `json:"role"`
			Content string `json:"content"`
			Sources []struct {
				Document  string  `json:"document"`
				Chunk     string  `json:"chunk"`
				Relevance float64 `json:"relevance"`
			} `json:"sources"`
			ResponseTimeMs *int64 `json:"responseTimeMs"`
		} `json:"assistantMessage"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&exchange); err != nil {
		t.Fatalf("decode exchange: %v", err)
	}
	if exchange.UserMessage.Role != "user" || exchange.AssistantMessage.Role != "assistant" {
		t.Fatalf("unexpected roles: %s / %s", exchange.UserMessage.Role, exchange.AssistantMessage.Role)
	}
	if len(exchange.AssistantMessage.Sources) == 0 {
		t.Fatalf("expected citations in answer")
	}
	if exchange.AssistantMessage.Sources[0].Document != "sky.txt" {
		t.Fatalf("citation names wrong document: %s", exchange.AssistantMessage.Sources[0].Document)
	}
	if !strings.Contains(exchange.AssistantMessage.Content, "what color is the sky") {
		t.Fatalf("answer does not reference the question: %q", exchange.AssistantMessage.Content)
	}

	// History holds the exchange.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/chat-sessions/"+session.SessionID+"/messages", nil)
	historyResp := httptest.NewRecorder()
	router.ServeHTTP(historyResp, req)
	if historyResp.Code != http.StatusOK {
		t.Fatalf("history: expected 200, got %d", historyResp.Code)
	}
	var history []struct {
		Role string `json:"role"`
	}
	if err := json.NewDecoder(historyResp.Body).Decode(&history); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 messages in history, got %d", len(history))
	}

	// Session list reflects the activity.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/chat-sessions", nil)
	listResp := httptest.NewRecorder()
	router.ServeHTTP(listResp, req)
	if listResp.Code != http.StatusOK {
		t.Fatalf("list sessions: expected 200, got %d", listResp.Code)
	}
	var sessions []struct {
		SessionID    string `json:"sessionId"`
		LastMessage  string `json:"lastMessage"`
		MessageCount int    `json:"messageCount"`
	}
	if err := json.NewDecoder(listResp.Body).Decode(&sessions); err != nil {
		t.Fatalf("decode sessions: %v", err)
	}
	if len(sessions) != 1 || sessions[0].MessageCount != 2 {
		t.Fatalf("unexpected session list: %+v", sessions)
	}
	if sessions[0].LastMessage != "what color is the sky" {
		t.Fatalf("expected last message preview, got %q", sessions[0].LastMessage)
	}

	// Delete the session.
	req = httptest.NewRequest(http.MethodDelete, "/api/v1/chat-sessions/"+session.SessionID, nil)
	deleteResp := httptest.NewRecorder()
	router.ServeHTTP(deleteResp, req)
	if deleteResp.Code != http.StatusOK {
		t.Fatalf("delete session: expected 200, got %d", deleteResp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/chat-sessions/"+session.SessionID, nil)
	goneResp := httptest.NewRecorder()
	router.ServeHTTP(goneResp, req)
	if goneResp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", goneResp.Code)
	}
}

func TestDeleteDocumentReferencedBySession(t *testing.T) {
	app := newTestApp(t)
	router := app.Router

	docID := uploadProcessedDocument(t, router, "sky.txt", "The sky is blue.")

	resp := postJSON(t, router, "/api/v1/chat-sessions", map[string]any{
		"name":        "s",
		"documentIds": []string{docID},
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("create session: expected 201, got %d", resp.Code)
	}
	var session struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		t.Fatalf("decode session: %v", err)
	}

	// A session holding the document in scope must not block its deletion.
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/documents/"+docID, nil)
	deleteResp := httptest.NewRecorder()
	router.ServeHTTP(deleteResp, req)
	if deleteResp.Code != http.StatusOK {
		t.Fatalf("delete document: expected 200, got %d: %s", deleteResp.Code, deleteResp.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+docID, nil)
	goneResp := httptest.NewRecorder()
	router.ServeHTTP(goneResp, req)
	if goneResp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", goneResp.Code)
	}

	// The session itself survives.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/chat-sessions/"+session.SessionID, nil)
	sessionResp := httptest.NewRecorder()
	router.ServeHTTP(sessionResp, req)
	if sessionResp.Code != http.StatusOK {
		t.Fatalf("expected session to remain, got %d", sessionResp.Code)
	}
}

func TestCreateSessionUnknownDocument(t *testing.T) {
	app := newTestApp(t)

	resp := postJSON(t, app.Router, "/api/v1/chat-sessions", map[string]any{
		"name":        "s",
		"documentIds": []string{"ghost"},
	})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestAskUnknownSession(t *testing.T) {
	app := newTestApp(t)

	resp := postJSON(t, app.Router, "/api/v1/chat-sessions/ghost/messages", map[string]any{
		"question": "anything",
	})
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestAskBlankQuestion(t *testing.T) {
	app := newTestApp(t)
	router := app.Router

	docID := uploadProcessedDocument(t, router, "a.txt", "Some content here.")
	resp := postJSON(t, router, "/api/v1/chat-sessions", map[string]any{
		"name":        "s",
		"documentIds": []string{docID},
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("create session: expected 201, got %d", resp.Code)
	}
	var session struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		t.Fatalf("decode session: %v", err)
	}

	resp = postJSON(t, router, "/api/v1/chat-sessions/"+session.SessionID+"/messages", map[string]any{
		"question": "   ",
	})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}
