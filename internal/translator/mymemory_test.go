package translator

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestMyMemoryService_Translate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "Hello, adventurer!" {
			t.Errorf("unexpected query text %q", got)
		}
		if got := r.URL.Query().Get("langpair"); got != "en|es" {
			t.Errorf("unexpected langpair %q", got)
		}
		w.Write([]byte(`{"responseData":{"translatedText":"¡Hola, aventurero!","match":0.98},"responseStatus":200}`))
	}))
	defer server.Close()

	svc := NewMyMemoryService()
	svc.baseURL = server.URL

	result, err := svc.Translate(context.Background(), ServiceConfig{}, TranslateRequest{
		Text:       "Hello, adventurer!",
		SourceLang: "en",
		TargetLang: "es",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TranslatedText != "¡Hola, aventurero!" {
		t.Errorf("unexpected translation %q", result.TranslatedText)
	}
	if result.Confidence != 0.98 {
		t.Errorf("unexpected confidence %v", result.Confidence)
	}
	if result.Latency <= 0 {
		t.Error("expected positive latency")
	}
}

func TestMyMemoryService_Translate_AutoSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("langpair"); got != "en|fr" {
			t.Errorf("expected auto to map to en, got langpair %q", got)
		}
		if got := r.URL.Query().Get("de"); got != "dev@example.com" {
			t.Errorf("expected email parameter, got %q", got)
		}
		w.Write([]byte(`{"responseData":{"translatedText":"Bonjour","match":1},"responseStatus":200}`))
	}))
	defer server.Close()

	svc := NewMyMemoryService()
	svc.baseURL = server.URL

	result, err := svc.Translate(context.Background(), ServiceConfig{Email: "dev@example.com"}, TranslateRequest{
		Text:       "Hello",
		SourceLang: "auto",
		TargetLang: "fr",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TranslatedText != "Bonjour" {
		t.Errorf("unexpected translation %q", result.TranslatedText)
	}
}

func TestMyMemoryService_Translate_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"responseData":{"translatedText":""},"responseStatus":403,"responseDetails":"INVALID LANGUAGE PAIR"}`))
	}))
	defer server.Close()

	svc := NewMyMemoryService()
	svc.baseURL = server.URL

	result, err := svc.Translate(context.Background(), ServiceConfig{}, TranslateRequest{
		Text:       "Hello",
		SourceLang: "en",
		TargetLang: "xx",
	})
	if err == nil {
		t.Error("expected error for non-200 API status")
	}
	if result == nil {
		t.Fatal("expected non-nil result")
	}
	if result.Error == "" {
		t.Error("expected error message in result")
	}
}

func TestMyMemoryService_Translate_ConfigTimeout(t *testing.T) {
	block := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer server.Close()
	defer close(block)

	svc := NewMyMemoryService()
	svc.baseURL = server.URL

	start := time.Now()
	_, err := svc.Translate(context.Background(), ServiceConfig{Timeout: 20 * time.Millisecond}, TranslateRequest{
		Text:       "Hello",
		SourceLang: "en",
		TargetLang: "es",
	})
	if err == nil {
		t.Fatal("expected timeout error from a stalled server")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("configured timeout not applied, request took %v", elapsed)
	}
}

func TestMyMemoryService_IsAvailable(t *testing.T) {
	svc := NewMyMemoryService()

	if err := svc.IsAvailable(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestMyMemoryService_SupportedLanguages(t *testing.T) {
	svc := NewMyMemoryService()

	langs, err := svc.SupportedLanguages(context.Background())
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if len(langs) == 0 {
		t.Error("expected non-empty language list")
	}
}

func TestMyMemoryService_Name(t *testing.T) {
	svc := NewMyMemoryService()

	if svc.Name() != "mymemory" {
		t.Errorf("expected 'mymemory', got %q", svc.Name())
	}
}

func TestGoogleService_Name(t *testing.T) {
	svc := NewGoogleService()

	if svc.Name() != "google" {
		t.Errorf("expected 'google', got %q", svc.Name())
	}
}

func TestGoogleService_Translate_InvalidTarget(t *testing.T) {
	svc := NewGoogleService()

	result, err := svc.Translate(context.Background(), ServiceConfig{}, TranslateRequest{
		Text:       "Hello",
		SourceLang: "en",
		TargetLang: "not-a-language-!!",
	})
	if err == nil {
		t.Error("expected error for unparseable target language")
	}
	if result == nil {
		t.Fatal("expected non-nil result")
	}
	if result.Error == "" {
		t.Error("expected error message in result")
	}
}

func TestServiceInterfaces(t *testing.T) {
	var _ TranslationService = (*GoogleService)(nil)
	var _ TranslationService = (*MyMemoryService)(nil)
}
