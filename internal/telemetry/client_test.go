package telemetry

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"
)

func TestNewClient_Default(t *testing.T) {
	_ = os.Unsetenv(EnvNoTelemetry)
	_ = os.Unsetenv(EnvDebug)

	c := NewClient()

	if c.endpoint != DefaultEndpoint {
		t.Errorf("endpoint = %q, want %q", c.endpoint, DefaultEndpoint)
	}
	if c.timeout != DefaultTimeout {
		t.Errorf("timeout = %v, want %v", c.timeout, DefaultTimeout)
	}
	if c.debug {
		t.Error("debug = true, want false")
	}
}

func TestNewClient_Disabled(t *testing.T) {
	t.Setenv(EnvNoTelemetry, "1")

	c := NewClient()

	if !c.disabled {
		t.Error("disabled = false, want true")
	}
	if !c.IsDisabled() {
		t.Error("IsDisabled() = false, want true")
	}
}

func TestNewClient_DisabledAnyValue(t *testing.T) {
	// Any non-empty value should disable telemetry
	t.Setenv(EnvNoTelemetry, "true")

	c := NewClient()

	if !c.disabled {
		t.Error("disabled = false, want true")
	}
}

func TestDisabledByEnv_Alias(t *testing.T) {
	t.Setenv(EnvTelemetry, "0")

	if !DisabledByEnv() {
		t.Error("DisabledByEnv() = false, want true for NAOSU_TELEMETRY=0")
	}
}

func TestNewClient_Debug(t *testing.T) {
	t.Setenv(EnvDebug, "1")

	c := NewClient()

	if !c.debug {
		t.Error("debug = false, want true")
	}
}

func TestSend_Disabled(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := NewClientWithOptions(server.URL, time.Second, true, false)
	c.Send(NewResolveEvent("test", "apt", "ready"))

	// Give time for goroutine to potentially run
	time.Sleep(50 * time.Millisecond)

	if called {
		t.Error("server was called when telemetry was disabled")
	}
}

func TestSend_Debug(t *testing.T) {
	oldStderr := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w

	c := NewClientWithOptions("http://unused", time.Second, false, true)
	c.Send(NewResolveEvent("test-tool", "apt", "locked"))

	w.Close()
	os.Stderr = oldStderr

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	output := buf.String()

	if !strings.Contains(output, "[telemetry]") {
		t.Errorf("output does not contain [telemetry] prefix: %q", output)
	}
	if !strings.Contains(output, "test-tool") {
		t.Errorf("output does not contain tool name: %q", output)
	}
	if !strings.Contains(output, "resolve") {
		t.Errorf("output does not contain action: %q", output)
	}
}

func TestSend_Success(t *testing.T) {
	received := make(chan Event, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %q, want %q", r.Method, http.MethodPost)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q, want %q", ct, "application/json")
		}

		var event Event
		if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
			t.Errorf("failed to decode event: %v", err)
		}
		received <- event
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := NewClientWithOptions(server.URL, time.Second, false, false)
	c.Send(NewDiagnoseEvent("terraform", "brew", "network", 1))

	select {
	case event := <-received:
		if event.Action != "diagnose" {
			t.Errorf("Action = %q, want %q", event.Action, "diagnose")
		}
		if event.Tool != "terraform" {
			t.Errorf("Tool = %q, want %q", event.Tool, "terraform")
		}
		if event.ChainDepth != 1 {
			t.Errorf("ChainDepth = %d, want %d", event.ChainDepth, 1)
		}
	case <-time.After(time.Second):
		t.Error("event not received within timeout")
	}
}

func TestSend_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := NewClientWithOptions(server.URL, 50*time.Millisecond, false, false)

	// This should not block despite server delay
	start := time.Now()
	c.Send(NewResolveEvent("test", "apt", "ready"))
	elapsed := time.Since(start)

	// Send should return immediately (fire-and-forget)
	if elapsed > 10*time.Millisecond {
		t.Errorf("Send blocked for %v, expected immediate return", elapsed)
	}
}

func TestSend_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewClientWithOptions(server.URL, time.Second, false, false)

	// Should not panic or return error
	c.Send(NewResolveEvent("test", "apt", "ready"))

	time.Sleep(50 * time.Millisecond)
}

func TestSend_NetworkError(t *testing.T) {
	c := NewClientWithOptions("http://localhost:1", 100*time.Millisecond, false, false)

	// Should not panic or return error
	c.Send(NewResolveEvent("test", "apt", "ready"))

	time.Sleep(150 * time.Millisecond)
}
