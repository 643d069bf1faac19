package vesync

import (
	"net/http"
	"testing"
	"time"
)

func TestClient_BuildURL(t *testing.T) {
	c := NewClient()
	if got := c.buildURL("/vold/user/login"); got != "https://smartapi.vesync.com/vold/user/login" {
		t.Errorf("buildURL: got %s", got)
	}

	c = NewClientWithURL("http://127.0.0.1:8080/")
	if got := c.buildURL("/v1/device/x/detail"); got != "http://127.0.0.1:8080/v1/device/x/detail" {
		t.Errorf("buildURL: got %s", got)
	}
}

func TestDecodeRecord_RequiredFields(t *testing.T) {
	var d Details
	err := decodeRecord([]byte(`{"deviceStatus":"on","deviceImg":"x","activeTime":1,"energy":2,"power":null,"voltage":3}`), &d, detailsFields)
	if err == nil {
		t.Fatal("expected error for null required field")
	}

	err = decodeRecord([]byte(`{"deviceStatus":"on","deviceImg":"x","activeTime":1,"energy":2,"power":1.5,"voltage":3,"extra":true}`), &d, detailsFields)
	if err != nil {
		t.Fatalf("decodeRecord: %v", err)
	}
	if d.Power != 1.5 {
		t.Errorf("power: got %v, want 1.5", d.Power)
	}
}

func TestWithTimeout_CopiesSharedClient(t *testing.T) {
	shared := &http.Client{Timeout: 30 * time.Second}

	c := NewClient(WithHTTPClient(shared), WithTimeout(time.Second))

	if shared.Timeout != 30*time.Second {
		t.Errorf("shared client timeout changed: got %s", shared.Timeout)
	}
	if c.httpClient == shared {
		t.Error("client should not reuse the shared *http.Client")
	}
	if c.httpClient.Timeout != time.Second {
		t.Errorf("client timeout: got %s, want 1s", c.httpClient.Timeout)
	}
}
