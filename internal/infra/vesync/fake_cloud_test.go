package vesync_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"vesync/internal/infra/vesync"
)

const (
	testToken     = "T1"
	testAccountID = "A1"

	twoDevicesJSON = `[
		{"deviceName":"Living Room Lamp","deviceImg":"https://img/lamp.png","cid":"cid-1","deviceStatus":"on",
		 "connectionType":"wifi","connectionStatus":"online","deviceType":"wifi-switch-1.3","model":"wifi-switch",
		 "currentFirmVersion":"1.99","extraField":42},
		{"deviceName":"Kitchen Kettle","deviceImg":"https://img/kettle.png","cid":"cid-2","deviceStatus":"off",
		 "connectionType":"wifi","connectionStatus":"offline","deviceType":"wifi-switch-1.1","model":"wifi-switch",
		 "currentFirmVersion":"2.123"}
	]`

	detailOnJSON = `{"deviceStatus":"on","deviceImg":"https://img/lamp.png","activeTime":120,"energy":3,"power":12.5,"voltage":120.1}`
)

type recordedRequest struct {
	Method    string
	Path      string
	Token     string
	AccountID string
	RequestID string
	Body      []byte
}

// fakeCloud is an httptest stand-in for the VeSync API. Fields may be changed
// between calls; zero status values mean 200.
type fakeCloud struct {
	t      *testing.T
	server *httptest.Server

	mu          sync.Mutex
	requests    []recordedRequest
	loginStatus int
	loginBody   string
	devicesBody string
	detailBody  string
	energyBody  string
	configBody  string
	putStatus   int
}

func newFakeCloud(t *testing.T) *fakeCloud {
	t.Helper()

	f := &fakeCloud{
		t:           t,
		loginBody:   `{"tk":"T1","accountID":"A1","nickName":"Ann","avatarIcon":"https://img/a.png","userType":1,"acceptLanguage":"en","termsStatus":true}`,
		devicesBody: twoDevicesJSON,
		detailBody:  detailOnJSON,
		energyBody:  `{"energyConsumptionOfToday":0.5,"costPerKWH":0.12,"maxEnergy":1.5,"totalEnergy":4.25,"currency":"USD","data":[0.5,1.5,0.25,0,1,0.5,0.5]}`,
		configBody: `{"deviceName":"Living Room Lamp","deviceImg":"https://img/lamp.png","allowNotify":"on","currentFirmVersion":1.99,
			"latestFirmVersion":2.1,"ownerShip":true,"energySavingStatus":"off","powerProtectionStatus":"on","maxCost":20,
			"costPerKWH":12,"threshHold":5,"maxPower":1800,"saleschannel":"amazon","isUpgrading":false}`,
	}
	f.server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.server.Close)

	return f
}

func (f *fakeCloud) client(opts ...vesync.Option) *vesync.Client {
	return vesync.NewClientWithURL(f.server.URL, opts...)
}

func (f *fakeCloud) session() *vesync.Session {
	return &vesync.Session{Token: testToken, AccountID: testAccountID}
}

func (f *fakeCloud) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, recordedRequest{
		Method:    r.Method,
		Path:      r.URL.Path,
		Token:     r.Header.Get("tk"),
		AccountID: r.Header.Get("accountid"),
		RequestID: r.Header.Get("X-Request-ID"),
		Body:      body,
	})

	if r.Method == http.MethodPost && r.URL.Path == "/vold/user/login" {
		if f.loginStatus != 0 {
			http.Error(w, `{"msg":"bad credentials"}`, f.loginStatus)
			return
		}
		io.WriteString(w, f.loginBody)
		return
	}

	if r.Header.Get("tk") != testToken || r.Header.Get("accountid") != testAccountID {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	path := r.URL.Path
	switch {
	case r.Method == http.MethodGet && path == "/vold/user/devices":
		io.WriteString(w, f.devicesBody)
	case r.Method == http.MethodGet && strings.HasSuffix(path, "/detail"):
		io.WriteString(w, f.detailBody)
	case r.Method == http.MethodGet && strings.HasSuffix(path, "/energy/week"):
		io.WriteString(w, f.energyBody)
	case r.Method == http.MethodGet && strings.HasSuffix(path, "/configurations"):
		io.WriteString(w, f.configBody)
	case r.Method == http.MethodPut && strings.Contains(path, "/status/"):
		if f.putStatus != 0 {
			http.Error(w, "command rejected", f.putStatus)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"code": 0})
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

// count returns how many requests matched method and path.
func (f *fakeCloud) count(method, path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, r := range f.requests {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

func (f *fakeCloud) countMethod(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, r := range f.requests {
		if r.Method == method {
			n++
		}
	}
	return n
}

func (f *fakeCloud) lastRequest() recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		f.t.Fatal("no requests recorded")
	}
	return f.requests[len(f.requests)-1]
}
