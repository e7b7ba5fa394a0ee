package jobsapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"relocation/pkg/location"
)

func newTestServer(t *testing.T, status int, body string, seen *map[string]any) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc(Path, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type: %q", ct)
		}
		if seen != nil {
			raw, _ := io.ReadAll(r.Body)
			if err := json.Unmarshal(raw, seen); err != nil {
				t.Errorf("request body is not JSON: %s", raw)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestClient_Fetch_TableDriven(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind string
		wantLen  int
		wantCode string
	}{
		{
			name:     "success",
			status:   http.StatusOK,
			body:     `{"region_code":"sk","sites":[{"name":"Profesia.sk","url":"https://www.profesia.sk","description":"d"}]}`,
			wantLen:  1,
			wantCode: "sk",
		},
		{
			name:     "country_code alias",
			status:   http.StatusOK,
			body:     `{"country_code":"cz","country_name":"Czechia","city":"Brno","sites":[{"name":"Jobs.cz","url":"https://www.jobs.cz"}]}`,
			wantLen:  1,
			wantCode: "cz",
		},
		{name: "server error", status: http.StatusInternalServerError, body: `{"detail":"boom"}`, wantKind: "server"},
		{name: "bad request", status: http.StatusBadRequest, body: `{}`, wantKind: "server"},
		{name: "not json", status: http.StatusOK, body: `<html>`, wantKind: "malformed"},
		{name: "sites missing", status: http.StatusOK, body: `{"region_code":"sk"}`, wantKind: "malformed"},
		{name: "sites null", status: http.StatusOK, body: `{"sites":null}`, wantKind: "malformed"},
		{name: "sites not a list", status: http.StatusOK, body: `{"sites":{"name":"x"}}`, wantKind: "malformed"},
		{name: "sites empty", status: http.StatusOK, body: `{"region_code":"sk","sites":[]}`, wantKind: "empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(t, tt.status, tt.body, nil)
			client := NewClient(server.URL)
			defer client.Close()

			got, err := client.Fetch(context.Background(), location.Region("sk"))
			if kind := Kind(err); kind != tt.wantKind {
				t.Fatalf("Kind(err) = %q; want %q (err=%v)", kind, tt.wantKind, err)
			}
			if tt.wantKind != "" {
				return
			}
			if len(got.Sites) != tt.wantLen {
				t.Errorf("len(Sites) = %d; want %d", len(got.Sites), tt.wantLen)
			}
			if got.RegionCode != tt.wantCode {
				t.Errorf("RegionCode = %q; want %q", got.RegionCode, tt.wantCode)
			}
		})
	}
}

func TestClient_Fetch_StatusErrorDetails(t *testing.T) {
	server := newTestServer(t, http.StatusBadGateway, ``, nil)
	client := NewClient(server.URL)
	defer client.Close()

	_, err := client.Fetch(context.Background(), location.Region("sk"))
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StatusError, got %v", err)
	}
	if se.StatusCode != http.StatusBadGateway {
		t.Errorf("StatusCode = %d", se.StatusCode)
	}
	if !errors.Is(err, ErrServer) {
		t.Errorf("StatusError should match ErrServer")
	}
}

func TestClient_Fetch_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewClient(url)
	defer client.Close()

	_, err := client.Fetch(context.Background(), location.Region("sk"))
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
}

func TestClient_Fetch_RequestBody(t *testing.T) {
	const ok = `{"sites":[{"name":"a","url":"https://a.example"}]}`
	tests := []struct {
		name   string
		sig    location.Signal
		lang   string
		want   map[string]any
		absent []string
	}{
		{
			name:   "region code",
			sig:    location.Region("sk"),
			want:   map[string]any{"region_code": "sk"},
			absent: []string{"latitude", "longitude", "language"},
		},
		{
			name:   "padded region code is trimmed",
			sig:    location.Region(" SK "),
			want:   map[string]any{"region_code": "SK"},
			absent: []string{"latitude", "longitude"},
		},
		{
			name:   "coordinates",
			sig:    location.Point(48.1486, 17.1077),
			want:   map[string]any{"latitude": 48.1486, "longitude": 17.1077},
			absent: []string{"region_code"},
		},
		{
			name: "equator coordinates are still sent",
			sig:  location.Point(0, 0),
			want: map[string]any{"latitude": 0.0, "longitude": 0.0},
		},
		{
			name: "language",
			sig:  location.Region("de"),
			lang: "sk",
			want: map[string]any{"region_code": "de", "language": "sk"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen := map[string]any{}
			server := newTestServer(t, http.StatusOK, ok, &seen)
			client := NewClient(server.URL, WithLanguage(tt.lang))
			defer client.Close()

			if _, err := client.Fetch(context.Background(), tt.sig); err != nil {
				t.Fatalf("Fetch: %v", err)
			}
			for k, v := range tt.want {
				if seen[k] != v {
					t.Errorf("body[%q] = %v; want %v", k, seen[k], v)
				}
			}
			for _, k := range tt.absent {
				if _, ok := seen[k]; ok {
					t.Errorf("body should not contain %q: %v", k, seen)
				}
			}
		})
	}
}

func TestKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{ErrTransport, "transport"},
		{&StatusError{StatusCode: 500, Status: "500"}, "server"},
		{ErrMalformed, "malformed"},
		{ErrEmpty, "empty"},
		{errors.New("other"), "unknown"},
	}
	for _, tt := range tests {
		if got := Kind(tt.err); got != tt.want {
			t.Errorf("Kind(%v) = %q; want %q", tt.err, got, tt.want)
		}
	}
}
