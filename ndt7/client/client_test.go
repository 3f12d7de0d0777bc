package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/m-lab/ndt7-client/ndt7/errorx"
	"github.com/m-lab/ndt7-client/ndt7/spec"
)

func TestUserAgent(t *testing.T) {
	c := NewClient("ndt7-client-test", "3.2.1")
	ua := c.UserAgent()
	if !strings.HasPrefix(ua, "ndt7-client-test/3.2.1 ") {
		t.Fatalf("unexpected user agent: %s", ua)
	}
	if !strings.Contains(ua, libraryName+"/"+libraryVersion) {
		t.Fatalf("user agent does not identify the library: %s", ua)
	}
}

func TestResolveServiceURL(t *testing.T) {
	c := NewClient("ndt7-client-test", "0.1.0")
	tests := []struct {
		name         string
		serviceURL   string
		wantDownload bool
		wantUpload   bool
		wantErr      bool
	}{
		{
			name:         "download",
			serviceURL:   "wss://mlab1-lga06:4443/ndt/v7/download?access_token=abc",
			wantDownload: true,
		},
		{
			name:       "upload",
			serviceURL: "wss://mlab1-lga06:4443/ndt/v7/upload?access_token=def",
			wantUpload: true,
		},
		{
			name:       "unrecognized path",
			serviceURL: "wss://mlab1-lga06:4443/ndt/v8/download",
			wantErr:    true,
		},
		{
			name:       "unparseable",
			serviceURL: "://not-a-url",
			wantErr:    true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, err := c.ResolveServiceURL(tt.serviceURL)
			if tt.wantErr {
				var serr *errorx.ServiceUnsupportedError
				if !errors.As(err, &serr) {
					t.Fatalf("expected ServiceUnsupportedError, got: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if (target.DownloadURL != "") != tt.wantDownload {
				t.Errorf("download URL: %q", target.DownloadURL)
			}
			if (target.UploadURL != "") != tt.wantUpload {
				t.Errorf("upload URL: %q", target.UploadURL)
			}
		})
	}
}

func TestResolveHostname(t *testing.T) {
	c := NewClient("ndt7-client-test", "0.1.0")
	target := c.ResolveHostname("localhost:4443")
	if target.DownloadURL != "wss://localhost:4443"+spec.DownloadURLPath {
		t.Errorf("unexpected download URL: %s", target.DownloadURL)
	}
	if target.UploadURL != "wss://localhost:4443"+spec.UploadURLPath {
		t.Errorf("unexpected upload URL: %s", target.UploadURL)
	}
	c.InsecureNoTLS = true
	target = c.ResolveHostname("localhost:8080")
	if !strings.HasPrefix(target.DownloadURL, "ws://") {
		t.Errorf("expected cleartext scheme: %s", target.DownloadURL)
	}
}

func TestDiscoverTarget(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"results": [
				{
					"machine": "mlab1-lga06.measurement-lab.org",
					"urls": {
						"wss:///ndt/v7/download": "wss://mlab1-lga06:4443/ndt/v7/download?access_token=abc",
						"wss:///ndt/v7/upload": "wss://mlab1-lga06:4443/ndt/v7/upload?access_token=def"
					}
				},
				{
					"machine": "mlab2-lga06.measurement-lab.org",
					"urls": {}
				}
			]
		}`))
	}))
	defer srv.Close()
	c := NewClient("ndt7-client-test", "0.1.0")
	c.Locate.BaseURL = srv.URL
	target, err := c.DiscoverTarget(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if target.Machine != "mlab1-lga06.measurement-lab.org" {
		t.Errorf("expected the closest machine, got: %s", target.Machine)
	}
	if !strings.Contains(target.DownloadURL, "access_token=abc") {
		t.Errorf("unexpected download URL: %s", target.DownloadURL)
	}
	if !strings.Contains(target.UploadURL, "access_token=def") {
		t.Errorf("unexpected upload URL: %s", target.UploadURL)
	}
}

func TestConnectPreservesAccessToken(t *testing.T) {
	upgraded := make(chan url.Values, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upgraded <- r.URL.Query()
		w.WriteHeader(http.StatusBadRequest) // refuse the upgrade, we only need the query
	}))
	defer srv.Close()
	c := NewClient("ndt7-client-test", "0.1.0")
	serviceURL := strings.Replace(srv.URL, "http://", "ws://", 1) +
		spec.DownloadURLPath + "?access_token=secret"
	_, err := c.connect(context.Background(), serviceURL)
	if err == nil {
		t.Fatal("expected a connect error")
	}
	query := <-upgraded
	if query.Get("access_token") != "secret" {
		t.Error("access token not preserved")
	}
	for _, key := range []string{"client_name", "client_version", "client_os", "client_arch"} {
		if query.Get(key) == "" {
			t.Errorf("missing query parameter: %s", key)
		}
	}
}

func TestConnectRefused(t *testing.T) {
	c := NewClient("ndt7-client-test", "0.1.0")
	// Port 1 on localhost is almost certainly closed.
	_, err := c.StartDownload(context.Background(), "ws://127.0.0.1:1/ndt/v7/download")
	if err == nil {
		t.Fatal("expected a connect error")
	}
	var terr *errorx.TransportError
	if !errors.As(err, &terr) && !errors.Is(err, errorx.ErrConnectTimeout) {
		t.Fatalf("unexpected error type: %v", err)
	}
}
