package pypi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/git-pkgs/paxd/client"
)

func indexServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pypi/requests/json" {
			w.WriteHeader(404)
			return
		}
		resp := projectResponse{
			Info: infoBlock{
				Name:        "requests",
				Summary:     "Python HTTP for Humans.",
				Version:     "2.31.0",
				Classifiers: []string{"License :: OSI Approved :: Apache Software License"},
			},
			Releases: map[string][]releaseFile{
				"2.31.0": {{Yanked: false}},
				"2.30.0": {{Yanked: true}},
				"2.29.0": {{Yanked: true}, {Yanked: false}},
				"0.0.1":  {},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestProject(t *testing.T) {
	server := indexServer(t)
	ix := New(server.URL, client.NewClient(client.WithMaxRetries(0)))

	p, err := ix.Project(context.Background(), "Requests")
	if err != nil {
		t.Fatalf("Project failed: %v", err)
	}
	if p.Name != "requests" || p.Latest != "2.31.0" {
		t.Errorf("project = %+v", p)
	}
	if p.License != "Apache Software License" {
		t.Errorf("License = %q", p.License)
	}
	want := []string{"2.29.0", "2.31.0"}
	if !reflect.DeepEqual(p.Releases, want) {
		t.Errorf("Releases = %v, want %v", p.Releases, want)
	}
}

func TestProject_NotFound(t *testing.T) {
	server := indexServer(t)
	ix := New(server.URL, client.NewClient(client.WithMaxRetries(0)))

	_, err := ix.Project(context.Background(), "nonexistent")
	if !errors.Is(err, client.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	var nf *client.NotFoundError
	if !errors.As(err, &nf) || nf.Package != "nonexistent" {
		t.Errorf("err = %#v, want NotFoundError for nonexistent", err)
	}
}

func TestCheck(t *testing.T) {
	server := indexServer(t)
	ix := New(server.URL, client.NewClient(client.WithMaxRetries(0)))

	tests := []struct {
		ref     string
		wantErr bool
	}{
		{"requests", false},
		{"requests>=2.0", false},
		{"requests==2.31.0", false},
		{"requests==2.30.0", true}, // only yanked files
		{"requests==9.9", true},
		{"requests[socks]; python_version >= '3.8'", false},
		{"nonexistent", true},
		{"git+https://github.com/psf/requests", false},
		{"./local/pkg", false},
		{"-r requirements.txt", false},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			err := ix.Check(context.Background(), tt.ref)
			if (err != nil) != tt.wantErr {
				t.Errorf("Check(%q) = %v, wantErr %v", tt.ref, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, client.ErrNotFound) {
				t.Errorf("Check(%q) = %v, want ErrNotFound", tt.ref, err)
			}
		})
	}
}

func TestParseRequirement(t *testing.T) {
	tests := []struct {
		input  string
		name   string
		spec   string
		marker string
	}{
		{"requests>=2.0", "requests", ">=2.0", ""},
		{"charset-normalizer<4,>=2", "charset-normalizer", "<4,>=2", ""},
		{"PySocks!=1.5.7,>=1.5.6; extra == 'socks'", "PySocks", "!=1.5.7,>=1.5.6", "extra == 'socks'"},
		{"typing-extensions; python_version < '3.10'", "typing-extensions", "*", "python_version < '3.10'"},
		{"numpy", "numpy", "*", ""},
		{"foo[bar,baz]>=1.0", "foo", ">=1.0", ""},
		{"rich (==13.0)", "rich", "==13.0", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			req := ParseRequirement(tt.input)
			if req.Name != tt.name {
				t.Errorf("Name = %q, want %q", req.Name, tt.name)
			}
			if req.Specifier != tt.spec {
				t.Errorf("Specifier = %q, want %q", req.Specifier, tt.spec)
			}
			if req.Marker != tt.marker {
				t.Errorf("Marker = %q, want %q", req.Marker, tt.marker)
			}
		})
	}
}

func TestRequirementPin(t *testing.T) {
	tests := []struct {
		input string
		pin   string
		ok    bool
	}{
		{"rich==13.0", "13.0", true},
		{"rich>=13.0", "", false},
		{"rich==13.*", "", false},
		{"rich==13.0,!=13.0.1", "", false},
	}
	for _, tt := range tests {
		pin, ok := ParseRequirement(tt.input).Pin()
		if pin != tt.pin || ok != tt.ok {
			t.Errorf("Pin(%q) = %q, %v, want %q, %v", tt.input, pin, ok, tt.pin, tt.ok)
		}
	}
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Requests", "requests"},
		{"typing_extensions", "typing-extensions"},
		{"Flask.SocketIO", "flask-socketio"},
		{"PyYAML", "pyyaml"},
	}

	for _, tt := range tests {
		if got := NormalizeName(tt.input); got != tt.expected {
			t.Errorf("NormalizeName(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
