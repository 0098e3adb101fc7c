package client

import "testing"

func TestRepoURLs(t *testing.T) {
	u := NewRepoURLs("https://repo.example.com/main/")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"probe", u.Probe(), "https://repo.example.com/main/paxd"},
		{"manifest", u.Manifest("a.b", "package.yaml"), "https://repo.example.com/main/packages/a.b/package.yaml"},
		{"nested file", u.File("a.b", "src/main.py"), "https://repo.example.com/main/packages/a.b/src/main.py"},
		{"escaped file", u.File("a.b", "docs/read me.txt"), "https://repo.example.com/main/packages/a.b/docs/read%20me.txt"},
		{"search index", u.SearchIndex(), "https://repo.example.com/main/searchindex.csv"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}
