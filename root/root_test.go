package root

import (
	"testing"
	"time"
)

func TestParsePath(t *testing.T) {
	for _, test := range []struct {
		name           string
		path           string
		wantScheme     string
		wantLocation   string
		wantObjectPath string
	}{
		{
			name:         "bare local path, no object path",
			path:         "run.root",
			wantScheme:   "",
			wantLocation: "run.root",
		},
		{
			name:           "bare local path with object path",
			path:           "run.root:dir/tree",
			wantScheme:     "",
			wantLocation:   "run.root",
			wantObjectPath: "dir/tree",
		},
		{
			name:         "file scheme",
			path:         "file:///data/run.root",
			wantScheme:   "file",
			wantLocation: "/data/run.root",
		},
		{
			name:         "https scheme, no object path",
			path:         "https://example.org/run.root",
			wantScheme:   "https",
			wantLocation: "example.org/run.root",
		},
		{
			name:           "root scheme with port and object path",
			path:           "root://eos.example.org:1094/data/run.root:Events",
			wantScheme:     "root",
			wantLocation:   "eos.example.org:1094/data/run.root",
			wantObjectPath: "Events",
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			got := parsePath(test.path)
			if got.scheme != test.wantScheme {
				t.Errorf("scheme = %q, want %q", got.scheme, test.wantScheme)
			}
			if got.location != test.wantLocation {
				t.Errorf("location = %q, want %q", got.location, test.wantLocation)
			}
			if got.objectPath != test.wantObjectPath {
				t.Errorf("objectPath = %q, want %q", got.objectPath, test.wantObjectPath)
			}
		})
	}
}

func TestSplitQueryAndOverrides(t *testing.T) {
	loc, query := splitQuery("example.org/run.root?timeout=5&workers=2")
	if loc != "example.org/run.root" {
		t.Fatalf("location = %q", loc)
	}
	o := Options{Timeout: 30 * time.Second, NumWorkers: 8}
	applyQueryOverrides(&o, query)
	if o.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", o.Timeout)
	}
	if o.NumWorkers != 2 {
		t.Errorf("NumWorkers = %d, want 2", o.NumWorkers)
	}
}

func TestOpenRootSchemeWithoutHandlerErrors(t *testing.T) {
	_, err := Open("root://eos.example.org/data/run.root")
	if err == nil {
		t.Fatalf("Open(root://...) with no XRootDHandler should fail")
	}
}

func TestOpenOptionsApply(t *testing.T) {
	var o Options
	for _, opt := range []OpenOption{
		WithTimeout(7 * time.Second),
		WithNumWorkers(3),
		WithMaxNumElements(99),
	} {
		opt(&o)
	}
	if o.Timeout != 7*time.Second || o.NumWorkers != 3 || o.MaxNumElements != 99 {
		t.Errorf("Options after opts = %+v", o)
	}
}
