// Package integration exercises a running `loxide serve` instance over HTTP
// and gRPC. Point LOXIDE_URL and LOXIDE_GRPC_ENDPOINT at the server; tests
// are skipped when it is not reachable.
package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"testing"
	"time"
)

// testServer holds the base URL of a running server instance for tests.
var testServer string

var (
	reachableOnce sync.Once
	reachable     bool
)

func init() {
	testServer = os.Getenv("LOXIDE_URL")
	if testServer == "" {
		testServer = "http://localhost:8787"
	}
	// Ensure the URL has a scheme.
	if !strings.HasPrefix(testServer, "http://") && !strings.HasPrefix(testServer, "https://") {
		testServer = "http://" + testServer
	}
}

// requireServer skips the test when no server answers the health check.
func requireServer(t *testing.T) {
	t.Helper()
	reachableOnce.Do(func() {
		client := http.Client{Timeout: 2 * time.Second}
		resp, err := client.Get(strings.TrimRight(testServer, "/") + "/healthz")
		if err != nil {
			return
		}
		resp.Body.Close()
		reachable = resp.StatusCode == http.StatusOK
	})
	if !reachable {
		t.Skipf("no loxide server at %s", testServer)
	}
}

// apiURL builds a full URL for the given API path.
func apiURL(path string) string {
	return strings.TrimRight(testServer, "/") + "/v1/" + path
}

// postJSON sends body to path and decodes the JSON response.
func postJSON(t *testing.T, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	data, _ := json.Marshal(body)
	resp, err := http.Post(apiURL(path), "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	defer resp.Body.Close()
	return resp.StatusCode, decode(t, resp.Body)
}

func getJSON(t *testing.T, path string) (int, map[string]interface{}) {
	t.Helper()
	resp, err := http.Get(apiURL(path))
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	return resp.StatusCode, decode(t, resp.Body)
}

func decode(t *testing.T, r io.Reader) map[string]interface{} {
	t.Helper()
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("decoding %q: %v", data, err)
	}
	return out
}

// evaluationResult is the decoded form of a stored evaluation.
type evaluationResult struct {
	ID     string
	State  string // SUCCEEDED, PARTIAL, FAILED
	Values []interface{}
	Errors []map[string]interface{}
	Raw    map[string]interface{}
}

// evaluate submits source and returns the stored evaluation.
func evaluate(t *testing.T, source string) evaluationResult {
	t.Helper()
	code, body := postJSON(t, "evaluations", map[string]string{"source": source})
	if code != http.StatusCreated {
		t.Fatalf("evaluate %q: status %d: %v", source, code, body)
	}

	er := evaluationResult{Raw: body}
	er.ID, _ = body["id"].(string)
	er.State, _ = body["state"].(string)
	units, _ := body["units"].([]interface{})
	for _, u := range units {
		m, _ := u.(map[string]interface{})
		er.Values = append(er.Values, m["value"])
	}
	errs, _ := body["errors"].([]interface{})
	for _, e := range errs {
		m, _ := e.(map[string]interface{})
		er.Errors = append(er.Errors, m)
	}
	return er
}

func assertState(t *testing.T, er evaluationResult, want string) {
	t.Helper()
	if er.State != want {
		t.Fatalf("expected state %s, got %s (errors: %v)", want, er.State, er.Errors)
	}
}

func assertValue(t *testing.T, er evaluationResult, unit int, want interface{}) {
	t.Helper()
	if unit >= len(er.Values) {
		t.Fatalf("no unit %d in %v", unit, er.Values)
	}
	if er.Values[unit] != want {
		t.Errorf("unit %d: expected %v (%T), got %v (%T)", unit, want, want, er.Values[unit], er.Values[unit])
	}
}
