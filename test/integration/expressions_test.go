package integration

import (
	"net/http"
	"testing"
)

// TestExpr_Arithmetic verifies precedence and associativity of the
// arithmetic operators.
func TestExpr_Arithmetic(t *testing.T) {
	requireServer(t)
	er := evaluate(t, "1 + 2 * 3; (1 + 2) * 3; 10 - 4 - 3; 8 / 4 / 2; -(-5)")
	assertState(t, er, "SUCCEEDED")

	assertValue(t, er, 0, float64(7))
	assertValue(t, er, 1, float64(9))
	assertValue(t, er, 2, float64(3))
	assertValue(t, er, 3, float64(1))
	assertValue(t, er, 4, float64(5))
}

// TestExpr_Division verifies IEEE division results.
func TestExpr_Division(t *testing.T) {
	requireServer(t)
	er := evaluate(t, "1 / 0; -1 / 0; 0 / 0")
	assertState(t, er, "SUCCEEDED")

	// Non-finite numbers are carried as strings in JSON.
	assertValue(t, er, 0, "inf")
	assertValue(t, er, 1, "-inf")
	assertValue(t, er, 2, "NaN")
}

// TestExpr_Comparison verifies comparison and equality operators.
func TestExpr_Comparison(t *testing.T) {
	requireServer(t)
	er := evaluate(t, `1 < 2; 2 <= 2; 3 > 4; 4 >= 5; 1 == 1; "a" != "b"; true == false`)
	assertState(t, er, "SUCCEEDED")

	for i, want := range []bool{true, true, false, false, true, true, false} {
		assertValue(t, er, i, want)
	}
}

// TestExpr_Strings verifies concatenation and string literals.
func TestExpr_Strings(t *testing.T) {
	requireServer(t)
	er := evaluate(t, "\"a\" + \"b\"; \"multi\nline\"; \"héllo\" + \" 🌍\"")
	assertState(t, er, "SUCCEEDED")

	assertValue(t, er, 0, "ab")
	// Line breaks inside a string literal are dropped.
	assertValue(t, er, 1, "multiline")
	assertValue(t, er, 2, "héllo 🌍")
}

// TestExpr_Logical verifies negation.
func TestExpr_Logical(t *testing.T) {
	requireServer(t)
	er := evaluate(t, "!true; !!true; !(1 < 2)")
	assertState(t, er, "SUCCEEDED")

	assertValue(t, er, 0, false)
	assertValue(t, er, 1, true)
	assertValue(t, er, 2, false)
}

// TestParse_Trees verifies the printed trees returned by the parse endpoint.
func TestParse_Trees(t *testing.T) {
	requireServer(t)
	code, body := postJSON(t, "parse", map[string]string{"source": "1 + 2 * 3; -(-5); (1)"})
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", code, body)
	}
	units, _ := body["units"].([]interface{})
	want := []string{"(+ 1 (* 2 3))", "(- ((- 5)))", "(1)"}
	if len(units) != len(want) {
		t.Fatalf("expected %d units, got %d", len(want), len(units))
	}
	for i, w := range want {
		got, _ := units[i].(map[string]interface{})["tree"].(string)
		if got != w {
			t.Errorf("unit %d: expected %s, got %s", i, w, got)
		}
	}
}

// TestScan_CommentOnly verifies that a comment-only source scans to END.
func TestScan_CommentOnly(t *testing.T) {
	requireServer(t)
	code, body := postJSON(t, "scan", map[string]string{"source": "// nothing here"})
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", code, body)
	}
	toks, _ := body["tokens"].([]interface{})
	if len(toks) != 1 {
		t.Fatalf("expected only END, got %v", toks)
	}
	if typ := toks[0].(map[string]interface{})["type"]; typ != "END" {
		t.Errorf("expected END, got %v", typ)
	}
}

// TestEvaluations_History verifies that evaluations can be fetched, listed
// and deleted.
func TestEvaluations_History(t *testing.T) {
	requireServer(t)
	er := evaluate(t, "40 + 2")

	code, body := getJSON(t, "evaluations/"+er.ID)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if body["source"] != "40 + 2" {
		t.Errorf("unexpected source %v", body["source"])
	}

	code, body = getJSON(t, "evaluations?limit=1")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if list, _ := body["evaluations"].([]interface{}); len(list) != 1 {
		t.Errorf("expected 1 evaluation, got %d", len(list))
	}

	req, _ := http.NewRequest(http.MethodDelete, apiURL("evaluations/"+er.ID), nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	code, _ = getJSON(t, "evaluations/"+er.ID)
	if code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", code)
	}
}
