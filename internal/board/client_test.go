package board

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type capturedRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// newTestServer answers every GraphQL call with status and body, recording
// the last request.
func newTestServer(t *testing.T, status int, body string, last *capturedRequest) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "tok" {
			t.Errorf("expected token header, got %q", r.Header.Get("Authorization"))
		}
		if r.Header.Get("API-Version") != "2024-07" {
			t.Errorf("expected API-Version header, got %q", r.Header.Get("API-Version"))
		}
		if last != nil {
			if err := json.NewDecoder(r.Body).Decode(last); err != nil {
				t.Errorf("decode request: %v", err)
			}
		}
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "2024-07", "tok", srv.Client())
}

func TestCreateItem(t *testing.T) {
	var req capturedRequest
	c := newTestServer(t, http.StatusOK, `{"data":{"create_item":{"id":"555"}}}`, &req)

	values := Values{}
	values.Set("numeric_x", 12.5)
	values.Set("board_relation_y", "77")
	id, err := c.CreateItem(context.Background(), 10, "5 - 1", values)
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	if id != "555" {
		t.Errorf("expected id 555, got %q", id)
	}
	if !strings.Contains(req.Query, "create_item") {
		t.Errorf("unexpected query %q", req.Query)
	}
	if req.Variables["boardId"] != "10" || req.Variables["itemName"] != "5 - 1" {
		t.Errorf("unexpected variables %v", req.Variables)
	}
	cv, _ := req.Variables["columnValues"].(string)
	if !strings.Contains(cv, `"numeric_x":"12.5"`) || !strings.Contains(cv, `"board_relation_y":{"item_ids":[77]}`) {
		t.Errorf("unexpected column values %s", cv)
	}
}

func TestDo_GraphQLError(t *testing.T) {
	c := newTestServer(t, http.StatusOK, `{"errors":[{"message":"boom","extensions":{"code":"INTERNAL_SERVER_ERROR"}}]}`, nil)
	err := c.DeleteItem(context.Background(), "1")
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "boom" {
		t.Fatalf("expected APIError boom, got %v", err)
	}
	if !IsServerError(err) {
		t.Error("expected internal error to be a server error")
	}
}

func TestDo_StatusErrors(t *testing.T) {
	tests := []struct {
		status int
		body   string
		server bool
	}{
		{http.StatusInternalServerError, "oops", true},
		{http.StatusTooManyRequests, `{"error_code":"ComplexityException","error_message":"slow down"}`, true},
		{http.StatusUnauthorized, `{"errors":[{"message":"Not Authenticated"}]}`, false},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c := newTestServer(t, tt.status, tt.body, nil)
			err := c.UpdateItem(context.Background(), 1, "2", Values{})
			var apiErr *APIError
			if !errors.As(err, &apiErr) || apiErr.StatusCode != tt.status {
				t.Fatalf("expected APIError with status %d, got %v", tt.status, err)
			}
			if IsServerError(err) != tt.server {
				t.Errorf("IsServerError: expected %v", tt.server)
			}
		})
	}
}

func TestIsServerError_PlainError(t *testing.T) {
	if IsServerError(errors.New("dial tcp: refused")) {
		t.Error("plain errors are not server errors")
	}
}

func TestLinked(t *testing.T) {
	body := `{"data":{"items":[{"column_values":[{"linked_items":[
		{"id":"1","name":"5 - 1","column_values":[{"id":"text_a","text":"111"}]},
		{"id":"2","name":"5 - 2","column_values":[]}
	]}]}]}}`
	var req capturedRequest
	c := newTestServer(t, http.StatusOK, body, &req)

	items, err := c.Linked(context.Background(), "99", "board_relation_u")
	if err != nil {
		t.Fatalf("Linked: %v", err)
	}
	if len(items) != 2 || items[0].ID != "1" || items[1].Name != "5 - 2" {
		t.Fatalf("unexpected items %+v", items)
	}
	if items[0].Values["text_a"] != "111" {
		t.Errorf("expected column text, got %v", items[0].Values)
	}
	if !strings.Contains(req.Query, "BoardRelationValue") {
		t.Errorf("unexpected query %q", req.Query)
	}
}

func TestFileAsset(t *testing.T) {
	body := `{"data":{"items":[{
		"column_values":[{"value":"{\"files\":[{\"assetId\":42,\"name\":\"tabu.pdf\"}]}"}],
		"assets":[{"id":"41","name":"other.pdf","public_url":"https://x/41"},{"id":"42","name":"tabu.pdf","public_url":"https://x/42"}]
	}]}}`
	c := newTestServer(t, http.StatusOK, body, nil)

	a, err := c.FileAsset(context.Background(), "99", "file_col")
	if err != nil {
		t.Fatalf("FileAsset: %v", err)
	}
	if a.ID != "42" || a.Name != "tabu.pdf" || a.PublicURL != "https://x/42" {
		t.Errorf("unexpected asset %+v", a)
	}
}

func TestFileAsset_EmptyColumn(t *testing.T) {
	c := newTestServer(t, http.StatusOK, `{"data":{"items":[{"column_values":[{"value":null}],"assets":[]}]}}`, nil)
	if _, err := c.FileAsset(context.Background(), "99", "file_col"); err == nil {
		t.Fatal("expected error for empty file column")
	}
}

func TestNotify(t *testing.T) {
	var req capturedRequest
	c := newTestServer(t, http.StatusOK, `{"data":{"create_notification":{"text":"hi"}}}`, &req)
	if err := c.Notify(context.Background(), "7", "99", "hi"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if req.Variables["userId"] != "7" || req.Variables["targetId"] != "99" {
		t.Errorf("unexpected variables %v", req.Variables)
	}
}

func TestColumnValue(t *testing.T) {
	tests := []struct {
		col  string
		in   any
		want string
	}{
		{"color_abc", "קיימת", `{"label":"קיימת"}`},
		{"dropdown_abc", []string{"מכר", "ירושה"}, `{"labels":["מכר","ירושה"]}`},
		{"dropdown_abc", []string(nil), `{"labels":[]}`},
		{"dropdown_abc", "ת.ז", `{"labels":["ת.ז"]}`},
		{"board_relation_abc", []string{"1", "x", "3"}, `{"item_ids":[1,3]}`},
		{"long_text_abc", "line", `{"text":"line"}`},
		{"date_abc", "2024-01-02", `{"date":"2024-01-02"}`},
		{"numeric_abc", 37.5, `"37.5"`},
		{"numeric_abc", 2, `"2"`},
		{"text_abc", "hello", `"hello"`},
		{"name", "5", `"5"`},
	}
	for _, tt := range tests {
		t.Run(tt.col, func(t *testing.T) {
			b, err := json.Marshal(ColumnValue(tt.col, tt.in))
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if string(b) != tt.want {
				t.Errorf("expected %s, got %s", tt.want, b)
			}
		})
	}
}

func TestValues_SetSkipsUnmapped(t *testing.T) {
	v := Values{}
	v.Set("", "x")
	if len(v) != 0 {
		t.Errorf("expected no values, got %v", v)
	}
}

func TestClient_RecordsStats(t *testing.T) {
	c := newTestServer(t, http.StatusInternalServerError, "oops", nil)
	c.Stats = NewCallStats(time.Hour)

	_ = c.DeleteItem(context.Background(), "1")

	snap := c.Stats.Snapshot()["delete_item"]
	if snap.Count != 1 || snap.Errors != 1 {
		t.Fatalf("expected one failed delete recorded, got %+v", snap)
	}
}
