package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/amcabaraban/pureflow-tagum-pos/internal/schema"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{BaseURL: srv.URL, APIKey: "test-key"})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return client, srv
}

func TestUpsertWireConventions(t *testing.T) {
	var gotPath, gotConflict, gotPrefer, gotAuth string
	var gotBody []json.RawMessage

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotConflict = r.URL.Query().Get("on_conflict")
		gotPrefer = r.Header.Get("Prefer")
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
	})

	record, _ := json.Marshal(schema.RemoteSale{SaleUID: "uid-1"})
	err := client.UpsertByKey(context.Background(), schema.KindSales, record, "sale_uid")
	if err != nil {
		t.Fatalf("UpsertByKey failed: %v", err)
	}

	if gotPath != "/rest/v1/sales" {
		t.Errorf("got path %q, want /rest/v1/sales", gotPath)
	}
	if gotConflict != "sale_uid" {
		t.Errorf("got on_conflict %q, want sale_uid", gotConflict)
	}
	if gotPrefer != "resolution=merge-duplicates" {
		t.Errorf("got Prefer %q, want resolution=merge-duplicates", gotPrefer)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("got Authorization %q", gotAuth)
	}
	if len(gotBody) != 1 {
		t.Errorf("body not wrapped in an array: %d rows", len(gotBody))
	}
}

func TestUpdateByKeyFilter(t *testing.T) {
	var gotMethod, gotFilter string

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotFilter = r.URL.Query().Get("id")
		w.WriteHeader(http.StatusNoContent)
	})

	err := client.UpdateByKey(context.Background(), schema.KindOrders, "id", "ord-1",
		json.RawMessage(`{"status":"delivered"}`))
	if err != nil {
		t.Fatalf("UpdateByKey failed: %v", err)
	}
	if gotMethod != http.MethodPatch {
		t.Errorf("got method %q, want PATCH", gotMethod)
	}
	if gotFilter != "eq.ord-1" {
		t.Errorf("got filter %q, want eq.ord-1", gotFilter)
	}
}

func TestSelectAllOrderAndLimit(t *testing.T) {
	var gotOrder, gotLimit string

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotOrder = r.URL.Query().Get("order")
		gotLimit = r.URL.Query().Get("limit")
		w.Write([]byte(`[{"id":1},{"id":2}]`))
	})

	rows, err := client.SelectAll(context.Background(), schema.KindSales, SelectOptions{
		OrderBy: "created_at", Descending: true, Limit: 100,
	})
	if err != nil {
		t.Fatalf("SelectAll failed: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("got %d rows, want 2", len(rows))
	}
	if gotOrder != "created_at.desc" {
		t.Errorf("got order %q, want created_at.desc", gotOrder)
	}
	if gotLimit != "100" {
		t.Errorf("got limit %q, want 100", gotLimit)
	}
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"bad request", http.StatusBadRequest, ErrRejected},
		{"unauthorized", http.StatusUnauthorized, ErrRejected},
		{"not found", http.StatusNotFound, ErrNotFound},
		{"server error", http.StatusInternalServerError, ErrUnreachable},
		{"bad gateway", http.StatusBadGateway, ErrUnreachable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})

			err := client.UpsertByKey(context.Background(), schema.KindSales,
				json.RawMessage(`{}`), "sale_uid")
			if !errors.Is(err, tt.want) {
				t.Errorf("status %d classified as %v, want %v", tt.status, err, tt.want)
			}
		})
	}
}

func TestTransportErrorIsUnreachable(t *testing.T) {
	client, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close() // connection refused from here on

	err := client.Ping(context.Background())
	if !errors.Is(err, ErrUnreachable) {
		t.Errorf("transport failure classified as %v, want ErrUnreachable", err)
	}
}

func TestInsertReturnsConfirmedRow(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Prefer") != "return=representation" {
			t.Errorf("missing representation Prefer header")
		}
		w.Write([]byte(`[{"id":42,"sale_uid":"uid-1"}]`))
	})

	row, err := client.Insert(context.Background(), schema.KindSales, json.RawMessage(`{"sale_uid":"uid-1"}`))
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	var confirmed schema.RemoteSale
	if err := json.Unmarshal(row, &confirmed); err != nil {
		t.Fatalf("confirmed row not decodable: %v", err)
	}
	if confirmed.ID != 42 {
		t.Errorf("got id %d, want 42", confirmed.ID)
	}
}
