package leads

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acegrowth/ace-chatbot/pkg/logging"
)

type failingStore struct{}

func (failingStore) Append(context.Context, Lead) error   { return errors.New("boom") }
func (failingStore) List(context.Context) ([]Lead, error) { return nil, errors.New("boom") }
func (failingStore) Clear(context.Context) error          { return errors.New("boom") }

func TestListLeads(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Append(context.Background(), sampleLead(t, "Jane Doe")))
	h := NewHandler(store, logging.New("error"))

	w := httptest.NewRecorder()
	h.ListLeads(w, httptest.NewRequest(http.MethodGet, "/admin/leads", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var resp ListLeadsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "Jane Doe", resp.Leads[0].Name)
}

func TestListLeads_EmptyIsArray(t *testing.T) {
	h := NewHandler(NewMemoryStore(), logging.New("error"))
	w := httptest.NewRecorder()
	h.ListLeads(w, httptest.NewRequest(http.MethodGet, "/admin/leads", nil))

	assert.JSONEq(t, `{"leads":[],"count":0}`, w.Body.String())
}

func TestClearLeads(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Append(context.Background(), sampleLead(t, "Jane Doe")))
	h := NewHandler(store, logging.New("error"))

	w := httptest.NewRecorder()
	h.ClearLeads(w, httptest.NewRequest(http.MethodDelete, "/admin/leads", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	all, _ := store.List(context.Background())
	assert.Empty(t, all)
}

func TestHandler_StoreErrors(t *testing.T) {
	h := NewHandler(failingStore{}, logging.New("error"))

	w := httptest.NewRecorder()
	h.ListLeads(w, httptest.NewRequest(http.MethodGet, "/admin/leads", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w = httptest.NewRecorder()
	h.ClearLeads(w, httptest.NewRequest(http.MethodDelete, "/admin/leads", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
