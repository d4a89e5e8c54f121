package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientSendsSessionAndDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/vendors", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"vendors": []map[string]any{{"id": "v1", "company_name": "Acme", "status_label": "Invited"}},
		})
	}))
	defer srv.Close()

	c := newClient(srv.URL + "/api")
	c.token = "tok"
	vendors, err := c.listVendors()
	require.NoError(t, err)
	require.Len(t, vendors, 1)
	assert.Equal(t, "Acme", vendors[0].CompanyName)
}

func TestClientSurfacesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":"Only vendors with complete submissions can be approved"}`))
	}))
	defer srv.Close()

	_, err := newClient(srv.URL).approve("v1")
	var apiErr *apiError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "Only vendors with complete submissions can be approved", apiErr.Message)
}

func TestClientUploadsMultipart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "w9.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o600))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/onboard/tok/documents/w9", r.URL.Path)
		file, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		data, _ := io.ReadAll(file)
		assert.Equal(t, "%PDF-1.4", string(data))
		json.NewEncoder(w).Encode(map[string]any{
			"document": map[string]any{"id": "d1", "label": "W-9 Tax Form", "file_name": header.Filename},
		})
	}))
	defer srv.Close()

	doc, err := newClient(srv.URL).uploadDocument("tok", "w9", path)
	require.NoError(t, err)
	assert.Equal(t, "w9.pdf", doc.FileName)
}
