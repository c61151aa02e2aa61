package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ginjaninja78/trader-config-editor/internal/bulk"
	"github.com/ginjaninja78/trader-config-editor/internal/config"
	"github.com/ginjaninja78/trader-config-editor/internal/document"
	"github.com/ginjaninja78/trader-config-editor/internal/validation"
	"github.com/ginjaninja78/trader-config-editor/internal/xlsxgrid"
)

const sample = `{
    "Version": "2.5",
    "EnableAutoCalculation": 0,
    "EnableAutoDestockAtRestart": 0,
    "EnableDefaultTraderStock": 0,
    "TraderCategories": [
        {"CategoryName": "Weapons", "Products": ["Rifle,A,B,10,100,50", "broken"]},
        {"CategoryName": "Food", "Products": ["Bread,A,B,5,2.50,1.00"]}
    ]
}`

func newTestServer(t *testing.T, maxUpload int64) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	return New(config.ServerConfig{Addr: ":0", MaxUploadBytes: maxUpload}, nil)
}

func multipartBody(t *testing.T, name string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &body, w.FormDataContentType()
}

func do(s *Server, method, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	return w
}

func doJSON(s *Server, method, path, body string) *httptest.ResponseRecorder {
	return do(s, method, path, bytes.NewBufferString(body), "application/json")
}

func upload(t *testing.T, s *Server, content string) string {
	t.Helper()
	body, ct := multipartBody(t, "TraderPlusPriceConfig.json", []byte(content))
	w := do(s, http.MethodPost, "/api/documents", body, ct)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp documentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.ID)
	return resp.ID
}

func TestUploadAndDescribe(t *testing.T) {
	s := newTestServer(t, 1<<20)
	id := upload(t, s, sample)

	w := do(s, http.MethodGet, "/api/documents/"+id, nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp documentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "TraderPlusPriceConfig.json", resp.FileName)
	assert.Equal(t, "2.5", resp.Overview.Version)
	assert.Equal(t, []categorySummary{
		{Index: 0, Name: "Weapons", Products: 2, Records: 1},
		{Index: 1, Name: "Food", Products: 1, Records: 1},
	}, resp.Categories)
}

func TestUploadRejected(t *testing.T) {
	s := newTestServer(t, 1<<20)

	body, ct := multipartBody(t, "x.json", []byte(`{"TraderCategories": 1}`))
	w := do(s, http.MethodPost, "/api/documents", body, ct)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "error")

	w = doJSON(s, http.MethodPost, "/api/documents", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Equal(t, 0, s.handler.sessions.count())
}

func TestUploadTooLarge(t *testing.T) {
	s := newTestServer(t, 64)

	body, ct := multipartBody(t, "x.json", []byte(sample))
	w := do(s, http.MethodPost, "/api/documents", body, ct)
	assert.Contains(t, []int{http.StatusBadRequest, http.StatusRequestEntityTooLarge}, w.Code)
	assert.Equal(t, 0, s.handler.sessions.count())
}

func TestUnknownDocument(t *testing.T) {
	s := newTestServer(t, 1<<20)

	for _, path := range []string{"/api/documents/nope", "/api/documents/nope/issues", "/api/documents/nope/download"} {
		w := do(s, http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}
	w := do(s, http.MethodDelete, "/api/documents/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetCategory(t *testing.T) {
	s := newTestServer(t, 1<<20)
	id := upload(t, s, sample)

	w := do(s, http.MethodGet, "/api/documents/"+id+"/categories/0", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp categoryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Weapons", resp.Name)
	assert.Equal(t, []string{"Item Name", "Column 2", "Column 3", "Stock Level", "Buy Price", "Sell Price"}, resp.Columns)
	require.Len(t, resp.Rows, 1)
	assert.Equal(t, "Rifle", resp.Rows[0].Fields.Name)

	assert.Equal(t, http.StatusNotFound, do(s, http.MethodGet, "/api/documents/"+id+"/categories/5", nil, "").Code)
	assert.Equal(t, http.StatusBadRequest, do(s, http.MethodGet, "/api/documents/"+id+"/categories/x", nil, "").Code)
}

func TestUpdateProduct(t *testing.T) {
	s := newTestServer(t, 1<<20)
	id := upload(t, s, sample)

	w := doJSON(s, http.MethodPut, "/api/documents/"+id+"/categories/0/products/0", `{"stock": "-1", "buy_price": "120"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var row document.Row
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &row))
	assert.Equal(t, "Rifle,A,B,-1,120,50", row.Fields.Encode())

	w = doJSON(s, http.MethodPut, "/api/documents/"+id+"/categories/0/products/9", `{}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(s, http.MethodPut, "/api/documents/"+id+"/categories/0/products/0", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateMalformedProduct(t *testing.T) {
	s := newTestServer(t, 1<<20)
	id := upload(t, s, sample)
	path := "/api/documents/" + id + "/categories/0/products/1"

	w := doJSON(s, http.MethodPut, path, `{"stock": "5"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(s, http.MethodGet, "/api/documents/"+id+"/download", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"broken"`)
	assert.NotContains(t, w.Body.String(), `",,,5,,"`)

	w = doJSON(s, http.MethodPut, path,
		`{"name": "Knife", "col2": "A", "col3": "B", "stock": "1", "buy_price": "20", "sell_price": "10"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(s, http.MethodGet, "/api/documents/"+id+"/download", nil, "")
	assert.Contains(t, w.Body.String(), `"Knife,A,B,1,20,10"`)
	assert.NotContains(t, w.Body.String(), `"broken"`)
}

func TestUpdateProductWarnsOnSeparator(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.WarnLevel)
	s := New(config.ServerConfig{Addr: ":0", MaxUploadBytes: 1 << 20}, zap.New(core))
	id := upload(t, s, sample)

	w := doJSON(s, http.MethodPut, "/api/documents/"+id+"/categories/0/products/0", `{"name": "Rifle, long"}`)
	require.Equal(t, http.StatusOK, w.Code)

	entries := logs.FilterMessage("field value contains the record separator").All()
	require.Len(t, entries, 1)
	assert.Equal(t, []interface{}{"name"}, entries[0].ContextMap()["columns"])
}

func TestBulkOperations(t *testing.T) {
	s := newTestServer(t, 1<<20)
	id := upload(t, s, sample)

	w := doJSON(s, http.MethodPost, "/api/documents/"+id+"/global", `{"price_percent": 10}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var rep bulk.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rep))
	assert.Equal(t, 2, rep.Updated)
	assert.Len(t, rep.Skipped, 1)

	w = doJSON(s, http.MethodPost, "/api/documents/"+id+"/categories", `{"categories": ["Weapons"], "price_percent": 100, "apply_to_sell": false}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(s, http.MethodPost, "/api/documents/"+id+"/global", `{"price_percent": 501}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(s, http.MethodGet, "/api/documents/"+id+"/download", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="modified_config.json"`, w.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "application/json"))

	doc, err := document.Parse(w.Body.Bytes())
	require.NoError(t, err)
	weapons, _ := doc.Category(0)
	assert.Equal(t, []string{"Rifle,A,B,10,220,55", "broken"}, weapons.Products())
	food, _ := doc.Category(1)
	assert.Equal(t, []string{"Bread,A,B,5,2.75,1.1"}, food.Products())
}

func TestIssues(t *testing.T) {
	s := newTestServer(t, 1<<20)
	id := upload(t, s, sample)

	w := do(s, http.MethodGet, "/api/documents/"+id+"/issues", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var result validation.ValidationResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.IsValid)
	assert.Equal(t, 1, result.WarningCount)
}

func TestGridRoundTrip(t *testing.T) {
	s := newTestServer(t, 1<<20)
	id := upload(t, s, sample)

	w := do(s, http.MethodGet, "/api/documents/"+id+"/grid", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, f.SetCellStr("Food", "B2", "Baguette"))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	body, ct := multipartBody(t, "grid.xlsx", buf.Bytes())
	w = do(s, http.MethodPost, "/api/documents/"+id+"/grid", body, ct)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var rep xlsxgrid.ImportReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rep))
	assert.Equal(t, 1, rep.Changed)

	w = do(s, http.MethodGet, "/api/documents/"+id+"/categories/1", nil, "")
	assert.Contains(t, w.Body.String(), "Baguette")
}

func TestDeleteDocument(t *testing.T) {
	s := newTestServer(t, 1<<20)
	id := upload(t, s, sample)

	assert.Equal(t, http.StatusNoContent, do(s, http.MethodDelete, "/api/documents/"+id, nil, "").Code)
	assert.Equal(t, http.StatusNotFound, do(s, http.MethodGet, "/api/documents/"+id, nil, "").Code)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, 1<<20)
	upload(t, s, sample)

	w := do(s, http.MethodGet, "/healthz", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status": "ok", "documents": 1}`, w.Body.String())
}
