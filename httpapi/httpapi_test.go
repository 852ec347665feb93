package httpapi_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hawkingrei/greenhouse/fs"
	"github.com/hawkingrei/greenhouse/httpapi"
	"github.com/hawkingrei/greenhouse/priopool"
	"github.com/hawkingrei/greenhouse/storage"
	"github.com/hawkingrei/greenhouse/writeback"
)

func newTestHandler(t *testing.T) *httpapi.Handler {
	t.Helper()
	dir := t.TempDir()
	index, err := fs.NewIndex()
	if err != nil {
		t.Fatal(err)
	}
	poolCfg := priopool.RouterConfig{
		High:   priopool.Config{Workers: 2, MaxTasksPerWorker: 100},
		Normal: priopool.Config{Workers: 2, MaxTasksPerWorker: 100},
		Low:    priopool.Config{Workers: 2, MaxTasksPerWorker: 100},
	}
	readRouter := priopool.NewRouter(poolCfg)
	writeRouter := priopool.NewRouter(poolCfg)
	t.Cleanup(readRouter.Stop)
	t.Cleanup(writeRouter.Stop)

	queue := writeback.NewQueue(writeback.DefaultCapacity)
	pool := writeback.NewWorkerPool(queue, 2)
	facade := storage.NewFacade(dir, readRouter, writeRouter, queue, index, storage.NewObserver(1024))
	pool.OnDone(facade.OnWriteComplete)
	pool.Start()
	t.Cleanup(pool.Stop)

	return httpapi.NewHandler(facade)
}

func TestPutGetHeadDeleteOverHTTP(t *testing.T) {
	h := newTestHandler(t)

	put := httptest.NewRequest(http.MethodPut, "/ac/abc", strings.NewReader("hello"))
	putRec := httptest.NewRecorder()
	h.ServeHTTP(putRec, put)
	if putRec.Code != http.StatusOK {
		t.Fatalf("PUT: expected 200, got %d", putRec.Code)
	}

	// Writes are asynchronous; poll briefly for materialization.
	deadline := time.Now().Add(2 * time.Second)
	var getRec *httptest.ResponseRecorder
	for time.Now().Before(deadline) {
		get := httptest.NewRequest(http.MethodGet, "/ac/abc", nil)
		getRec = httptest.NewRecorder()
		h.ServeHTTP(getRec, get)
		if getRec.Code == http.StatusOK {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if getRec.Code != http.StatusOK {
		t.Fatalf("GET: expected 200, got %d", getRec.Code)
	}
	if getRec.Body.String() != "hello" {
		t.Fatalf("GET: expected hello, got %q", getRec.Body.String())
	}

	head := httptest.NewRequest(http.MethodHead, "/ac/abc", nil)
	headRec := httptest.NewRecorder()
	h.ServeHTTP(headRec, head)
	if headRec.Code != http.StatusOK {
		t.Fatalf("HEAD: expected 200, got %d", headRec.Code)
	}

	del := httptest.NewRequest(http.MethodDelete, "/ac/abc", nil)
	delRec := httptest.NewRecorder()
	h.ServeHTTP(delRec, del)
	if delRec.Code != http.StatusOK {
		t.Fatalf("DELETE: expected 200, got %d", delRec.Code)
	}

	headAfterDelete := httptest.NewRequest(http.MethodHead, "/ac/abc", nil)
	headAfterDeleteRec := httptest.NewRecorder()
	h.ServeHTTP(headAfterDeleteRec, headAfterDelete)
	if headAfterDeleteRec.Code != http.StatusNotFound {
		t.Fatalf("HEAD after DELETE: expected 404, got %d", headAfterDeleteRec.Code)
	}
}

func TestGetMissingKeyReturns404(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/ac/missing", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestEmptyKeyReturns400(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
