package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"irsaliye/internal/intake"
	"irsaliye/internal/ocr"
	"irsaliye/internal/report"
	"irsaliye/pkg/models"
)

type fakeProjects struct {
	projects map[string]*models.Project
}

func newFakeProjects() *fakeProjects {
	return &fakeProjects{projects: make(map[string]*models.Project)}
}

func (f *fakeProjects) Create(ctx context.Context, p *models.Project) error {
	p.ID = "p-1"
	p.CreatedAt = time.Now()
	f.projects[p.ID] = p
	return nil
}

func (f *fakeProjects) Get(ctx context.Context, id string) (*models.Project, error) {
	p, ok := f.projects[id]
	if !ok {
		return nil, errors.New("no rows")
	}
	return p, nil
}

func (f *fakeProjects) List(ctx context.Context) ([]models.Project, error) {
	var out []models.Project
	for _, p := range f.projects {
		out = append(out, *p)
	}
	return out, nil
}

type fakeIntake struct {
	lastDraft intake.Draft
	lastImage []byte
}

func (f *fakeIntake) CreateTransaction(ctx context.Context, draft intake.Draft, image []byte) (*models.Transaction, error) {
	f.lastDraft = draft
	f.lastImage = image
	return &models.Transaction{ID: "tx-1", ProjectID: draft.ProjectID, MaterialType: draft.MaterialType}, nil
}

type fakeRecognizer struct {
	recognition *ocr.Recognition
	err         error
}

func (f *fakeRecognizer) Recognize(ctx context.Context, image []byte) (*ocr.Recognition, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.recognition, nil
}

type fakeReports struct{}

func (f *fakeReports) Daily(ctx context.Context, projectID string, day time.Time) (*report.DailyReport, error) {
	return &report.DailyReport{
		ProjectID: projectID,
		Date:      day.Format("2006-01-02"),
		Summary:   []models.MaterialSummary{{Material: "KUM", Unit: "TON", Total: 30.5, Count: 2}},
	}, nil
}

func (f *fakeReports) ExportDailyXLSX(ctx context.Context, projectID string, day time.Time) ([]byte, error) {
	return []byte("PK\x03\x04"), nil
}

func multipartBody(t *testing.T, fields map[string]string, fileField string, fileData []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if fileField != "" {
		fw, err := mw.CreateFormFile(fileField, "waybill.jpg")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write(fileData); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func TestCreateAndGetProject(t *testing.T) {
	projects := newFakeProjects()
	srv := New(projects, nil, nil, nil, nil, nil, nil, "")
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/projects", "application/json",
		strings.NewReader(`{"name":"Marina Kule","location":"İzmir"}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	var created models.Project
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatal(err)
	}
	if created.ID == "" || created.Name != "Marina Kule" || !created.IsActive {
		t.Errorf("created = %+v", created)
	}

	got, err := http.Get(ts.URL + "/api/projects/" + created.ID)
	if err != nil {
		t.Fatal(err)
	}
	defer got.Body.Close()
	if got.StatusCode != http.StatusOK {
		t.Errorf("get status = %d, want 200", got.StatusCode)
	}

	missing, err := http.Get(ts.URL + "/api/projects/nope")
	if err != nil {
		t.Fatal(err)
	}
	defer missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Errorf("missing project status = %d, want 404", missing.StatusCode)
	}
}

func TestCreateProjectRejectsMissingName(t *testing.T) {
	srv := New(newFakeProjects(), nil, nil, nil, nil, nil, nil, "")
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/projects", "application/json", strings.NewReader(`{"location":"X"}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestCreateTransactionPassesFormToIntake(t *testing.T) {
	in := &fakeIntake{}
	srv := New(nil, nil, nil, in, nil, nil, nil, "")
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	body, contentType := multipartBody(t, map[string]string{
		"type":         models.TransactionIncoming,
		"materialType": "KUM",
		"quantity":     "18.5",
		"unit":         "TON",
	}, "photo", []byte{0xff, 0xd8, 0xff})

	resp, err := http.Post(ts.URL+"/api/projects/p-9/transactions", contentType, body)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	if in.lastDraft.ProjectID != "p-9" {
		t.Errorf("ProjectID = %q, want p-9", in.lastDraft.ProjectID)
	}
	if in.lastDraft.Quantity != 18.5 {
		t.Errorf("Quantity = %v, want 18.5", in.lastDraft.Quantity)
	}
	if len(in.lastImage) != 3 {
		t.Errorf("image bytes = %d, want 3", len(in.lastImage))
	}
}

func TestCreateTransactionWithoutPhoto(t *testing.T) {
	in := &fakeIntake{}
	srv := New(nil, nil, nil, in, nil, nil, nil, "")
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	body, contentType := multipartBody(t, map[string]string{"materialType": "MICIR"}, "", nil)
	resp, err := http.Post(ts.URL+"/api/projects/p-1/transactions", contentType, body)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	if in.lastImage != nil {
		t.Errorf("image = %v, want nil", in.lastImage)
	}
}

func TestScanReturnsExtraction(t *testing.T) {
	rec := &fakeRecognizer{recognition: &ocr.Recognition{
		FullText: "PLAKA: 34 BNU 389\nTARTI: 47.100 Kg",
	}}
	srv := New(nil, nil, nil, nil, nil, rec, nil, "")
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	body, contentType := multipartBody(t, nil, "image", []byte{0xff, 0xd8})
	resp, err := http.Post(ts.URL+"/api/ocr/scan", contentType, body)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var out scanResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Data.PlateNumber != "34 BNU 389" {
		t.Errorf("PlateNumber = %q, want 34 BNU 389", out.Data.PlateNumber)
	}
	if out.Data.Quantity != "47100" || out.Data.Unit != "KG" {
		t.Errorf("Quantity/Unit = %q/%q, want 47100/KG", out.Data.Quantity, out.Data.Unit)
	}
}

func TestScanQuotaExceededReturns429(t *testing.T) {
	rec := &fakeRecognizer{err: ocr.ErrQuotaExceeded}
	srv := New(nil, nil, nil, nil, nil, rec, nil, "")
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	body, contentType := multipartBody(t, nil, "image", []byte{0xff})
	resp, err := http.Post(ts.URL+"/api/ocr/scan", contentType, body)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", resp.StatusCode)
	}
}

func TestDailyReportEndpoint(t *testing.T) {
	srv := New(nil, nil, nil, nil, &fakeReports{}, nil, nil, "")
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/projects/p-1/reports/daily?date=2026-02-06")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var rep report.DailyReport
	if err := json.NewDecoder(resp.Body).Decode(&rep); err != nil {
		t.Fatal(err)
	}
	if rep.Date != "2026-02-06" || len(rep.Summary) != 1 {
		t.Errorf("report = %+v", rep)
	}

	bad, err := http.Get(ts.URL + "/api/projects/p-1/reports/daily?date=06/02/2026")
	if err != nil {
		t.Fatal(err)
	}
	defer bad.Body.Close()
	if bad.StatusCode != http.StatusBadRequest {
		t.Errorf("bad date status = %d, want 400", bad.StatusCode)
	}
}

func TestDailyExportSetsAttachmentHeaders(t *testing.T) {
	srv := New(nil, nil, nil, nil, &fakeReports{}, nil, nil, "")
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/projects/p-1/reports/daily/export?date=2026-02-06")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "rapor-2026-02-06.xlsx") {
		t.Errorf("Content-Disposition = %q", cd)
	}
}

func TestUnconfiguredRoutesReturn503(t *testing.T) {
	srv := New(nil, nil, nil, nil, nil, nil, nil, "")
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/projects")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
}
