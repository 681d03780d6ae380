// Package server exposes the backend over HTTP: project management, field
// photos, transaction intake and daily reports, plus a direct waybill scan
// endpoint for testing extraction against a single image.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"irsaliye/internal/intake"
	"irsaliye/internal/logger"
	"irsaliye/internal/ocr"
	"irsaliye/internal/report"
	"irsaliye/internal/storage"
	"irsaliye/internal/waybill"
	"irsaliye/pkg/models"
)

// maxUploadBytes bounds multipart request bodies. Waybill photos from phone
// cameras stay well under this.
const maxUploadBytes = 25 << 20

// ProjectStore is the project persistence the API needs.
type ProjectStore interface {
	Create(ctx context.Context, p *models.Project) error
	Get(ctx context.Context, id string) (*models.Project, error)
	List(ctx context.Context) ([]models.Project, error)
}

// PhotoStore is the field-photo persistence the API needs.
type PhotoStore interface {
	Create(ctx context.Context, p *models.FieldPhoto) error
	ListByProject(ctx context.Context, projectID string) ([]models.FieldPhoto, error)
}

// TransactionLister reads stored transactions.
type TransactionLister interface {
	ListByProject(ctx context.Context, projectID string) ([]models.Transaction, error)
}

// IntakeService runs the transaction intake workflow.
type IntakeService interface {
	CreateTransaction(ctx context.Context, draft intake.Draft, image []byte) (*models.Transaction, error)
}

// ReportService builds daily reports.
type ReportService interface {
	Daily(ctx context.Context, projectID string, day time.Time) (*report.DailyReport, error)
	ExportDailyXLSX(ctx context.Context, projectID string, day time.Time) ([]byte, error)
}

// Server wires the HTTP API. Collaborators that are nil have their routes
// answer 503, so a partial deployment still serves what it can.
type Server struct {
	projects     ProjectStore
	photos       PhotoStore
	transactions TransactionLister
	intake       IntakeService
	reports      ReportService
	recognizer   ocr.Recognizer
	photoStorage storage.Backend
	uploadsDir   string
	log          zerolog.Logger
}

// New creates a Server. uploadsDir, when non-empty, is served under
// /uploads/ for the local storage backend.
func New(
	projects ProjectStore,
	photos PhotoStore,
	transactions TransactionLister,
	intakeSvc IntakeService,
	reports ReportService,
	recognizer ocr.Recognizer,
	photoStorage storage.Backend,
	uploadsDir string,
) *Server {
	return &Server{
		projects:     projects,
		photos:       photos,
		transactions: transactions,
		intake:       intakeSvc,
		reports:      reports,
		recognizer:   recognizer,
		photoStorage: photoStorage,
		uploadsDir:   uploadsDir,
		log:          logger.WithComponent("server"),
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("POST /api/projects", s.handleCreateProject)
	mux.HandleFunc("GET /api/projects", s.handleListProjects)
	mux.HandleFunc("GET /api/projects/{id}", s.handleGetProject)

	mux.HandleFunc("POST /api/projects/{id}/photos", s.handleUploadPhoto)
	mux.HandleFunc("GET /api/projects/{id}/photos", s.handleListPhotos)

	mux.HandleFunc("POST /api/projects/{id}/transactions", s.handleCreateTransaction)
	mux.HandleFunc("GET /api/projects/{id}/transactions", s.handleListTransactions)

	mux.HandleFunc("GET /api/projects/{id}/reports/daily", s.handleDailyReport)
	mux.HandleFunc("GET /api/projects/{id}/reports/daily/export", s.handleDailyExport)

	mux.HandleFunc("POST /api/ocr/scan", s.handleScan)

	if s.uploadsDir != "" {
		mux.Handle("GET /uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(s.uploadsDir))))
	}

	return mux
}

// Run serves the API until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type createProjectRequest struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	if s.projects == nil {
		writeError(w, http.StatusServiceUnavailable, "database is not configured")
		return
	}

	var req createProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	project := &models.Project{
		Name:     req.Name,
		Location: req.Location,
		IsActive: true,
	}
	if err := s.projects.Create(r.Context(), project); err != nil {
		s.serverError(w, err, "failed to create project")
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	if s.projects == nil {
		writeError(w, http.StatusServiceUnavailable, "database is not configured")
		return
	}
	projects, err := s.projects.List(r.Context())
	if err != nil {
		s.serverError(w, err, "failed to list projects")
		return
	}
	if projects == nil {
		projects = []models.Project{}
	}
	writeJSON(w, http.StatusOK, projects)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	if s.projects == nil {
		writeError(w, http.StatusServiceUnavailable, "database is not configured")
		return
	}
	project, err := s.projects.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (s *Server) handleUploadPhoto(w http.ResponseWriter, r *http.Request) {
	if s.photos == nil || s.photoStorage == nil {
		writeError(w, http.StatusServiceUnavailable, "photo storage is not configured")
		return
	}

	data, _, err := readImage(r, "photo")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	projectID := r.PathValue("id")
	name := time.Now().Format("2006-01-02") + "/" + time.Now().Format("150405") + "-" + projectID + ".jpg"
	uploaded, err := s.photoStorage.Upload(r.Context(), data, name, "image/jpeg")
	if err != nil {
		s.serverError(w, err, "failed to store photo")
		return
	}

	photo := &models.FieldPhoto{
		ProjectID:  projectID,
		StorageKey: uploaded.Key,
		URL:        uploaded.URL,
		Caption:    r.FormValue("caption"),
	}
	if err := s.photos.Create(r.Context(), photo); err != nil {
		s.serverError(w, err, "failed to save photo record")
		return
	}
	writeJSON(w, http.StatusCreated, photo)
}

func (s *Server) handleListPhotos(w http.ResponseWriter, r *http.Request) {
	if s.photos == nil {
		writeError(w, http.StatusServiceUnavailable, "database is not configured")
		return
	}
	photos, err := s.photos.ListByProject(r.Context(), r.PathValue("id"))
	if err != nil {
		s.serverError(w, err, "failed to list photos")
		return
	}
	if photos == nil {
		photos = []models.FieldPhoto{}
	}
	writeJSON(w, http.StatusOK, photos)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	if s.intake == nil {
		writeError(w, http.StatusServiceUnavailable, "transaction intake is not configured")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	draft := intake.Draft{
		ProjectID:    r.PathValue("id"),
		ProjectName:  r.FormValue("projectName"),
		Type:         r.FormValue("type"),
		MaterialType: r.FormValue("materialType"),
		SupplierName: r.FormValue("supplierName"),
		PlateNumber:  r.FormValue("plateNumber"),
		TicketNumber: r.FormValue("ticketNumber"),
		Unit:         r.FormValue("unit"),
		Notes:        r.FormValue("notes"),
	}
	if q := r.FormValue("quantity"); q != "" {
		qty, err := strconv.ParseFloat(q, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "quantity must be a number")
			return
		}
		draft.Quantity = qty
	}
	if d := r.FormValue("transactionDate"); d != "" {
		parsed, err := parseDate(d)
		if err != nil {
			writeError(w, http.StatusBadRequest, "transactionDate must be RFC 3339 or YYYY-MM-DD")
			return
		}
		draft.TransactionDate = parsed
	}

	var image []byte
	if data, _, err := readImage(r, "photo"); err == nil {
		image = data
	}

	tx, err := s.intake.CreateTransaction(r.Context(), draft, image)
	if err != nil {
		s.serverError(w, err, "failed to create transaction")
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	if s.transactions == nil {
		writeError(w, http.StatusServiceUnavailable, "database is not configured")
		return
	}
	txs, err := s.transactions.ListByProject(r.Context(), r.PathValue("id"))
	if err != nil {
		s.serverError(w, err, "failed to list transactions")
		return
	}
	if txs == nil {
		txs = []models.Transaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}

func (s *Server) handleDailyReport(w http.ResponseWriter, r *http.Request) {
	if s.reports == nil {
		writeError(w, http.StatusServiceUnavailable, "reports are not configured")
		return
	}
	day, err := reportDay(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rep, err := s.reports.Daily(r.Context(), r.PathValue("id"), day)
	if err != nil {
		s.serverError(w, err, "failed to build report")
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleDailyExport(w http.ResponseWriter, r *http.Request) {
	if s.reports == nil {
		writeError(w, http.StatusServiceUnavailable, "reports are not configured")
		return
	}
	day, err := reportDay(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	data, err := s.reports.ExportDailyXLSX(r.Context(), r.PathValue("id"), day)
	if err != nil {
		s.serverError(w, err, "failed to export report")
		return
	}

	filename := fmt.Sprintf("rapor-%s.xlsx", day.Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// scanResponse is the direct-scan result: raw recognition plus extraction.
type scanResponse struct {
	Text       string         `json:"text"`
	Confidence int            `json:"confidence"`
	Data       waybill.Fields `json:"data"`
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	if s.recognizer == nil {
		writeError(w, http.StatusServiceUnavailable, "OCR is not configured")
		return
	}

	data, _, err := readImage(r, "image")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	recognition, err := s.recognizer.Recognize(r.Context(), data)
	switch {
	case errors.Is(err, ocr.ErrQuotaExceeded):
		writeError(w, http.StatusTooManyRequests, "monthly free OCR quota exceeded, try again next month")
		return
	case errors.Is(err, ocr.ErrImageTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	case err != nil:
		s.serverError(w, err, "text recognition failed")
		return
	}

	result := waybill.Extract(recognition.FullText, recognition.Tokens)
	writeJSON(w, http.StatusOK, scanResponse{
		Text:       result.Text,
		Confidence: result.Confidence,
		Data:       result.Data,
	})
}

// reportDay parses the optional date query parameter, defaulting to today.
func reportDay(r *http.Request) (time.Time, error) {
	d := r.URL.Query().Get("date")
	if d == "" {
		return time.Now(), nil
	}
	day, err := time.Parse("2006-01-02", d)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be YYYY-MM-DD")
	}
	return day, nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

// readImage pulls one uploaded file out of a multipart request.
func readImage(r *http.Request, field string) ([]byte, string, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, "", fmt.Errorf("invalid multipart form")
	}
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, "", fmt.Errorf("file field %q is required", field)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read upload")
	}
	if len(data) > maxUploadBytes {
		return nil, "", fmt.Errorf("upload exceeds %d bytes", maxUploadBytes)
	}
	return data, header.Filename, nil
}

func (s *Server) serverError(w http.ResponseWriter, err error, msg string) {
	s.log.Error().Err(err).Msg(msg)
	writeError(w, http.StatusInternalServerError, msg)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
