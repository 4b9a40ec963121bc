package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pratyaksh/internal/domain"
	"pratyaksh/internal/logging"
	"pratyaksh/internal/ports"
	"pratyaksh/internal/services/archive"
	"pratyaksh/internal/services/verification"
)

// multipartMemory is how much of a multipart body is held in memory before
// spilling to temp files.
const multipartMemory = 8 << 20

// Verifier runs one verification.
type Verifier interface {
	Verify(ctx context.Context, up verification.Upload) (domain.Response, error)
}

// Archive registers previously published media.
type Archive interface {
	Register(ctx context.Context, media domain.MediaReference, sourceURL string, firstSeenAt time.Time) (string, error)
}

type Server struct {
	verifier Verifier
	archive  Archive
	store    ports.MediaStore
	gatherer prometheus.Gatherer
	maxBody  int64
	log      *slog.Logger
}

// New builds the HTTP surface. archive may be nil, in which case POST /archive
// answers 503. gatherer may be nil to leave /metrics unmounted.
func New(verifier Verifier, arch Archive, store ports.MediaStore, gatherer prometheus.Gatherer, maxUploadBytes int64) *Server {
	return &Server{
		verifier: verifier,
		archive:  arch,
		store:    store,
		gatherer: gatherer,
		maxBody:  maxUploadBytes + 1<<20,
		log:      logging.New("http"),
	}
}

// Routes returns the chi router with all handlers mounted.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.getHealthz)
	r.Post("/media/verify", s.postVerify)
	r.Post("/archive", s.postArchive)
	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

func (s *Server) getHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) postVerify(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeError(w, statusForParse(err), "invalid multipart upload: "+err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no media file provided")
		return
	}
	defer file.Close()

	resp, err := s.verifier.Verify(r.Context(), verification.Upload{
		Filename: header.Filename,
		Body:     file,
		Lat:      r.FormValue("lat"),
		Lon:      r.FormValue("lon"),
		Channel:  verification.ChannelHTTP,
	})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, verification.ErrInvalidInput) {
			status = http.StatusBadRequest
		}
		s.log.Warn("verification failed", "status", status, "error", err)
		writeJSON(w, status, verification.ErrorResponse(err))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type archiveCreated struct {
	Status string `json:"status"`
	ID     string `json:"id"`
}

func (s *Server) postArchive(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeError(w, http.StatusServiceUnavailable, "archive is not configured")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeError(w, statusForParse(err), "invalid multipart upload: "+err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	var firstSeen time.Time
	if v := strings.TrimSpace(r.FormValue("first_seen_at")); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "first_seen_at must be RFC3339")
			return
		}
		firstSeen = t
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no media file provided")
		return
	}
	defer file.Close()

	media, err := s.store.Acquire(r.Context(), header.Filename, file)
	if err != nil {
		if errors.Is(err, ports.ErrMediaEmpty) || errors.Is(err, ports.ErrMediaTooLarge) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.log.Error("archive upload failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not store upload")
		return
	}
	defer func() {
		if err := s.store.Release(media); err != nil {
			s.log.Error("failed to release media", "media_id", media.ID, "error", err)
		}
	}()

	id, err := s.archive.Register(r.Context(), media, r.FormValue("source_url"), firstSeen)
	if err != nil {
		if errors.Is(err, archive.ErrInvalidSource) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.log.Error("archive register failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not archive media")
		return
	}
	writeJSON(w, http.StatusCreated, archiveCreated{Status: domain.StatusSuccess, ID: id})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func statusForParse(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, domain.Response{Status: domain.StatusError, Message: msg})
}
