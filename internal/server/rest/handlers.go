package rest

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/pilotkeeper/internal/common"
	"github.com/dmitrijs2005/pilotkeeper/internal/server/models"
	"github.com/dmitrijs2005/pilotkeeper/internal/server/services"
	"github.com/go-chi/chi/v5"
)

const (
	imageField = "fingerprint_image"

	msgDuplicate      = "Duplicate entry. Pilot ID already exists."
	msgDatabase       = "Database error"
	msgImage          = "Error reading fingerprint image"
	msgStoreImage     = "Error storing fingerprint image"
	msgUserNotFound   = "User not found"
	msgRecordNotFound = "Fingerprint not found"
	msgLogoutFailed   = "Logout failed"
	msgInternal       = "internal error"
)

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type createdResponse struct {
	Message string `json:"message"`
	ID      int64  `json:"id"`
}

type signinRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type signinResponse struct {
	Token string `json:"token"`
	// Encoded as standard base64 by encoding/json.
	FingerprintImage []byte `json:"fingerprint_image"`
}

type pilotResponse struct {
	Username             string    `json:"username"`
	DroneID              int64     `json:"droneid"`
	PilotID              int64     `json:"pilotid"`
	Address              string    `json:"address"`
	FingerprintImagePath *string   `json:"fingerprint_image_path"`
	Timestamp            time.Time `json:"timestamp"`
}

func toPilotResponse(p *models.Pilot) pilotResponse {
	return pilotResponse{
		Username:             p.Username,
		DroneID:              p.DroneID,
		PilotID:              p.PilotID,
		Address:              p.Address,
		FingerprintImagePath: p.FingerprintImagePath,
		Timestamp:            p.CreatedAt,
	}
}

// writeJSON writes v as a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "encoding response", http.StatusInternalServerError)
	}
}

// failure messages that differ between endpoints.
type failure struct {
	notFound string
	io       string
}

// writeError maps a service error onto a status code and error body.
func (s *HTTPServer) writeError(w http.ResponseWriter, r *http.Request, err error, f failure) {
	var tooLarge *http.MaxBytesError

	switch {
	case errors.As(err, &tooLarge):
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{"request body too large"})
	case errors.Is(err, common.ErrorValidation):
		writeJSON(w, http.StatusBadRequest, errorResponse{err.Error()})
	case errors.Is(err, common.ErrorDuplicateKey):
		writeJSON(w, http.StatusBadRequest, errorResponse{msgDuplicate})
	case errors.Is(err, common.ErrorNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{f.notFound})
	case errors.Is(err, common.ErrorUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorResponse{"not authenticated"})
	case errors.Is(err, common.ErrorIO):
		s.logger.Error(r.Context(), "artifact failure", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{f.io})
	case errors.Is(err, common.ErrorSessionTeardown):
		s.logger.Error(r.Context(), "session teardown failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{msgLogoutFailed})
	case errors.Is(err, common.ErrorStorage):
		s.logger.Error(r.Context(), "storage failure", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{msgDatabase})
	default:
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{msgInternal})
	}
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, messageResponse{"Hello from pilotkeeper API!"})
}

// handleRegister serves both /api/signup and /api/fingerprint/insert.
func (s *HTTPServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(s.maxRequestBytes); err != nil {
		if !errors.Is(err, http.ErrNotMultipart) {
			s.writeBadForm(w, r, err)
			return
		}
		if err := r.ParseForm(); err != nil {
			s.writeBadForm(w, r, err)
			return
		}
	}
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}

	in := services.RegisterInput{
		Username: r.FormValue("username"),
		Password: r.FormValue("password"),
		DroneID:  r.FormValue("droneid"),
		PilotID:  r.FormValue("pilotid"),
		Address:  r.FormValue("address"),
	}

	file, header, err := r.FormFile(imageField)
	switch {
	case err == nil:
		defer func(f multipart.File) { _ = f.Close() }(file)
		in.Image = file
		in.ImageName = header.Filename
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	default:
		s.writeBadForm(w, r, err)
		return
	}

	id, err := s.pilots.Create(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err, failure{notFound: msgRecordNotFound, io: msgStoreImage})
		return
	}

	writeJSON(w, http.StatusCreated, createdResponse{Message: "Fingerprint inserted", ID: id})
}

func (s *HTTPServer) writeBadForm(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{"request body too large"})
		return
	}
	s.logger.Debug(r.Context(), "malformed form", "error", err)
	writeJSON(w, http.StatusBadRequest, errorResponse{"invalid form data"})
}

// handleSignin authenticates and binds a freshly minted session id, so an id
// presented before sign-in is never promoted.
func (s *HTTPServer) handleSignin(w http.ResponseWriter, r *http.Request) {
	var req signinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{"request body too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{"invalid request body"})
		return
	}

	sid, err := common.MakeRandHexString(32)
	if err != nil {
		s.writeError(w, r, err, failure{})
		return
	}

	res, err := s.auth.Authenticate(r.Context(), sid, req.Username, req.Password)
	if err != nil {
		s.writeError(w, r, err, failure{notFound: msgUserNotFound, io: msgImage})
		return
	}

	if old := sessionIDFrom(r.Context()); old != "" {
		if err := s.auth.Logout(r.Context(), old); err != nil {
			s.logger.Warn(r.Context(), "previous session not destroyed", "error", err)
		}
	}

	s.setSessionCookie(w, sid)
	writeJSON(w, http.StatusOK, signinResponse{Token: res.Token, FingerprintImage: res.FingerprintImage})
}

func (s *HTTPServer) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.Logout(r.Context(), sessionIDFrom(r.Context())); err != nil {
		s.writeError(w, r, err, failure{})
		return
	}

	clearSessionCookie(w)
	writeJSON(w, http.StatusOK, messageResponse{"Logout successful"})
}

func (s *HTTPServer) handleMe(w http.ResponseWriter, r *http.Request) {
	p, err := s.auth.CurrentPilot(r.Context(), sessionIDFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err, failure{})
		return
	}

	writeJSON(w, http.StatusOK, toPilotResponse(p))
}

func (s *HTTPServer) handleRetrieve(w http.ResponseWriter, r *http.Request) {
	id, ok := pilotIDParam(w, r)
	if !ok {
		return
	}

	p, err := s.pilots.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err, failure{notFound: msgRecordNotFound})
		return
	}

	writeJSON(w, http.StatusOK, toPilotResponse(p))
}

func (s *HTTPServer) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pilotIDParam(w, r)
	if !ok {
		return
	}

	if err := s.pilots.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err, failure{notFound: msgRecordNotFound})
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{"Fingerprint deleted"})
}

func pilotIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "pilotid"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{"invalid pilot id"})
		return 0, false
	}
	return id, true
}
