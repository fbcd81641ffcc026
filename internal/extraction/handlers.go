package extraction

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"
)

// maxUploadSize bounds multipart uploads and JSON bodies
const maxUploadSize = int64(50 << 20)

// writeJSON writes v as a JSON response
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// writeError writes a JSON error response
func writeError(w http.ResponseWriter, message string, code int) {
	writeJSON(w, code, map[string]string{"error": message})
}

// processResponse is a pipeline result with the ID it was stored under
type processResponse struct {
	ID string `json:"id"`
	*Result
}

// handleDemo runs the pipeline over the sample bill line
func (s *Server) handleDemo(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.Demo(r.Context())
	if err != nil {
		slog.Error("Error running demo", "error", err)
		writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleHealth reports liveness and the running version
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": s.version})
}

// handleProcess runs the pipeline over a JSON or multipart request
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	in, err := readProcessInput(r)
	if err != nil {
		slog.Error("Error reading process request", "error", err)
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	extraction, err := s.service.Process(r.Context(), in)
	if err != nil {
		if IsInputError(err) {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}
		slog.Error("Error processing document", "mode", in.Mode, "error", err)
		switch {
		case errors.Is(err, ErrNoRecognizer):
			writeError(w, err.Error(), http.StatusNotImplemented)
		case errors.Is(err, ErrUnreadableDocument):
			writeError(w, err.Error(), http.StatusUnprocessableEntity)
		default:
			writeError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, processResponse{ID: extraction.ID, Result: extraction.Result})
}

// readProcessInput accepts multipart forms with an optional file, and JSON or
// url-encoded bodies with text only
func readProcessInput(r *http.Request) (Input, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			if strings.Contains(err.Error(), "request body too large") {
				return Input{}, errors.New("File is too large. Maximum size is 50MB.")
			}
			return Input{}, errors.New("Error parsing form")
		}
		in := Input{
			Mode: ParseMode(r.FormValue("use_image")),
			Text: r.FormValue("text"),
		}
		f, header, err := r.FormFile("file")
		if errors.Is(err, http.ErrMissingFile) {
			return in, nil
		}
		if err != nil {
			return Input{}, errors.New("Error reading file")
		}
		defer f.Close()

		data, err := io.ReadAll(f)
		if err != nil {
			return Input{}, errors.New("Error reading file")
		}
		in.File = &File{
			Name:        header.Filename,
			ContentType: detectContentType(header.Header.Get("Content-Type"), header.Filename, data),
			Data:        data,
		}
		return in, nil
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return Input{}, errors.New("Error parsing form")
		}
		return Input{Mode: ParseMode(r.PostFormValue("use_image")), Text: r.PostFormValue("text")}, nil
	default:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return Input{}, errors.New("Error reading body")
		}
		if len(strings.TrimSpace(string(body))) == 0 {
			return Input{Mode: ModeAuto}, nil
		}
		req, err := decodeProcessRequest(body)
		if err != nil {
			return Input{}, errors.New("Invalid request body")
		}
		return req.input(), nil
	}
}

// detectContentType prefers the declared type, then the extension, then
// sniffs the data
func detectContentType(declared, filename string, data []byte) string {
	declared = strings.ToLower(strings.TrimSpace(declared))
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".pdf":
		return "application/pdf"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	}

	return http.DetectContentType(data)
}

// handleListExtractions returns all extractions, newest first
func (s *Server) handleListExtractions(w http.ResponseWriter, r *http.Request) {
	extractions, err := s.service.ListExtractions()
	if err != nil {
		slog.Error("Error listing extractions", "error", err)
		writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, extractions)
}

// handleExport returns the extraction history as a spreadsheet
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	data, err := s.service.ExportXLSX(r.Context())
	if err != nil {
		slog.Error("Error exporting extractions", "error", err)
		writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="extractions.xlsx"`)
	w.Write(data)
}

// handleGetExtraction returns a single extraction
func (s *Server) handleGetExtraction(w http.ResponseWriter, r *http.Request) {
	extraction, err := s.service.GetExtraction(mux.Vars(r)["id"])
	if err != nil {
		writeLookupError(w, "Extraction not found", err)
		return
	}
	writeJSON(w, http.StatusOK, extraction)
}

// handleGetExtractionFile returns the uploaded document of an extraction
func (s *Server) handleGetExtractionFile(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := s.service.GetExtractionFile(mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, ErrNoFile) {
			writeError(w, "File not found", http.StatusNotFound)
			return
		}
		writeLookupError(w, "File not found", err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

// handleDeleteExtraction deletes an extraction
func (s *Server) handleDeleteExtraction(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteExtraction(mux.Vars(r)["id"]); err != nil {
		writeLookupError(w, "Extraction not found", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeLookupError maps ErrNotFound to 404 and anything else to 500
func writeLookupError(w http.ResponseWriter, notFound string, err error) {
	if errors.Is(err, ErrNotFound) {
		writeError(w, notFound, http.StatusNotFound)
		return
	}
	slog.Error("Error looking up extraction", "error", err)
	writeError(w, "Internal server error", http.StatusInternalServerError)
}
