package handler

import (
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"

	"stationdocs/internal/config"
	models "stationdocs/internal/domain/models/hierarchy"
	"stationdocs/internal/httputil"
)

// AddFilesRequest is the JSON form of an upload: metadata only, no bytes
type AddFilesRequest struct {
	Files []models.FileInput `json:"files"`
}

// RejectedFile is an upload part that was skipped
type RejectedFile struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// AddFilesResponse lists what was added and what was skipped
type AddFilesResponse struct {
	Items    []models.Node  `json:"items"`
	Rejected []RejectedFile `json:"rejected,omitempty"`
}

// AddFiles inserts files. A JSON body carries file metadata; a multipart body
// carries the files themselves under "files", with an optional "path" field
// ("Home/Licenses"). Files without a path go to the cursor's folder.
// POST /api/files
func (h *TreeHandler) AddFiles(w http.ResponseWriter, r *http.Request) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	var (
		inputs   []models.FileInput
		rejected []RejectedFile
	)
	switch mediaType {
	case "multipart/form-data":
		var err error
		inputs, rejected, err = readUpload(w, r)
		if err != nil {
			httputil.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
	case "application/json", "":
		var req AddFilesRequest
		if err := httputil.ParseJSON(w, r, &req); err != nil {
			httputil.RespondParseError(w, err)
			return
		}
		inputs = req.Files
	default:
		httputil.RespondError(w, http.StatusUnsupportedMediaType, "expected application/json or multipart/form-data")
		return
	}

	if len(inputs) == 0 {
		httputil.RespondErrorWithExtras(w, http.StatusBadRequest, "no files to add", map[string]any{
			"rejected": rejected,
		})
		return
	}

	added, err := h.store.AddFiles(inputs)
	if err != nil {
		handleError(w, r, err)
		return
	}

	h.logger.Info("files added",
		"count", len(added),
		"rejected", len(rejected),
		"request_id", httputil.GetRequestID(r),
	)
	httputil.RespondJSON(w, http.StatusCreated, AddFilesResponse{Items: added, Rejected: rejected})
}

func readUpload(w http.ResponseWriter, r *http.Request) ([]models.FileInput, []RejectedFile, error) {
	r.Body = http.MaxBytesReader(w, r.Body, config.MaxUploadSize)
	if err := r.ParseMultipartForm(config.MaxUploadSize); err != nil {
		return nil, nil, fmt.Errorf("invalid upload: %w", err)
	}

	var dir models.Path
	if raw := r.FormValue("path"); raw != "" {
		dir = models.ParsePath(raw)
	}

	var (
		inputs   []models.FileInput
		rejected []RejectedFile
	)
	for _, header := range r.MultipartForm.File["files"] {
		if header.Size > config.MaxFileSize {
			rejected = append(rejected, RejectedFile{
				Name:   header.Filename,
				Reason: fmt.Sprintf("larger than %d MB", config.MaxFileSize>>20),
			})
			continue
		}

		data, err := readPart(header)
		if err != nil {
			rejected = append(rejected, RejectedFile{Name: header.Filename, Reason: err.Error()})
			continue
		}

		contentType := header.Header.Get("Content-Type")
		if contentType == "" {
			contentType = http.DetectContentType(data)
		}
		inputs = append(inputs, models.FileInput{
			Name: header.Filename,
			Size: formatSize(header.Size),
			Path: dir,
			Handle: &models.FileHandle{
				Name:        header.Filename,
				ContentType: contentType,
				Data:        data,
			},
		})
	}
	return inputs, rejected, nil
}

func readPart(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	return io.ReadAll(f)
}

// formatSize renders bytes the way the dashboard shows them ("2.50 MB")
func formatSize(n int64) string {
	return fmt.Sprintf("%.2f MB", float64(n)/1024/1024)
}
