package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/docchat-ai/docchat/internal/api"
	"github.com/docchat-ai/docchat/internal/domain/jobModel"
	"github.com/docchat-ai/docchat/pkg/logger_i"
)

var logRH *logger_i.Logger

type newJobData struct {
	id          string
	chatId      string
	message     string
	isNewChat   bool
	traceId     string
	ingestFiles []jobModel.IngestFile
}

// HealthHandler godoc
// @Summary      Liveness probe
// @Tags         Health
// @Success      200 "Service is up"
// @Router       /healthz [get]
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// ChatHandler godoc
// @Summary      Start a new chat job
// @Description  Accepts a message, initializes a background processing job, and returns a job ID to track status.
// @Tags         Messaging
// @Accept       json
// @Produce      json
// @Param        request  body      api.ChatRequest      true  "Chat Message and optional Chat ID"
// @Success      202      {object}  api.InitJobResponse  "Job successfully created"
// @Failure      400      {object}  api.JobResponse      "Invalid request data or chat ID"
// @Router       /chat [post]
func ChatHandler(w http.ResponseWriter, request *http.Request) {
	if !validateContext(request.Context()) {
		logRH.Warn("Invalid Context by request ", request.RemoteAddr)
		return
	}

	var requestData api.ChatRequest
	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			logRH.Error("Couldn't close the Chat handler reader", "error", err)
		}
	}(request.Body)
	if err := json.NewDecoder(request.Body).Decode(&requestData); err != nil || !ValidateChatRequest(requestData) {
		logRH.Warn("Bad Chat Request", "error", err, "requestData", requestData)
		WriteErrorResponse(w, http.StatusBadRequest, requestData.ChatID, "Bad Request")
		return
	}

	processChatJob(request, w, requestData)
}

// GetStatusHandler godoc
// @Summary      Get job status
// @Description  Retrieves the current status of a specific job using its ID.
// @Tags         Job Status
// @Accept       json
// @Produce      json
// @Param        id   path      string  true  "Job ID"
// @Success      200  {object}  api.JobResponse   "Successful retrieval of job status"
// @Failure      404  {object}  api.JobResponse   "Job not found"
// @Router       /status/{id} [get]
func GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}

	idString := getURLParam(r, "id")
	result, isFound := validateId(idString, traceIdFromContext(r))
	if !isFound {
		WriteErrorResponse(w, http.StatusNotFound, idString, "Job not found")
		return
	}

	writeJsonResponse(w, http.StatusOK, toJobResponse(result))
}

// PostIngestHandler godoc
// @Summary      Upload documents for ingestion
// @Description  Receives one or more files via multipart/form-data, saves them to a temporary directory, and queues one ingestion job covering all of them.
// @Tags         Ingestion
// @Accept       multipart/form-data
// @Produce      json
// @Param        document  formData  file  true  "PDF, DOCX, RTF or TXT files to upload (repeatable)"
// @Success      202  {object}  api.InitJobResponse "Accepted"
// @Failure      400  {object}  api.JobResponse "Missing files or file too large"
// @Failure      500  {object}  api.JobResponse "Storage or write error"
// @Router       /ingest [post]
func PostIngestHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		logRH.Warn("Invalid Context by request ", r.RemoteAddr)
		return
	}

	targetDir, errString := getTargetDirectory()
	if errString != "" {
		logRH.Error("Couldn't get target directory", "err", errString)
		WriteErrorResponse(w, http.StatusInternalServerError, "", errString)
		return
	}

	const maxUploadSize = 32 << 20 //32mb
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "", "File too large or bad request")
		return
	}

	uploads := r.MultipartForm.File["document"]
	if len(uploads) == 0 {
		WriteErrorResponse(w, http.StatusBadRequest, "", "at least one document file is required")
		return
	}

	files, err := storeUploads(uploads, targetDir)
	if err != nil {
		logRH.Error("Failed to store uploads", "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "", "Storage error")
		return
	}

	processIngestJob(r, w, files)
}

// storeUploads writes every upload to targetDir. On failure the files already
// written are removed again; no job exists yet to clean them up later.
func storeUploads(uploads []*multipart.FileHeader, targetDir string) ([]jobModel.IngestFile, error) {
	var files []jobModel.IngestFile
	for _, header := range uploads {
		path, err := saveUpload(header, targetDir)
		if err != nil {
			for _, stored := range files {
				if rmErr := os.Remove(stored.Path); rmErr != nil {
					logRH.Error("Error removing stored upload", "path", stored.Path, "error", rmErr)
				}
			}
			return nil, fmt.Errorf("storing %s: %w", header.Filename, err)
		}
		files = append(files, jobModel.IngestFile{Name: header.Filename, Path: path})
	}
	return files, nil
}

func saveUpload(header *multipart.FileHeader, targetDir string) (string, error) {
	fileReader, err := header.Open()
	if err != nil {
		return "", err
	}
	defer fileReader.Close()

	filename := fmt.Sprintf("%d-%s", time.Now().UnixNano(), filepath.Base(header.Filename))
	tempFilePath := filepath.Join(targetDir, filename)
	destinationFileWriter, err := os.Create(tempFilePath)
	if err != nil {
		return "", err
	}
	defer destinationFileWriter.Close()

	if _, err := io.Copy(destinationFileWriter, fileReader); err != nil {
		os.Remove(tempFilePath)
		return "", err
	}
	return tempFilePath, nil
}
