package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/panic-app/panic-server/server/models"
	"github.com/panic-app/panic-server/server/work"
	"gorm.io/gorm"
)

const maxPhotoUploadBytes = 10 << 20

type reportIncidentParams struct {
	Description string  `json:"description" validate:"required"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

func reportIncidentHandler(rw http.ResponseWriter, r *http.Request) {
	params := reportIncidentParams{}
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		sendResponse(rw, http.StatusBadRequest, "Incorrect request parameters")
		return
	}

	if err := validate.Struct(params); err != nil {
		sendResponse(rw, http.StatusBadRequest, "Incorrect request parameters")
		return
	}

	current := currentSession(r)
	incident := models.Incident{
		UserID:      current.UserID,
		Description: params.Description,
		Latitude:    params.Latitude,
		Longitude:   params.Longitude,
	}
	if err := models.CreateIncident(&incident); err != nil {
		sendResponse(rw, http.StatusInternalServerError, "Failed to insert record to database")
		return
	}

	// Alerting the trusted contacts happens off the request path; a
	// slow or failing SMS provider must not fail the report.
	err := workerPool.Perform(work.JobParams{
		Name:    INCIDENT_ALERTS_HANDLER + "/" + incident.ID,
		Handler: INCIDENT_ALERTS_HANDLER,
		Unique:  true,
		Args:    map[string]interface{}{"incident_id": incident.ID, "user_id": current.UserID},
	})
	if err != nil {
		logg.Error(err)
	}

	sendData(rw, http.StatusOK, map[string]interface{}{
		"message":    "Incident reported",
		"incidentId": incident.ID,
	})
}

func uploadIncidentPhotoHandler(rw http.ResponseWriter, r *http.Request) {
	incident, err := models.FindIncident(currentSession(r).UserID, mux.Vars(r)["incidentID"])
	if errors.Is(err, gorm.ErrRecordNotFound) {
		sendResponse(rw, http.StatusBadRequest, "Non-existent incident")
		return
	}

	if err != nil {
		sendResponse(rw, http.StatusInternalServerError, "Failed to retrieve record from database")
		return
	}

	if err = r.ParseMultipartForm(maxPhotoUploadBytes); err != nil {
		sendResponse(rw, http.StatusBadRequest, "Incorrect request parameters")
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		sendResponse(rw, http.StatusBadRequest, "Incorrect request parameters")
		return
	}
	defer file.Close()

	if storage == nil {
		sendResponse(rw, http.StatusInternalServerError, "Photo storage is not configured")
		return
	}

	objectName := "incidents/" + incident.ID + "/" + uuid.NewString() + filepath.Ext(header.Filename)
	if storageConfig.Prefix != "" {
		objectName = storageConfig.Prefix + "/" + objectName
	}

	if err = storage.UploadObject(r.Context(), storageConfig.Bucket, objectName, file); err != nil {
		sendResponse(rw, http.StatusInternalServerError, "Failed to upload file to storage")
		return
	}

	photo := models.IncidentPhoto{File: objectName, LicensePlate: r.FormValue("licensePlate")}
	if err = incident.AddPhoto(&photo); err != nil {
		sendResponse(rw, http.StatusInternalServerError, "Failed to insert record to database")
		return
	}

	sendData(rw, http.StatusOK, map[string]interface{}{
		"message": "Photo uploaded",
		"file":    objectName,
	})
}
