package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/panic-app/panic-server/server/models"
	"github.com/panic-app/panic-server/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	objects map[string][]byte
	err     error
}

func (f *fakeUploader) UploadObject(ctx context.Context, bucket, objectName string, r io.Reader) error {
	if f.err != nil {
		return f.err
	}

	content, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	if f.objects == nil {
		f.objects = map[string][]byte{}
	}
	f.objects[objectName] = content

	return nil
}

func (f *fakeUploader) UploadFile(bucket, prefix, filePath string) error {
	return f.err
}

func reportTestIncident(t *testing.T, router *mux.Router, cookies []*http.Cookie) string {
	t.Helper()

	rec, payload := doRequest(router, "POST", "/incidents", map[string]interface{}{
		"description": "Being followed near the metro",
		"latitude":    19.4326,
		"longitude":   -99.1332,
	}, cookies)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Incident reported", payload.Data["message"])

	incidentID, ok := payload.Data["incidentId"].(string)
	require.True(t, ok, "response should carry the incident id")

	return incidentID
}

func TestReportIncident(t *testing.T) {
	router, _ := setupTestServer(t)
	cookies := registerTestUser(t, router, "ana@example.com")

	incidentID := reportTestIncident(t, router, cookies)

	user, err := models.FindActiveUserByEmail("ana@example.com")
	assert.Nil(t, err)

	incident, err := models.FindIncident(user.ID, incidentID)
	assert.Nil(t, err)
	assert.Equal(t, "Being followed near the metro", incident.Description)
	assert.InDelta(t, 19.4326, incident.Latitude, 0.0001)

	// An alert job for the trusted contacts was queued off the request path
	job, err := models.LastJob(models.ENQUEUED_JOB, false)
	assert.Nil(t, err)
	assert.Equal(t, INCIDENT_ALERTS_HANDLER, job.Handler)
	assert.Contains(t, job.Args, incidentID)
}

func TestReportIncidentMissingDescription(t *testing.T) {
	router, _ := setupTestServer(t)
	cookies := registerTestUser(t, router, "ana@example.com")

	rec, payload := doRequest(router, "POST", "/incidents", map[string]interface{}{
		"latitude": 19.4326,
	}, cookies)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Incorrect request parameters", payload.Error.Message)
}

func uploadTestPhoto(router *mux.Router, incidentID, licensePlate string, cookies []*http.Cookie) (*httptest.ResponseRecorder, envelope) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, _ := writer.CreateFormFile("photo", "evidence.jpg")
	part.Write([]byte("not-really-a-jpeg"))
	if licensePlate != "" {
		writer.WriteField("licensePlate", licensePlate)
	}
	writer.Close()

	req := httptest.NewRequest("POST", "/incidents/"+incidentID+"/photos", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	payload := envelope{}
	json.Unmarshal(rec.Body.Bytes(), &payload)

	return rec, payload
}

func TestUploadIncidentPhoto(t *testing.T) {
	router, _ := setupTestServer(t)
	uploader := &fakeUploader{}
	storage = uploader
	storageConfig = shared.StorageConfig{Bucket: "test-bucket", Prefix: "panic-test"}

	cookies := registerTestUser(t, router, "ana@example.com")
	incidentID := reportTestIncident(t, router, cookies)

	rec, payload := uploadTestPhoto(router, incidentID, "ABC-123", cookies)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Photo uploaded", payload.Data["message"])

	objectName, ok := payload.Data["file"].(string)
	require.True(t, ok)
	assert.Contains(t, objectName, "panic-test/incidents/"+incidentID+"/")
	assert.Equal(t, []byte("not-really-a-jpeg"), uploader.objects[objectName])

	// The photo row hangs off the incident with the plate captured
	user, err := models.FindActiveUserByEmail("ana@example.com")
	assert.Nil(t, err)

	incident, err := models.FindIncident(user.ID, incidentID)
	assert.Nil(t, err)
	assert.Nil(t, incident.LoadPhotos())
	require.Len(t, incident.Photos, 1)
	assert.Equal(t, objectName, incident.Photos[0].File)
	assert.Equal(t, "ABC-123", incident.Photos[0].LicensePlate)
}

func TestUploadIncidentPhotoUnknownIncident(t *testing.T) {
	router, _ := setupTestServer(t)
	storage = &fakeUploader{}
	storageConfig = shared.StorageConfig{Bucket: "test-bucket"}

	cookies := registerTestUser(t, router, "ana@example.com")

	rec, payload := uploadTestPhoto(router, "no-such-incident", "", cookies)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Non-existent incident", payload.Error.Message)
}

func TestUploadIncidentPhotoStorageNotConfigured(t *testing.T) {
	router, _ := setupTestServer(t)
	storage = nil

	cookies := registerTestUser(t, router, "ana@example.com")
	incidentID := reportTestIncident(t, router, cookies)

	rec, payload := uploadTestPhoto(router, incidentID, "", cookies)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Photo storage is not configured", payload.Error.Message)
}
