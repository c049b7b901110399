package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/panic-app/panic-server/utils"
)

// E.164-ish check used across contact routes. This is a heuristic,
// not a general phone parser.
var e164Regexp = regexp.MustCompile(`^\+[1-9]\d{10,14}$`)

var ErrInvalidPhoneNumber = errors.New("invalid phone number")

type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// SnsRegistrar registers a contact with the external notification
// service & returns the provisioned topic identifier.
type SnsRegistrar interface {
	RegisterContact(ctx context.Context, externalID, name, phone string) (string, error)
}

// Messenger delivers a text message to an E.164 phone number.
type Messenger interface {
	SendMessage(to, msg string) error
}

// ObjectUploader stores blobs in the configured storage bucket.
type ObjectUploader interface {
	UploadObject(ctx context.Context, bucket, objectName string, r io.Reader) error
	UploadFile(bucket, prefix, filePath string) error
}

// ---------------------------------------------------------------------------------//
// Handler helper functions
// --------------------------------------------------------------------------------//

// sendData writes the success envelope: {"data": ...}
func sendData(rw http.ResponseWriter, statusCode int, data interface{}) {
	rw.WriteHeader(statusCode)
	json.NewEncoder(rw).Encode(map[string]interface{}{"data": data})
}

// sendResponse writes the envelope every route shares:
// 2xx -> {"data":{"message":...}}, otherwise {"error":{"code":...,"message":...}}
func sendResponse(rw http.ResponseWriter, statusCode int, message string) {
	if statusCode >= http.StatusInternalServerError {
		logg.Error(message)
	} else if statusCode >= http.StatusBadRequest {
		logg.Info(message)
	}

	if statusCode < http.StatusBadRequest {
		sendData(rw, statusCode, map[string]interface{}{"message": message})
		return
	}

	rw.WriteHeader(statusCode)
	json.NewEncoder(rw).Encode(map[string]interface{}{
		"error": errorBody{Code: statusCode, Message: message},
	})
}

// normalizePhoneNumber validates phone against the E.164 pattern. A
// number without a leading '+' gets the default country code prefixed
// and is re-tested; anything else that fails the pattern is rejected
// with no correction attempt.
func normalizePhoneNumber(phone string, countryCode string) (string, error) {
	if e164Regexp.MatchString(phone) {
		return phone, nil
	}

	if !strings.HasPrefix(phone, "+") {
		withCode := countryCode + phone
		if e164Regexp.MatchString(withCode) {
			return withCode, nil
		}
	}

	return "", ErrInvalidPhoneNumber
}

// ---------------------------------------------------------------------------------//
// Server helper functions
// --------------------------------------------------------------------------------//

func serve(server *http.Server) {
	logg.Infof("Panic server is listening on port%v", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Fatal(err)
	}
}

func cleanup(server *http.Server) {
	// Stop workers first so no job is cut off mid-run by the exit
	workerPool.Stop()

	ctxShutDown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutDown); err != nil {
		logg.Fatalf("Panic server shutdown failed:%+s", err)
	}

	logg.Infof("Panic server stopped properly")
}

// configDirectory retrieves the directory used for the server's db &
// local state, or exits if it can't be created.
func configDirectory(devMode bool) string {
	configFolderName := "panic-server"
	rootDir, err := os.UserHomeDir()
	fatalOnError(err)

	// Use 'dev' folder in current directory for dev mode
	if devMode {
		configFolderName = "dev"
		rootDir, err = os.Getwd()
		fatalOnError(err)
	}

	configDir := filepath.Join(rootDir, configFolderName)

	err = utils.CreateDirIfNotExist(configDir)
	fatalOnError(err)

	return configDir
}

func fatalOnError(err error) {
	if err != nil {
		logg.Fatal(err)
	}
}
