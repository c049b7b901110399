package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/panic-app/panic-server/server/models"
	"gorm.io/gorm"
)

type registerUserParams struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	Firstname string `json:"firstname" validate:"required"`
	Lastname  string `json:"lastname" validate:"required"`
	Phone     string `json:"phone" validate:"required"`
}

type loginParams struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type changePasswordParams struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

// indexHandler is the session-gated sanity route.
func indexHandler(rw http.ResponseWriter, r *http.Request) {
	sendResponse(rw, http.StatusOK, "Hola mundo")
}

func registerUserHandler(rw http.ResponseWriter, r *http.Request) {
	params := registerUserParams{}
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		sendResponse(rw, http.StatusBadRequest, "Incorrect request parameters")
		return
	}

	if err := validate.Struct(params); err != nil {
		sendResponse(rw, http.StatusBadRequest, "Incorrect request parameters")
		return
	}

	// Exact, case-sensitive match only - disabled accounts don't count,
	// so a deactivated user's email can be registered again.
	emailTaken, err := models.ActiveEmailExists(params.Email)
	if err != nil {
		sendResponse(rw, http.StatusInternalServerError, "Failed to retrieve record from database")
		return
	}

	if emailTaken {
		sendResponse(rw, http.StatusBadRequest, "The email submitted already exists for another user")
		return
	}

	user := models.User{
		Email:       params.Email,
		FirstName:   params.Firstname,
		LastName:    params.Lastname,
		PhoneNumber: params.Phone,
	}
	if err = models.CreateUser(&user, params.Password); err != nil {
		sendResponse(rw, http.StatusInternalServerError, "Failed to insert record to database")
		return
	}

	if _, err = sessionStore.Establish(rw, r, user.ID, user.Email); err != nil {
		sendResponse(rw, http.StatusInternalServerError, "Could not create session cookie")
		return
	}

	sendResponse(rw, http.StatusOK, "User created successfully")
}

func loginHandler(rw http.ResponseWriter, r *http.Request) {
	params := loginParams{}
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		sendResponse(rw, http.StatusBadRequest, "Incorrect request parameters")
		return
	}

	if err := validate.Struct(params); err != nil {
		sendResponse(rw, http.StatusBadRequest, "Incorrect request parameters")
		return
	}

	user, err := models.FindActiveUserByEmail(params.Email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		sendResponse(rw, http.StatusInternalServerError, "Failed to retrieve record from database")
		return
	}

	// Same response whether the email is unknown or the password is
	// wrong - never hint at which one failed.
	if err != nil || !user.Authenticate(params.Password) {
		sendResponse(rw, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	expiresAt, err := sessionStore.Establish(rw, r, user.ID, user.Email)
	if err != nil {
		sendResponse(rw, http.StatusInternalServerError, "Could not create session cookie")
		return
	}

	sendData(rw, http.StatusOK, map[string]interface{}{
		"message":   "Login successful",
		"expiresAt": expiresAt.Format(time.RFC3339),
	})
}

func logoutHandler(rw http.ResponseWriter, r *http.Request) {
	if err := sessionStore.Destroy(rw, r); err != nil {
		sendResponse(rw, http.StatusInternalServerError, "Could not delete session cookie")
		return
	}

	sendResponse(rw, http.StatusOK, "Logout successful")
}

func changePasswordHandler(rw http.ResponseWriter, r *http.Request) {
	params := changePasswordParams{}
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		sendResponse(rw, http.StatusBadRequest, "Incorrect request parameters")
		return
	}

	if err := validate.Struct(params); err != nil {
		sendResponse(rw, http.StatusBadRequest, "Incorrect request parameters")
		return
	}

	user, err := models.FindUserBy("id", currentSession(r).UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		sendResponse(rw, http.StatusBadRequest, "User not found")
		return
	}

	if err != nil {
		sendResponse(rw, http.StatusInternalServerError, "Failed to retrieve record from database")
		return
	}

	if !user.Authenticate(params.OldPassword) {
		sendResponse(rw, http.StatusBadRequest, "Incorrect password")
		return
	}

	if err = user.UpdatePassword(params.NewPassword); err != nil {
		sendResponse(rw, http.StatusInternalServerError, "Failed to update record in database")
		return
	}

	sendResponse(rw, http.StatusOK, "Password updated")
}

func deactivateUserHandler(rw http.ResponseWriter, r *http.Request) {
	user, err := models.FindUserBy("id", currentSession(r).UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		sendResponse(rw, http.StatusBadRequest, "User not found")
		return
	}

	if err != nil {
		sendResponse(rw, http.StatusInternalServerError, "Failed to retrieve record from database")
		return
	}

	if err = user.Deactivate(); err != nil {
		sendResponse(rw, http.StatusInternalServerError, "Failed to update record in database")
		return
	}

	if err = sessionStore.Destroy(rw, r); err != nil {
		sendResponse(rw, http.StatusInternalServerError, "Could not delete session cookie")
		return
	}

	sendResponse(rw, http.StatusOK, "User deactivated")
}
