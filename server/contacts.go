package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/panic-app/panic-server/server/models"
	"github.com/panic-app/panic-server/server/work"
	"gorm.io/gorm"
)

type registerContactParams struct {
	ContactPhone string `json:"contactPhone" validate:"required"`
	ContactName  string `json:"contactName" validate:"required"`
}

type editContactParams struct {
	PreviousPhone string `json:"previousPhone" validate:"required"`
	ContactName   string `json:"contactName" validate:"required"`
	NewPhone      string `json:"newPhone" validate:"required"`
}

func registerContactHandler(rw http.ResponseWriter, r *http.Request) {
	params := registerContactParams{}
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		sendResponse(rw, http.StatusBadRequest, "Incorrect request parameters")
		return
	}

	if err := validate.Struct(params); err != nil {
		sendResponse(rw, http.StatusBadRequest, "Incorrect request parameters")
		return
	}

	phone, err := normalizePhoneNumber(params.ContactPhone, countryCode)
	if err != nil {
		sendResponse(rw, http.StatusBadRequest, "Invalid phone number")
		return
	}

	userID := currentSession(r).UserID

	phoneTaken, err := models.ContactExists(userID, phone)
	if err != nil {
		sendResponse(rw, http.StatusInternalServerError, "Failed to retrieve record from database")
		return
	}

	if phoneTaken {
		sendResponse(rw, http.StatusBadRequest, "A trusted contact with the phone number submitted already exists")
		return
	}

	contact := models.TrustedContact{Name: params.ContactName, Phone: phone, UserID: userID}
	if err = (&models.User{UUIDBaseModel: models.UUIDBaseModel{ID: userID}}).AddContact(&contact); err != nil {
		// The pre-check above races with concurrent registrations; the
		// unique index on (user_id, phone) is what actually holds the line.
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			sendResponse(rw, http.StatusBadRequest, "A trusted contact with the phone number submitted already exists")
			return
		}

		sendResponse(rw, http.StatusInternalServerError, "Failed to insert record to database")
		return
	}

	topic, err := snsClient.RegisterContact(r.Context(), contact.ExternalID, contact.Name, contact.Phone)
	if err != nil {
		logg.Errorf("sns registration failed for contact %v: %v", contact.ID, err)
		enqueueSnsTopicRegistration(&contact)
		sendResponse(rw, http.StatusInternalServerError, "Could not create SNS topic")
		return
	}

	if err = contact.SetSnsTopic(topic); err != nil {
		enqueueSnsTopicRegistration(&contact)
		sendResponse(rw, http.StatusInternalServerError, "Failed to update record with SNS topic")
		return
	}

	sendResponse(rw, http.StatusOK, "Contact successfully registered")
}

func editContactHandler(rw http.ResponseWriter, r *http.Request) {
	params := editContactParams{}
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		sendResponse(rw, http.StatusBadRequest, "Incorrect request parameters")
		return
	}

	if err := validate.Struct(params); err != nil {
		sendResponse(rw, http.StatusBadRequest, "Incorrect request parameters")
		return
	}

	previousPhone, err := normalizePhoneNumber(params.PreviousPhone, countryCode)
	if err != nil {
		sendResponse(rw, http.StatusBadRequest, "Invalid phone number")
		return
	}

	newPhone, err := normalizePhoneNumber(params.NewPhone, countryCode)
	if err != nil {
		sendResponse(rw, http.StatusBadRequest, "Invalid phone number")
		return
	}

	userID := currentSession(r).UserID

	contact, err := models.FindContact(userID, previousPhone)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		sendResponse(rw, http.StatusBadRequest, "Non-existent contact")
		return
	}

	if err != nil {
		sendResponse(rw, http.StatusInternalServerError, "Failed to retrieve record from database")
		return
	}

	// If the phone is changing, the new number must not collide with
	// another of this user's contacts.
	if previousPhone != newPhone {
		phoneTaken, err := models.ContactExists(userID, newPhone)
		if err != nil {
			sendResponse(rw, http.StatusInternalServerError, "Failed to retrieve record from database")
			return
		}

		if phoneTaken {
			sendResponse(rw, http.StatusBadRequest, "A trusted contact with the phone number submitted already exists")
			return
		}
	}

	err = contact.Update(map[string]interface{}{"name": params.ContactName, "phone": newPhone})
	if err != nil {
		// Same race as on registration: a concurrent edit can slip past
		// the pre-check, and the unique index rejects it here.
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			sendResponse(rw, http.StatusBadRequest, "A trusted contact with the phone number submitted already exists")
			return
		}

		sendResponse(rw, http.StatusInternalServerError, "Failed to update record in database")
		return
	}

	sendResponse(rw, http.StatusOK, "Contact updated")
}

func deleteContactHandler(rw http.ResponseWriter, r *http.Request) {
	phone, err := normalizePhoneNumber(mux.Vars(r)["contactPhone"], countryCode)
	if err != nil {
		sendResponse(rw, http.StatusBadRequest, "Invalid phone number")
		return
	}

	contact, err := models.FindContact(currentSession(r).UserID, phone)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		sendResponse(rw, http.StatusBadRequest, "Non-existent contact")
		return
	}

	if err != nil {
		sendResponse(rw, http.StatusInternalServerError, "Failed to retrieve record from database")
		return
	}

	if err = contact.Delete(); err != nil {
		sendResponse(rw, http.StatusInternalServerError, "Failed to delete record from database")
		return
	}

	sendResponse(rw, http.StatusOK, "Contact deleted")
}

func listContactsHandler(rw http.ResponseWriter, r *http.Request) {
	user := models.User{UUIDBaseModel: models.UUIDBaseModel{ID: currentSession(r).UserID}}

	if err := user.LoadContacts(); err != nil {
		sendResponse(rw, http.StatusInternalServerError, "Failed to retrieve record from database")
		return
	}

	sendData(rw, http.StatusOK, map[string]interface{}{"contacts": user.Contacts})
}

// enqueueSnsTopicRegistration schedules a retry for a contact whose
// registration callout failed, so the row doesn't dangle without a
// topic forever.
func enqueueSnsTopicRegistration(contact *models.TrustedContact) {
	err := workerPool.Perform(work.JobParams{
		Name:    SNS_TOPIC_REGISTRATION_HANDLER + "/" + contact.ID,
		Handler: SNS_TOPIC_REGISTRATION_HANDLER,
		Unique:  true,
		Args:    map[string]interface{}{"contact_id": contact.ID},
	})
	if err != nil {
		logg.Error(err)
	}
}
