package server

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/panic-app/panic-server/server/models"
	"github.com/panic-app/panic-server/server/work"
	"github.com/panic-app/panic-server/shared"
	"gorm.io/gorm"
)

const (
	SNS_TOPIC_REGISTRATION_HANDLER = "sns_topic_registration"
	INCIDENT_ALERTS_HANDLER        = "incident_alerts"
	RECONCILE_SNS_TOPICS_HANDLER   = "reconcile_sns_topics"
	DB_BACKUP_HANDLER              = "db_backup"

	RECONCILE_SNS_TOPICS_SCHEDULE = "*/10 * * * *"
)

func registerJobHandlers(wpa *work.WorkerPoolAdapter) {
	wpa.Register(SNS_TOPIC_REGISTRATION_HANDLER, snsTopicRegistrationJob)
	wpa.Register(INCIDENT_ALERTS_HANDLER, incidentAlertsJob)
	wpa.Register(RECONCILE_SNS_TOPICS_HANDLER, reconcileSnsTopicsJob)
	wpa.Register(DB_BACKUP_HANDLER, dbBackupJob)
}

func enqueuePeriodicJobs(wpa *work.WorkerPoolAdapter, config *shared.ServerConfig) {
	wpa.PeriodicallyPerform(RECONCILE_SNS_TOPICS_SCHEDULE, work.JobParams{
		Name:    RECONCILE_SNS_TOPICS_HANDLER,
		Handler: RECONCILE_SNS_TOPICS_HANDLER,
		Unique:  true,
		Args:    map[string]interface{}{},
	})

	if config.Google.Storage.EnableDbBackup == true {
		wpa.PeriodicallyPerform(config.Google.Storage.DbBackupSchedule, work.JobParams{
			Name:    DB_BACKUP_HANDLER,
			Handler: DB_BACKUP_HANDLER,
			Unique:  true,
			Args:    map[string]interface{}{},
		})
	}
}

// snsTopicRegistrationJob retries the registration callout for a
// contact persisted without a topic.
func snsTopicRegistrationJob(args map[string]interface{}) error {
	contactID, _ := args["contact_id"].(string)

	contact, err := models.FindContactByID(contactID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Contact was deleted in the meantime, nothing left to reconcile
		return nil
	}

	if err != nil {
		return err
	}

	if contact.SnsTopic != "" {
		return nil
	}

	topic, err := snsClient.RegisterContact(context.Background(), contact.ExternalID, contact.Name, contact.Phone)
	if err != nil {
		return err
	}

	return contact.SetSnsTopic(topic)
}

// incidentAlertsJob texts every trusted contact of the reporting user.
func incidentAlertsJob(args map[string]interface{}) error {
	if messenger == nil {
		logg.Warn("no messaging client configured, skipping incident alerts")
		return nil
	}

	userID, _ := args["user_id"].(string)
	incidentID, _ := args["incident_id"].(string)

	user, err := models.FindUserBy("id", userID)
	if err != nil {
		return err
	}

	incident, err := models.FindIncident(userID, incidentID)
	if err != nil {
		return err
	}

	if err = user.LoadContacts(); err != nil {
		return err
	}

	msg := fmt.Sprintf(
		"%v %v reported an emergency near (%v, %v). Please reach out to make sure they're okay.",
		user.FirstName, user.LastName, incident.Latitude, incident.Longitude)

	var failed []string
	for _, contact := range user.Contacts {
		if err := messenger.SendMessage(contact.Phone, msg); err != nil {
			logg.Errorf("failed to alert %v: %v", contact.Phone, err)
			failed = append(failed, contact.Phone)
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("incidentAlertsJob: failed to alert %v", strings.Join(failed, ", "))
	}

	return nil
}

// reconcileSnsTopicsJob sweeps for contacts still missing a topic &
// re-enqueues their registration.
func reconcileSnsTopicsJob(map[string]interface{}) error {
	contacts, err := models.ContactsMissingSnsTopic()
	if err != nil {
		return err
	}

	for i := range contacts {
		enqueueSnsTopicRegistration(&contacts[i])
	}

	return nil
}

func dbBackupJob(map[string]interface{}) error {
	if storage == nil {
		return nil
	}

	dbFilePath, err := models.DbFilePath(dbRootDir)
	if err != nil {
		return err
	}

	return storage.UploadFile(storageConfig.Bucket, storageConfig.Prefix, dbFilePath)
}
