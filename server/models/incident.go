package models

type Incident struct {
	UUIDBaseModel
	UserID      string          `json:"user_id" gorm:"not null;size:36"`
	Description string          `json:"description"`
	Latitude    float64         `json:"latitude"`
	Longitude   float64         `json:"longitude"`
	Closed      bool            `json:"closed" gorm:"default:false"`
	Photos      []IncidentPhoto `json:"photos,omitempty" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// IncidentPhoto stores a reference to a photo uploaded for an incident.
// 'File' is the object name in the storage bucket, not the raw bytes.
type IncidentPhoto struct {
	UUIDBaseModel
	IncidentID   string `json:"incident_id" gorm:"not null;size:36"`
	File         string `json:"file" gorm:"not null"`
	LicensePlate string `json:"license_plate,omitempty"`
}

func CreateIncident(incident *Incident) error {
	return db.Create(incident).Error
}

// FindIncident looks up an incident scoped to its reporting user.
func FindIncident(userID string, id string) (*Incident, error) {
	incident := Incident{}
	err := db.First(&incident, "id = ? AND user_id = ?", id, userID).Error
	if err != nil {
		return nil, err
	}

	return &incident, nil
}

func (incident *Incident) AddPhoto(photo *IncidentPhoto) error {
	photo.IncidentID = incident.ID
	return db.Create(photo).Error
}

func (incident *Incident) LoadPhotos() error {
	return db.Find(&incident.Photos, "incident_id = ?", incident.ID).Error
}
