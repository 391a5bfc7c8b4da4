package models

const CollectionContactSubmissions = "contactSubmissions"

type ContactSubmission struct {
	BaseUUIDModel
	Name        string           `gorm:"type:varchar(200);not null" json:"name"`
	Phone       string           `gorm:"type:varchar(40);not null"  json:"phone"`
	Email       Optional[string] `gorm:"type:varchar(200)"          json:"email"`
	Message     string           `gorm:"type:text;not null"         json:"message"`
	SubmittedAt int64            `gorm:"not null;index"             json:"submittedAt"`
}

func (ContactSubmission) TableName() string {
	return "contact_submissions"
}

type SubmitContactFormRequest struct {
	Name    string           `json:"name"    validate:"required,max=200"`
	Phone   string           `json:"phone"   validate:"required,max=40"`
	Email   Optional[string] `json:"email"`
	Message string           `json:"message" validate:"required,max=5000"`
}
