package models

const CollectionTestRequests = "testRequests"

// TestRequest is a booking submitted through the "Book a Test" form.
// Timestamps are nanoseconds since the Unix epoch.
type TestRequest struct {
	BaseUUIDModel
	CustomerName  string           `gorm:"type:varchar(200);not null" json:"customerName"`
	Company       Optional[string] `gorm:"type:varchar(200)"          json:"company"`
	Phone         string           `gorm:"type:varchar(40);not null"  json:"phone"`
	Email         Optional[string] `gorm:"type:varchar(200)"          json:"email"`
	TestItemType  string           `gorm:"type:varchar(100);not null" json:"testItemType"`
	Standards     Optional[string] `gorm:"type:text"                  json:"standards"`
	Message       Optional[string] `gorm:"type:text"                  json:"message"`
	PreferredDate Optional[int64]  `gorm:"type:integer"               json:"preferredDate"`
	SubmittedAt   int64            `gorm:"not null;index"             json:"submittedAt"`
}

func (TestRequest) TableName() string {
	return "test_requests"
}

type SubmitTestRequestRequest struct {
	CustomerName  string           `json:"customerName"  validate:"required,max=200"`
	Company       Optional[string] `json:"company"`
	Phone         string           `json:"phone"         validate:"required,max=40"`
	Email         Optional[string] `json:"email"`
	TestItemType  string           `json:"testItemType"  validate:"required,max=100"`
	Standards     Optional[string] `json:"standards"`
	Message       Optional[string] `json:"message"`
	PreferredDate Optional[int64]  `json:"preferredDate"`
}

type TestItemType struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// TestItemTypes is the booking form's catalogue. Submissions may still carry
// free text.
var TestItemTypes = []TestItemType{
	{Value: "cable", Label: "Electric Cable"},
	{Value: "wire", Label: "Wire"},
	{Value: "conductor", Label: "Conductor"},
	{Value: "other", Label: "Other"},
}

func TestItemTypeLabel(value string) string {
	for _, itemType := range TestItemTypes {
		if itemType.Value == value {
			return itemType.Label
		}
	}
	return value
}
