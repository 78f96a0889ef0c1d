package model

// GDPR legal bases understood by the CRM.
const (
	GDPRReasonConsent            = 1
	GDPRReasonLegitimateInterest = 2
)

// Contact is a CRM person record.
type Contact struct {
	Email              string
	FirstName          string
	LastName           string
	PhoneNumber        string
	CellNumber         string
	Organization       string
	GDPRAcceptanceDate string // YYYY-MM-DD
	Shipping           *Address
	ID                 int
	GDPRReason         int
}

// Deal statuses.
const (
	DealStatusOpen      = "open"
	DealStatusPostponed = "postponed"
	DealStatusWon       = "won"
	DealStatusClosed    = "closed"
)

// Deal is a CRM business case; here one deal represents one fundraising project.
type Deal struct {
	Amount        *float64
	Title         string
	Body          string
	Status        string
	Deadline      string // YYYY-MM-DD
	CompletedDate string // YYYY-MM-DD
	ID            int
	ContactID     int
	OwnerID       int
}

// Activity is a CRM timeline entry.
type Activity struct {
	Title        string
	Body         string
	Type         string
	CustomFields []CustomFieldValue
	ID           int
	ContactID    int
	DealID       int
	Timestamp    int64
}

// List is a named membership collection of contacts.
type List struct {
	Title string
	ID    int
}

// CustomFieldValue is one typed attribute attached to an activity. Values are
// always sent to the CRM as strings.
type CustomFieldValue struct {
	Value string
	ID    int
}
