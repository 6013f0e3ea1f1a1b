package domain

import "time"

// RepairStatus enumerates lifecycle states for repairs. The values are the
// shop's Hebrew labels and are stored and transported as-is; code treats them
// as opaque enum members.
type RepairStatus string

const (
	StatusCreated        RepairStatus = "נוצר"
	StatusSentToWorkshop RepairStatus = "נשלח לסדנה"
	StatusReceived       RepairStatus = "התקבל"
	StatusInRepair       RepairStatus = "בתהליך תיקון"
	StatusNeedsParts     RepairStatus = "דורש חלקים"
	StatusTechnicalIssue RepairStatus = "בעיה טכנית"
	StatusFixed          RepairStatus = "תוקן - מוכן לשילוח"
	StatusReadyForPickup RepairStatus = "ממתין לאיסוף"
	StatusCompleted      RepairStatus = "הושלם"
	StatusCancelled      RepairStatus = "בוטל"
)

// AllStatuses lists every valid status value.
var AllStatuses = []RepairStatus{
	StatusCreated,
	StatusSentToWorkshop,
	StatusReceived,
	StatusInRepair,
	StatusNeedsParts,
	StatusTechnicalIssue,
	StatusFixed,
	StatusReadyForPickup,
	StatusCompleted,
	StatusCancelled,
}

// IsValid reports whether s is a member of the status enum.
func (s RepairStatus) IsValid() bool {
	for _, candidate := range AllStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions exist from s.
func (s RepairStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Repair is the aggregate for a single tracked repair ticket.
type Repair struct {
	ID                 string
	ExternalKey        string
	ShopID             string
	CustomerID         string
	CustomerName       string
	CustomerPhone      string
	ProductType        string
	ProductBrand       string
	ProductModel       string
	SerialNumber       string
	Description        string
	AssignedTechnician *string
	Status             RepairStatus
	EstimatedCost      *float64
	FinalCost          *float64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// StatusStep maps each status to the canonical timeline step label recorded
// when a repair enters that status. Enum-keyed on purpose: the original system
// bound steps by fuzzy label prefix, which can mis-bind when labels share a
// prefix.
var StatusStep = map[RepairStatus]string{
	StatusCreated:        "התיקון נוצר",
	StatusSentToWorkshop: "נשלח לסדנה",
	StatusReceived:       "התקבל בסדנה",
	StatusInRepair:       "בתהליך תיקון",
	StatusNeedsParts:     "ממתין לחלקים",
	StatusTechnicalIssue: "בעיה טכנית",
	StatusFixed:          "תוקן - מוכן לשילוח",
	StatusReadyForPickup: "מוכן לאיסוף בחנות",
	StatusCompleted:      "נאסף על ידי לקוח",
	StatusCancelled:      "התיקון בוטל",
}

// NotificationChannel identifies a delivery mechanism.
type NotificationChannel string

const (
	ChannelSMS   NotificationChannel = "SMS"
	ChannelEmail NotificationChannel = "EMAIL"
)

// NotificationAudience identifies the recipient class.
type NotificationAudience string

const (
	AudienceCustomer   NotificationAudience = "CUSTOMER"
	AudienceTechnician NotificationAudience = "TECHNICIAN"
	AudienceManager    NotificationAudience = "MANAGER"
)

// NotificationIntent describes one notification that should be sent as a
// result of a status change. The core only computes intents; delivery belongs
// to external senders.
type NotificationIntent struct {
	Channel  NotificationChannel
	Audience NotificationAudience
	Template string
}

// StatusNotifications maps each status to the notifications it triggers.
var StatusNotifications = map[RepairStatus][]NotificationIntent{
	StatusCreated: {
		{Channel: ChannelSMS, Audience: AudienceCustomer, Template: "repair_created"},
	},
	StatusSentToWorkshop: {
		{Channel: ChannelEmail, Audience: AudienceTechnician, Template: "repair_incoming"},
	},
	StatusReceived: {
		{Channel: ChannelSMS, Audience: AudienceCustomer, Template: "repair_received"},
	},
	StatusNeedsParts: {
		{Channel: ChannelEmail, Audience: AudienceManager, Template: "parts_required"},
	},
	StatusTechnicalIssue: {
		{Channel: ChannelEmail, Audience: AudienceManager, Template: "technical_issue"},
		{Channel: ChannelSMS, Audience: AudienceCustomer, Template: "repair_delayed"},
	},
	StatusReadyForPickup: {
		{Channel: ChannelSMS, Audience: AudienceCustomer, Template: "ready_for_pickup"},
	},
	StatusCompleted: {
		{Channel: ChannelEmail, Audience: AudienceCustomer, Template: "pickup_receipt"},
	},
	StatusCancelled: {
		{Channel: ChannelSMS, Audience: AudienceCustomer, Template: "repair_cancelled"},
	},
}
