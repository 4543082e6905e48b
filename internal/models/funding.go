package models

import "time"

// FundingGoal holds the columns shared by fundraising campaigns and payment requests.
type FundingGoal struct {
	Title       string     `gorm:"type:text;not null"`                             // Display title.
	Description string     `gorm:"type:text"`                                      // Details.
	GoalAmount  float64    `gorm:"type:decimal(20,2);not null"`                    // Total target.
	Amount      float64    `gorm:"type:decimal(20,2);not null"`                    // Per-group share snapshot.
	Status      string     `gorm:"type:varchar(16);not null;default:'open';index"` // open or closed.
	DueDate     *time.Time // Optional due date.
	CreatedBy   uint64     `gorm:"not null"` // Creating admin.
	ClosedAt    *time.Time // Closing time.
}

// FundingSubmission holds the columns shared by contributions and payment reports.
type FundingSubmission struct {
	GroupID     uint64     `gorm:"not null;index"`                                      // Paying group.
	SubmittedBy uint64     `gorm:"not null;index"`                                      // Member who submitted.
	Amount      float64    `gorm:"type:decimal(20,2);not null"`                         // Paid amount.
	Method      string     `gorm:"type:varchar(32);not null"`                           // cash or wire_transfer.
	Reference   string     `gorm:"type:text"`                                           // Wire reference.
	PaidAt      *time.Time // Wire transfer date.
	Note        string     `gorm:"type:text"`                                           // Free-form note.
	Status      string     `gorm:"type:varchar(16);not null;default:'submitted';index"` // submitted, confirmed or rejected.
	ConfirmedBy *uint64    // Admin who confirmed.
	ReviewedAt  *time.Time // Last review time.
}

// FundraisingCampaign collects voluntary contributions toward a goal.
type FundraisingCampaign struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	FundingGoal

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// Contribution is a group's payment toward a campaign.
type Contribution struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	CampaignID uint64 `gorm:"not null;index"` // Parent campaign.

	FundingSubmission

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// PaymentRequest asks every group for a payment.
type PaymentRequest struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	FundingGoal

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// PaymentReport is a group's report of having paid a payment request.
type PaymentReport struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	PaymentRequestID uint64 `gorm:"not null;index"` // Parent payment request.

	FundingSubmission

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

func (c *FundraisingCampaign) Goal() *FundingGoal { return &c.FundingGoal }
func (c *FundraisingCampaign) Key() uint64        { return c.ID }

func (r *PaymentRequest) Goal() *FundingGoal { return &r.FundingGoal }
func (r *PaymentRequest) Key() uint64        { return r.ID }

func (c *Contribution) Submission() *FundingSubmission { return &c.FundingSubmission }
func (c *Contribution) Key() uint64                    { return c.ID }
func (c *Contribution) ParentKey() uint64              { return c.CampaignID }
func (c *Contribution) SetParentKey(id uint64)         { c.CampaignID = id }

func (r *PaymentReport) Submission() *FundingSubmission { return &r.FundingSubmission }
func (r *PaymentReport) Key() uint64                    { return r.ID }
func (r *PaymentReport) ParentKey() uint64              { return r.PaymentRequestID }
func (r *PaymentReport) SetParentKey(id uint64)         { r.PaymentRequestID = id }
