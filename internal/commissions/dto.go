package commissions

import "github.com/shopspring/decimal"

type CreateCommissionRequest struct {
	ProposalID int64   `json:"proposal_id" validate:"required,gt=0"`
	Commercial string  `json:"commercial" validate:"required,max=100"`
	Notes      *string `json:"notes,omitempty"`
}

type UpdateCommissionRequest struct {
	Commercial *string `json:"commercial,omitempty" validate:"omitempty,min=1,max=100"`
	Notes      *string `json:"notes,omitempty"`
}

type RegisterPaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	PaidAt string          `json:"paid_at" validate:"omitempty,datetime=2006-01-02"`
	Notes  *string         `json:"notes,omitempty"`
}

type ListCommissionsRequest struct {
	Status     *Status `json:"status,omitempty"`
	Commercial *string `json:"commercial,omitempty"`
	Limit      int     `json:"limit" validate:"gte=0,lte=1000"`
	Offset     int     `json:"offset" validate:"gte=0"`
}
