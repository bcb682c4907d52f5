package drafts

import (
	"errors"
	"strings"
	"time"

	"carrental/internal/app/dto"
	"carrental/internal/app/middleware"
	domainauth "carrental/internal/domain/auth"
	"carrental/internal/domain/shared/money"
)

const (
	openDraftKey   = "drafts.open"
	setDatesKey    = "drafts.set_dates"
	submitDraftKey = "drafts.submit"
	getDraftKey    = "drafts.get"
)

var (
	ErrVehicleRequired = errors.New("drafts: vehicle id is required")
	ErrInvalidRate     = errors.New("drafts: daily rate must be zero or positive")
)

type OpenCommand struct {
	Session        domainauth.Session
	VehicleID      string
	ModelID        string
	DailyRate      money.Money
	PickupBranchID string
	ReturnBranchID string
	PaymentMethod  string
	Notes          string
}

func (c OpenCommand) Key() string                        { return openDraftKey }
func (c OpenCommand) CurrentSession() domainauth.Session { return c.Session }

func (c OpenCommand) Validate() error {
	if strings.TrimSpace(c.VehicleID) == "" {
		return ErrVehicleRequired
	}
	if c.DailyRate.Amount < 0 || c.DailyRate.Currency == "" {
		return ErrInvalidRate
	}
	return nil
}

// SetDatesCommand replaces both dates of a draft. Zero times clear a date.
type SetDatesCommand struct {
	Session    domainauth.Session
	DraftID    string
	PickupDate time.Time
	ReturnDate time.Time
}

func (c SetDatesCommand) Key() string                        { return setDatesKey }
func (c SetDatesCommand) CurrentSession() domainauth.Session { return c.Session }

type SubmitCommand struct {
	Session         domainauth.Session
	DraftID         string
	IdempotencyKeyV string
}

func (c SubmitCommand) Key() string                        { return submitDraftKey }
func (c SubmitCommand) CurrentSession() domainauth.Session { return c.Session }
func (c SubmitCommand) IdempotencyKey() string             { return c.IdempotencyKeyV }
func (c SubmitCommand) ResultPrototype() any               { return &dto.DraftView{} }

type GetQuery struct {
	Session domainauth.Session
	DraftID string
}

func (q GetQuery) Key() string                        { return getDraftKey }
func (q GetQuery) CurrentSession() domainauth.Session { return q.Session }

var (
	_ middleware.SelfValidating    = OpenCommand{}
	_ middleware.SessionScoped     = SetDatesCommand{}
	_ middleware.IdempotentCommand = SubmitCommand{}
	_ middleware.SessionScoped     = GetQuery{}
)
