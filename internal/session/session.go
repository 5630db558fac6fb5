package session

import (
	"fmt"
	"time"

	"github.com/PhilippTheDeveloper/TelegramLocationMiniApp/internal/real_estate_api"
)

type Mode string

const (
	ModeNone      Mode = ""
	ModeLocation  Mode = "location"
	ModeApartment Mode = "apartment"
)

type Step string

const (
	StepStart      Step = "start"
	StepViertel    Step = "viertel"
	StepLocation   Step = "location"
	StepBudget     Step = "budget"
	StepSpaceRooms Step = "space_rooms"
	StepFloors     Step = "floors"
	StepExtras     Step = "extras"
)

// steps lists the legal steps of each mode in wizard order.
var steps = map[Mode][]Step{
	ModeNone:      {StepStart},
	ModeLocation:  {StepLocation},
	ModeApartment: {StepViertel, StepLocation, StepBudget, StepSpaceRooms, StepFloors, StepExtras},
}

// Session is the dialogue state of one Telegram user.
type Session struct {
	UserID    int64
	Mode      Mode
	Step      Step
	Data      real_estate_api.Criteria
	UpdatedAt time.Time
}

func New(userID int64) *Session {
	s := &Session{UserID: userID}
	s.Reset(ModeNone)
	return s
}

// Reset wipes the accumulated data and moves to the first step of mode.
func (s *Session) Reset(mode Mode) {
	s.Mode = mode
	s.Step = steps[mode][0]
	s.Data = real_estate_api.NewCriteria()
	s.UpdatedAt = time.Now()
}

// Advance moves forward to next within the current mode.
func (s *Session) Advance(next Step) error {
	order := steps[s.Mode]
	cur, to := indexOf(order, s.Step), indexOf(order, next)
	if to < 0 {
		return fmt.Errorf("step %q is not part of mode %q", next, s.Mode)
	}
	if to <= cur {
		return fmt.Errorf("cannot move from %q back to %q", s.Step, next)
	}
	s.Step = next
	s.UpdatedAt = time.Now()
	return nil
}

// Is reports whether the session is in the given mode and step.
func (s *Session) Is(mode Mode, step Step) bool {
	return s.Mode == mode && s.Step == step
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	c := *s
	c.Data = s.Data.Clone()
	return &c
}

func indexOf(order []Step, step Step) int {
	for i, s := range order {
		if s == step {
			return i
		}
	}
	return -1
}
