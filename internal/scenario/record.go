// Package scenario defines the single persisted demo record, its editor-side
// input form and the pure projection of a record into the booth view.
package scenario

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/playperu/demovote/internal/locale"
)

// SlotKey names the one storage slot the record lives in.
const SlotKey = "demoVotingData"

const (
	DefaultTotalCandidates   = 19
	DefaultCandidatePosition = 6
	DefaultWebsiteName       = "votingdemo.in"
	DefaultContactNumber     = "+919359781891"

	// MaxCandidates bounds the table size: four ballot units of sixteen.
	MaxCandidates = 64
)

// Record is the persisted scenario. Field names match the stored JSON
// contract; every field is optional on read.
type Record struct {
	ConstituencyName    string `json:"constituencyName" yaml:"constituencyName"`
	VotingDate          string `json:"votingDate,omitempty" yaml:"votingDate,omitempty"`
	VotingDateFormatted string `json:"votingDateFormatted" yaml:"votingDateFormatted"`
	StartTime           string `json:"startTime,omitempty" yaml:"startTime,omitempty"`
	StartTimeFormatted  string `json:"startTimeFormatted" yaml:"startTimeFormatted"`
	EndTime             string `json:"endTime,omitempty" yaml:"endTime,omitempty"`
	EndTimeFormatted    string `json:"endTimeFormatted" yaml:"endTimeFormatted"`
	CandidateName       string `json:"candidateName" yaml:"candidateName"`
	TotalCandidates     int    `json:"totalCandidates" yaml:"totalCandidates"`
	CandidatePosition   int    `json:"candidatePosition" yaml:"candidatePosition"`
	SymbolName          string `json:"symbolName" yaml:"symbolName"`
	CandidatePhoto      string `json:"candidatePhoto" yaml:"candidatePhoto"`
	CandidateSymbol     string `json:"candidateSymbol" yaml:"candidateSymbol"`
	WebsiteName         string `json:"websiteName" yaml:"websiteName"`
	ContactNumber       string `json:"contactNumber" yaml:"contactNumber"`
	CreatedAt           string `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
}

var (
	defaultDate      = "५ फेब्रुवारी २०२६"
	defaultStartTime = "स. ७.३०"
	defaultEndTime   = "सायं. ५.३०"
)

// Default returns the built-in demo shown when nothing usable is stored.
// It is never written to the store.
func Default() Record {
	return Record{
		ConstituencyName:    "५७ बोरामणी जिल्हा परिषद गट",
		CandidateName:       "अनिता योगेश माळगे",
		SymbolName:          "रिक्षा",
		TotalCandidates:     DefaultTotalCandidates,
		CandidatePosition:   DefaultCandidatePosition,
		VotingDateFormatted: defaultDate,
		StartTimeFormatted:  defaultStartTime,
		EndTimeFormatted:    defaultEndTime,
		WebsiteName:         DefaultWebsiteName,
		ContactNumber:       DefaultContactNumber,
	}
}

// WithDefaults fills every missing optional field. Display strings are
// derived from the raw values when those parse, otherwise the defaults are
// used. Images are never substituted.
func (r Record) WithDefaults() Record {
	def := Default()
	if r.ConstituencyName == "" {
		r.ConstituencyName = def.ConstituencyName
	}
	if r.CandidateName == "" {
		r.CandidateName = def.CandidateName
	}
	if r.SymbolName == "" {
		r.SymbolName = def.SymbolName
	}
	if r.TotalCandidates == 0 {
		r.TotalCandidates = def.TotalCandidates
	}
	if r.CandidatePosition == 0 {
		r.CandidatePosition = def.CandidatePosition
	}
	if r.WebsiteName == "" {
		r.WebsiteName = def.WebsiteName
	}
	if r.ContactNumber == "" {
		r.ContactNumber = def.ContactNumber
	}
	r.VotingDateFormatted = derived(r.VotingDateFormatted, r.VotingDate, locale.FormatDateString, def.VotingDateFormatted)
	r.StartTimeFormatted = derived(r.StartTimeFormatted, r.StartTime, locale.FormatTime, def.StartTimeFormatted)
	r.EndTimeFormatted = derived(r.EndTimeFormatted, r.EndTime, locale.FormatTime, def.EndTimeFormatted)
	return r
}

func derived(current, raw string, format func(string) (string, error), fallback string) string {
	if current != "" {
		return current
	}
	if s, err := format(raw); err == nil && s != "" {
		return s
	}
	return fallback
}

// StoreParseError reports a stored value that is present but unusable.
type StoreParseError struct {
	Err error
}

func (e *StoreParseError) Error() string {
	return fmt.Sprintf("parsing stored scenario: %v", e.Err)
}

func (e *StoreParseError) Unwrap() error { return e.Err }

// Decode parses a stored record and fills missing fields with defaults.
// Anything that is not a JSON object yields a *StoreParseError.
func Decode(raw []byte) (Record, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Record{}, &StoreParseError{Err: fmt.Errorf("not a JSON object")}
	}
	var r Record
	if err := json.Unmarshal(trimmed, &r); err != nil {
		return Record{}, &StoreParseError{Err: err}
	}
	return r.WithDefaults(), nil
}

// Encode serializes r for the store.
func Encode(r Record) ([]byte, error) {
	return json.Marshal(r)
}

// LoadOrDefault turns the result of a store read into the record to render.
// A missing value (any error from the read) or an unparsable one falls back
// to Default; the parse failure, if any, is returned for diagnostics only.
func LoadOrDefault(raw []byte, readErr error) (rec Record, isDefault bool, parseErr error) {
	if readErr != nil || raw == nil {
		return Default(), true, nil
	}
	rec, err := Decode(raw)
	if err != nil {
		return Default(), true, err
	}
	return rec, false, nil
}
