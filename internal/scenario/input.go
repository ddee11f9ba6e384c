package scenario

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/playperu/demovote/internal/locale"
)

// Input is what the editor collects before a save.
type Input struct {
	ConstituencyName  string `json:"constituencyName" yaml:"constituencyName"`
	VotingDate        string `json:"votingDate" yaml:"votingDate"`
	StartTime         string `json:"startTime" yaml:"startTime"`
	EndTime           string `json:"endTime" yaml:"endTime"`
	CandidateName     string `json:"candidateName" yaml:"candidateName"`
	TotalCandidates   int    `json:"totalCandidates" yaml:"totalCandidates"`
	CandidatePosition int    `json:"candidatePosition" yaml:"candidatePosition"`
	SymbolName        string `json:"symbolName" yaml:"symbolName"`
	CandidatePhoto    string `json:"candidatePhoto" yaml:"candidatePhoto"`
	CandidateSymbol   string `json:"candidateSymbol" yaml:"candidateSymbol"`
	WebsiteName       string `json:"websiteName" yaml:"websiteName"`
	ContactNumber     string `json:"contactNumber" yaml:"contactNumber"`
}

// Rule identifies which save-gating check failed.
type Rule string

const (
	RulePhoto       Rule = "photo"
	RuleSymbol      Rule = "symbol"
	RulePosition    Rule = "position"
	RuleTotal       Rule = "total"
	RulePositionMin Rule = "positionMin"
	RuleRequired    Rule = "required"
	RuleDate        Rule = "date"
	RuleTime        Rule = "time"
)

var ruleMessages = map[Rule]string{
	RulePhoto:       "कृपया उमेदवाराचा फोटो अपलोड करा!",
	RuleSymbol:      "कृपया निवडणूक चिन्ह अपलोड करा!",
	RulePosition:    "उमेदवाराचा क्रमांक एकूण उमेदवारांपेक्षा जास्त असू शकत नाही!",
	RuleTotal:       "एकूण उमेदवारांची संख्या १ ते ६४ दरम्यान असावी!",
	RulePositionMin: "उमेदवाराचा क्रमांक किमान १ असावा!",
	RuleRequired:    "कृपया सर्व आवश्यक माहिती भरा!",
	RuleDate:        "कृपया मतदान दिनांक योग्य स्वरूपात भरा!",
	RuleTime:        "कृपया मतदानाची वेळ योग्य स्वरूपात भरा!",
}

// ValidationError carries the first failed rule and its user-facing message.
type ValidationError struct {
	Rule    Rule
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed: %s (%s)", e.Rule, e.Field)
	}
	return fmt.Sprintf("validation failed: %s", e.Rule)
}

func invalid(rule Rule, field string) *ValidationError {
	return &ValidationError{Rule: rule, Field: field, Message: ruleMessages[rule]}
}

// IsValidation reports whether err is a *ValidationError and returns it.
func IsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	ok := errors.As(err, &ve)
	return ve, ok
}

// Normalize trims and NFC-normalizes every text field.
func (in Input) Normalize() Input {
	clean := func(s string) string { return norm.NFC.String(strings.TrimSpace(s)) }
	in.ConstituencyName = clean(in.ConstituencyName)
	in.VotingDate = strings.TrimSpace(in.VotingDate)
	in.StartTime = strings.TrimSpace(in.StartTime)
	in.EndTime = strings.TrimSpace(in.EndTime)
	in.CandidateName = clean(in.CandidateName)
	in.SymbolName = clean(in.SymbolName)
	in.CandidatePhoto = strings.TrimSpace(in.CandidatePhoto)
	in.CandidateSymbol = strings.TrimSpace(in.CandidateSymbol)
	in.WebsiteName = clean(in.WebsiteName)
	in.ContactNumber = clean(in.ContactNumber)
	return in
}

// Validate gates a save. The photo, symbol and position-vs-total checks run
// first and in that order; the first failure wins.
func Validate(in Input) error {
	in = in.Normalize()

	if in.CandidatePhoto == "" {
		return invalid(RulePhoto, "candidatePhoto")
	}
	if in.CandidateSymbol == "" {
		return invalid(RuleSymbol, "candidateSymbol")
	}
	if in.CandidatePosition > in.TotalCandidates {
		return invalid(RulePosition, "candidatePosition")
	}
	if in.TotalCandidates < 1 || in.TotalCandidates > MaxCandidates {
		return invalid(RuleTotal, "totalCandidates")
	}
	if in.CandidatePosition < 1 {
		return invalid(RulePositionMin, "candidatePosition")
	}

	for _, f := range []struct{ name, value string }{
		{"constituencyName", in.ConstituencyName},
		{"votingDate", in.VotingDate},
		{"candidateName", in.CandidateName},
		{"symbolName", in.SymbolName},
	} {
		if f.value == "" {
			return invalid(RuleRequired, f.name)
		}
	}

	if _, err := locale.FormatDateString(in.VotingDate); err != nil {
		return invalid(RuleDate, "votingDate")
	}
	if _, err := locale.FormatTime(in.StartTime); err != nil {
		return invalid(RuleTime, "startTime")
	}
	if _, err := locale.FormatTime(in.EndTime); err != nil {
		return invalid(RuleTime, "endTime")
	}
	return nil
}

// Build validates in and turns it into the record to persist, deriving the
// display strings and stamping CreatedAt with now.
func Build(in Input, now time.Time) (Record, error) {
	if err := Validate(in); err != nil {
		return Record{}, err
	}
	in = in.Normalize()

	// Validate already proved these parse.
	date, _ := locale.FormatDateString(in.VotingDate)
	start, _ := locale.FormatTime(in.StartTime)
	end, _ := locale.FormatTime(in.EndTime)

	rec := Record{
		ConstituencyName:    in.ConstituencyName,
		VotingDate:          in.VotingDate,
		VotingDateFormatted: date,
		StartTime:           in.StartTime,
		StartTimeFormatted:  start,
		EndTime:             in.EndTime,
		EndTimeFormatted:    end,
		CandidateName:       in.CandidateName,
		TotalCandidates:     in.TotalCandidates,
		CandidatePosition:   in.CandidatePosition,
		SymbolName:          in.SymbolName,
		CandidatePhoto:      in.CandidatePhoto,
		CandidateSymbol:     in.CandidateSymbol,
		WebsiteName:         in.WebsiteName,
		ContactNumber:       in.ContactNumber,
		CreatedAt:           now.UTC().Format(time.RFC3339Nano),
	}
	if rec.WebsiteName == "" {
		rec.WebsiteName = DefaultWebsiteName
	}
	return rec, nil
}

// Input returns the editor form values for r, used to pre-fill the editor.
func (r Record) Input() Input {
	in := Input{
		ConstituencyName:  r.ConstituencyName,
		VotingDate:        r.VotingDate,
		StartTime:         r.StartTime,
		EndTime:           r.EndTime,
		CandidateName:     r.CandidateName,
		TotalCandidates:   r.TotalCandidates,
		CandidatePosition: r.CandidatePosition,
		SymbolName:        r.SymbolName,
		CandidatePhoto:    r.CandidatePhoto,
		CandidateSymbol:   r.CandidateSymbol,
		WebsiteName:       r.WebsiteName,
		ContactNumber:     r.ContactNumber,
	}
	if in.TotalCandidates == 0 {
		in.TotalCandidates = DefaultTotalCandidates
	}
	if in.CandidatePosition == 0 {
		in.CandidatePosition = DefaultCandidatePosition
	}
	if in.WebsiteName == "" {
		in.WebsiteName = DefaultWebsiteName
	}
	return in
}
