package scenario

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/playperu/demovote/internal/locale"
)

// ShareBaseURL is the share target; the message goes in its text parameter.
const ShareBaseURL = "https://wa.me/?text="

// View is everything the booth page shows, derived from one record.
type View struct {
	ConstituencyName string `json:"constituencyName"`
	InstructionText  string `json:"instructionText"`
	SymbolName       string `json:"symbolName"`
	CandidateName    string `json:"candidateName"`
	InfoLine         string `json:"infoLine"`
	Rows             []Row  `json:"rows"`
	Modal            Modal  `json:"modal"`
	Footer           Footer `json:"footer"`
	Share            Share  `json:"share"`
}

// Row is one line of the candidate table. Only the target row carries a
// name, photo and symbol; the others are blank placeholders.
type Row struct {
	Index      int    `json:"index"`
	Label      string `json:"label"`
	Target     bool   `json:"target"`
	Name       string `json:"name,omitempty"`
	Photo      string `json:"photo,omitempty"`
	Symbol     string `json:"symbol,omitempty"`
	SymbolAlt  string `json:"symbolAlt,omitempty"`
	ButtonText string `json:"buttonText,omitempty"`
}

type Modal struct {
	Constituency string `json:"constituency"`
	SymbolName   string `json:"symbolName"`
	Rank         string `json:"rank"`
	Photo        string `json:"photo,omitempty"`
	Symbol       string `json:"symbol,omitempty"`
}

type Footer struct {
	Website   string `json:"website"`
	Phone     string `json:"phone"`
	PhoneHref string `json:"phoneHref"`
}

type Share struct {
	Message string `json:"message"`
	URL     string `json:"url"`
}

// Control is a row's button as captured when the table was generated.
type Control struct {
	Row    int
	Target bool
}

const pressLabel = "बटण दाबा"

// Project derives the booth view from r. It is pure: the same record and
// page URL always yield an equal View.
func Project(r Record, pageURL string) View {
	r = r.WithDefaults()

	total := r.TotalCandidates
	if total < 0 {
		total = 0
	}
	if total > MaxCandidates {
		total = MaxCandidates
	}

	rows := make([]Row, 0, total)
	for i := 1; i <= total; i++ {
		row := Row{Index: i, Label: locale.Itoa(i)}
		if i == r.CandidatePosition {
			row.Target = true
			row.Name = r.CandidateName
			row.Photo = r.CandidatePhoto
			row.Symbol = r.CandidateSymbol
			row.SymbolAlt = r.SymbolName
			row.ButtonText = pressLabel
		}
		rows = append(rows, row)
	}

	return View{
		ConstituencyName: r.ConstituencyName,
		InstructionText:  fmt.Sprintf("डेमो मतदानासाठी %s निशाणी समोरील निळे बटण दाबावे", r.SymbolName),
		SymbolName:       r.SymbolName,
		CandidateName:    r.CandidateName,
		InfoLine: fmt.Sprintf("मतदान दिनांक : %s %s ते %s वाजेपर्यंत",
			r.VotingDateFormatted, r.StartTimeFormatted, r.EndTimeFormatted),
		Rows: rows,
		Modal: Modal{
			Constituency: r.ConstituencyName,
			SymbolName:   r.SymbolName,
			Rank:         locale.Itoa(r.CandidatePosition),
			Photo:        r.CandidatePhoto,
			Symbol:       r.CandidateSymbol,
		},
		Footer: Footer{
			Website:   r.WebsiteName,
			Phone:     r.ContactNumber,
			PhoneHref: "tel:" + r.ContactNumber,
		},
		Share: NewShare(r, pageURL),
	}
}

// Controls lists the row buttons in table order.
func (v View) Controls() []Control {
	out := make([]Control, len(v.Rows))
	for i, row := range v.Rows {
		out[i] = Control{Row: row.Index, Target: row.Target}
	}
	return out
}

// NewShare builds the share message and the outbound share link.
func NewShare(r Record, pageURL string) Share {
	msg := fmt.Sprintf("🗳️ *%s*\n\n"+
		"मतदानाच्या दिवशी *\"%s\"* या चिन्हासमोरील बटण दाबून "+
		"*%s* यांना प्रचंड मतांनी विजयी करा!\n\n"+
		"डेमो मतदान करण्यासाठी खालील लिंकवर क्लिक करा:\n"+
		"%s", r.ConstituencyName, r.SymbolName, r.CandidateName, pageURL)
	return Share{
		Message: msg,
		URL:     ShareBaseURL + encodeComponent(msg),
	}
}

// encodeComponent percent-encodes s for use inside a query value, spaces
// included as %20.
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
