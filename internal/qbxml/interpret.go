package qbxml

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"github.com/gosuda/qbsync/internal/domain"
)

const (
	statusOK      = "0"
	severityError = "Error"
	msgsRsElement = "QBXMLMsgsRs"
)

// Status is the status triple QuickBooks attaches to every *Rs element.
type Status struct {
	Element   string
	RequestID string
	Code      string
	Severity  string
	Message   string
}

// OK reports whether the status confirms the request.
func (s Status) OK() bool {
	return s.Code == statusOK && !strings.EqualFold(s.Severity, severityError)
}

// Statuses extracts the status of every response element in doc, in
// document order.
func Statuses(doc string) ([]Status, error) {
	dec := xml.NewDecoder(strings.NewReader(doc))
	// Legacy charset declarations are read as UTF-8.
	dec.CharsetReader = func(_ string, r io.Reader) (io.Reader, error) { return r, nil }

	var out []Status
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}

		start, ok := tok.(xml.StartElement)
		if !ok || !isResponseElement(start.Name.Local) {
			continue
		}

		st := Status{Element: start.Name.Local}
		for _, a := range start.Attr {
			switch a.Name.Local {
			case "requestID":
				st.RequestID = a.Value
			case "statusCode":
				st.Code = a.Value
			case "statusSeverity":
				st.Severity = a.Value
			case "statusMessage":
				st.Message = a.Value
			}
		}
		out = append(out, st)
	}
}

func isResponseElement(name string) bool {
	return strings.HasSuffix(name, "Rs") && name != msgsRsElement
}

// Interpret turns a response document into a verdict. Only a well-formed
// document with at least one response element, all carrying status code 0,
// is a success. Everything else, including an empty document, is a failure.
func Interpret(doc string) domain.Verdict {
	if strings.TrimSpace(doc) == "" {
		return domain.Verdict{Message: "empty response document"}
	}

	statuses, err := Statuses(doc)
	if err != nil {
		return domain.Verdict{Message: "unparseable response document: " + err.Error()}
	}
	if len(statuses) == 0 {
		return domain.Verdict{Message: "response document has no status element"}
	}

	for _, st := range statuses {
		if st.Code == "" {
			return domain.Verdict{Message: st.Element + " has no statusCode"}
		}
		if !st.OK() {
			msg := st.Message
			if msg == "" {
				msg = st.Element + " failed"
			}
			return domain.Verdict{StatusCode: st.Code, Message: msg}
		}
	}

	first := statuses[0]
	return domain.Verdict{
		Outcome:    domain.OutcomeSuccess,
		StatusCode: first.Code,
		Message:    first.Message,
	}
}
