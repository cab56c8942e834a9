// Package soap reads and writes the SOAP 1.1 envelopes the QuickBooks Web
// Connector exchanges with this server.
package soap

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"strconv"
)

// Namespaces used on the wire.
const (
	EnvelopeNS = "http://schemas.xmlsoap.org/soap/envelope/"
	IntuitNS   = "http://developer.intuit.com/"
)

// ContentType is the media type of every envelope this package writes.
const ContentType = "text/xml; charset=utf-8"

// Method names, verbatim from the Web Connector WSDL.
const (
	MethodServerVersion      = "serverVersion"
	MethodClientVersion      = "clientVersion"
	MethodAuthenticate       = "authenticate"
	MethodSendRequestXML     = "sendRequestXML"
	MethodReceiveResponseXML = "receiveResponseXML"
	MethodConnectionError    = "connectionError"
	MethodCloseConnection    = "closeConnection"
)

// Parameter names, verbatim from the Web Connector WSDL.
const (
	ParamVersion  = "strVersion"
	ParamUserName = "strUserName"
	ParamPassword = "strPassword"
	ParamTicket   = "ticket"
	ParamResponse = "response"
	ParamMessage  = "message"
	ParamHResult  = "hresult"
)

var (
	// ErrMalformedEnvelope is returned when the request body is not a SOAP
	// envelope with a Body element.
	ErrMalformedEnvelope = errors.New("soap: malformed envelope") //nolint:gochecknoglobals // sentinel error
	// ErrEmptyBody is returned when the SOAP Body names no method.
	ErrEmptyBody = errors.New("soap: empty body") //nolint:gochecknoglobals // sentinel error
)

// Call is one inbound method invocation.
type Call struct {
	Method string
	Params map[string]string
}

// Param returns the named parameter, or "" if it was not sent.
func (c Call) Param(name string) string {
	return c.Params[name]
}

type envelope struct {
	XMLName xml.Name
	Body    *body `xml:"http://schemas.xmlsoap.org/soap/envelope/ Body"`
}

type body struct {
	Methods []element `xml:",any"`
}

type element struct {
	XMLName  xml.Name
	Text     string    `xml:",chardata"`
	Children []element `xml:",any"`
}

// Parse extracts the method name and a flat parameter map from a request
// envelope. Namespace prefixes are ignored; only local names are kept.
func Parse(raw []byte) (Call, error) {
	var env envelope
	if err := xml.Unmarshal(raw, &env); err != nil {
		return Call{}, fmt.Errorf("soap.Parse: %w: %w", ErrMalformedEnvelope, err)
	}
	if env.XMLName.Local != "Envelope" || env.XMLName.Space != EnvelopeNS {
		return Call{}, fmt.Errorf("soap.Parse: %w: root element is %q", ErrMalformedEnvelope, env.XMLName.Local)
	}
	if env.Body == nil {
		return Call{}, fmt.Errorf("soap.Parse: %w: no Body element", ErrMalformedEnvelope)
	}
	if len(env.Body.Methods) == 0 {
		return Call{}, fmt.Errorf("soap.Parse: %w", ErrEmptyBody)
	}

	method := env.Body.Methods[0]
	call := Call{
		Method: method.XMLName.Local,
		Params: make(map[string]string, len(method.Children)),
	}
	for _, p := range method.Children {
		call.Params[p.XMLName.Local] = p.Text
	}
	return call, nil
}

// Field is one typed value inside a method result.
type Field struct {
	Type  string // "string" or "int"
	Value string
}

// Result is the ordered list of values a method returns.
type Result struct {
	Fields []Field
}

// Strings builds a result of string values, in order.
func Strings(values ...string) Result {
	fields := make([]Field, 0, len(values))
	for _, v := range values {
		fields = append(fields, Field{Type: "string", Value: v})
	}
	return Result{Fields: fields}
}

// Int builds a single-integer result.
func Int(n int) Result {
	return Result{Fields: []Field{{Type: "int", Value: strconv.Itoa(n)}}}
}

// Wrap encodes result as the response envelope for method.
func Wrap(method string, result Result) []byte {
	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="utf-8"?>`)
	buf.WriteString(`<soap:Envelope xmlns:soap="` + EnvelopeNS + `"`)
	buf.WriteString(` xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance"`)
	buf.WriteString(` xmlns:xsd="http://www.w3.org/2001/XMLSchema">`)
	buf.WriteString(`<soap:Body>`)
	buf.WriteString(`<` + method + `Response xmlns="` + IntuitNS + `">`)
	buf.WriteString(`<` + method + `Result>`)
	for _, f := range result.Fields {
		buf.WriteString(`<` + f.Type + `>`)
		_ = xml.EscapeText(&buf, []byte(f.Value)) // bytes.Buffer writes never fail
		buf.WriteString(`</` + f.Type + `>`)
	}
	buf.WriteString(`</` + method + `Result>`)
	buf.WriteString(`</` + method + `Response>`)
	buf.WriteString(`</soap:Body></soap:Envelope>`)
	return buf.Bytes()
}
