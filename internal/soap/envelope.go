// SPDX-License-Identifier: MIT

package soap

import (
	"encoding/xml"
	"fmt"
	"io"
)

// ActionRequest is the parsed form of an incoming SOAP action POST: the
// serviceID implied by the request path, the action name, and an
// argument map built from the envelope body's child elements (spec
// section 4.4: "an argument map (string -> string)").
type ActionRequest struct {
	ServiceID string
	Action    string
	Args      map[string]string
}

// OutArg is one out-argument in declaration order; response construction
// requires preserving order (spec section 4.4), which a Go map cannot.
type OutArg struct {
	Name  string
	Value string
}

// rawEnvelope and rawBody exist only to get to the action element's raw
// XML; the action's own element name and namespace carry the service
// type and action name, and its children are the in-arguments.
type rawEnvelope struct {
	XMLName xml.Name `xml:"http://schemas.xmlsoap.org/soap/envelope/ Envelope"`
	Body    rawBody  `xml:"Body"`
}

type rawBody struct {
	Action rawAction `xml:",any"`
}

type rawAction struct {
	XMLName xml.Name
	Args    []rawArg `xml:",any"`
}

type rawArg struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

// ParseAction parses a SOAP request body into an ActionRequest. serviceID
// is supplied by the caller (derived from the request path's {Service}
// segment, per spec section 6), not from the envelope itself.
func ParseAction(body io.Reader, serviceID string) (*ActionRequest, error) {
	var env rawEnvelope
	dec := xml.NewDecoder(body)
	if err := dec.Decode(&env); err != nil {
		return nil, fmt.Errorf("parse soap envelope: %w", err)
	}

	args := make(map[string]string, len(env.Body.Action.Args))
	for _, a := range env.Body.Action.Args {
		args[a.XMLName.Local] = a.Value
	}

	return &ActionRequest{
		ServiceID: serviceID,
		Action:    env.Body.Action.XMLName.Local,
		Args:      args,
	}, nil
}

const soapHeader = `<?xml version="1.0" encoding="utf-8"?>` +
	`<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/" s:encodingStyle="http://schemas.xmlsoap.org/soap/encoding/"><s:Body>`
const soapFooter = `</s:Body></s:Envelope>`

// BuildResponseEnvelope renders a successful action response: one
// <u:{action}Response xmlns:u="{serviceType}"> element with one
// <ArgName>Value</ArgName> per out-arg, in declaration order. Values are
// XML-escaped by EscapeXML before being placed here (spec section 4.4:
// "All string out-arguments containing the current URI MUST be
// XML-escaped").
func BuildResponseEnvelope(serviceType, action string, outArgs []OutArg) []byte {
	var b []byte
	b = append(b, soapHeader...)
	b = append(b, fmt.Sprintf(`<u:%sResponse xmlns:u="%s">`, action, serviceType)...)
	for _, a := range outArgs {
		b = append(b, fmt.Sprintf("<%s>%s</%s>", a.Name, a.Value, a.Name)...)
	}
	b = append(b, fmt.Sprintf(`</u:%sResponse>`, action)...)
	b = append(b, soapFooter...)
	return b
}

// BuildFaultEnvelope renders a SOAP Fault envelope carrying a UPnPError
// code and message, per spec section 4.4 ("the substrate emits the SOAP
// Fault envelope").
func BuildFaultEnvelope(f *Fault) []byte {
	var b []byte
	b = append(b, soapHeader...)
	b = append(b, `<s:Fault><faultcode>s:Client</faultcode><faultstring>UPnPError</faultstring><detail>`...)
	b = append(b, `<UPnPError xmlns="urn:schemas-upnp-org:control-1-0">`...)
	b = append(b, fmt.Sprintf("<errorCode>%d</errorCode><errorDescription>%s</errorDescription>", f.Code, EscapeXML(f.Message))...)
	b = append(b, `</UPnPError></detail></s:Fault>`...)
	b = append(b, soapFooter...)
	return b
}

// EscapeXML escapes the five XML special characters in s, per spec
// section 4.4's requirement on URI out-arguments.
func EscapeXML(s string) string {
	var buf []byte
	for _, r := range s {
		switch r {
		case '&':
			buf = append(buf, "&amp;"...)
		case '<':
			buf = append(buf, "&lt;"...)
		case '>':
			buf = append(buf, "&gt;"...)
		case '"':
			buf = append(buf, "&quot;"...)
		case '\'':
			buf = append(buf, "&apos;"...)
		default:
			buf = append(buf, string(r)...)
		}
	}
	return string(buf)
}
