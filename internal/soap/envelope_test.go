// SPDX-License-Identifier: MIT

package soap

import (
	"strings"
	"testing"
)

const sampleSetURIRequest = `<?xml version="1.0"?>
<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/" s:encodingStyle="http://schemas.xmlsoap.org/soap/encoding/">
  <s:Body>
    <u:SetAVTransportURI xmlns:u="urn:schemas-upnp-org:service:AVTransport:1">
      <InstanceID>0</InstanceID>
      <CurrentURI>http://host/song.mp3</CurrentURI>
      <CurrentURIMetaData></CurrentURIMetaData>
    </u:SetAVTransportURI>
  </s:Body>
</s:Envelope>`

func TestParseAction(t *testing.T) {
	req, err := ParseAction(strings.NewReader(sampleSetURIRequest), "AVTransport")
	if err != nil {
		t.Fatalf("ParseAction() error = %v", err)
	}
	if req.Action != "SetAVTransportURI" {
		t.Errorf("Action = %q, want SetAVTransportURI", req.Action)
	}
	if req.ServiceID != "AVTransport" {
		t.Errorf("ServiceID = %q, want AVTransport", req.ServiceID)
	}
	if req.Args["CurrentURI"] != "http://host/song.mp3" {
		t.Errorf("CurrentURI = %q, want http://host/song.mp3", req.Args["CurrentURI"])
	}
}

func TestParseActionMalformed(t *testing.T) {
	if _, err := ParseAction(strings.NewReader("not xml"), "AVTransport"); err == nil {
		t.Error("ParseAction() expected error for malformed body, got nil")
	}
}

func TestBuildResponseEnvelope(t *testing.T) {
	out := BuildResponseEnvelope(serviceTypeAVTransport, "Play", []OutArg{{Name: "Speed", Value: "1"}})
	s := string(out)
	if !strings.Contains(s, `<u:PlayResponse xmlns:u="urn:schemas-upnp-org:service:AVTransport:1">`) {
		t.Errorf("response envelope missing action element: %s", s)
	}
	if !strings.Contains(s, "<Speed>1</Speed>") {
		t.Errorf("response envelope missing out-arg: %s", s)
	}
}

func TestBuildFaultEnvelope(t *testing.T) {
	out := BuildFaultEnvelope(FaultInvalidURI)
	s := string(out)
	if !strings.Contains(s, "<errorCode>701</errorCode>") {
		t.Errorf("fault envelope missing code: %s", s)
	}
	if !strings.Contains(s, "Invalid URI") {
		t.Errorf("fault envelope missing message: %s", s)
	}
}
