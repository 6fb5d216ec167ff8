// SPDX-License-Identifier: MIT

// Package device implements DeviceLifecycle (spec section 4.5): UDN
// generation, device description XML composition, virtual-file
// registration, and orchestration of SSDP advertisement and shutdown.
package device

import (
	"fmt"

	"github.com/google/uuid"
)

// Identity is DeviceIdentity (spec section 3): immutable after init.
type Identity struct {
	UDN          string
	FriendlyName string
	Interface    string
	Port         int
}

// NewUDN generates a UUIDv4-based UDN, or reuses override if non-empty
// (spec section 4.5: "Generates a UUIDv4 if none provided").
func NewUDN(override string) string {
	if override != "" {
		return "uuid:" + override
	}
	return "uuid:" + uuid.NewString()
}

const deviceDescriptionTemplate = `<?xml version="1.0" encoding="utf-8"?>
<root xmlns="urn:schemas-upnp-org:device-1-0">
  <specVersion>
    <major>1</major>
    <minor>0</minor>
  </specVersion>
  <device>
    <deviceType>urn:schemas-upnp-org:device:MediaRenderer:1</deviceType>
    <friendlyName>%s</friendlyName>
    <manufacturer>grender</manufacturer>
    <manufacturerURL>https://github.com/grender</manufacturerURL>
    <modelDescription>Go UPnP/DLNA MediaRenderer</modelDescription>
    <modelName>grender</modelName>
    <modelNumber>1.0</modelNumber>
    <serialNumber>%s</serialNumber>
    <UDN>%s</UDN>
    <iconList>
      <icon>
        <mimetype>image/png</mimetype>
        <width>64</width>
        <height>64</height>
        <depth>24</depth>
        <url>/virtual/grender-64x64.png</url>
      </icon>
      <icon>
        <mimetype>image/png</mimetype>
        <width>128</width>
        <height>128</height>
        <depth>24</depth>
        <url>/virtual/grender-128x128.png</url>
      </icon>
    </iconList>
    <serviceList>
      <service>
        <serviceType>urn:schemas-upnp-org:service:AVTransport:1</serviceType>
        <serviceId>urn:upnp-org:serviceId:AVTransport</serviceId>
        <SCPDURL>/virtual/AVTransport.xml</SCPDURL>
        <controlURL>/virtual/control/AVTransport</controlURL>
        <eventSubURL>/virtual/event/AVTransport</eventSubURL>
      </service>
      <service>
        <serviceType>urn:schemas-upnp-org:service:RenderingControl:1</serviceType>
        <serviceId>urn:upnp-org:serviceId:RenderingControl</serviceId>
        <SCPDURL>/virtual/RenderingControl.xml</SCPDURL>
        <controlURL>/virtual/control/RenderingControl</controlURL>
        <eventSubURL>/virtual/event/RenderingControl</eventSubURL>
      </service>
      <service>
        <serviceType>urn:schemas-upnp-org:service:ConnectionManager:1</serviceType>
        <serviceId>urn:upnp-org:serviceId:ConnectionManager</serviceId>
        <SCPDURL>/virtual/ConnectionManager.xml</SCPDURL>
        <controlURL>/virtual/control/ConnectionManager</controlURL>
        <eventSubURL>/virtual/event/ConnectionManager</eventSubURL>
      </service>
    </serviceList>
  </device>
</root>
`

// BuildDescription composes the device description document (spec
// section 6's essential fields), addressed by friendlyName "{NAME}
// ({hostname})" as the caller must already have formatted it.
func BuildDescription(friendlyName, udn, serialNumber string) []byte {
	return []byte(fmt.Sprintf(deviceDescriptionTemplate, friendlyName, serialNumber, udn))
}
