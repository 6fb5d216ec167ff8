// SPDX-License-Identifier: MIT

package mixer

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// CardInfo describes one ALSA sound card, as reported by DetectCards for
// the startup diagnostic cmd/grender logs before opening the mixer.
type CardInfo struct {
	CardNumber int    // ALSA card number (0-31)
	Name       string // Device name from /proc/asound/cardN/id
	USBID      string // USB vendor:product ID (e.g., "0d8c:0014"), empty for non-USB cards
	VendorID   string
	ProductID  string
	DeviceID   string // Persistent ID from /dev/snd/by-id/, if any
}

// DetectCards scans /proc/asound for sound cards. Unlike a USB-only
// detector, every card directory is reported — HardwareMixer addresses
// cards by the CLI-supplied --card value (e.g. "hw:0"), which may name any
// ALSA card, not only a USB one; USB identity fields are populated only
// when the card exposes a usbid file.
func DetectCards(asoundPath string) ([]*CardInfo, error) {
	if _, err := os.Stat(asoundPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("asound directory not found: %s", asoundPath)
	}

	pattern := filepath.Join(asoundPath, "card[0-9]*")
	cardDirs, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob card directories: %w", err)
	}

	var cards []*CardInfo
	for _, cardDir := range cardDirs {
		baseName := filepath.Base(cardDir)
		cardNumStr := strings.TrimPrefix(baseName, "card")
		cardNum, err := strconv.Atoi(cardNumStr)
		if err != nil {
			continue
		}

		info, err := GetCardInfo(asoundPath, cardNum)
		if err != nil {
			continue
		}
		cards = append(cards, info)
	}

	return cards, nil
}

// GetCardInfo reads card information for a specific ALSA card number.
func GetCardInfo(asoundPath string, cardNumber int) (*CardInfo, error) {
	cardDir := filepath.Join(asoundPath, fmt.Sprintf("card%d", cardNumber))

	if _, err := os.Stat(cardDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("card %d not found", cardNumber)
	}

	idPath := filepath.Join(cardDir, "id")
	nameBytes, err := os.ReadFile(idPath) // #nosec G304 -- reading from /proc/asound (kernel filesystem)
	name := fmt.Sprintf("card%d", cardNumber)
	if err == nil {
		if trimmed := strings.TrimSpace(string(nameBytes)); trimmed != "" {
			name = trimmed
		}
	}

	info := &CardInfo{CardNumber: cardNumber, Name: name}

	usbIDPath := filepath.Join(cardDir, "usbid")
	if usbIDBytes, err := os.ReadFile(usbIDPath); err == nil { // #nosec G304
		usbID := strings.TrimSpace(string(usbIDBytes))
		if vendor, product, err := ParseUSBID(usbID); err == nil {
			info.USBID = usbID
			info.VendorID = vendor
			info.ProductID = product
		}
	}

	info.DeviceID = findDeviceIDPath(cardNumber)

	return info, nil
}

// ParseUSBID parses a USB ID string ("VVVV:PPPP") into vendor and product IDs.
func ParseUSBID(usbID string) (vendorID, productID string, err error) {
	parts := strings.Split(usbID, ":")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid USB ID format: expected VVVV:PPPP, got %q", usbID)
	}

	vendorID = strings.TrimSpace(parts[0])
	productID = strings.TrimSpace(parts[1])

	if len(vendorID) != 4 || len(productID) != 4 {
		return "", "", fmt.Errorf("invalid USB ID format: expected 4-digit hex, got %q", usbID)
	}

	return vendorID, productID, nil
}

// findDeviceIDPath searches /dev/snd/by-id/ for a persistent device ID
// symlink pointing at this card's control device, returning "" if none
// is found (not all environments populate /dev/snd/by-id).
func findDeviceIDPath(cardNumber int) string {
	byIDDir := "/dev/snd/by-id"
	controlTarget := fmt.Sprintf("controlC%d", cardNumber)

	entries, err := os.ReadDir(byIDDir)
	if err != nil {
		return ""
	}

	for _, entry := range entries {
		if entry.Type()&os.ModeSymlink == 0 {
			continue
		}

		linkPath := filepath.Join(byIDDir, entry.Name())
		target, err := os.Readlink(linkPath)
		if err != nil {
			continue
		}

		absTarget, err := filepath.Abs(filepath.Join(byIDDir, target))
		if err != nil {
			continue
		}

		if strings.HasSuffix(absTarget, controlTarget) {
			return entry.Name()
		}
	}

	return ""
}
