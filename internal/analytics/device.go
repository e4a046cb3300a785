package analytics

import "strings"

// Device classifies the client device behind a session.
type Device string

const (
	DeviceDesktop Device = "Desktop"
	DeviceMobile  Device = "Mobile"
	DeviceTablet  Device = "Tablet"
)

var (
	mobileTokens = []string{"mobi", "android", "iphone", "ipod", "windows phone", "opera mini"}
	tabletTokens = []string{"ipad", "tablet", "kindle", "silk", "playbook"}
)

// ClassifyDevice derives the device class from a user-agent string by
// substring matching known engine tokens. Mobile patterns are checked first,
// then refined to tablet within the mobile match; ambiguous or empty strings
// default to Desktop.
func ClassifyDevice(userAgent string) Device {
	ua := strings.ToLower(userAgent)
	if ua == "" {
		return DeviceDesktop
	}

	isTablet := containsAny(ua, tabletTokens) ||
		(strings.Contains(ua, "android") && !strings.Contains(ua, "mobi"))
	if containsAny(ua, mobileTokens) || isTablet {
		if isTablet {
			return DeviceTablet
		}
		return DeviceMobile
	}
	return DeviceDesktop
}

func containsAny(s string, tokens []string) bool {
	for _, token := range tokens {
		if strings.Contains(s, token) {
			return true
		}
	}
	return false
}
