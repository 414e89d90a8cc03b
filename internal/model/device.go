package model

// DeviceClass names a family of polling microcontrollers.
type DeviceClass string

const (
	// DeviceESP8266 drives the RGB LED, buzzer and OLED display.
	DeviceESP8266 DeviceClass = "esp8266"
)

// Device command names as read by the firmware.
const (
	CommandRGBColor       = "rgb_color"
	CommandAlarm          = "alarm"
	CommandAlarmDuration  = "alarm_duration"
	CommandAlarmType      = "alarm_type"
	CommandBuzzerAction   = "buzzer_action"
	CommandBuzzerDuration = "buzzer_duration"
	CommandOLEDDisplay    = "oled_display"
)

// commandRoutes assigns every command name to the device class that consumes it.
var commandRoutes = map[string]DeviceClass{
	CommandRGBColor:       DeviceESP8266,
	CommandAlarm:          DeviceESP8266,
	CommandAlarmDuration:  DeviceESP8266,
	CommandAlarmType:      DeviceESP8266,
	CommandBuzzerAction:   DeviceESP8266,
	CommandBuzzerDuration: DeviceESP8266,
	CommandOLEDDisplay:    DeviceESP8266,
}

// RouteCommand returns the device class a command is meant for.
func RouteCommand(name string) (DeviceClass, bool) {
	c, ok := commandRoutes[name]
	return c, ok
}

// KnownDeviceClass reports whether any command is routed to c.
func KnownDeviceClass(c DeviceClass) bool {
	for _, class := range commandRoutes {
		if class == c {
			return true
		}
	}
	return false
}
