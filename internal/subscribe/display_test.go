package subscribe

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func uevent(fields ...string) []byte {
	return []byte(strings.Join(fields, "\x00") + "\x00")
}

func TestIsBacklightChange(t *testing.T) {
	assert.True(t, IsBacklightChange(uevent(
		"change@/devices/pci0000:00/0000:00:02.0/drm/card1/card1-eDP-1/intel_backlight",
		"ACTION=change",
		"DEVPATH=/devices/pci0000:00/0000:00:02.0/drm/card1/card1-eDP-1/intel_backlight",
		"SUBSYSTEM=backlight",
		"SEQNUM=4242",
	)))

	assert.False(t, IsBacklightChange(uevent("add@/devices/x", "ACTION=add", "SUBSYSTEM=backlight")))
	assert.False(t, IsBacklightChange(uevent("change@/devices/x", "ACTION=change", "SUBSYSTEM=power_supply")))
	assert.False(t, IsBacklightChange(uevent("change@/devices/x", "ACTION=change", "SUBSYSTEM=backlight_ext")))
	assert.False(t, IsBacklightChange(nil))
}
