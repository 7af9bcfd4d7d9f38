package flowdata

import (
	"fmt"
	"strings"
)

// Kind tags the data carried by a socket.
type Kind int

const (
	// KindInvalid marks an absent value and terminates socket descriptor lists.
	KindInvalid Kind = iota
	// KindImage is a host image of any channel layout.
	KindImage
	// KindImageMono is a single channel host image.
	KindImageMono
	// KindImageRgb is a color host image.
	KindImageRgb
	// KindArray is a dense two dimensional numeric array.
	KindArray
	// KindKeypoints is a keypoint set together with the image it was detected on.
	KindKeypoints
	// KindDeviceImage is a device resident image of any channel layout.
	KindDeviceImage
	// KindDeviceImageMono is a single channel device resident image.
	KindDeviceImageMono
	// KindDeviceImageRgb is a color device resident image.
	KindDeviceImageRgb
)

var kindNames = map[Kind]string{
	KindInvalid:         "invalid",
	KindImage:           "image",
	KindImageMono:       "image_mono",
	KindImageRgb:        "image_rgb",
	KindArray:           "array",
	KindKeypoints:       "keypoints",
	KindDeviceImage:     "device_image",
	KindDeviceImageMono: "device_image_mono",
	KindDeviceImageRgb:  "device_image_rgb",
}

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind is the inverse of String.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return KindInvalid, fmt.Errorf("unknown socket kind %q", s)
}

// IsValid reports whether k is a real data kind.
func (k Kind) IsValid() bool {
	return k > KindInvalid && k <= KindDeviceImageRgb
}

// IsHostImage reports whether k is one of the host image kinds.
func (k Kind) IsHostImage() bool {
	return k == KindImage || k == KindImageMono || k == KindImageRgb
}

// IsDeviceImage reports whether k is one of the device image kinds.
func (k Kind) IsDeviceImage() bool {
	return k == KindDeviceImage || k == KindDeviceImageMono || k == KindDeviceImageRgb
}

// Compatible reports whether an output socket of kind out may be linked to an
// input socket of kind in. Equal kinds always match. The generic image kinds
// match their mono and color refinements in both directions; the concrete
// layout is checked when the value is read. Invalid never matches.
func Compatible(out, in Kind) bool {
	if !out.IsValid() || !in.IsValid() {
		return false
	}
	if out == in {
		return true
	}
	switch {
	case out.IsHostImage() && in.IsHostImage():
		return out == KindImage || in == KindImage
	case out.IsDeviceImage() && in.IsDeviceImage():
		return out == KindDeviceImage || in == KindDeviceImage
	}
	return false
}
