package ptz

// ONVIF PTZ coordinate spaces. Clients speak the normalized translation
// space; the camera firmware speaks its own. A vector never crosses between
// them except through Transform.Apply.
const (
	SpaceTranslationFOV = "http://www.onvif.org/ver10/tptz/PanTiltSpaces/TranslationSpaceFov"
	SpaceNative         = "camera-native"
)

// Vector is a pan/tilt/zoom triple tagged with its coordinate space.
type Vector struct {
	Pan, Tilt, Zoom float64
	Space           string
}
