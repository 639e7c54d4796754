package ptz

import (
	"errors"
	"fmt"
)

var ErrOutOfRange = errors.New("ptz: translation out of range")

// Transform maps a normalized RelativeMove vector into the parameter space
// the camera firmware actually accepts: an independent affine scale per axis,
// negative scale meaning a sign flip. The coefficients are calibration data
// reverse-engineered per firmware revision, never a universal constant -
// they come from the camera's config entry.
type Transform struct {
	PanScale  float64
	TiltScale float64
	ZoomScale float64
}

// Apply validates that every input axis is within the ONVIF-legal [-1, 1]
// range, scales it and clamps the result back into [-1, 1] so calibration
// can never produce an illegal wire value. Out-of-range input is the
// client's bug: the caller answers with a SOAP Fault and forwards nothing.
func (t Transform) Apply(v Vector) (Vector, error) {
	for _, axis := range []struct {
		name  string
		value float64
	}{{"pan", v.Pan}, {"tilt", v.Tilt}, {"zoom", v.Zoom}} {
		if axis.value < -1 || axis.value > 1 {
			return Vector{}, fmt.Errorf("%w: %s=%g", ErrOutOfRange, axis.name, axis.value)
		}
	}

	return Vector{
		Pan:   clamp(v.Pan * t.PanScale),
		Tilt:  clamp(v.Tilt * t.TiltScale),
		Zoom:  clamp(v.Zoom * t.ZoomScale),
		Space: SpaceNative,
	}, nil
}

// Inverse returns the transform mapping camera-native values back into the
// normalized space. Apply then Inverse().Apply reproduces the input within
// floating-point tolerance as long as no clamping kicked in.
func (t Transform) Inverse() Transform {
	return Transform{
		PanScale:  1 / t.PanScale,
		TiltScale: 1 / t.TiltScale,
		ZoomScale: 1 / t.ZoomScale,
	}
}

func clamp(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
