package ptz

import (
	"strconv"
	"time"

	"github.com/beevik/etree"
	"github.com/ptzproxy/ptzproxy/pkg/onvif"
)

// Rules holds one camera's calibration and move state and rewrites envelopes
// in both directions. The transform itself is pure; MoveState carries its
// own lock, so a Rules value is safe for concurrent sessions.
type Rules struct {
	Transform Transform
	Window    time.Duration

	state MoveState
}

func (r *Rules) State() *MoveState {
	return &r.state
}

// ModifyRequest applies the request-side correction for a classified
// operation, in place. A non-nil error means the request must not be
// forwarded and the client gets a SOAP Fault instead.
func (r *Rules) ModifyRequest(op onvif.Operation, e *onvif.Envelope) error {
	switch op {
	case onvif.OpRelativeMove:
		return r.rewriteRelativeMove(e)

	case onvif.OpAbsoluteMove, onvif.OpContinuousMove, onvif.OpGotoPreset:
		// the camera starts moving, it just won't admit it
		r.state.SetMoving(r.Window)

	case onvif.OpStop:
		r.state.SetIdle()
	}

	return nil
}

func (r *Rules) rewriteRelativeMove(e *onvif.Envelope) error {
	pt := onvif.FindElement(e.Body(), onvif.NSSchema, "PanTilt")
	zoom := onvif.FindElement(e.Body(), onvif.NSSchema, "Zoom")
	if pt == nil && zoom == nil {
		return nil
	}

	in := Vector{Space: SpaceTranslationFOV}
	if pt != nil {
		in.Pan = attrFloat(pt, "x")
		in.Tilt = attrFloat(pt, "y")
	}
	if zoom != nil {
		in.Zoom = attrFloat(zoom, "x")
	}

	out, err := r.Transform.Apply(in)
	if err != nil {
		return err
	}

	if pt != nil {
		pt.CreateAttr("x", formatFloat(out.Pan))
		pt.CreateAttr("y", formatFloat(out.Tilt))
	}
	if zoom != nil {
		zoom.CreateAttr("x", formatFloat(out.Zoom))
	}

	r.state.SetMoving(r.Window)
	return nil
}

// ModifyResponse applies the response-side correction in place. It never
// fails: when the camera's reply doesn't have the expected shape, the reply
// is left alone rather than broken further.
func (r *Rules) ModifyResponse(op onvif.Operation, e *onvif.Envelope) {
	switch op {
	case onvif.OpGetStatus:
		r.rewriteStatus(e)
	case onvif.OpGetConfigurationOptions:
		addFovSpace(e)
	case onvif.OpGetServiceCapabilities:
		patchCapabilities(e)
	case onvif.OpRelativeMove:
		faultToSuccess(e)
	}
}

// rewriteStatus forces MoveStatus to the settle-window state and fills in
// every field the ONVIF schema wants even when the camera omitted it, so
// clients always see PanTilt, Zoom and UtcTime.
func (r *Rules) rewriteStatus(e *onvif.Envelope) {
	status := onvif.FindElement(e.Body(), onvif.NSPTZ, "PTZStatus")
	if status == nil {
		resp := onvif.FindElement(e.Body(), onvif.NSPTZ, "GetStatusResponse")
		if resp == nil {
			return // fault or foreign reply, leave it alone
		}
		status = createChild(e.Root(), resp, onvif.NSPTZ, "tptz", "PTZStatus")
	}

	moveStatus := r.state.Status()

	// two identical position polls in a row contradict MOVING
	if pos := onvif.FindElement(status, onvif.NSSchema, "Position"); pos != nil {
		if pt := onvif.FindElement(pos, onvif.NSSchema, "PanTilt"); pt != nil {
			x := pt.SelectAttrValue("x", "")
			y := pt.SelectAttrValue("y", "")
			if r.state.ObservePosition(x, y) {
				moveStatus = StatusIdle
			}
		}
	}

	ms := onvif.FindElement(status, onvif.NSSchema, "MoveStatus")
	if ms == nil {
		ms = createChild(e.Root(), status, onvif.NSSchema, "tt", "MoveStatus")
	}

	ensureChild(e.Root(), ms, onvif.NSSchema, "tt", "PanTilt").SetText(moveStatus)
	ensureChild(e.Root(), ms, onvif.NSSchema, "tt", "Zoom").SetText(moveStatus)

	utc := ensureChild(e.Root(), status, onvif.NSSchema, "tt", "UtcTime")
	if utc.Text() == "" {
		utc.SetText(time.Now().UTC().Format("2006-01-02T15:04:05Z"))
	}
}

// addFovSpace advertises the normalized TranslationSpaceFov pan/tilt space
// in GetConfigurationOptions when the camera doesn't list it. Clients pick
// their RelativeMove space from this list, and the whole point of the proxy
// is that they may use the normalized one.
func addFovSpace(e *onvif.Envelope) {
	spaces := onvif.FindElement(e.Body(), onvif.NSSchema, "Spaces")
	if spaces == nil {
		return
	}

	for _, space := range onvif.FindElements(spaces, onvif.NSSchema, "RelativePanTiltTranslationSpace") {
		if uri := onvif.FindElement(space, onvif.NSSchema, "URI"); uri != nil {
			if uri.Text() == SpaceTranslationFOV {
				return // already advertised
			}
		}
	}

	fov := createChild(e.Root(), spaces, onvif.NSSchema, "tt", "RelativePanTiltTranslationSpace")
	createChild(e.Root(), fov, onvif.NSSchema, "tt", "URI").SetText(SpaceTranslationFOV)
	for _, rangeTag := range []string{"XRange", "YRange"} {
		axis := createChild(e.Root(), fov, onvif.NSSchema, "tt", rangeTag)
		createChild(e.Root(), axis, onvif.NSSchema, "tt", "Min").SetText("-1")
		createChild(e.Root(), axis, onvif.NSSchema, "tt", "Max").SetText("1")
	}
}

// patchCapabilities claims MoveStatus and StatusPosition support on behalf
// of the camera - after rewriteStatus both are actually true.
func patchCapabilities(e *onvif.Envelope) {
	caps := onvif.FindElement(e.Body(), onvif.NSPTZ, "Capabilities")
	if caps == nil {
		return
	}
	caps.CreateAttr("MoveStatus", "true")
	caps.CreateAttr("StatusPosition", "true")
}

// faultToSuccess replaces a RelativeMove fault with an empty
// RelativeMoveResponse. The camera rejects moves it actually executes;
// reporting the fault upstream would make tracking clients retry forever.
func faultToSuccess(e *onvif.Envelope) {
	body := e.Body()

	var fault *etree.Element
	for _, child := range body.ChildElements() {
		if child.Tag == "Fault" {
			if ns := child.NamespaceURI(); ns == onvif.NSSoap11 || ns == onvif.NSSoap12 {
				fault = child
				break
			}
		}
	}
	if fault == nil {
		return
	}

	body.RemoveChild(fault)
	createChild(e.Root(), body, onvif.NSPTZ, "tptz", "RelativeMoveResponse")
}

// createChild appends a namespaced child, reusing whatever prefix the
// document already binds for ns and declaring defPrefix only when nothing is
// bound. Unqualified elements would make strict clients drop the response.
func createChild(root, parent *etree.Element, ns, defPrefix, tag string) *etree.Element {
	if prefix := findPrefix(root, ns); prefix != "" {
		return parent.CreateElement(prefix + ":" + tag)
	}
	el := parent.CreateElement(defPrefix + ":" + tag)
	el.CreateAttr("xmlns:"+defPrefix, ns)
	return el
}

func ensureChild(root, parent *etree.Element, ns, defPrefix, tag string) *etree.Element {
	for _, child := range parent.ChildElements() {
		if child.Tag == tag && child.NamespaceURI() == ns {
			return child
		}
	}
	return createChild(root, parent, ns, defPrefix, tag)
}

func findPrefix(el *etree.Element, ns string) string {
	if el.NamespaceURI() == ns && el.Space != "" {
		return el.Space
	}
	for _, child := range el.ChildElements() {
		if prefix := findPrefix(child, ns); prefix != "" {
			return prefix
		}
	}
	return ""
}

func attrFloat(el *etree.Element, key string) float64 {
	f, _ := strconv.ParseFloat(el.SelectAttrValue(key, "0"), 64)
	return f
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
