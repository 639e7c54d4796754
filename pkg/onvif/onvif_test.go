package onvif

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const relativeMove = `<?xml version="1.0" encoding="utf-8"?>
<s:Envelope xmlns:s="http://www.w3.org/2003/05/soap-envelope" xmlns:tt="http://www.onvif.org/ver10/schema" xmlns:tptz="http://www.onvif.org/ver20/ptz/wsdl">
<s:Body>
<tptz:RelativeMove>
	<tptz:ProfileToken>profile_1</tptz:ProfileToken>
	<tptz:Translation>
		<tt:PanTilt x="0.1" y="-0.2" space="http://www.onvif.org/ver10/tptz/PanTiltSpaces/TranslationSpaceFov"/>
		<tt:Zoom x="0"/>
	</tptz:Translation>
</tptz:RelativeMove>
</s:Body>
</s:Envelope>`

func TestDecode(t *testing.T) {
	e, err := Decode([]byte(relativeMove))
	require.NoError(t, err)
	assert.Equal(t, "RelativeMove", e.Action())

	// soap 1.1 namespace with a random prefix
	e, err = Decode([]byte(`<v:Envelope xmlns:v="http://schemas.xmlsoap.org/soap/envelope/"><v:Body><GetSystemDateAndTime xmlns="http://www.onvif.org/ver10/device/wsdl"/></v:Body></v:Envelope>`))
	require.NoError(t, err)
	assert.Equal(t, "GetSystemDateAndTime", e.Action())
}

func TestDecodeMalformed(t *testing.T) {
	_, err := Decode([]byte(`<s:Envelope><s:Body>`))
	assert.ErrorIs(t, err, ErrMalformedXML)

	_, err = Decode([]byte(`not xml at all`))
	assert.ErrorIs(t, err, ErrMalformedXML)

	_, err = Decode(nil)
	assert.ErrorIs(t, err, ErrMalformedXML)
}

func TestDecodeNoBody(t *testing.T) {
	_, err := Decode([]byte(`<s:Envelope xmlns:s="http://www.w3.org/2003/05/soap-envelope"><s:Header/></s:Envelope>`))
	assert.ErrorIs(t, err, ErrUnsupportedEnvelope)

	// Body in the wrong namespace doesn't count
	_, err = Decode([]byte(`<Envelope><Body><GetStatus/></Body></Envelope>`))
	assert.ErrorIs(t, err, ErrUnsupportedEnvelope)
}

func TestBytesKeepsNamespaces(t *testing.T) {
	e, err := Decode([]byte(relativeMove))
	require.NoError(t, err)

	b := e.Bytes()
	assert.Contains(t, string(b), `xmlns:tt="http://www.onvif.org/ver10/schema"`)
	assert.Contains(t, string(b), `xmlns:tptz="http://www.onvif.org/ver20/ptz/wsdl"`)

	// and the round trip still decodes to the same operation
	e2, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, "RelativeMove", e2.Action())
}

func TestClassify(t *testing.T) {
	tests := []struct {
		action   string
		expected Operation
	}{
		{"RelativeMove", OpRelativeMove},
		{"AbsoluteMove", OpAbsoluteMove},
		{"ContinuousMove", OpContinuousMove},
		{"GotoPreset", OpGotoPreset},
		{"Stop", OpStop},
		{"GetStatus", OpGetStatus},
		{"GetConfigurationOptions", OpGetConfigurationOptions},
		{"GetServiceCapabilities", OpGetServiceCapabilities},
		{"GetProfiles", OpPassThrough},
		{"GetCapabilities", OpPassThrough},
	}

	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			xml := `<s:Envelope xmlns:s="http://www.w3.org/2003/05/soap-envelope"><s:Body><tptz:` +
				tt.action + ` xmlns:tptz="http://www.onvif.org/ver20/ptz/wsdl"/></s:Body></s:Envelope>`
			e, err := Decode([]byte(xml))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, Classify(e))
		})
	}
}

func TestClassifyEmptyBody(t *testing.T) {
	e, err := Decode([]byte(`<s:Envelope xmlns:s="http://www.w3.org/2003/05/soap-envelope"><s:Body/></s:Envelope>`))
	require.NoError(t, err)
	assert.Equal(t, OpPassThrough, Classify(e))
}

func TestFault(t *testing.T) {
	b := Fault(FaultReceiver, "upstream camera unavailable")

	// a fault must itself be a decodable envelope
	e, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, "Fault", e.Action())

	assert.Contains(t, string(b), "SOAP-ENV:Receiver")
	assert.Contains(t, string(b), "upstream camera unavailable")
}

func TestFaultEscapesReason(t *testing.T) {
	b := Fault(FaultSender, `bad <value> & stuff`)

	_, err := Decode(b)
	require.NoError(t, err)
	assert.Contains(t, string(b), "bad &lt;value&gt; &amp; stuff")
}

func TestFindElement(t *testing.T) {
	e, err := Decode([]byte(relativeMove))
	require.NoError(t, err)

	pt := FindElement(e.Body(), NSSchema, "PanTilt")
	require.NotNil(t, pt)
	assert.Equal(t, "0.1", pt.SelectAttrValue("x", ""))

	assert.Nil(t, FindElement(e.Body(), NSSchema, "Missing"))
	assert.Nil(t, FindElement(e.Body(), NSPTZ, "PanTilt")) // wrong namespace
}
