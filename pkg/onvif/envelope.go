package onvif

import (
	"errors"
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

const (
	NSSoap11 = "http://schemas.xmlsoap.org/soap/envelope/"
	NSSoap12 = "http://www.w3.org/2003/05/soap-envelope"
	NSSchema = "http://www.onvif.org/ver10/schema"
	NSPTZ    = "http://www.onvif.org/ver20/ptz/wsdl"
)

var (
	ErrMalformedXML        = errors.New("onvif: malformed xml")
	ErrUnsupportedEnvelope = errors.New("onvif: no soap body")
)

// Envelope is one parsed SOAP request or response.
// Transient: built per message, thrown away after serialization.
type Envelope struct {
	doc  *etree.Document
	body *etree.Element
}

func Decode(b []byte) (*Envelope, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(b); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedXML, err)
	}

	root := doc.Root()
	if root == nil {
		return nil, ErrMalformedXML
	}

	body := findBody(root)
	if body == nil {
		return nil, ErrUnsupportedEnvelope
	}

	return &Envelope{doc: doc, body: body}, nil
}

// Action returns the local name of the first Body child.
// Empty Body is fine - the message just won't match any known operation.
func (e *Envelope) Action() string {
	if children := e.body.ChildElements(); len(children) > 0 {
		return children[0].Tag
	}
	return ""
}

func (e *Envelope) Body() *etree.Element {
	return e.body
}

func (e *Envelope) Root() *etree.Element {
	return e.doc.Root()
}

// Bytes serializes the envelope back to XML. Namespace declarations survive
// untouched because the document tree is never re-rooted - strict ONVIF
// clients reject unqualified elements.
func (e *Envelope) Bytes() []byte {
	b, err := e.doc.WriteToBytes()
	if err != nil {
		return nil
	}
	return b
}

func findBody(el *etree.Element) *etree.Element {
	if el.Tag == "Body" {
		if ns := el.NamespaceURI(); ns == NSSoap11 || ns == NSSoap12 {
			return el
		}
	}
	for _, child := range el.ChildElements() {
		if body := findBody(child); body != nil {
			return body
		}
	}
	return nil
}

// FindElement returns the first descendant with the given namespace and
// local name, or nil.
func FindElement(el *etree.Element, ns, tag string) *etree.Element {
	for _, child := range el.ChildElements() {
		if child.Tag == tag && child.NamespaceURI() == ns {
			return child
		}
		if found := FindElement(child, ns, tag); found != nil {
			return found
		}
	}
	return nil
}

// FindElements returns every descendant with the given namespace and local name.
func FindElements(el *etree.Element, ns, tag string) []*etree.Element {
	var found []*etree.Element
	for _, child := range el.ChildElements() {
		if child.Tag == tag && child.NamespaceURI() == ns {
			found = append(found, child)
		}
		found = append(found, FindElements(child, ns, tag)...)
	}
	return found
}

const faultFormat = `<?xml version="1.0" encoding="UTF-8"?>
<SOAP-ENV:Envelope xmlns:SOAP-ENV="http://www.w3.org/2003/05/soap-envelope">
	<SOAP-ENV:Body>
		<SOAP-ENV:Fault>
			<SOAP-ENV:Code>
				<SOAP-ENV:Value>SOAP-ENV:%s</SOAP-ENV:Value>
			</SOAP-ENV:Code>
			<SOAP-ENV:Reason>
				<SOAP-ENV:Text xml:lang="en">%s</SOAP-ENV:Text>
			</SOAP-ENV:Reason>
		</SOAP-ENV:Fault>
	</SOAP-ENV:Body>
</SOAP-ENV:Envelope>`

const (
	FaultSender   = "Sender"   // bad client input
	FaultReceiver = "Receiver" // upstream or internal trouble
)

var escaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// Fault builds a valid SOAP 1.2 Fault envelope. Every error leaving the
// proxy goes through here - never a bare error payload.
func Fault(code, reason string) []byte {
	return []byte(fmt.Sprintf(faultFormat, code, escaper.Replace(reason)))
}
