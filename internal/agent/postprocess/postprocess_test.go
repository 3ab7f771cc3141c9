package postprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProcess_StripsTrackingMarker(t *testing.T) {
	res := Process("TRACK_APPLICATION_REQUEST please provide your ID", "track my application somehow")

	assert.Equal(t, "please provide your ID", res.CleanedText)
	assert.True(t, res.WasTrackingSignal)
	assert.Empty(t, res.References)
}

func TestProcess_NoMarker(t *testing.T) {
	res := Process("You can apply online.", "how do I apply?")

	assert.Equal(t, "You can apply online.", res.CleanedText)
	assert.False(t, res.WasTrackingSignal)
}

func TestProcess_CollectsUniqueServiceReferences(t *testing.T) {
	raw := "Use service-101 for births. For deaths see service-102, also service-101 again."
	res := Process(raw, "which services?")

	assert.Equal(t, []string{"service-101", "service-102"}, res.References)
}

func TestProcess_DocumentCaveatOnShortList(t *testing.T) {
	raw := "You will need:\n- Aadhaar card\n- Address proof\n- Application form"
	res := Process(raw, "what documents do I need for a birth certificate?")

	assert.Contains(t, res.CleanedText, "may be incomplete")
}

func TestProcess_NoCaveatWithFiveItems(t *testing.T) {
	raw := "You will need:\n- One\n- Two\n- Three\n- Four\n- Five"
	res := Process(raw, "what documents do I need?")

	assert.NotContains(t, res.CleanedText, "may be incomplete")
}

func TestProcess_NoCaveatWithoutDocumentVocabulary(t *testing.T) {
	raw := "Steps:\n- Go online\n- Fill the form"
	res := Process(raw, "how do I pay property tax?")

	assert.NotContains(t, res.CleanedText, "may be incomplete")
}

func TestProcess_DevanagariDocumentVocabulary(t *testing.T) {
	raw := "तुम्हाला लागेल:\n- आधार कार्ड"
	res := Process(raw, "कागदपत्रे कोणती लागतात?")

	assert.Contains(t, res.CleanedText, "may be incomplete")
}
