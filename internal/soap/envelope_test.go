package soap_test

import (
	"encoding/xml"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/qbsync/internal/soap"
)

const authenticateRequest = `<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" xmlns:xsd="http://www.w3.org/2001/XMLSchema">
  <soap:Body>
    <authenticate xmlns="http://developer.intuit.com/">
      <strUserName>testuser</strUserName>
      <strPassword>testpass</strPassword>
    </authenticate>
  </soap:Body>
</soap:Envelope>`

const receiveRequest = `<?xml version="1.0" encoding="utf-8"?>
<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/">
  <s:Body>
    <qb:receiveResponseXML xmlns:qb="http://developer.intuit.com/">
      <qb:ticket>abc-123</qb:ticket>
      <qb:response>&lt;QBXML&gt;&lt;QBXMLMsgsRs&gt;&lt;CustomerAddRs statusCode="0"/&gt;&lt;/QBXMLMsgsRs&gt;&lt;/QBXML&gt;</qb:response>
      <qb:hresult />
      <qb:message></qb:message>
    </qb:receiveResponseXML>
  </s:Body>
</s:Envelope>`

func TestParse(t *testing.T) {
	t.Parallel()

	t.Run("authenticate", func(t *testing.T) {
		t.Parallel()

		call, err := soap.Parse([]byte(authenticateRequest))
		require.NoError(t, err)

		assert.Equal(t, soap.MethodAuthenticate, call.Method)
		assert.Equal(t, "testuser", call.Param(soap.ParamUserName))
		assert.Equal(t, "testpass", call.Param(soap.ParamPassword))
		assert.Empty(t, call.Param(soap.ParamTicket), "absent param reads as empty")
	})

	t.Run("prefixed names and escaped payload", func(t *testing.T) {
		t.Parallel()

		call, err := soap.Parse([]byte(receiveRequest))
		require.NoError(t, err)

		assert.Equal(t, soap.MethodReceiveResponseXML, call.Method)
		assert.Equal(t, "abc-123", call.Param(soap.ParamTicket))
		assert.Equal(t,
			`<QBXML><QBXMLMsgsRs><CustomerAddRs statusCode="0"/></QBXMLMsgsRs></QBXML>`,
			call.Param(soap.ParamResponse))

		v, ok := call.Params[soap.ParamHResult]
		assert.True(t, ok, "empty param is still present")
		assert.Empty(t, v)
	})
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		wantErr error
	}{
		{name: "empty input", raw: "", wantErr: soap.ErrMalformedEnvelope},
		{name: "not xml", raw: "hello", wantErr: soap.ErrMalformedEnvelope},
		{name: "truncated", raw: `<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/"><soap:Body>`, wantErr: soap.ErrMalformedEnvelope},
		{name: "wrong root", raw: `<Envelope><Body><authenticate/></Body></Envelope>`, wantErr: soap.ErrMalformedEnvelope},
		{name: "no body", raw: `<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/"><soap:Header/></soap:Envelope>`, wantErr: soap.ErrMalformedEnvelope},
		{name: "empty body", raw: `<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/"><soap:Body>  </soap:Body></soap:Envelope>`, wantErr: soap.ErrEmptyBody},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := soap.Parse([]byte(tt.raw))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

// response mirrors the envelope Wrap writes, for decoding in tests.
type response struct {
	Body struct {
		Inner struct {
			XMLName xml.Name
			Result  struct {
				XMLName xml.Name
				Strings []string `xml:"string"`
				Ints    []int    `xml:"int"`
			} `xml:",any"`
		} `xml:",any"`
	} `xml:"Body"`
}

func decode(t *testing.T, raw []byte) response {
	t.Helper()
	var r response
	require.NoError(t, xml.Unmarshal(raw, &r), string(raw))
	return r
}

func TestWrap(t *testing.T) {
	t.Parallel()

	t.Run("strings keep order", func(t *testing.T) {
		t.Parallel()

		raw := soap.Wrap(soap.MethodAuthenticate, soap.Strings("", "nvu"))
		r := decode(t, raw)

		assert.Equal(t, "authenticateResponse", r.Body.Inner.XMLName.Local)
		assert.Equal(t, soap.IntuitNS, r.Body.Inner.XMLName.Space)
		assert.Equal(t, "authenticateResult", r.Body.Inner.Result.XMLName.Local)
		assert.Equal(t, []string{"", "nvu"}, r.Body.Inner.Result.Strings)
	})

	t.Run("int result", func(t *testing.T) {
		t.Parallel()

		raw := soap.Wrap(soap.MethodReceiveResponseXML, soap.Int(-1))
		assert.Contains(t, string(raw), "<receiveResponseXMLResult><int>-1</int></receiveResponseXMLResult>")
		assert.Equal(t, []int{-1}, decode(t, raw).Body.Inner.Result.Ints)
	})

	t.Run("document is escaped", func(t *testing.T) {
		t.Parallel()

		doc := `<?qbxml version="13.0"?><QBXML><Name>Smith & Co.</Name></QBXML>`
		raw := soap.Wrap(soap.MethodSendRequestXML, soap.Strings(doc))

		assert.NotContains(t, string(raw), "<QBXML>", "request document travels as text")
		assert.Equal(t, []string{doc}, decode(t, raw).Body.Inner.Result.Strings)
	})

	t.Run("round trip through Parse", func(t *testing.T) {
		t.Parallel()

		raw := soap.Wrap(soap.MethodServerVersion, soap.Strings("1.0"))
		call, err := soap.Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, "serverVersionResponse", call.Method)
		assert.True(t, strings.HasPrefix(string(raw), `<?xml version="1.0" encoding="utf-8"?>`))
	})
}
