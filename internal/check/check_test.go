package check

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPageOptionsResolveDefaults(t *testing.T) {
	r, err := (*PageOptions)(nil).Resolve()
	require.NoError(t, err)
	require.Equal(t, "GET", r.Method)
	require.True(t, r.FollowRedirects)
	require.True(t, r.SSLVerifyPeer)
	require.True(t, r.SSLVerifyHost)
	require.Equal(t, DefaultConnectTimeout, r.ConnectionTimeout)
	require.Equal(t, DefaultTotalTimeout, r.Timeout)
	require.Equal(t, DefaultMaxRedirects, r.MaxRedirects)
	require.Equal(t, DefaultMaxConnections, r.MaxConnections)
	require.Equal(t, DefaultAgent(), r.Agent)
}

func TestPageOptionsResolveOverrides(t *testing.T) {
	falseVal := false
	o := &PageOptions{
		Method:          "post",
		FollowRedirects: &falseVal,
		Timeout:         5,
		Agent:           "custom/1.0",
	}
	r, err := o.Resolve()
	require.NoError(t, err)
	require.Equal(t, "POST", r.Method)
	require.False(t, r.FollowRedirects)
	require.Equal(t, "custom/1.0", r.Agent)
}

func TestPageOptionsResolveRejectsUnsupportedMethod(t *testing.T) {
	o := &PageOptions{Method: "PATCH"}
	_, err := o.Resolve()
	require.Error(t, err)
}

func TestParseCheckDecodesExpectations(t *testing.T) {
	data := []byte(`{
		"notifier": "ops",
		"pages": [{"url": "https://example.com", "expects": [{"ValidCode": 200}, "ValidNoContent"]}],
		"domains": [{"name": "example.com", "expects": [{"ValidExpiryPeriod": 14}]}]
	}`)
	c, err := ParseCheck(data)
	require.NoError(t, err)
	require.Equal(t, "ops", c.Notifier)
	require.Len(t, c.Pages, 1)
	require.Equal(t, ValidCode, c.Pages[0].Expectations[0].Kind)
	require.EqualValues(t, 200, c.Pages[0].Expectations[0].Code)
	require.Equal(t, ValidNoContent, c.Pages[0].Expectations[1].Kind)
	require.Equal(t, ValidExpiryPeriod, c.Domains[0].Expectations[0].Kind)
	require.EqualValues(t, 14, c.Domains[0].Expectations[0].Days)
}

func TestParseCheckRejectsUnknownExpectationVariant(t *testing.T) {
	data := []byte(`{"pages": [{"url": "https://example.com", "expects": ["ValidFrobnicate"]}]}`)
	_, err := ParseCheck(data)
	require.ErrorContains(t, err, "unknown variant")
}

func TestPageExpectationRoundTripsJSON(t *testing.T) {
	for _, pe := range []PageExpectation{
		{Kind: ValidCode, Code: 404},
		{Kind: ValidContent, Content: "hello"},
		{Kind: ValidAddress, Address: "1.2.3.4"},
		{Kind: ValidLength, Length: 100},
		{Kind: ValidNoContent},
		{Kind: ValidNoAddress},
		{Kind: ValidNoLength},
	} {
		data, err := json.Marshal(pe)
		require.NoError(t, err)
		var decoded PageExpectation
		require.NoError(t, json.Unmarshal(data, &decoded))
		require.Equal(t, pe, decoded)
	}
}

func TestDomainExpectationRejectsUnknownObjectKey(t *testing.T) {
	var d DomainExpectation
	err := json.Unmarshal([]byte(`{"ValidBogus": 1}`), &d)
	require.ErrorContains(t, err, "unknown variant")
}

func TestFirstCodeExpectationDefaultsTo200(t *testing.T) {
	e := FirstCodeExpectation(nil)
	require.Equal(t, ValidCode, e.Kind)
	require.EqualValues(t, DefaultSuccessfulCode, e.Code)
}

func TestFirstCodeExpectationReturnsFirstMatch(t *testing.T) {
	exps := []PageExpectation{{Kind: ValidCode, Code: 201}, {Kind: ValidCode, Code: 202}}
	e := FirstCodeExpectation(exps)
	require.EqualValues(t, 201, e.Code)
}

func TestContentExpectationsPreservesOrder(t *testing.T) {
	exps := []PageExpectation{
		{Kind: ValidContent, Content: "a"},
		{Kind: ValidCode, Code: 200},
		{Kind: ValidContent, Content: "b"},
	}
	out := ContentExpectations(exps)
	require.Len(t, out, 2)
	require.Equal(t, "a", out[0].Content)
	require.Equal(t, "b", out[1].Content)
}

func TestFirstLengthExpectationDefaultsToNoLength(t *testing.T) {
	e := FirstLengthExpectation(nil)
	require.Equal(t, ValidNoLength, e.Kind)
}

func TestFirstAddressExpectationDefaultsToNoAddress(t *testing.T) {
	e := FirstAddressExpectation(nil)
	require.Equal(t, ValidNoAddress, e.Kind)
}
