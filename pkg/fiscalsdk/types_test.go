package fiscalsdk

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIDUnmarshal(t *testing.T) {
	t.Parallel()

	cases := map[string]ID{
		`7`:     "7",
		`"7"`:   "7",
		`"ab"`:  "ab",
		`null`:  "",
		`12.50`: "12.50",
	}
	for in, want := range cases {
		var got ID
		require.NoError(t, json.Unmarshal([]byte(in), &got), in)
		require.Equal(t, want, got, in)
	}

	var bad ID
	require.Error(t, json.Unmarshal([]byte(`{}`), &bad))
}

func TestIDMarshal(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal(ID("42"))
	require.NoError(t, err)
	require.Equal(t, `42`, string(b))

	b, err = json.Marshal(ID("G03"))
	require.NoError(t, err)
	require.Equal(t, `"G03"`, string(b))

	for _, in := range []string{"01", "+5", "-0", "007"} {
		b, err = json.Marshal(ID(in))
		require.NoError(t, err, in)
		require.Equal(t, `"`+in+`"`, string(b), in)
	}

	b, err = json.Marshal(CreateClientRequest{Name: "ACME", UsoCfdiID: "3", FormaPagoID: "01"})
	require.NoError(t, err)
	require.Contains(t, string(b), `"usoCfdiId":3`)
	require.Contains(t, string(b), `"formaPagoId":"01"`)
}

func TestFlagUnmarshal(t *testing.T) {
	t.Parallel()

	cases := map[string]bool{
		`true`:    true,
		`false`:   false,
		`1`:       true,
		`0`:       false,
		`"1"`:     true,
		`"TRUE"`:  true,
		`"0"`:     false,
		`"false"`: false,
		`"yes"`:   false,
		`null`:    false,
	}
	for in, want := range cases {
		var got Flag
		require.NoError(t, json.Unmarshal([]byte(in), &got), in)
		require.Equal(t, want, bool(got), in)
	}
}

func TestParseErrorResponse(t *testing.T) {
	t.Parallel()

	require.Equal(t, "bad", parseErrorResponse(400, []byte(`{"message":"bad"}`)).Message)
	require.Equal(t, "nope", parseErrorResponse(400, []byte(`{"error":"nope"}`)).Message)
	require.Equal(t, "Unauthorized", parseErrorResponse(401, []byte("Unauthorized\n")).Message)
	require.Empty(t, parseErrorResponse(502, []byte("<html>bad gateway</html>")).Message)
	require.Equal(t, "fiscal api: HTTP 502 Bad Gateway", parseErrorResponse(502, nil).Error())
}
