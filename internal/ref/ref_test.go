package ref

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []struct{ id, region string }{
		{"i-0123abc", "us-east-2"},
		{"i-0a1f2e3d4c5b6a001", "eu-west-1"},
		{"i-1", "ap-southeast-1"},
	}
	for _, c := range cases {
		id, region := Decode(Encode(c.id, c.region), "default-region")
		require.Equal(t, c.id, id)
		require.Equal(t, c.region, region)
	}
}

func TestDecodeLegacyToken(t *testing.T) {
	id, region := Decode("i-0123abc", "us-east-2")
	require.Equal(t, "i-0123abc", id)
	require.Equal(t, "us-east-2", region, "delimiterless token falls back to the default region")
}

func TestDecodeEmptyRegionComponent(t *testing.T) {
	id, region := Decode("i-0123abc|", "us-east-2")
	require.Equal(t, "i-0123abc", id)
	require.Equal(t, "us-east-2", region)
}

func TestDecodeAction(t *testing.T) {
	action, id, region, err := DecodeAction("start|i-0123abc|eu-west-1", "us-east-2")
	require.NoError(t, err)
	require.Equal(t, "start", action)
	require.Equal(t, "i-0123abc", id)
	require.Equal(t, "eu-west-1", region)
}

func TestDecodeActionLegacyRegion(t *testing.T) {
	action, id, region, err := DecodeAction("stop|i-0123abc", "us-east-2")
	require.NoError(t, err)
	require.Equal(t, "stop", action)
	require.Equal(t, "i-0123abc", id)
	require.Equal(t, "us-east-2", region)
}

func TestDecodeActionMalformed(t *testing.T) {
	for _, bad := range []string{"", "start", "|i-0123abc", "start|"} {
		_, _, _, err := DecodeAction(bad, "us-east-2")
		require.Error(t, err, "value %q", bad)
	}
}
