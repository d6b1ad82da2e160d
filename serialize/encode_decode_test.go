package serialize

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	doc := &Document{
		ToolVersion: Version{Major: 1, Minor: 0, Patch: 0, StringTag: "sceneflow", FileFormatVersion: CurrentFileFormatVersion},
		HostVersion: Version{Major: 2, Minor: 1, StringTag: "host"},
		Objects: ApiObjects{
			LuaScripts: []LuaScriptRecord{{
				ID: 1, Name: "a", Source: "function run() end",
				In:  PropertyRecord{Type: PropStruct, Children: []PropertyRecord{{Name: "x", Type: PropFloat, Value: ValueRecord{Type: PropFloat, Float: 1.5}}}},
				Out: PropertyRecord{Type: PropStruct},
			}},
			DataArrays: []DataArrayRecord{{
				ID: 2, Name: "curve", Element: PropFloat,
				Values: []ValueRecord{{Type: PropFloat, Float: 0}, {Type: PropFloat, Float: 1}},
			}},
		},
		Links: []LinkRecord{{SourceNodeID: 1, SourcePath: "OUT.x", TargetNodeID: 3, TargetPath: "IN.y"}},
	}

	buf, err := Encode(doc)
	require.NoError(t, err)
	require.NotEmpty(t, buf)

	got, err := Decode(buf)
	require.NoError(t, err)
	require.Equal(t, doc.ToolVersion, got.ToolVersion)
	require.Equal(t, doc.HostVersion, got.HostVersion)
	require.Len(t, got.Objects.LuaScripts, 1)
	require.Equal(t, "a", got.Objects.LuaScripts[0].Name)
	require.Equal(t, 1.5, got.Objects.LuaScripts[0].In.Children[0].Value.Float)
	require.Len(t, got.Objects.DataArrays, 1)
	require.Len(t, got.Objects.DataArrays[0].Values, 2)
	require.Equal(t, 1.0, got.Objects.DataArrays[0].Values[1].Float)
	require.Len(t, got.Links, 1)
	require.Equal(t, doc.Links[0], got.Links[0])
}

// A document whose ToolVersion carries a file format version this build
// does not recognize is rejected by Decode.
func TestDecodeRejectsUnsupportedVersion(t *testing.T) {
	doc := &Document{ToolVersion: Version{FileFormatVersion: CurrentFileFormatVersion + 1}}
	buf, err := Encode(doc)
	require.NoError(t, err)

	_, err = Decode(buf)
	require.Error(t, err)
	loadErr, ok := err.(*LoadError)
	require.True(t, ok)
	require.Equal(t, ReasonUnsupportedVersion, loadErr.Reason)
}
