package source

import (
	"testing"

	"github.com/arloliu/colbin/layout"
	"github.com/arloliu/colbin/projection"
	"github.com/arloliu/colbin/schema"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
)

func TestFetchRequestJSON(t *testing.T) {
	require := require.New(t)
	obj := testObject()

	sel, err := projection.Resolve(obj, projection.Name("flag"), projection.Index(0))
	require.NoError(err)
	l, err := layout.BuildSelection(schema.DefaultTypeMapper, obj, sel.Indices())
	require.NoError(err)

	data, err := json.Marshal(NewFetchRequest(obj, sel, l))
	require.NoError(err)
	require.JSONEq(`{
		"tableId": "xYz123",
		"schema": {"columns": ["CHAR", "LONG"], "size": 2},
		"columnNumbers": [2, 0],
		"subFolder": "atcCo2L2DataObject"
	}`, string(data))
}

func TestUsageEventJSON(t *testing.T) {
	data, err := json.Marshal(UsageEvent{ObjectID: "o", Columns: []string{"CO2"}, ClientID: "c"})
	require.NoError(t, err)
	require.JSONEq(t, `{"objectId":"o","columns":["CO2"],"clientId":"c"}`, string(data))
}
