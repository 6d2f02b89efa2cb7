package source

import (
	"github.com/arloliu/colbin/layout"
	"github.com/arloliu/colbin/projection"
	"github.com/arloliu/colbin/schema"
)

// FetchRequest is the JSON body posted to the tabular data endpoint.
type FetchRequest struct {
	TableID       string        `json:"tableId"`
	Schema        RequestSchema `json:"schema"`
	ColumnNumbers []int         `json:"columnNumbers"`
	SubFolder     string        `json:"subFolder"`
}

// RequestSchema describes the payload the server must return: the wire codes
// of the selected columns, in order, and the row count.
type RequestSchema struct {
	Columns []string `json:"columns"`
	Size    int      `json:"size"`
}

// NewFetchRequest builds the request for the selected columns of obj.
// l must be the layout of exactly those columns.
func NewFetchRequest(obj *schema.Object, sel projection.Selection, l layout.Layout) FetchRequest {
	return FetchRequest{
		TableID: obj.TableID(),
		Schema: RequestSchema{
			Columns: l.WireCodes(),
			Size:    obj.RowCount,
		},
		ColumnNumbers: sel.Indices(),
		SubFolder:     obj.StorageSubfolder,
	}
}

// UsageEvent is the usage accounting record sent after a successful remote fetch.
type UsageEvent struct {
	ObjectID string   `json:"objectId"`
	Columns  []string `json:"columns"`
	ClientID string   `json:"clientId"`
}
