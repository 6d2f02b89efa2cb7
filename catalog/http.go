package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/arloliu/colbin/errs"
	"github.com/arloliu/colbin/internal/logging"
	"github.com/arloliu/colbin/schema"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// DefaultMetaEndpoint is the base URL of object landing pages in the metadata service.
const DefaultMetaEndpoint = "https://meta.icos-cp.eu/objects"

// maxMetadataSize bounds the metadata document read per object.
const maxMetadataSize = 16 << 20

// metadataDoc is the subset of the object metadata document colbin reads.
type metadataDoc struct {
	Pid           string `json:"pid"`
	Specification struct {
		Format struct {
			Self struct {
				URI string `json:"uri"`
			} `json:"self"`
		} `json:"format"`
	} `json:"specification"`
	SpecificInfo struct {
		NRows   *int             `json:"nRows"`
		Columns []metadataColumn `json:"columns"`
	} `json:"specificInfo"`
	References struct {
		CitationString string `json:"citationString"`
	} `json:"references"`
}

type metadataColumn struct {
	Label       string        `json:"label"`
	ValueFormat string        `json:"valueFormat"`
	ValueType   metadataValue `json:"valueType"`
}

// metadataValue describes the quantity a column holds; the unit lives here,
// not on the column.
type metadataValue struct {
	Self struct {
		URI   string `json:"uri"`
		Label string `json:"label"`
	} `json:"self"`
	Unit string `json:"unit"`
}

// formatCode returns the value type label, falling back to the last segment of its URI.
func (v metadataValue) formatCode() string {
	if v.Self.Label != "" {
		return v.Self.Label
	}

	return schema.TrailingSegment(v.Self.URI)
}

// HTTPResolver resolves object descriptors from the JSON metadata document
// served at <endpoint>/<trailing object id segment>.
type HTTPResolver struct {
	client   *http.Client
	endpoint string
	logger   *zap.Logger
}

// NewHTTPResolver creates a resolver for endpoint; an empty endpoint selects
// DefaultMetaEndpoint.
func NewHTTPResolver(client *http.Client, endpoint string, logger *zap.Logger) *HTTPResolver {
	if client == nil {
		client = http.DefaultClient
	}
	if endpoint == "" {
		endpoint = DefaultMetaEndpoint
	}

	return &HTTPResolver{
		client:   client,
		endpoint: strings.TrimSuffix(endpoint, "/"),
		logger:   logging.Component(logger, "catalog"),
	}
}

// URL returns the metadata document URL of objectID.
func (r *HTTPResolver) URL(objectID string) string {
	return r.endpoint + "/" + schema.TrailingSegment(objectID)
}

// Resolve fetches and maps the metadata document of objectID.
//
// A document without row count or columns maps to a descriptor without
// columns, which callers treat as an object with no binary representation.
//
// Returns:
//   - *schema.Object: The descriptor
//   - error: errs.ErrObjectNotFound for a 404 or 410 answer,
//     *errs.TransportError for other failures
func (r *HTTPResolver) Resolve(ctx context.Context, objectID string) (*schema.Object, error) {
	url := r.URL(objectID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &errs.TransportError{Endpoint: url, Cause: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, &errs.CancelledError{ObjectID: objectID, Cause: ctxErr}
		}

		return nil, &errs.TransportError{Endpoint: url, Cause: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, fmt.Errorf("%w: %s", errs.ErrObjectNotFound, objectID)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &errs.TransportError{Endpoint: url, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxMetadataSize))
	if err != nil {
		return nil, &errs.TransportError{Endpoint: url, Cause: err}
	}

	var doc metadataDoc
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode metadata of %s: %w", objectID, err)
	}

	obj := doc.toObject(objectID)
	r.logger.Debug("resolved object metadata",
		zap.String("object_id", objectID),
		zap.Int("rows", obj.RowCount),
		zap.Int("columns", len(obj.Columns)),
	)

	return obj, nil
}

func (d *metadataDoc) toObject(objectID string) *schema.Object {
	obj := &schema.Object{
		ObjectID:         objectID,
		StorageSubfolder: schema.TrailingSegment(d.Specification.Format.Self.URI),
		Citation:         d.References.CitationString,
	}

	if d.SpecificInfo.NRows == nil {
		return obj
	}
	obj.RowCount = *d.SpecificInfo.NRows

	obj.Columns = make([]schema.ColumnSpec, len(d.SpecificInfo.Columns))
	for i, c := range d.SpecificInfo.Columns {
		obj.Columns[i] = schema.ColumnSpec{
			Name:        c.Label,
			ValueTypeID: c.ValueFormat,
			FormatCode:  c.ValueType.formatCode(),
			Unit:        c.ValueType.Unit,
		}
	}

	return obj
}
