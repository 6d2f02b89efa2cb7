package colbin

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/arloliu/colbin/catalog"
	"github.com/arloliu/colbin/config"
	"github.com/arloliu/colbin/encoding"
	"github.com/arloliu/colbin/endian"
	"github.com/arloliu/colbin/errs"
	"github.com/arloliu/colbin/format"
	"github.com/arloliu/colbin/projection"
	"github.com/arloliu/colbin/schema"
	"github.com/arloliu/colbin/source"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testObjectID = "https://meta.icos-cp.eu/objects/xYz123"

func testObject() *schema.Object {
	return &schema.Object{
		ObjectID: testObjectID,
		RowCount: 2,
		Columns: []schema.ColumnSpec{
			{Name: "TIMESTAMP", ValueTypeID: "http://meta.icos-cp.eu/ontologies/cpmeta/int64"},
			{Name: "CO2", ValueTypeID: "http://meta.icos-cp.eu/ontologies/cpmeta/float32", Unit: "ppm"},
			{Name: "FLAG", ValueTypeID: "http://meta.icos-cp.eu/ontologies/cpmeta/bmpChar"},
		},
		StorageSubfolder: "atcCo2L2DataObject",
		Citation:         "Station X, CO2 L2, 2024",
	}
}

func columnSegments() [][]byte {
	be := endian.GetBigEndianEngine()

	return [][]byte{
		encoding.NewPayloadBuilder(be).Int64s(1700000000000, 1700000060000).Bytes(),
		encoding.NewPayloadBuilder(be).Float32s(412.25, 413.5).Bytes(),
		encoding.NewPayloadBuilder(be).Chars("OK").Bytes(),
	}
}

func fullPayload() []byte {
	var out []byte
	for _, seg := range columnSegments() {
		out = append(out, seg...)
	}

	return out
}

type dataServer struct {
	*httptest.Server

	mu       sync.Mutex
	requests []source.FetchRequest
}

func newDataServer(t *testing.T) *dataServer {
	t.Helper()
	ds := &dataServer{}
	ds.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req source.FetchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		ds.mu.Lock()
		ds.requests = append(ds.requests, req)
		ds.mu.Unlock()

		segments := columnSegments()
		for _, idx := range req.ColumnNumbers {
			_, _ = w.Write(segments[idx])
		}
	}))
	t.Cleanup(ds.Close)

	return ds
}

func (ds *dataServer) requestCount() int {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	return len(ds.requests)
}

func remoteSource(t *testing.T, ds *dataServer, opts ...source.Option) *source.Source {
	t.Helper()
	opts = append([]source.Option{source.WithRemote(source.NewRemote(ds.Client(), ds.URL))}, opts...)
	src, err := source.New(opts...)
	require.NoError(t, err)

	return src
}

func newTestClient(t *testing.T, resolver SchemaResolver, src *source.Source, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithResolver(resolver), WithSource(src)}, opts...)
	c, err := NewClient(opts...)
	require.NoError(t, err)

	return c
}

// flakyResolver fails the first n calls with a transport error.
type flakyResolver struct {
	mu    sync.Mutex
	fails int
	obj   *schema.Object
}

func (r *flakyResolver) Resolve(_ context.Context, objectID string) (*schema.Object, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.fails > 0 {
		r.fails--
		return nil, &errs.TransportError{Endpoint: "meta", Status: http.StatusServiceUnavailable}
	}

	return r.obj, nil
}

func TestObjectScenario(t *testing.T) {
	require := require.New(t)
	ds := newDataServer(t)
	c := newTestClient(t, catalog.NewMemoryResolver(testObject()), remoteSource(t, ds))

	obj := c.Object(testObjectID)
	require.Equal(StateUnresolved, obj.State())

	table, err := obj.Data(context.Background())
	require.NoError(err)
	require.Equal(StateMaterialized, obj.State())
	require.Equal([]string{"TIMESTAMP", "CO2", "FLAG"}, table.Names())
	require.Equal(2, table.RowCount)

	times, err := table.Times("TIMESTAMP")
	require.NoError(err)
	require.Equal([]time.Time{
		time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC),
		time.Date(2023, 11, 14, 22, 14, 20, 0, time.UTC),
	}, times)

	co2, err := table.Float32s("CO2")
	require.NoError(err)
	require.Equal([]float32{412.25, 413.5}, co2)

	flags, err := table.Strings("FLAG")
	require.NoError(err)
	require.Equal([]string{"O", "K"}, flags)

	require.Equal(28, obj.Layout().Size())
	require.Equal("[INT64x2 FLOAT32x2 CHAR16x2]", obj.Layout().String())
}

func TestObjectSelectionConsistency(t *testing.T) {
	root := t.TempDir()
	store, err := source.NewLocalStore(root, "", format.CompressionZstd)
	require.NoError(t, err)
	_, _, err = store.Store(testObject(), fullPayload())
	require.NoError(t, err)

	ds := newDataServer(t)
	local := newTestClient(t, catalog.NewMemoryResolver(testObject()), remoteSource(t, ds, source.WithLocalStore(store)))
	remote := newTestClient(t, catalog.NewMemoryResolver(testObject()), remoteSource(t, ds))

	refs := []projection.ColumnRef{projection.Name("flag"), projection.Index(1)}

	localTable, err := local.Object(testObjectID).Decode(context.Background(), refs...)
	require.NoError(t, err)
	require.Equal(t, 0, ds.requestCount())

	remoteTable, err := remote.Object(testObjectID).Decode(context.Background(), refs...)
	require.NoError(t, err)
	require.Equal(t, 1, ds.requestCount())

	require.Equal(t, []string{"FLAG", "CO2"}, localTable.Names())
	require.Equal(t, remoteTable.Names(), localTable.Names())
	for _, name := range localTable.Names() {
		require.Equal(t, remoteTable.Columns[name].Values, localTable.Columns[name].Values, name)
	}
}

func TestObjectDataReuse(t *testing.T) {
	ds := newDataServer(t)
	c := newTestClient(t, catalog.NewMemoryResolver(testObject()), remoteSource(t, ds))
	obj := c.Object(testObjectID)
	ctx := context.Background()

	first, err := obj.Data(ctx, projection.Names("CO2")...)
	require.NoError(t, err)
	second, err := obj.Data(ctx, projection.Names("co2")...)
	require.NoError(t, err)
	require.Same(t, first, second)
	require.Equal(t, 1, ds.requestCount())
	require.Equal(t, []int{1}, obj.Selection().Indices())
	require.Equal(t, 8, obj.Layout().Size())

	third, err := obj.Data(ctx)
	require.NoError(t, err)
	require.NotSame(t, first, third)
	require.Equal(t, 2, ds.requestCount())
	require.Equal(t, 28, obj.Layout().Size())

	fresh, err := obj.Decode(ctx)
	require.NoError(t, err)
	require.NotSame(t, third, fresh)
	require.Equal(t, 3, ds.requestCount())
}

func TestObjectNotFoundIsTerminal(t *testing.T) {
	ds := newDataServer(t)
	resolver := catalog.NewMemoryResolver()
	c := newTestClient(t, resolver, remoteSource(t, ds))
	obj := c.Object(testObjectID)

	_, err := obj.Data(context.Background())
	var invalid *errs.InvalidObjectError
	require.ErrorAs(t, err, &invalid)
	require.Equal(t, testObjectID, invalid.ObjectID)
	require.Equal(t, StateInvalid, obj.State())

	_, err2 := obj.Decode(context.Background())
	require.Same(t, invalid, err2)
	_, err3 := obj.Schema(context.Background())
	require.Same(t, invalid, err3)

	require.Equal(t, 1, resolver.Calls())
	require.Equal(t, 0, ds.requestCount())
}

func TestObjectWithoutBinaryIsInvalid(t *testing.T) {
	resolver := catalog.NewMemoryResolver(&schema.Object{ObjectID: testObjectID})
	c := newTestClient(t, resolver, remoteSource(t, newDataServer(t)))
	obj := c.Object(testObjectID)

	_, err := obj.Schema(context.Background())
	require.ErrorIs(t, err, errs.ErrInvalidObject)
	require.Equal(t, StateInvalid, obj.State())

	_, err = c.Object(testObjectID).Citation(context.Background())
	require.ErrorIs(t, err, errs.ErrInvalidObject)
	require.Equal(t, 2, resolver.Calls())
}

func TestObjectTransientResolverError(t *testing.T) {
	resolver := &flakyResolver{fails: 1, obj: testObject()}
	c := newTestClient(t, resolver, remoteSource(t, newDataServer(t)))
	obj := c.Object(testObjectID)

	_, err := obj.Schema(context.Background())
	require.ErrorIs(t, err, errs.ErrTransport)
	require.True(t, errs.IsRetryable(err))
	require.Equal(t, StateUnresolved, obj.State())
	require.Zero(t, obj.Layout().Len())

	citation, err := obj.Citation(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Station X, CO2 L2, 2024", citation)
	require.Equal(t, StateSchemaResolved, obj.State())
	require.Equal(t, 3, obj.Layout().Len())
}

func TestObjectUnknownColumn(t *testing.T) {
	ds := newDataServer(t)
	c := newTestClient(t, catalog.NewMemoryResolver(testObject()), remoteSource(t, ds))
	obj := c.Object(testObjectID)

	_, err := obj.Data(context.Background(), projection.Names("CO2", "N2O")...)
	var notFound *errs.ColumnNotFoundError
	require.ErrorAs(t, err, &notFound)
	require.Equal(t, "N2O", notFound.Name)
	require.Equal(t, StateSchemaResolved, obj.State())
	require.Equal(t, 0, ds.requestCount())

	_, err = obj.Data(context.Background(), projection.Index(3))
	require.ErrorIs(t, err, errs.ErrColumnNotFound)
}

func TestObjectZeroRows(t *testing.T) {
	empty := testObject()
	empty.RowCount = 0

	store, err := source.NewLocalStore(t.TempDir(), "", format.CompressionNone)
	require.NoError(t, err)
	_, _, err = store.Store(empty, []byte{})
	require.NoError(t, err)

	c := newTestClient(t, catalog.NewMemoryResolver(empty), remoteSource(t, newDataServer(t), source.WithLocalStore(store)))

	table, err := c.Object(testObjectID).Data(context.Background(), projection.Names("FLAG", "TIMESTAMP")...)
	require.NoError(t, err)
	require.Equal(t, 0, table.RowCount)
	require.Equal(t, []string{"FLAG", "TIMESTAMP"}, table.Names())

	flags, err := table.Strings("FLAG")
	require.NoError(t, err)
	require.Empty(t, flags)
	times, err := table.Times("TIMESTAMP")
	require.NoError(t, err)
	require.Empty(t, times)
}

func TestObjectCancelled(t *testing.T) {
	ds := newDataServer(t)
	c := newTestClient(t, catalog.NewMemoryResolver(testObject()), remoteSource(t, ds))
	obj := c.Object(testObjectID)

	_, err := obj.Schema(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = obj.Data(ctx)
	require.ErrorIs(t, err, errs.ErrCancelled)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, StateSchemaResolved, obj.State())
}

func TestClientSchemaCache(t *testing.T) {
	resolver := catalog.NewMemoryResolver(testObject())
	reg := prometheus.NewRegistry()
	c := newTestClient(t, resolver, remoteSource(t, newDataServer(t)), WithMetrics(reg))
	ctx := context.Background()

	_, err := c.Object(testObjectID).Schema(ctx)
	require.NoError(t, err)
	_, err = c.Object(testObjectID + "/").Schema(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, resolver.Calls())

	c.Invalidate(testObjectID)
	_, err = c.Schema(ctx, testObjectID)
	require.NoError(t, err)
	require.Equal(t, 2, resolver.Calls())

	c.Purge()
	_, err = c.Schema(ctx, testObjectID)
	require.NoError(t, err)
	require.Equal(t, 3, resolver.Calls())

	require.InDelta(t, 1, testutil.ToFloat64(c.metrics.SchemaResolutions.WithLabelValues("cached")), 0)
	require.InDelta(t, 3, testutil.ToFloat64(c.metrics.SchemaResolutions.WithLabelValues("resolved")), 0)
}

func TestObjectConcurrentData(t *testing.T) {
	ds := newDataServer(t)
	c := newTestClient(t, catalog.NewMemoryResolver(testObject()), remoteSource(t, ds))
	obj := c.Object(testObjectID)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			table, err := obj.Data(context.Background())
			if assert.NoError(t, err) {
				assert.Equal(t, 3, table.Len())
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, ds.requestCount())
}

func TestNewClientRejectsNilResolver(t *testing.T) {
	_, err := NewClient(WithResolver(nil))
	require.Error(t, err)

	_, err = NewClient(WithTypeMapper(nil))
	require.Error(t, err)
}

func TestNewClientFromConfig(t *testing.T) {
	meta := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/objects/xYz123" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{
  "specification": {"format": {"self": {"uri": "http://meta.icos-cp.eu/ontologies/cpmeta/atcCo2L2DataObject"}}},
  "specificInfo": {"nRows": 2, "columns": [
    {"label": "TIMESTAMP", "valueFormat": "http://meta.icos-cp.eu/ontologies/cpmeta/int64"},
    {"label": "CO2", "valueFormat": "http://meta.icos-cp.eu/ontologies/cpmeta/float32",
     "valueType": {"self": {"uri": "http://meta.icos-cp.eu/resources/cpmeta/co2MixingRatio", "label": "CO2 mixing ratio"}, "unit": "ppm"}},
    {"label": "FLAG", "valueFormat": "http://meta.icos-cp.eu/ontologies/cpmeta/bmpChar"}
  ]}
}`))
	}))
	t.Cleanup(meta.Close)

	var (
		mu     sync.Mutex
		events []source.UsageEvent
	)
	accounting := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var e source.UsageEvent
		if err := json.NewDecoder(r.Body).Decode(&e); err == nil {
			mu.Lock()
			events = append(events, e)
			mu.Unlock()
		}
	}))
	t.Cleanup(accounting.Close)

	ds := newDataServer(t)

	cfg := config.Default()
	cfg.LocalRoot = t.TempDir()
	cfg.CacheCompression = "s2"
	cfg.WriteThrough = true
	cfg.DataEndpoint = ds.URL
	cfg.MetadataEndpoint = meta.URL + "/objects"
	cfg.AccountingEndpoint = accounting.URL
	cfg.ClientID = "cfg-client"
	cfg.HTTP.EnableHTTP2 = false
	cfg.Log.OutputPaths = []string{"stderr"}
	require.NoError(t, cfg.Validate())

	c, err := NewClientFromConfig(&cfg)
	require.NoError(t, err)
	ctx := context.Background()

	table, err := c.Object(testObjectID).Data(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"TIMESTAMP", "CO2", "FLAG"}, table.Names())
	require.Equal(t, 1, ds.requestCount())

	desc, err := c.Schema(ctx, testObjectID)
	require.NoError(t, err)
	require.Equal(t, "ppm", desc.Columns[1].Unit)

	// written through to the local cache, so a new object is served locally
	again, err := c.Object(testObjectID).Decode(ctx, projection.Names("FLAG")...)
	require.NoError(t, err)
	require.Equal(t, []string{"FLAG"}, again.Names())
	require.Equal(t, 1, ds.requestCount())

	require.NoError(t, c.Close(ctx))
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 1)
	require.Equal(t, "cfg-client", events[0].ClientID)
	require.Equal(t, testObjectID, events[0].ObjectID)

	_, err = c.Object("https://meta.icos-cp.eu/objects/missing").Schema(ctx)
	require.True(t, errors.Is(err, errs.ErrInvalidObject))
}

func TestClientCloseDrainsSourceAccountant(t *testing.T) {
	var (
		mu     sync.Mutex
		events []source.UsageEvent
	)
	accounting := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		var e source.UsageEvent
		if err := json.NewDecoder(r.Body).Decode(&e); err == nil {
			mu.Lock()
			events = append(events, e)
			mu.Unlock()
		}
	}))
	t.Cleanup(accounting.Close)

	acct := source.NewHTTPAccountant(accounting.Client(), accounting.URL, nil, nil)
	ds := newDataServer(t)
	c := newTestClient(t, catalog.NewMemoryResolver(testObject()), remoteSource(t, ds, source.WithAccountant(acct)))

	_, err := c.Object(testObjectID).Data(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.Close(ctx))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 1)
	require.Equal(t, testObjectID, events[0].ObjectID)
}
