package gateway_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/joeydtaylor/steeze-rpc/pkg/broker/memory"
	"github.com/joeydtaylor/steeze-rpc/pkg/gateway"
	"github.com/joeydtaylor/steeze-rpc/pkg/middleware/auth"
	"github.com/joeydtaylor/steeze-rpc/pkg/middleware/logger"
	"github.com/joeydtaylor/steeze-rpc/pkg/rpc"
	"github.com/joeydtaylor/steeze-rpc/pkg/sample"
)

type env struct {
	srv    *httptest.Server
	broker *memory.Broker
}

func newEnv(t *testing.T, withService bool, d gateway.Deps) env {
	t.Helper()
	b := memory.New()
	if withService {
		svc, err := sample.NewService(b, sample.NewStore())
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { _ = svc.Shutdown(context.Background()) })
	}
	c, err := sample.NewClient(b)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = c.Shutdown(context.Background()) })

	d.Samples = c
	d.LogMW = logger.NewMiddleware(zap.NewNop())
	if d.Timeout == 0 {
		d.Timeout = 2 * time.Second
	}
	srv := httptest.NewServer(gateway.BuildRouter(d))
	t.Cleanup(srv.Close)
	return env{srv: srv, broker: b}
}

func do(t *testing.T, method, url, body string, hdr map[string]string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	out := map[string]any{}
	_ = json.NewDecoder(res.Body).Decode(&out)
	return res, out
}

func TestSampleLifecycleOverHTTP(t *testing.T) {
	e := newEnv(t, true, gateway.Deps{})
	base := e.srv.URL + "/samples"

	res, created := do(t, http.MethodPost, base, `{"name":"bolt","type":"hardware","count":2}`, nil)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d %v", res.StatusCode, created)
	}
	id, _ := created["id"].(string)
	if id == "" {
		t.Fatalf("no id in %v", created)
	}

	res, got := do(t, http.MethodGet, base+"/"+id, "", nil)
	if res.StatusCode != http.StatusOK || got["name"] != "bolt" {
		t.Fatalf("get = %d %v", res.StatusCode, got)
	}

	res, upd := do(t, http.MethodPut, base+"/"+id, `{"name":"bolt","type":"hardware","count":9}`, nil)
	if res.StatusCode != http.StatusOK || upd["count"] != float64(9) {
		t.Fatalf("update = %d %v", res.StatusCode, upd)
	}

	res, list := do(t, http.MethodGet, base+"?page=1&pageSize=5&searchField=name&searchTerm=BO", "", nil)
	if res.StatusCode != http.StatusOK || list["totalCount"] != float64(1) || list["hasNext"] != false {
		t.Fatalf("list = %d %v", res.StatusCode, list)
	}

	if res, _ := do(t, http.MethodDelete, base+"/"+id, "", nil); res.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d", res.StatusCode)
	}
	if res, _ := do(t, http.MethodGet, base+"/"+id, "", nil); res.StatusCode != http.StatusNotFound {
		t.Fatalf("get after delete = %d", res.StatusCode)
	}
	if res, _ := do(t, http.MethodPut, base+"/"+id, `{"name":"x","type":"y","count":1}`, nil); res.StatusCode != http.StatusNotFound {
		t.Fatalf("update missing = %d", res.StatusCode)
	}
}

func TestValidationErrors(t *testing.T) {
	e := newEnv(t, true, gateway.Deps{})
	res, body := do(t, http.MethodPost, e.srv.URL+"/samples", `{"name":"","type":"t","count":0}`, nil)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d", res.StatusCode)
	}
	fields, _ := body["fields"].(map[string]any)
	if _, ok := fields["name"]; !ok {
		t.Fatalf("fields = %v", body)
	}
	if _, ok := fields["count"]; !ok {
		t.Fatalf("fields = %v", body)
	}

	if res, _ := do(t, http.MethodPost, e.srv.URL+"/samples", `{"name":"a","unknown":1}`, nil); res.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown field status = %d", res.StatusCode)
	}
	res, body = do(t, http.MethodGet, e.srv.URL+"/samples?page=abc", "", nil)
	if msg, _ := body["error"].(string); res.StatusCode != http.StatusBadRequest || !strings.Contains(msg, "page: ") {
		t.Fatalf("bad page = %d %v", res.StatusCode, body)
	}
}

func TestTimeoutMapsTo504(t *testing.T) {
	e := newEnv(t, false, gateway.Deps{Timeout: 50 * time.Millisecond})
	if res, _ := do(t, http.MethodGet, e.srv.URL+"/samples/nope", "", nil); res.StatusCode != http.StatusGatewayTimeout {
		t.Fatalf("status = %d, want 504", res.StatusCode)
	}
}

func TestPublishFailureMapsTo502(t *testing.T) {
	e := newEnv(t, true, gateway.Deps{})
	e.broker.FailPublishes(errors.New("broker down"))
	if res, _ := do(t, http.MethodGet, e.srv.URL+"/samples", "", nil); res.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", res.StatusCode)
	}
}

func TestRequireAuthGuardsMutations(t *testing.T) {
	a := auth.New(auth.Config{Secret: "k"})
	e := newEnv(t, true, gateway.Deps{Auth: a, RequireAuth: true})

	body := `{"name":"n","type":"t","count":1}`
	if res, _ := do(t, http.MethodPost, e.srv.URL+"/samples", body, nil); res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("anonymous create = %d, want 401", res.StatusCode)
	}
	if res, _ := do(t, http.MethodGet, e.srv.URL+"/samples", "", nil); res.StatusCode != http.StatusOK {
		t.Fatalf("anonymous list = %d, want 200", res.StatusCode)
	}

	tok, err := a.Sign(auth.User{Username: "ops"}, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute))})
	if err != nil {
		t.Fatal(err)
	}
	res, _ := do(t, http.MethodPost, e.srv.URL+"/samples", body, map[string]string{"Authorization": "Bearer " + tok})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("authenticated create = %d", res.StatusCode)
	}
}

func TestPingAndMetrics(t *testing.T) {
	e := newEnv(t, true, gateway.Deps{Metrics: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	})})
	for _, p := range []string{"/ping", "/metrics"} {
		res, err := http.Get(e.srv.URL + p)
		if err != nil {
			t.Fatal(err)
		}
		res.Body.Close()
		if res.StatusCode != http.StatusOK {
			t.Fatalf("%s = %d", p, res.StatusCode)
		}
	}
}

func TestRemoteErrorMapsTo502(t *testing.T) {
	b := memory.New()
	svc, err := sample.NewService(b, sample.NewStore(), rpc.WithErrorReplies(true))
	if err != nil {
		t.Fatal(err)
	}
	defer svc.Shutdown(context.Background())
	c, err := sample.NewClient(b)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Shutdown(context.Background())

	// bypass gateway validation so the service rejects the request
	_, callErr := c.Create(context.Background(), sample.WantsCreateSampleEvent{}, time.Second)
	var remote *rpc.RemoteError
	if !errors.As(callErr, &remote) {
		t.Fatalf("err = %v, want *RemoteError", callErr)
	}
	srv := httptest.NewServer(gateway.BuildRouter(gateway.Deps{Samples: remoteFailing{remote}}))
	defer srv.Close()
	if res, _ := do(t, http.MethodGet, srv.URL+"/samples", "", nil); res.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", res.StatusCode)
	}
}

type remoteFailing struct{ err error }

func (f remoteFailing) Create(context.Context, sample.WantsCreateSampleEvent, time.Duration) (sample.CompletedCreateSampleEvent, error) {
	return sample.CompletedCreateSampleEvent{}, f.err
}
func (f remoteFailing) Update(context.Context, sample.WantsUpdateSampleEvent, time.Duration) (sample.CompletedUpdateSampleEvent, error) {
	return sample.CompletedUpdateSampleEvent{}, f.err
}
func (f remoteFailing) Delete(context.Context, sample.WantsDeleteSampleEvent, time.Duration) (sample.CompletedDeleteSampleEvent, error) {
	return sample.CompletedDeleteSampleEvent{}, f.err
}
func (f remoteFailing) Get(context.Context, sample.WantsGetSampleEvent, time.Duration) (sample.CompletedGetSampleEvent, error) {
	return sample.CompletedGetSampleEvent{}, f.err
}
func (f remoteFailing) GetAll(context.Context, sample.WantsGetAllSampleEvent, time.Duration) (sample.CompletedGetAllSampleEvent, error) {
	return sample.CompletedGetAllSampleEvent{}, f.err
}
