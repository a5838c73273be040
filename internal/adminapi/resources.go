package adminapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"slices"

	"golang.org/x/oauth2"
)

// Kind names one functional area of the Admin API. The set is closed: use
// the Kind constants, or ParseKind for user-supplied names.
type Kind string

// Resource categories.
const (
	KindApps          Kind = "apps"
	KindAPIKeys       Kind = "api_keys"
	KindAuthProviders Kind = "auth_providers"
	KindDeployments   Kind = "deployments"
	KindEndpoints     Kind = "endpoints"
	KindFunctions     Kind = "functions"
	KindLogs          Kind = "logs"
	KindRules         Kind = "rules"
	KindSecrets       Kind = "secrets"
	KindServices      Kind = "services"
	KindTriggers      Kind = "triggers"
	KindUsers         Kind = "users"
	KindValues        Kind = "values"
)

// kindSpec describes where a Kind lives in the URL space.
type kindSpec struct {
	segment       string
	groupScoped   bool     // lives under /groups/{g} rather than /groups/{g}/apps/{a}
	serviceScoped bool     // lives under .../services/{serviceID}
	listField     string   // list responses wrap the items in this field
	writeOnly     []string // document fields masked in call logs
}

var catalog = map[Kind]kindSpec{
	KindApps:          {segment: "apps", groupScoped: true},
	KindAPIKeys:       {segment: "api_keys", writeOnly: []string{"key"}},
	KindAuthProviders: {segment: "auth_providers"},
	KindDeployments:   {segment: "deployments"},
	KindEndpoints:     {segment: "endpoints"},
	KindFunctions:     {segment: "functions"},
	KindLogs:          {segment: "logs", listField: "logs"},
	KindRules:         {segment: "rules", serviceScoped: true},
	KindSecrets:       {segment: "secrets", writeOnly: []string{"value"}},
	KindServices:      {segment: "services"},
	KindTriggers:      {segment: "triggers"},
	KindUsers:         {segment: "users"},
	KindValues:        {segment: "values"},
}

// Kinds returns every resource category in lexical order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(catalog))
	for k := range catalog {
		kinds = append(kinds, k)
	}

	slices.Sort(kinds)

	return kinds
}

// ParseKind maps a user-supplied name to a Kind. Unknown names fail with
// ErrUnknownResource.
func ParseKind(name string) (Kind, error) {
	k := Kind(name)
	if _, ok := catalog[k]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownResource, name)
	}

	return k, nil
}

// RequiresService reports whether handles of this Kind need a service id.
func (k Kind) RequiresService() bool {
	return catalog[k].serviceScoped
}

// Resource is a call-ready handle for one resource category, bound to the
// credentials that were current when it was requested. A handle kept past
// its token's lifetime gets ErrUnauthorized from the service; request a new
// handle instead of retrying on the old one.
type Resource[T any] interface {
	List(ctx context.Context, query url.Values) ([]T, error)
	Get(ctx context.Context, id string) (*T, error)
	Create(ctx context.Context, item T) (*T, error)
	Update(ctx context.Context, id string, item T) error
	Delete(ctx context.Context, id string) error
}

// Apps returns a handle for the workspace's applications.
func (c *Client) Apps(ctx context.Context) (Resource[App], error) {
	return handle[App](ctx, c, KindApps, "")
}

// APIKeys returns a handle for the application's server API keys.
func (c *Client) APIKeys(ctx context.Context) (Resource[APIKey], error) {
	return handle[APIKey](ctx, c, KindAPIKeys, "")
}

// AuthProviders returns a handle for the application's authentication providers.
func (c *Client) AuthProviders(ctx context.Context) (Resource[AuthProvider], error) {
	return handle[AuthProvider](ctx, c, KindAuthProviders, "")
}

// Deployments returns a handle for the application's deployment history.
func (c *Client) Deployments(ctx context.Context) (Resource[Deployment], error) {
	return handle[Deployment](ctx, c, KindDeployments, "")
}

// Endpoints returns a handle for the application's HTTPS endpoints.
func (c *Client) Endpoints(ctx context.Context) (Resource[Endpoint], error) {
	return handle[Endpoint](ctx, c, KindEndpoints, "")
}

// Functions returns a handle for the application's functions.
func (c *Client) Functions(ctx context.Context) (Resource[Function], error) {
	return handle[Function](ctx, c, KindFunctions, "")
}

// Logs returns a handle for the application's logs.
func (c *Client) Logs(ctx context.Context) (Resource[LogEntry], error) {
	return handle[LogEntry](ctx, c, KindLogs, "")
}

// Rules returns a handle for the rules of one linked data source.
func (c *Client) Rules(ctx context.Context, serviceID string) (Resource[Rule], error) {
	return handle[Rule](ctx, c, KindRules, serviceID)
}

// Secrets returns a handle for the application's secrets.
func (c *Client) Secrets(ctx context.Context) (Resource[Secret], error) {
	return handle[Secret](ctx, c, KindSecrets, "")
}

// Services returns a handle for the application's linked services.
func (c *Client) Services(ctx context.Context) (Resource[Service], error) {
	return handle[Service](ctx, c, KindServices, "")
}

// Triggers returns a handle for the application's triggers.
func (c *Client) Triggers(ctx context.Context) (Resource[Trigger], error) {
	return handle[Trigger](ctx, c, KindTriggers, "")
}

// Users returns a handle for the application's end users.
func (c *Client) Users(ctx context.Context) (Resource[User], error) {
	return handle[User](ctx, c, KindUsers, "")
}

// Values returns a handle for the application's values.
func (c *Client) Values(ctx context.Context) (Resource[Value], error) {
	return handle[Value](ctx, c, KindValues, "")
}

// Generic returns an untyped handle for kind, for callers that only know
// the category at run time. serviceID is required for service-scoped kinds
// and ignored otherwise.
func (c *Client) Generic(ctx context.Context, kind Kind, serviceID string) (Resource[json.RawMessage], error) {
	return handle[json.RawMessage](ctx, c, kind, serviceID)
}

// handle checks the catalog, makes sure the session is valid, and builds an
// observed handle bound to the session snapshot. Catalog and scope checks
// run before the session check so programmer errors never cost a request.
func handle[T any](ctx context.Context, c *Client, kind Kind, serviceID string) (Resource[T], error) {
	spec, ok := catalog[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownResource, kind)
	}

	if spec.serviceScoped && serviceID == "" {
		return nil, fmt.Errorf("adminapi: %s handle requires a service id", kind)
	}

	sess, err := c.ensureSession(ctx)
	if err != nil {
		return nil, err
	}

	inner := &restResource[T]{
		path:      resourcePath(spec, sess, serviceID),
		listField: spec.listField,
		t: &transport{
			baseURL:    c.store.Identity().BaseURL,
			httpClient: c.bearerClient(sess),
			logger:     c.logger,
		},
	}

	return &observed[T]{
		inner:  inner,
		kind:   kind,
		logger: c.logger,
	}, nil
}

// resourcePath builds the collection path for spec under sess's identity.
func resourcePath(spec kindSpec, sess *Session, serviceID string) string {
	p := "/groups/" + url.PathEscape(sess.GroupID)
	if spec.groupScoped {
		return p + "/" + spec.segment
	}

	p += "/apps/" + url.PathEscape(sess.AppID)
	if spec.serviceScoped {
		p += "/services/" + url.PathEscape(serviceID)
	}

	return p + "/" + spec.segment
}

// bearerClient returns an http.Client that sends sess's access token on
// every request. The token is a fixed snapshot; the client never refreshes.
func (c *Client) bearerClient(sess *Session) *http.Client {
	tok := &oauth2.Token{
		AccessToken: sess.AccessToken,
		TokenType:   "Bearer",
		Expiry:      sess.Expiry,
	}

	return &http.Client{
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(tok),
			Base:   c.httpClient.Transport,
		},
		Timeout: c.httpClient.Timeout,
	}
}

// restResource implements Resource over the generic Admin API CRUD shape.
type restResource[T any] struct {
	path      string
	listField string
	t         *transport
}

func (r *restResource[T]) List(ctx context.Context, query url.Values) ([]T, error) {
	if r.listField == "" {
		var items []T
		if err := r.t.do(ctx, request{method: http.MethodGet, path: r.path, query: query, out: &items}); err != nil {
			return nil, err
		}

		return items, nil
	}

	var envelope map[string]json.RawMessage
	if err := r.t.do(ctx, request{method: http.MethodGet, path: r.path, query: query, out: &envelope}); err != nil {
		return nil, err
	}

	raw, ok := envelope[r.listField]
	if !ok || string(raw) == "null" {
		return nil, nil
	}

	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("adminapi: decoding %s list: %w", r.listField, err)
	}

	return items, nil
}

func (r *restResource[T]) Get(ctx context.Context, id string) (*T, error) {
	var item T
	if err := r.t.do(ctx, request{method: http.MethodGet, path: r.itemPath(id), out: &item}); err != nil {
		return nil, err
	}

	return &item, nil
}

func (r *restResource[T]) Create(ctx context.Context, item T) (*T, error) {
	var created T
	if err := r.t.do(ctx, request{method: http.MethodPost, path: r.path, body: item, out: &created}); err != nil {
		return nil, err
	}

	return &created, nil
}

func (r *restResource[T]) Update(ctx context.Context, id string, item T) error {
	return r.t.do(ctx, request{method: http.MethodPut, path: r.itemPath(id), body: item})
}

func (r *restResource[T]) Delete(ctx context.Context, id string) error {
	return r.t.do(ctx, request{method: http.MethodDelete, path: r.itemPath(id)})
}

func (r *restResource[T]) itemPath(id string) string {
	return r.path + "/" + url.PathEscape(id)
}
