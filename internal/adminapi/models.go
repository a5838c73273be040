package adminapi

import "encoding/json"

// These types mirror the Admin API JSON documents. Only the commonly used
// fields are named; nested configuration blocks are kept raw so a
// Get-then-Update round trip does not lose data.

// App is an application in a workspace.
type App struct {
	ID              string `json:"_id,omitempty"`
	ClientAppID     string `json:"client_app_id,omitempty"`
	GroupID         string `json:"group_id,omitempty"`
	Name            string `json:"name,omitempty"`
	Location        string `json:"location,omitempty"`
	DeploymentModel string `json:"deployment_model,omitempty"`
	Environment     string `json:"environment,omitempty"`
	Product         string `json:"product,omitempty"`
}

// AuthProvider is an end-user authentication provider configuration.
type AuthProvider struct {
	ID       string          `json:"_id,omitempty"`
	Name     string          `json:"name,omitempty"`
	Type     string          `json:"type,omitempty"`
	Disabled bool            `json:"disabled"`
	Config   json.RawMessage `json:"config,omitempty"`
}

// APIKey is a server API key for end-user authentication.
type APIKey struct {
	ID       string `json:"_id,omitempty"`
	Name     string `json:"name,omitempty"`
	Disabled bool   `json:"disabled"`
	Key      string `json:"key,omitempty"` // only present on create; NEVER log
}

// Deployment is one deployment of the application's configuration.
type Deployment struct {
	ID                 string `json:"_id,omitempty"`
	Name               string `json:"name,omitempty"`
	Status             string `json:"status,omitempty"`
	StatusErrorMessage string `json:"status_error_message,omitempty"`
	DeployedAt         int64  `json:"deployed_at,omitempty"`
}

// Endpoint is a custom HTTPS endpoint.
type Endpoint struct {
	ID         string `json:"_id,omitempty"`
	Route      string `json:"route,omitempty"`
	HTTPMethod string `json:"http_method,omitempty"`
	FunctionID string `json:"function_id,omitempty"`
	Disabled   bool   `json:"disabled"`
}

// Function is a server-side function.
type Function struct {
	ID          string `json:"_id,omitempty"`
	Name        string `json:"name,omitempty"`
	Source      string `json:"source,omitempty"`
	Private     bool   `json:"private"`
	RunAsSystem bool   `json:"run_as_system,omitempty"`
}

// LogEntry is one application log record.
type LogEntry struct {
	ID        string          `json:"_id,omitempty"`
	Type      string          `json:"type,omitempty"`
	Function  string          `json:"function_name,omitempty"`
	Error     string          `json:"error,omitempty"`
	Logs      []string        `json:"logs,omitempty"`
	Started   string          `json:"started,omitempty"`
	Completed string          `json:"completed,omitempty"`
	Messages  json.RawMessage `json:"messages,omitempty"`
}

// Rule is a data access rule on a linked data source.
type Rule struct {
	ID         string          `json:"_id,omitempty"`
	Database   string          `json:"database,omitempty"`
	Collection string          `json:"collection,omitempty"`
	Roles      json.RawMessage `json:"roles,omitempty"`
}

// Secret is a named secret. The value is write-only.
type Secret struct {
	ID    string `json:"_id,omitempty"`
	Name  string `json:"name,omitempty"`
	Value string `json:"value,omitempty"` // NEVER log
}

// Service is a linked data source or third-party service.
type Service struct {
	ID     string          `json:"_id,omitempty"`
	Name   string          `json:"name,omitempty"`
	Type   string          `json:"type,omitempty"`
	Config json.RawMessage `json:"config,omitempty"`
}

// Trigger is a database, authentication or scheduled trigger.
type Trigger struct {
	ID         string          `json:"_id,omitempty"`
	Name       string          `json:"name,omitempty"`
	Type       string          `json:"type,omitempty"`
	FunctionID string          `json:"function_id,omitempty"`
	Disabled   bool            `json:"disabled"`
	Config     json.RawMessage `json:"config,omitempty"`
}

// User is an application end user.
type User struct {
	ID                     string          `json:"_id,omitempty"`
	Type                   string          `json:"type,omitempty"`
	Disabled               bool            `json:"disabled"`
	CreationDate           int64           `json:"creation_date,omitempty"`
	LastAuthenticationDate int64           `json:"last_authentication_date,omitempty"`
	Data                   json.RawMessage `json:"data,omitempty"`
}

// Value is a named configuration value.
type Value struct {
	ID         string          `json:"_id,omitempty"`
	Name       string          `json:"name,omitempty"`
	Private    bool            `json:"private"`
	FromSecret bool            `json:"from_secret,omitempty"`
	Value      json.RawMessage `json:"value,omitempty"`
}

// redactor is implemented by documents carrying write-only secrets. The
// observability layer logs the redacted form instead of the document.
type redactor interface {
	redacted() any
}

const redactedValue = "[REDACTED]"

func (k APIKey) redacted() any {
	if k.Key != "" {
		k.Key = redactedValue
	}

	return k
}

func (s Secret) redacted() any {
	if s.Value != "" {
		s.Value = redactedValue
	}

	return s
}
