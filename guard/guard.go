// Package guard exposes the input validators as named checks with a uniform
// result shape. The demo-guard CLI and the MCP tool server both dispatch
// through a Checker, so a value validated from the IDE extension host gets
// exactly the answer the Go code paths would give.
package guard

import (
	"errors"
	"fmt"
	"sort"

	"github.com/jongio/demo-builder-core/logutil"
	"github.com/jongio/demo-builder-core/metrics"
	"github.com/jongio/demo-builder-core/security"
	"github.com/jongio/demo-builder-core/urlutil"
)

var log = logutil.NewLogger("guard")

// Kind selects a validator.
type Kind string

// Check kinds.
const (
	KindResourceID  Kind = "id"
	KindOrgID       Kind = "org-id"
	KindProjectID   Kind = "project-id"
	KindWorkspaceID Kind = "workspace-id"
	KindMeshID      Kind = "mesh-id"
	KindProjectName Kind = "project-name"
	KindPath        Kind = "path"
	KindURL         Kind = "url"
	KindGitHubURL   Kind = "github-url"
	KindToken       Kind = "token"
)

// FieldResourceID labels errors from the generic identifier check.
const FieldResourceID = "resource ID"

// Kinds returns every check kind, sorted.
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(idChecks)+4)
	for k := range idChecks {
		kinds = append(kinds, k)
	}
	kinds = append(kinds, KindPath, KindURL, KindGitHubURL, KindToken)
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

var idChecks = map[Kind]func(string) error{
	KindResourceID:  func(v string) error { return security.ValidateResourceID(v, FieldResourceID) },
	KindOrgID:       security.ValidateOrgID,
	KindProjectID:   security.ValidateProjectID,
	KindWorkspaceID: security.ValidateWorkspaceID,
	KindMeshID:      security.ValidateMeshID,
	KindProjectName: security.ValidateProjectNameSecurity,
}

// Result is the uniform answer of a check. Error is "invalid_input" or
// "security_rejection" when Valid is false. Resolved carries the canonical
// path for path checks.
type Result struct {
	Kind     Kind   `json:"kind"`
	Valid    bool   `json:"valid"`
	Error    string `json:"error,omitempty"`
	Message  string `json:"message,omitempty"`
	Resolved string `json:"resolved,omitempty"`
}

// Checker runs checks against a fixed projects root and URL protocol
// allow-list.
type Checker struct {
	paths     *security.PathValidator
	protocols []string
}

// NewChecker creates a Checker. An empty protocols list means https only.
func NewChecker(projectsRoot string, protocols []string) (*Checker, error) {
	paths, err := security.NewPathValidator(projectsRoot)
	if err != nil {
		return nil, err
	}
	if len(protocols) == 0 {
		protocols = urlutil.DefaultAllowedProtocols
	}
	return &Checker{paths: paths, protocols: protocols}, nil
}

// ProjectsRoot returns the canonical projects root.
func (c *Checker) ProjectsRoot() string {
	return c.paths.Root()
}

// ErrUnknownKind is returned by Check for a kind it does not know.
var ErrUnknownKind = errors.New("unknown check kind")

// Check validates value as kind.
func (c *Checker) Check(kind Kind, value string) (Result, error) {
	var (
		err      error
		resolved string
	)

	switch kind {
	case KindPath:
		resolved, err = c.paths.ValidateProjectPath(value)
	case KindURL:
		err = urlutil.ValidateURL(value, c.protocols...)
	case KindGitHubURL:
		if !urlutil.ValidateGitHubDownloadURL(value) {
			err = security.Rejected("", "not a GitHub release asset URL")
		}
	case KindToken:
		err = security.ValidateAccessToken(value)
	default:
		check, ok := idChecks[kind]
		if !ok {
			return Result{}, fmt.Errorf("%w %q", ErrUnknownKind, kind)
		}
		err = check(value)
	}

	if err != nil {
		var verr *security.ValidationError
		field := string(kind)
		if errors.As(err, &verr) && verr.Field != "" {
			field = verr.Field
		}
		metrics.RecordValidationRejection(field, security.KindName(err))
		log.Debug("check rejected input", "kind", string(kind), "reason", security.KindName(err))
		return Result{Kind: kind, Error: security.KindName(err), Message: err.Error()}, nil
	}
	return Result{Kind: kind, Valid: true, Resolved: resolved}, nil
}
