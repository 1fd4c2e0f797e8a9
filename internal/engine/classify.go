package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aws/smithy-go"
)

// Raw exception codes reported by AWS control-plane APIs.
const (
	CodeAccessDenied         = "AccessDeniedException"
	CodeUnauthorized         = "UnauthorizedException"
	CodeConflict             = "ConflictException"
	CodeResourceNotFound     = "ResourceNotFoundException"
	CodeValidation           = "ValidationException"
	CodeServiceQuotaExceeded = "ServiceQuotaExceededException"
	CodeThrottling           = "ThrottlingException"
	CodeInternalServer       = "InternalServerException"
)

// baseKinds is the default code-to-kind mapping shared by every resource type.
var baseKinds = map[string]ErrorKind{
	CodeAccessDenied:         KindAccessDenied,
	CodeUnauthorized:         KindAccessDenied,
	CodeConflict:             KindAlreadyExists,
	CodeResourceNotFound:     KindNotFound,
	CodeValidation:           KindInvalidRequest,
	CodeServiceQuotaExceeded: KindServiceLimitExceeded,
	CodeThrottling:           KindThrottled,
	CodeInternalServer:       KindInternalFailure,
}

// Override reclassifies a raw failure for one resource type. Empty Operation
// matches every operation and empty Substring matches every message.
type Override struct {
	Operation Operation
	Code      string
	Substring string
	Kind      ErrorKind
}

func (o Override) matches(op Operation, code, msg string) bool {
	if o.Operation != "" && o.Operation != op {
		return false
	}
	if o.Code != code {
		return false
	}
	return o.Substring == "" || strings.Contains(strings.ToLower(msg), strings.ToLower(o.Substring))
}

// Classifier maps raw remote failures onto ErrorKinds. Overrides are checked
// in declaration order before the base mapping; the first match wins.
type Classifier struct {
	overrides []Override
}

// NewClassifier creates a Classifier with the given override table.
func NewClassifier(overrides ...Override) *Classifier {
	return &Classifier{overrides: overrides}
}

// Kind returns the ErrorKind for err observed during op. It is total: every
// error yields exactly one kind.
func (c *Classifier) Kind(err error, op Operation) ErrorKind {
	kind, _ := c.kind(err, op)
	return kind
}

// kind also reports whether the failure matched a declared code.
func (c *Classifier) kind(err error, op Operation) (ErrorKind, bool) {
	code, msg, ok := apiError(err)
	if !ok {
		return KindUnknown, false
	}
	if c != nil {
		for _, o := range c.overrides {
			if o.matches(op, code, msg) {
				return o.Kind, true
			}
		}
	}
	if kind, found := baseKinds[code]; found {
		return kind, true
	}
	return KindInternalFailure, false
}

// Classify wraps err into a HandlerError for the given resource.
func (c *Classifier) Classify(err error, op Operation, resourceType, identity string) *HandlerError {
	if he := AsHandlerError(err); he != nil {
		return he
	}
	kind, recognized := c.kind(err, op)
	code, msg, ok := apiError(err)
	switch {
	case !ok:
		msg = fmt.Sprintf("%s failed: %v", op, err)
	case !recognized:
		msg = fmt.Sprintf("%s failed with unrecognized error %s: %s", op, code, msg)
	}
	return &HandlerError{
		Kind:         kind,
		ResourceType: resourceType,
		Identity:     identity,
		Operation:    op,
		Code:         code,
		Message:      msg,
		Cause:        err,
	}
}

// apiError extracts the remote error code and message from err.
func apiError(err error) (code, msg string, ok bool) {
	if err == nil {
		return "", "", false
	}
	var ae smithy.APIError
	if !errors.As(err, &ae) {
		return "", "", false
	}
	return ae.ErrorCode(), ae.ErrorMessage(), true
}
