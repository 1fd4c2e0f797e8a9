package engine

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/aws/smithy-go"
)

func apiErr(code, msg string) error {
	return &smithy.GenericAPIError{Code: code, Message: msg}
}

func TestClassifier_BaseMapping(t *testing.T) {
	c := NewClassifier()
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"access denied", apiErr(CodeAccessDenied, "no"), KindAccessDenied},
		{"unauthorized", apiErr(CodeUnauthorized, "no"), KindAccessDenied},
		{"conflict", apiErr(CodeConflict, "exists"), KindAlreadyExists},
		{"not found", apiErr(CodeResourceNotFound, "gone"), KindNotFound},
		{"validation", apiErr(CodeValidation, "bad"), KindInvalidRequest},
		{"quota", apiErr(CodeServiceQuotaExceeded, "max"), KindServiceLimitExceeded},
		{"throttling", apiErr(CodeThrottling, "slow down"), KindThrottled},
		{"internal server", apiErr(CodeInternalServer, "oops"), KindInternalFailure},
		{"unrecognized code", apiErr("WeirdException", "?"), KindInternalFailure},
		{"non-api error", errors.New("connection reset"), KindUnknown},
		{"wrapped api error", fmt.Errorf("op: %w", apiErr(CodeThrottling, "x")), KindThrottled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, op := range []Operation{OpCreate, OpRead, OpUpdate, OpDelete, OpList} {
				if got := c.Kind(tt.err, op); got != tt.want {
					t.Errorf("Kind(%s) = %s, want %s", op, got, tt.want)
				}
			}
		})
	}
}

func TestClassifier_Overrides(t *testing.T) {
	c := NewClassifier(
		Override{Operation: OpCreate, Code: CodeValidation, Substring: "already exists", Kind: KindAlreadyExists},
		Override{Operation: OpRead, Code: CodeAccessDenied, Kind: KindNotFound},
		Override{Code: CodeConflict, Kind: KindResourceConflict},
	)
	tests := []struct {
		name string
		err  error
		op   Operation
		want ErrorKind
	}{
		{"substring match", apiErr(CodeValidation, "Domain ALREADY EXISTS in account"), OpCreate, KindAlreadyExists},
		{"substring miss", apiErr(CodeValidation, "name too long"), OpCreate, KindInvalidRequest},
		{"operation miss", apiErr(CodeValidation, "already exists"), OpUpdate, KindInvalidRequest},
		{"access denied on read", apiErr(CodeAccessDenied, "denied"), OpRead, KindNotFound},
		{"access denied on create", apiErr(CodeAccessDenied, "denied"), OpCreate, KindAccessDenied},
		{"any operation", apiErr(CodeConflict, "busy"), OpDelete, KindResourceConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Kind(tt.err, tt.op); got != tt.want {
				t.Errorf("Kind() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestClassifier_Classify(t *testing.T) {
	c := NewClassifier()

	he := c.Classify(apiErr("WeirdException", "strange"), OpUpdate, "Test::Widget", "w-1")
	if he.Kind != KindInternalFailure {
		t.Errorf("Kind = %s, want InternalFailure", he.Kind)
	}
	if he.Code != "WeirdException" {
		t.Errorf("Code = %q, want WeirdException", he.Code)
	}
	msg := he.Error()
	for _, want := range []string{"update", "Test::Widget", "w-1", "WeirdException", "strange"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}

	he = c.Classify(errors.New("dial tcp: timeout"), OpRead, "Test::Widget", "")
	if he.Kind != KindUnknown || !he.Kind.IsInternalFailure() {
		t.Errorf("Kind = %s, want Unknown in the internal-failure class", he.Kind)
	}
	if !strings.Contains(he.Message, "read failed") {
		t.Errorf("Message = %q, want operation named", he.Message)
	}

	prior := &HandlerError{Kind: KindThrottled, Operation: OpList}
	if got := c.Classify(fmt.Errorf("wrap: %w", prior), OpRead, "x", ""); got != prior {
		t.Error("expected existing HandlerError to pass through")
	}
}

func TestClassifier_NilUsesBaseMapping(t *testing.T) {
	var c *Classifier
	if got := c.Kind(apiErr(CodeResourceNotFound, "x"), OpRead); got != KindNotFound {
		t.Errorf("Kind() = %s, want NotFound", got)
	}
}

func TestHandlerError_Unwrap(t *testing.T) {
	cause := apiErr(CodeThrottling, "slow")
	he := NewClassifier().Classify(cause, OpRead, "Test::Widget", "w-1")
	var ae smithy.APIError
	if !errors.As(he, &ae) {
		t.Fatal("expected smithy.APIError in chain")
	}
	if AsHandlerError(fmt.Errorf("outer: %w", he)) != he {
		t.Error("AsHandlerError did not find wrapped error")
	}
	if AsHandlerError(errors.New("plain")) != nil {
		t.Error("AsHandlerError should be nil for plain errors")
	}
}

func TestUnknownStatusError_IsFatal(t *testing.T) {
	err := fmt.Errorf("step: %w", &UnknownStatusError{
		ResourceType: "Test::Widget", Identity: "w-1", Operation: OpCreate, Status: "EXPLODING",
	})
	if !IsFatal(err) {
		t.Error("expected unknown status to be fatal")
	}
	if !strings.Contains(err.Error(), "EXPLODING") {
		t.Errorf("message %q missing status", err.Error())
	}
	if IsFatal(apiErr(CodeInternalServer, "x")) {
		t.Error("classified errors must not be fatal")
	}
}
