package datazone

import (
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/datazone/types"
)

// Parameter is a user-supplied blueprint parameter.
type Parameter struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// optString returns nil for the empty string so optional request fields are
// omitted instead of sent empty.
func optString(s string) *string {
	if s == "" {
		return nil
	}
	return aws.String(s)
}

func pageSize() *int32 {
	return aws.Int32(listPageSize)
}

func environmentParameters(params []Parameter) []types.EnvironmentParameter {
	if len(params) == 0 {
		return nil
	}
	out := make([]types.EnvironmentParameter, 0, len(params))
	for _, p := range params {
		out = append(out, types.EnvironmentParameter{
			Name:  aws.String(p.Name),
			Value: aws.String(p.Value),
		})
	}
	return out
}

// identity joins the non-empty parts of a composite identifier.
func identity(parts ...string) string {
	nonEmpty := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, "/")
}
