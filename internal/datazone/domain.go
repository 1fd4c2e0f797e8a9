package datazone

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/datazone"
	"github.com/google/uuid"

	"github.com/AltairaLabs/datazone-handlers/internal/engine"
)

// TypeDomain is the registry key of the Domain resource type.
const TypeDomain = "AWS::DataZone::Domain"

// Domain is the model of a DataZone domain.
type Domain struct {
	ID                  string            `json:"id,omitempty"`
	Arn                 string            `json:"arn,omitempty"`
	Name                string            `json:"name"`
	Description         string            `json:"description,omitempty"`
	DomainExecutionRole string            `json:"domain_execution_role"`
	KmsKeyIdentifier    string            `json:"kms_key_identifier,omitempty"`
	PortalURL           string            `json:"portal_url,omitempty"`
	Status              string            `json:"status,omitempty"`
	Tags                map[string]string `json:"tags,omitempty"`
}

// Domains take minutes to provision, so they poll on the slow policy.
func newDomainResource(p engine.Policy) *engine.Resource[Domain] {
	return &engine.Resource[Domain]{
		TypeName: TypeDomain,
		Policy:   p,
		Create: engine.StatusSets{
			Stable:    []string{"AVAILABLE"},
			Transient: []string{"CREATING"},
			Failed:    []string{"CREATION_FAILED"},
		},
		Update: engine.StatusSets{
			Stable:    []string{"AVAILABLE"},
			Transient: []string{"CREATING"},
			Failed:    []string{"CREATION_FAILED"},
		},
		Delete: engine.StatusSets{
			Stable:    []string{"DELETED"},
			Transient: []string{"DELETING"},
			Failed:    []string{"DELETION_FAILED"},
		},
		Gone: []string{"DELETED"},
		Classifier: engine.NewClassifier(engine.Override{
			Operation: engine.OpCreate,
			Code:      engine.CodeValidation,
			Substring: "already exists",
			Kind:      engine.KindAlreadyExists,
		}),
		Identify: func(d Domain) string { return d.ID },
	}
}

type domainAPI struct {
	api API
}

func (a *domainAPI) Create(ctx context.Context, desired Domain) (Domain, error) {
	out, err := a.api.CreateDomain(ctx, &datazone.CreateDomainInput{
		Name:                aws.String(desired.Name),
		DomainExecutionRole: aws.String(desired.DomainExecutionRole),
		Description:         optString(desired.Description),
		KmsKeyIdentifier:    optString(desired.KmsKeyIdentifier),
		Tags:                buildResourceTags(desired.Tags),
		ClientToken:         aws.String(uuid.NewString()),
	})
	if err != nil {
		return Domain{}, err
	}
	created := desired
	created.ID = aws.ToString(out.Id)
	created.Arn = aws.ToString(out.Arn)
	created.PortalURL = aws.ToString(out.PortalUrl)
	created.Status = string(out.Status)
	return created, nil
}

func (a *domainAPI) Read(ctx context.Context, current Domain) (engine.Observation[Domain], error) {
	out, err := a.api.GetDomain(ctx, &datazone.GetDomainInput{
		Identifier: aws.String(current.ID),
	})
	if err != nil {
		return engine.Observation[Domain]{}, err
	}
	status := string(out.Status)
	return engine.Observation[Domain]{
		Model: Domain{
			ID:                  aws.ToString(out.Id),
			Arn:                 aws.ToString(out.Arn),
			Name:                aws.ToString(out.Name),
			Description:         aws.ToString(out.Description),
			DomainExecutionRole: aws.ToString(out.DomainExecutionRole),
			KmsKeyIdentifier:    aws.ToString(out.KmsKeyIdentifier),
			PortalURL:           aws.ToString(out.PortalUrl),
			Status:              status,
			Tags:                userTags(out.Tags),
		},
		Status:        status,
		StatusMessage: fmt.Sprintf("domain reported status %s", status),
	}, nil
}

func (a *domainAPI) Update(ctx context.Context, desired, previous Domain) (Domain, error) {
	_, err := a.api.UpdateDomain(ctx, &datazone.UpdateDomainInput{
		Identifier:          aws.String(previous.ID),
		Name:                optString(desired.Name),
		Description:         optString(desired.Description),
		DomainExecutionRole: optString(desired.DomainExecutionRole),
		ClientToken:         aws.String(uuid.NewString()),
	})
	if err != nil {
		return Domain{}, err
	}
	updated := desired
	updated.ID = previous.ID
	return updated, nil
}

func (a *domainAPI) Delete(ctx context.Context, current Domain) error {
	_, err := a.api.DeleteDomain(ctx, &datazone.DeleteDomainInput{
		Identifier:  aws.String(current.ID),
		ClientToken: aws.String(uuid.NewString()),
	})
	return err
}

func (a *domainAPI) List(ctx context.Context, _ Domain, nextToken string) ([]Domain, string, error) {
	out, err := a.api.ListDomains(ctx, &datazone.ListDomainsInput{
		MaxResults: pageSize(),
		NextToken:  optString(nextToken),
	})
	if err != nil {
		return nil, "", err
	}
	domains := make([]Domain, 0, len(out.Items))
	for _, item := range out.Items {
		domains = append(domains, Domain{
			ID:          aws.ToString(item.Id),
			Arn:         aws.ToString(item.Arn),
			Name:        aws.ToString(item.Name),
			Description: aws.ToString(item.Description),
			PortalURL:   aws.ToString(item.PortalUrl),
			Status:      string(item.Status),
		})
	}
	return domains, aws.ToString(out.NextToken), nil
}
