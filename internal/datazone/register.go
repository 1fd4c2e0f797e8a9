package datazone

import (
	"fmt"

	"github.com/AltairaLabs/datazone-handlers/internal/engine"
)

// DefaultPolicies returns the retry policy of every resource type.
func DefaultPolicies() map[string]engine.Policy {
	return map[string]engine.Policy{
		TypeDomain:             engine.SlowPolicy,
		TypeProject:            engine.FastPolicy,
		TypeEnvironment:        engine.SlowPolicy,
		TypeDataSource:         engine.FastPolicy,
		TypeEnvironmentProfile: engine.FastPolicy,
		TypeProjectMembership:  engine.FastPolicy,
	}
}

// TypeNames returns the registry keys of the DataZone resource family.
func TypeNames() []string {
	return []string{
		TypeDataSource,
		TypeDomain,
		TypeEnvironment,
		TypeEnvironmentProfile,
		TypeProject,
		TypeProjectMembership,
	}
}

// Register binds a handler for every DataZone resource type to reg.
// overrides replaces the default policy of the types it names.
func Register(reg *engine.Registry, api API, overrides map[string]engine.Policy, opts ...engine.Option) error {
	policies := DefaultPolicies()
	for name, p := range overrides {
		if _, ok := policies[name]; !ok {
			return fmt.Errorf("policy override for unknown resource type %q", name)
		}
		policies[name] = p
	}

	invokers := make([]engine.Invoker, 0, len(policies))
	add := func(inv engine.Invoker, err error) error {
		if err != nil {
			return err
		}
		invokers = append(invokers, inv)
		return nil
	}
	if err := add(bind(newDomainResource(policies[TypeDomain]), &domainAPI{api: api}, opts)); err != nil {
		return err
	}
	if err := add(bind(newProjectResource(policies[TypeProject]), &projectAPI{api: api}, opts)); err != nil {
		return err
	}
	if err := add(bind(newEnvironmentResource(policies[TypeEnvironment]), &environmentAPI{api: api}, opts)); err != nil {
		return err
	}
	if err := add(bind(newDataSourceResource(policies[TypeDataSource]), &dataSourceAPI{api: api}, opts)); err != nil {
		return err
	}
	if err := add(bind(newEnvironmentProfileResource(policies[TypeEnvironmentProfile]),
		&environmentProfileAPI{api: api}, opts)); err != nil {
		return err
	}
	if err := add(bind(newProjectMembershipResource(policies[TypeProjectMembership]),
		&projectMembershipAPI{api: api}, opts)); err != nil {
		return err
	}

	for _, inv := range invokers {
		if err := reg.Register(inv); err != nil {
			return err
		}
	}
	return nil
}

func bind[M any](res *engine.Resource[M], api engine.API[M], opts []engine.Option) (engine.Invoker, error) {
	h, err := engine.NewHandler(res, api, opts...)
	if err != nil {
		return nil, err
	}
	return engine.Bind(h), nil
}
