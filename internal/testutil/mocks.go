package testutil

import (
	"context"
	"sort"

	"github.com/lakespend/lakespend/internal/domain/resource"
	"github.com/lakespend/lakespend/internal/pkg/errors"
	"github.com/lakespend/lakespend/internal/platform/databricks"
)

// FakeAPI is an in-memory implementation of one resource type's workspace
// API. Error fields, when set, are returned by the matching call.
type FakeAPI struct {
	ResourceType resource.Type
	Resources    map[string]*resource.Resource

	GetError   error
	ListError  error
	WriteError error

	WriteCalls []WriteCall
}

// WriteCall records one WriteTags invocation
type WriteCall struct {
	ID   string
	Tags map[string]string
}

// NewFakeAPI creates a fake API seeded with the given resources
func NewFakeAPI(t resource.Type, resources ...*resource.Resource) *FakeAPI {
	f := &FakeAPI{
		ResourceType: t,
		Resources:    make(map[string]*resource.Resource),
	}
	for _, r := range resources {
		f.Resources[r.ID] = r
	}
	return f
}

func (f *FakeAPI) Type() resource.Type {
	return f.ResourceType
}

func (f *FakeAPI) Get(ctx context.Context, id string) (*resource.Resource, error) {
	if f.GetError != nil {
		return nil, f.GetError
	}
	res, ok := f.Resources[id]
	if !ok {
		return nil, errors.NotFound("resource")
	}
	copied := *res
	return &copied, nil
}

func (f *FakeAPI) List(ctx context.Context) ([]resource.Resource, error) {
	if f.ListError != nil {
		return nil, f.ListError
	}
	out := make([]resource.Resource, 0, len(f.Resources))
	for _, t := range sortedIDs(f.Resources) {
		out = append(out, *f.Resources[t])
	}
	return out, nil
}

func (f *FakeAPI) WriteTags(ctx context.Context, id string, tags map[string]string) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	res, ok := f.Resources[id]
	if !ok {
		return errors.NotFound("resource")
	}
	res.Tags = tags
	f.WriteCalls = append(f.WriteCalls, WriteCall{ID: id, Tags: tags})
	return nil
}

// FakePlatform implements the platform accessors over a set of fake APIs
type FakePlatform struct {
	Fakes map[resource.Type]*FakeAPI
}

// NewFakePlatform creates a platform with an empty fake API per supported type
func NewFakePlatform() *FakePlatform {
	fakes := make(map[resource.Type]*FakeAPI)
	for _, t := range resource.Types() {
		fakes[t] = NewFakeAPI(t)
	}
	return &FakePlatform{Fakes: fakes}
}

// Add seeds a resource into the matching fake API
func (p *FakePlatform) Add(res *resource.Resource) *FakePlatform {
	p.Fakes[res.Type].Resources[res.ID] = res
	return p
}

func (p *FakePlatform) ForType(t resource.Type) (databricks.API, error) {
	fake, ok := p.Fakes[t]
	if !ok {
		return nil, errors.Validation("unsupported resource type: "+string(t), nil)
	}
	return fake, nil
}

func (p *FakePlatform) APIs() []databricks.API {
	out := make([]databricks.API, 0, len(p.Fakes))
	for _, t := range resource.Types() {
		out = append(out, p.Fakes[t])
	}
	return out
}

// sortedIDs returns ids sorted for deterministic listings
func sortedIDs(m map[string]*resource.Resource) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
