package descriptors

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/conduit-lang/interop/internal/compiler/names"
	"github.com/conduit-lang/interop/internal/compiler/types"
	"github.com/conduit-lang/interop/internal/storage"
)

// ErrLocalClass is returned when a mock is requested for a local class.
var ErrLocalClass = errors.New("unresolved local class")

// ClassRequest identifies a missing class together with the arity of the
// class and of each outer class, innermost first.
type ClassRequest struct {
	ClassID             names.ClassID
	TypeParameterCounts []int
}

type requestKey struct {
	id     names.ClassID
	counts string
}

func (r ClassRequest) key() requestKey {
	parts := make([]string, len(r.TypeParameterCounts))
	for i, c := range r.TypeParameterCounts {
		parts[i] = strconv.Itoa(c)
	}
	return requestKey{id: r.ClassID, counts: strings.Join(parts, ",")}
}

func (k requestKey) request() ClassRequest {
	var counts []int
	if k.counts != "" {
		for _, p := range strings.Split(k.counts, ",") {
			n, _ := strconv.Atoi(p)
			counts = append(counts, n)
		}
	}
	return ClassRequest{ClassID: k.id, TypeParameterCounts: counts}
}

// NotFoundClasses creates stand-in descriptors for classes referenced from
// metadata but absent from the classpath. Requests with the same id and
// arities share one descriptor.
type NotFoundClasses struct {
	module           *ModuleDescriptor
	packageFragments *storage.MemoizedFunction[names.FqName, PackageFragmentDescriptor]
	classes          *storage.MemoizedFunction[requestKey, ClassDescriptor]
}

// NewNotFoundClasses creates the mock factory for module.
func NewNotFoundClasses(sm *storage.Manager, module *ModuleDescriptor) *NotFoundClasses {
	n := &NotFoundClasses{module: module}
	n.packageFragments = storage.NewMemoizedFunction(sm,
		func(_ context.Context, fq names.FqName) (PackageFragmentDescriptor, error) {
			return NewEmptyPackageFragment(module, fq), nil
		},
		storage.Label[PackageFragmentDescriptor]("not found package"),
	)
	n.classes = storage.NewMemoizedFunction(sm, n.createClass, storage.Label[ClassDescriptor]("not found class"))
	return n
}

// GetClass returns the mock for id with the given arities.
func (n *NotFoundClasses) GetClass(ctx context.Context, id names.ClassID, typeParameterCounts []int) (ClassDescriptor, error) {
	return n.classes.Get(ctx, ClassRequest{ClassID: id, TypeParameterCounts: typeParameterCounts}.key())
}

func (n *NotFoundClasses) createClass(ctx context.Context, key requestKey) (ClassDescriptor, error) {
	req := key.request()
	if req.ClassID.Local {
		return nil, fmt.Errorf("%w: %s", ErrLocalClass, req.ClassID)
	}

	var container Descriptor
	if outer, ok := req.ClassID.Outer(); ok {
		var rest []int
		if len(req.TypeParameterCounts) > 1 {
			rest = req.TypeParameterCounts[1:]
		}
		outerClass, err := n.GetClass(ctx, outer, rest)
		if err != nil {
			return nil, err
		}
		container = outerClass
	} else {
		frag, err := n.packageFragments.Get(ctx, req.ClassID.Package)
		if err != nil {
			return nil, err
		}
		container = frag
	}

	arity := 0
	if len(req.TypeParameterCounts) > 0 {
		arity = req.TypeParameterCounts[0]
	}
	// nested ids are treated as inner so the outer type can carry arguments
	return newMockClass(container, req.ClassID, req.ClassID.IsNested(), arity), nil
}

// MockClassDescriptor stands in for a missing class. It has no members,
// its only supertype is Any, and it is never mutated after creation.
type MockClassDescriptor struct {
	ClassBase
}

func newMockClass(container Descriptor, id names.ClassID, inner bool, arity int) *MockClassDescriptor {
	m := &MockClassDescriptor{ClassBase: NewClassBase(ClassHeader{
		ID:         id,
		Container:  container,
		Kind:       ClassKindClass,
		Modality:   ModalityFinal,
		Visibility: VisibilityPublic,
		Inner:      inner,
	})}
	params := make([]*TypeParameterDescriptor, arity)
	for i := range params {
		params[i] = NewTypeParameter(m, names.Name("T"+strconv.Itoa(i)), i)
	}
	m.SetTypeParameters(params)
	return m
}

// Supertypes is always [Any].
func (m *MockClassDescriptor) Supertypes(context.Context) ([]types.Type, error) {
	return []types.Type{types.Any(false)}, nil
}

func (m *MockClassDescriptor) MemberScope() MemberScope { return EmptyScope }
func (m *MockClassDescriptor) StaticScope() MemberScope { return EmptyScope }

// Constructors is always empty.
func (m *MockClassDescriptor) Constructors(context.Context) ([]*ConstructorDescriptor, error) {
	return nil, nil
}

// EnumEntries is always empty.
func (m *MockClassDescriptor) EnumEntries(context.Context) ([]names.Name, error) {
	return nil, nil
}

func (m *MockClassDescriptor) String() string {
	return fmt.Sprintf("class %s (not found)", m.Name())
}

// IsMissingDependency reports whether c stands in for an absent class.
func IsMissingDependency(c ClassDescriptor) bool {
	_, ok := c.(*MockClassDescriptor)
	return ok
}
