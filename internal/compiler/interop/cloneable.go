package interop

import (
	"context"

	"github.com/conduit-lang/interop/internal/compiler/descriptors"
	"github.com/conduit-lang/interop/internal/compiler/names"
	"github.com/conduit-lang/interop/internal/compiler/types"
	"github.com/conduit-lang/interop/internal/storage"
)

// CloneName is the name of the clone function.
const CloneName names.Name = "clone"

var kotlinPackage = types.CloneableID.Package

// NewCloneableScope returns the member scope of Cloneable: a protected open
// clone() returning Any.
func NewCloneableScope(class descriptors.ClassDescriptor) descriptors.MemberScope {
	clone := descriptors.NewFunction(class, CloneName)
	clone.ReturnType = types.Any(false)
	clone.Modality = descriptors.ModalityOpen
	clone.Visibility = descriptors.VisibilityProtected
	clone.Origin = descriptors.OriginDeclared
	return descriptors.NewSimpleScope([]*descriptors.FunctionDescriptor{clone}, nil, nil)
}

// CloneableFactory creates the fictitious kotlin.Cloneable interface, which
// has no metadata of its own.
type CloneableFactory struct {
	class *storage.LazyValue[*descriptors.FixedClassDescriptor]
}

// NewCloneableFactory creates the factory; the class is built on first request.
func NewCloneableFactory(sm *storage.Manager, module *descriptors.ModuleDescriptor) *CloneableFactory {
	f := &CloneableFactory{}
	f.class = storage.NewLazyValue(sm, func(context.Context) (*descriptors.FixedClassDescriptor, error) {
		c := descriptors.NewFixedClass(descriptors.ClassHeader{
			ID:         types.CloneableID,
			Container:  descriptors.NewEmptyPackageFragment(module, kotlinPackage),
			Kind:       descriptors.ClassKindInterface,
			Modality:   descriptors.ModalityAbstract,
			Visibility: descriptors.VisibilityPublic,
		})
		c.Scope = NewCloneableScope(c)
		return c, nil
	}, storage.Label[*descriptors.FixedClassDescriptor]("kotlin/Cloneable"))
	return f
}

// CreateClass returns Cloneable for its id and nil otherwise.
func (f *CloneableFactory) CreateClass(ctx context.Context, id names.ClassID) (descriptors.ClassDescriptor, error) {
	if id != types.CloneableID {
		return nil, nil
	}
	return f.class.Get(ctx)
}

// ContributedClasses lists Cloneable in the kotlin package.
func (f *CloneableFactory) ContributedClasses(pkg names.FqName) []names.ClassID {
	if pkg == kotlinPackage {
		return []names.ClassID{types.CloneableID}
	}
	return nil
}
