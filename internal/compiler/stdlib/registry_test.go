package stdlib

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/interop/internal/compiler/interop"
	"github.com/conduit-lang/interop/internal/compiler/metadata"
)

func TestFiles_Sorted(t *testing.T) {
	files, err := Files()
	require.NoError(t, err)
	require.NotEmpty(t, files)
	for i := 1; i < len(files); i++ {
		assert.Less(t, files[i-1].Name, files[i].Name)
	}
}

func TestRecords_Valid(t *testing.T) {
	records, err := Records()
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, r := range records {
		assert.NoError(t, metadata.Validate(r), r.Package)
		assert.Equal(t, metadata.FormatVersion, r.Version)
	}
}

func TestPackages(t *testing.T) {
	pkgs, err := Packages()
	require.NoError(t, err)
	assert.Equal(t, []string{"kotlin", "kotlin.collections"}, pkgs)
}

func TestPlatformSources_Decode(t *testing.T) {
	sources, err := PlatformSources()
	require.NoError(t, err)
	require.Len(t, sources, 3)

	total := 0
	for _, f := range sources {
		assert.True(t, interop.IsPlatformFile(f.Name), f.Name)
		classes, err := interop.DecodePlatformClasses(f.Content)
		require.NoError(t, err, f.Name)
		total += len(classes)
	}
	index := make([]*interop.PlatformClass, 0, total)
	for _, f := range sources {
		classes, _ := interop.DecodePlatformClasses(f.Content)
		index = append(index, classes...)
	}
	all, err := interop.NewPlatformClasses(index...)
	require.NoError(t, err)
	assert.Equal(t, total, all.Len())
}
