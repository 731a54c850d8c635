package source

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = "source_ip,source_port,dest_ip,dest_port,protocol,label\n"

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDiscoverRecursive(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.csv"), header)
	writeFile(t, filepath.Join(root, "nested", "deeper", "b.CSV"), header)
	writeFile(t, filepath.Join(root, "notes.txt"), "x")
	writeFile(t, filepath.Join(root, "out_top.parquet"), "x")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "dir.csv"), 0o755))

	paths, err := Discover(root)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(root, "a.csv"),
		filepath.Join(root, "nested", "deeper", "b.CSV"),
	}, paths)
}

func TestDiscoverSymlinks(t *testing.T) {
	root := t.TempDir()
	other := t.TempDir()
	writeFile(t, filepath.Join(other, "real.csv"), header)
	require.NoError(t, os.Symlink(filepath.Join(other, "real.csv"), filepath.Join(root, "link.csv")))

	paths, err := Discover(root)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "link.csv")}, paths)

	require.NoError(t, os.Symlink(filepath.Join(other, "missing.csv"), filepath.Join(root, "broken.csv")))
	_, err = Discover(root)
	assert.ErrorIs(t, err, ErrDiscovery)
}

func TestDiscoverInvalidRoot(t *testing.T) {
	root := t.TempDir()

	_, err := Discover(filepath.Join(root, "missing"))
	assert.ErrorIs(t, err, ErrInvalidRoot)

	file := filepath.Join(root, "file.csv")
	writeFile(t, file, header)
	_, err = Discover(file)
	assert.ErrorIs(t, err, ErrInvalidRoot)

	var pathErr *PathError
	require.True(t, errors.As(err, &pathErr))
	assert.Equal(t, file, pathErr.Path)
}

func TestDiscoverUnreadable(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("permissions are not enforced for root")
	}

	root := t.TempDir()
	nested := filepath.Join(root, "nested")
	writeFile(t, filepath.Join(nested, "a.csv"), header)

	require.NoError(t, os.Chmod(nested, 0))
	t.Cleanup(func() { os.Chmod(nested, 0o755) })
	_, err := Discover(root)
	assert.ErrorIs(t, err, ErrDiscovery)
	assert.NotErrorIs(t, err, ErrInvalidRoot)

	require.NoError(t, os.Chmod(root, 0))
	t.Cleanup(func() { os.Chmod(root, 0o755) })
	_, err = Discover(root)
	assert.ErrorIs(t, err, ErrInvalidRoot)
	assert.NotErrorIs(t, err, ErrDiscovery)

	var pathErr *PathError
	require.True(t, errors.As(err, &pathErr))
	assert.Equal(t, root, pathErr.Path)
}

func TestCollectNoInputFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "readme.md"), "x")

	_, err := Collect(root)
	assert.ErrorIs(t, err, ErrNoInputFiles)
}

func TestLoad(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	path := filepath.Join(t.TempDir(), "flows.csv")
	writeFile(t, path, "source_ip,source_port,dest_ip,dest_port,protocol,label,bytes\n"+
		"1.1.1.1,80,2.2.2.2,443,tcp,benign,10\n"+
		"3.3.3.3,22,4.4.4.4,22,tcp,malicious,\n"+
		"5.5.5.5,53,6.6.6.6,53,udp,,7\n")

	tbl, err := Load(path, WithAllocator(mem), WithChunkSize(2))
	require.NoError(t, err)
	defer tbl.Release()

	assert.Equal(t, path, tbl.Path)
	assert.EqualValues(t, 3, tbl.NumRows())

	schema := tbl.Schema()
	require.Equal(t, 7, schema.NumFields())
	assert.Equal(t, arrow.BinaryTypes.String, schema.Field(0).Type)
	assert.Equal(t, arrow.PrimitiveTypes.Int64, schema.Field(1).Type)
	assert.Equal(t, arrow.PrimitiveTypes.Int64, schema.Field(3).Type)
	assert.Equal(t, arrow.BinaryTypes.String, schema.Field(6).Type)

	var ports []int64
	for _, chunk := range tbl.Column(1).Data().Chunks() {
		ports = append(ports, chunk.(*array.Int64).Int64Values()...)
	}
	assert.Equal(t, []int64{80, 22, 53}, ports)
}

func TestLoadHeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	writeFile(t, path, header)

	tbl, err := Load(path)
	require.NoError(t, err)
	defer tbl.Release()
	assert.EqualValues(t, 0, tbl.NumRows())
	assert.Equal(t, 6, tbl.Schema().NumFields())
}

func TestLoadErrors(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{name: "empty", content: ""},
		{name: "duplicate column", content: "source_ip,source_ip\n1,2\n"},
		{name: "bad port", content: header + "1.1.1.1,http,2.2.2.2,443,tcp,ok\n"},
		{name: "missing port", content: header + "1.1.1.1,,2.2.2.2,443,tcp,ok\n"},
		{name: "field count", content: header + "1.1.1.1,80,2.2.2.2\n"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
			defer mem.AssertSize(t, 0)

			path := filepath.Join(t.TempDir(), "bad.csv")
			writeFile(t, path, c.content)

			_, err := Load(path, WithAllocator(mem))
			assert.ErrorIs(t, err, ErrParse)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.csv"))
	assert.ErrorIs(t, err, ErrParse)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCollectReleasesOnFailure(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.csv"), header+"1.1.1.1,80,2.2.2.2,443,tcp,ok\n")
	writeFile(t, filepath.Join(root, "b.csv"), header+"1.1.1.1,x,2.2.2.2,443,tcp,ok\n")

	tables, err := Collect(root, WithAllocator(mem))
	assert.ErrorIs(t, err, ErrParse)
	assert.Nil(t, tables)
}

func TestCollect(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.csv"), header+"1.1.1.1,80,2.2.2.2,443,tcp,ok\n")
	writeFile(t, filepath.Join(root, "sub", "b.csv"), header+"1.1.1.1,80,2.2.2.2,443,tcp,ok\n3.3.3.3,1,4.4.4.4,2,udp,ok\n")

	tables, err := Collect(root, WithAllocator(mem))
	require.NoError(t, err)
	defer Release(tables)

	require.Len(t, tables, 2)
	var rows int64
	for _, tbl := range tables {
		rows += tbl.NumRows()
	}
	assert.EqualValues(t, 3, rows)
}
